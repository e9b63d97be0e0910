package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/adapters/export"
	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/progress"
	"github.com/phenrril/catalogsync/internal/usecase"
	"github.com/phenrril/catalogsync/internal/variation"
)

const saveSessionHeader = "X-Save-Session"

type Server struct {
	router   *mux.Router
	products *usecase.ProductUC
	saver    *usecase.SaveUC
	hub      *ProgressHub
	validate *validator.Validate
	maxBody  int64
}

type Deps struct {
	Products *usecase.ProductUC
	Saver    *usecase.SaveUC
	Hub      *ProgressHub
	// UploadsDir vacío no sirve archivos locales (S3 o Cloudinary).
	UploadsDir    string
	UploadsPrefix string
	MaxBodyBytes  int64
}

func New(d Deps) http.Handler {
	s := &Server{
		router:   mux.NewRouter(),
		products: d.Products,
		saver:    d.Saver,
		hub:      d.Hub,
		validate: validator.New(),
		maxBody:  d.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = 64 << 20
	}
	s.routes(d.UploadsDir, d.UploadsPrefix)
	return Chain(s.router, RequestID, Recovery, Logging)
}

func (s *Server) routes(uploadsDir, uploadsPrefix string) {
	r := s.router
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if uploadsDir != "" {
		prefix := "/" + strings.Trim(uploadsPrefix, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(uploadsDir))))
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/combinations", s.apiCombinations).Methods(http.MethodPost)
	api.HandleFunc("/validate", s.apiValidate).Methods(http.MethodPost)
	api.HandleFunc("/products/save", s.apiSave).Methods(http.MethodPost)
	api.HandleFunc("/products/{id:[0-9]+}", s.apiProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/save", s.apiSave).Methods(http.MethodPut)
	api.HandleFunc("/products/{id:[0-9]+}/variations", s.apiVariations).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/variations.xlsx", s.apiVariationsXLSX).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/batch-preview.xlsx", s.apiBatchPreview).Methods(http.MethodPost)

	r.HandleFunc("/ws/progress/{session}", s.wsProgress).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// --- Combinaciones y validación ---

func (s *Server) apiCombinations(w http.ResponseWriter, r *http.Request) {
	var req combinationsRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.products.PreviewCombinations(req.Selections, req.Existing))
}

func (s *Server) apiValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	attrs, err := toAttributes(req.Attributes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	drafts, err := toDrafts(req.Variations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, variation.Validate(drafts, attrs))
}

// --- Productos ---

func (s *Server) apiProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) apiVariations(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if _, err := s.products.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.products.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list, "total": len(list)})
}

func (s *Server) apiVariationsXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.products.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := export.VariationsWorkbook(p, list)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeXLSX(w, export.Filename(p, "variaciones"))
	if err := export.Write(f, w); err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("xlsx variaciones")
	}
}

func (s *Server) apiBatchPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req previewRequest
	if !s.decode(w, r, &req) {
		return
	}
	drafts, err := toDrafts(req.Variations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, batch, err := s.products.PreviewBatch(r.Context(), id, drafts, strings.TrimSpace(req.SKU))
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := export.BatchWorkbook(p, batch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeXLSX(w, export.Filename(p, "lote"))
	if err := export.Write(f, w); err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("xlsx lote")
	}
}

// apiSave corre el guardado completo. Con X-Save-Session el progreso se
// publica en /ws/progress/{session}.
func (s *Server) apiSave(w http.ResponseWriter, r *http.Request) {
	var id int64
	if _, has := mux.Vars(r)["id"]; has {
		var ok bool
		if id, ok = productID(w, r); !ok {
			return
		}
	}
	var observers []progress.Observer
	if session := strings.TrimSpace(r.Header.Get(saveSessionHeader)); session != "" {
		if _, err := uuid.Parse(session); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "message": "X-Save-Session inválido"})
			return
		}
		observers = append(observers, func(st domain.ProgressState) { s.hub.Publish(session, st) })
	}

	var req saveRequest
	if !s.decode(w, r, &req) {
		return
	}
	draft, err := req.Product.toDraft()
	if err != nil {
		writeError(w, r, err)
		return
	}
	drafts, err := toDrafts(req.Variations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var snapshot []domain.PersistedVariation
	switch {
	case id > 0 && req.SnapshotIDs != nil:
		snapshot, err = s.products.SessionSnapshot(r.Context(), id, *req.SnapshotIDs)
	case id > 0:
		snapshot, err = s.products.Snapshot(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.saver.Save(r.Context(), usecase.SaveRequest{
		ProductID:  id,
		Product:    draft,
		Variations: drafts,
		Snapshot:   snapshot,
	}, observers...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := http.StatusOK
	if id == 0 {
		code = http.StatusCreated
	}
	writeJSON(w, code, res)
}

func (s *Server) wsProgress(w http.ResponseWriter, r *http.Request) {
	session := mux.Vars(r)["session"]
	if _, err := uuid.Parse(session); err != nil {
		http.Error(w, "session", http.StatusBadRequest)
		return
	}
	s.hub.Serve(w, r, session)
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"status": "error", "message": "cuerpo demasiado grande"})
			return false
		}
		msg := "json inválido"
		if errors.Is(err, io.EOF) {
			msg = "cuerpo vacío"
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "message": msg})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "error", "message": "datos inválidos", "fields": fieldErrors(err)})
		return false
	}
	return true
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeXLSX(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
