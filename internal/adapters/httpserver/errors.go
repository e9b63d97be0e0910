package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

func statusFor(err error) int {
	var ve *domain.ValidationError
	var ue *domain.UploadError
	var pe *domain.PersistenceError
	var be *domain.PartialBatchError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCanceled):
		return http.StatusConflict
	case errors.As(err, &ue), errors.As(err, &pe), errors.As(err, &be):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError responde con el mensaje público y, si aplica, el detalle de
// validación o del ítem fallido del lote.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := map[string]any{"status": "error", "message": domain.PublicMessage(err)}

	var ve *domain.ValidationError
	var be *domain.PartialBatchError
	switch {
	case errors.As(err, &ve):
		body["errors"] = ve.Issues
	case errors.As(err, &be):
		body["item"] = map[string]any{"op": be.Op, "index": be.Index, "id": be.ID, "code": be.Code, "message": be.Message}
	}

	ev := log.Warn()
	if code >= 500 {
		ev = log.Error()
	}
	ev.Err(err).Int("status", code).Str("path", r.URL.Path).Str("request_id", requestIDFrom(r.Context())).Msg("request fallido")
	writeJSON(w, code, body)
}
