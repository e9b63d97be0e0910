package progress

import (
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

// Pesos del guardado: imágenes 0-40, padre escrito 70, variaciones 70-100.
const (
	imagesWeight   = 40
	productDone    = 70
	variationsSpan = 30
)

var order = []domain.Stage{
	domain.StageUploadingImages,
	domain.StageCreatingProduct,
	domain.StageCreatingVariations,
	domain.StageComplete,
}

func rank(s domain.Stage) int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

// Observer recibe cada estado publicado.
type Observer func(domain.ProgressState)

// Project calcula el estado a partir de la etapa y los contadores. No guarda
// nada: el mismo input da siempre el mismo estado.
func Project(stage domain.Stage, imagesUploaded, totalImages, variationsCreated, totalVariations int) domain.ProgressState {
	s := domain.ProgressState{
		Stage:             stage,
		ImagesUploaded:    clamp(imagesUploaded, totalImages),
		TotalImages:       max(totalImages, 0),
		VariationsCreated: clamp(variationsCreated, totalVariations),
		TotalVariations:   max(totalVariations, 0),
	}
	switch stage {
	case domain.StageUploadingImages:
		s.Percentage = ratio(imagesWeight, s.ImagesUploaded, s.TotalImages)
	case domain.StageCreatingProduct:
		s.Percentage = imagesWeight
	case domain.StageCreatingVariations:
		s.Percentage = productDone + ratio(variationsSpan, s.VariationsCreated, s.TotalVariations)
	case domain.StageComplete:
		s.Percentage = 100
	}
	return s
}

func ratio(weight, done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(weight) * float64(done) / float64(total)))
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if limit >= 0 && v > limit {
		return limit
	}
	return v
}

// Tracker es la máquina de etapas del guardado. Las transiciones las dispara
// quien orquesta el guardado; nunca se saltea una etapa: avanzar varias de
// golpe publica cada etapa intermedia.
type Tracker struct {
	mu        sync.Mutex
	stage     domain.Stage
	imgDone   int
	imgTotal  int
	varDone   int
	varTotal  int
	last      domain.ProgressState
	observers []Observer
}

func NewTracker(observers ...Observer) *Tracker {
	return &Tracker{observers: observers}
}

func (t *Tracker) Subscribe(o Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

func (t *Tracker) State() domain.ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Tracker) StartUploads(total int) {
	t.update(domain.StageUploadingImages, func() { t.imgTotal = total; t.imgDone = 0 })
}

func (t *Tracker) ImagesUploaded(done, total int) {
	t.update(domain.StageUploadingImages, func() { t.imgDone = done; t.imgTotal = total })
}

func (t *Tracker) StartProduct() {
	t.update(domain.StageCreatingProduct, nil)
}

// ProductSaved marca el padre como escrito: el porcentaje salta a 70.
func (t *Tracker) ProductSaved(totalVariations int) {
	t.update(domain.StageCreatingVariations, func() { t.varTotal = totalVariations; t.varDone = 0 })
}

func (t *Tracker) VariationsCreated(done int) {
	t.update(domain.StageCreatingVariations, func() { t.varDone = done })
}

func (t *Tracker) Complete() {
	t.update(domain.StageComplete, func() {
		t.imgDone = t.imgTotal
		t.varDone = t.varTotal
	})
}

// Fail congela el porcentaje y publica la etapa de error.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	if t.stage == domain.StageError || t.stage == domain.StageComplete {
		t.mu.Unlock()
		return
	}
	t.stage = domain.StageError
	st := t.last
	st.Stage = domain.StageError
	st.Error = domain.PublicMessage(err)
	t.last = st
	obs := append([]Observer(nil), t.observers...)
	t.mu.Unlock()

	log.Warn().Err(err).Int("pct", st.Percentage).Msg("guardado fallido")
	for _, o := range obs {
		o(st)
	}
}

func (t *Tracker) update(to domain.Stage, mutate func()) {
	t.mu.Lock()
	if t.stage == domain.StageError {
		t.mu.Unlock()
		return
	}
	cur, target := rank(t.stage), rank(to)
	if target < cur {
		t.mu.Unlock()
		log.Warn().Str("from", string(t.stage)).Str("to", string(to)).Msg("transición de progreso ignorada")
		return
	}

	var emitted []domain.ProgressState
	for r := cur + 1; r < target; r++ {
		t.stage = order[r]
		emitted = append(emitted, t.project())
	}
	t.stage = to
	if mutate != nil {
		mutate()
	}
	st := t.project()
	emitted = append(emitted, st)
	t.last = st
	obs := append([]Observer(nil), t.observers...)
	t.mu.Unlock()

	for _, s := range emitted {
		log.Debug().Str("stage", string(s.Stage)).Int("pct", s.Percentage).Msg("progreso")
		for _, o := range obs {
			o(s)
		}
	}
}

func (t *Tracker) project() domain.ProgressState {
	return Project(t.stage, t.imgDone, t.imgTotal, t.varDone, t.varTotal)
}
