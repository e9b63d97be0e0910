package upload

import (
	"fmt"

	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/variation"
)

type slot struct {
	parent    bool
	index     int
	signature string
}

// Plan junta las imágenes locales pendientes del padre y de las variaciones
// en una sola lista. Las del padre van primero.
type Plan struct {
	Files  []domain.LocalFile
	slots  []slot
	parent []domain.ImageAsset
}

func NewPlan(parentImages []domain.ImageAsset, variations []domain.VariationDraft) *Plan {
	p := &Plan{parent: parentImages}
	for i, img := range parentImages {
		if img.Kind() == domain.ImageLocal {
			p.Files = append(p.Files, *img.Local)
			p.slots = append(p.slots, slot{parent: true, index: i})
		}
	}
	for i, v := range variations {
		if v.Image.Kind() == domain.ImageLocal {
			p.Files = append(p.Files, *v.Image.Local)
			p.slots = append(p.slots, slot{index: i, signature: variation.Signature(v.Attributes)})
		}
	}
	return p
}

func (p *Plan) Total() int { return len(p.Files) }

// ParentPending cuenta las imágenes del padre que faltan subir.
func (p *Plan) ParentPending() int {
	n := 0
	for _, s := range p.slots {
		if s.parent {
			n++
		}
	}
	return n
}

// Resolve reparte los resultados de UploadAll: la galería del padre en orden
// (persistidas y recién subidas) y la resolución por fila de variación.
func (p *Plan) Resolve(results []domain.UploadedImage) ([]domain.PersistedImageRef, domain.ImageResolution, error) {
	if len(results) != len(p.slots) {
		return nil, domain.ImageResolution{}, fmt.Errorf("resultados de subida: esperaba %d, llegaron %d", len(p.slots), len(results))
	}
	gallery := make([]domain.PersistedImageRef, len(p.parent))
	uploaded := make([]bool, len(p.parent))
	res := domain.ImageResolution{
		ByIndex:     map[int]domain.PersistedImageRef{},
		BySignature: map[string]domain.PersistedImageRef{},
	}
	for k, s := range p.slots {
		ref := results[k].Ref()
		if s.parent {
			gallery[s.index] = ref
			uploaded[s.index] = true
			continue
		}
		res.ByIndex[s.index] = ref
		if _, dup := res.BySignature[s.signature]; !dup {
			res.BySignature[s.signature] = ref
		}
	}

	out := make([]domain.PersistedImageRef, 0, len(p.parent))
	for i, img := range p.parent {
		switch {
		case uploaded[i]:
			out = append(out, gallery[i])
		case img.Kind() == domain.ImagePersisted:
			out = append(out, *img.Persisted)
		}
	}
	return out, res, nil
}
