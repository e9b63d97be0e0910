package variation

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

type buildOptions struct {
	matchBySignature bool
}

type Option func(*buildOptions)

// WithSignatureMatching permite que una fila nueva (sin id) tome el id de una
// variación persistida con la misma firma que ninguna otra fila reclama.
func WithSignatureMatching() Option {
	return func(o *buildOptions) { o.matchBySignature = true }
}

// BuildBatch concilia los borradores con el snapshot persistido y arma el
// lote create/update/delete. Es puro: no llama a la red.
//
// parent es la respuesta de la escritura del padre recién terminada; sus
// atributos son los canónicos para el remapeo de identidades.
func BuildBatch(drafts []domain.VariationDraft, snapshot []domain.PersistedVariation, parent domain.ProductRecord, images domain.ImageResolution, opts ...Option) (domain.SyncBatch, error) {
	var o buildOptions
	for _, fn := range opts {
		fn(&o)
	}

	batch := domain.SyncBatch{
		Create: []domain.VariationPayload{},
		Update: []domain.VariationUpdate{},
		Delete: []int64{},
	}

	skus := make([]string, len(drafts))
	for i, d := range drafts {
		skus[i] = d.SKU
	}
	skus = SanitizeSKUs(parent.SKU, skus)

	snapIDs := make(map[int64]struct{}, len(snapshot))
	for _, p := range snapshot {
		snapIDs[p.ID] = struct{}{}
	}

	// ids que alguna fila reclama explícitamente; la adopción por firma no
	// puede tomarlos
	explicit := map[int64]struct{}{}
	for _, d := range drafts {
		if d.PersistedID > 0 {
			explicit[d.PersistedID] = struct{}{}
		}
	}
	var bySig map[string]int64
	if o.matchBySignature {
		bySig = map[string]int64{}
		for _, p := range snapshot {
			if _, taken := explicit[p.ID]; taken {
				continue
			}
			sig := Signature(p.Attributes)
			if _, dup := bySig[sig]; !dup {
				bySig[sig] = p.ID
			}
		}
	}

	claimed := map[int64]struct{}{}
	for i, d := range drafts {
		sig := Signature(d.Attributes)
		img, err := resolveImage(i, d, sig, images)
		if err != nil {
			return domain.SyncBatch{}, err
		}
		attrs := RemapAttributes(d.Attributes, parent.Attributes)
		payload := domain.VariationPayload{
			SKU:           skus[i],
			RegularPrice:  d.RegularPrice,
			SalePrice:     d.SalePrice,
			ManageStock:   d.ManageStock,
			StockQuantity: d.StockQuantity,
			StockStatus:   d.StockStatus,
			Attributes:    attrs,
			Image:         img,
		}
		if payload.StockStatus == "" {
			payload.StockStatus = domain.StockInStock
		}

		id := d.PersistedID
		// el snapshot guarda nombres y opciones canónicos; la adopción compara
		// contra la fila ya remapeada
		if id <= 0 && bySig != nil {
			canon := Signature(attrs)
			if adopted, ok := bySig[canon]; ok {
				id = adopted
				delete(bySig, canon)
			}
		}
		if id <= 0 {
			batch.Create = append(batch.Create, payload)
			continue
		}
		if _, dup := claimed[id]; dup {
			log.Warn().Int64("variation_id", id).Int("row", i).Msg("variación repetida en el borrador, se ignora")
			continue
		}
		claimed[id] = struct{}{}
		if _, known := snapIDs[id]; !known {
			log.Debug().Int64("variation_id", id).Msg("update de variación ausente del snapshot")
		}
		batch.Update = append(batch.Update, domain.VariationUpdate{ID: id, VariationPayload: payload})
	}

	seen := map[int64]struct{}{}
	for _, p := range snapshot {
		if p.ID <= 0 {
			continue
		}
		if _, keep := claimed[p.ID]; keep {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		batch.Delete = append(batch.Delete, p.ID)
	}

	log.Debug().
		Int("create", len(batch.Create)).
		Int("update", len(batch.Update)).
		Int("delete", len(batch.Delete)).
		Msg("lote de variaciones armado")
	return batch, nil
}

// RemapAttributes reemplaza id y nombre de cada asignación por los del
// atributo canónico devuelto por el servidor. Las que no encuentran
// atributo quedan como estaban.
func RemapAttributes(assignments []domain.AttributeValueAssignment, canonical []domain.Attribute) []domain.AttributeValueAssignment {
	out := make([]domain.AttributeValueAssignment, len(assignments))
	for i, as := range assignments {
		out[i] = as
		ca, ok := findCanonical(canonical, as)
		if !ok {
			continue
		}
		out[i].AttributeID = ca.ID
		out[i].AttributeName = ca.Name
		if !as.IsWildcard() {
			out[i].Option = ca.CanonicalOption(as.Option)
		}
	}
	return out
}

// findCanonical prefiere el id; si el id no está en la respuesta (atributo que
// era sólo del cliente) cae al nombre.
func findCanonical(canonical []domain.Attribute, as domain.AttributeValueAssignment) (domain.Attribute, bool) {
	if as.AttributeID > 0 {
		for _, ca := range canonical {
			if ca.ID == as.AttributeID {
				return ca, true
			}
		}
	}
	byName := as
	byName.AttributeID = 0
	for _, ca := range canonical {
		if ca.Matches(byName) {
			return ca, true
		}
	}
	return domain.Attribute{}, false
}

func resolveImage(idx int, d domain.VariationDraft, sig string, images domain.ImageResolution) (*domain.ImageID, error) {
	switch d.Image.Kind() {
	case domain.ImagePersisted:
		return &domain.ImageID{ID: d.Image.Persisted.ID}, nil
	case domain.ImageLocal:
		ref, ok := images.Lookup(idx, sig)
		if !ok {
			return nil, fmt.Errorf("variación %d: imagen %q sin subir", idx+1, d.Image.Local.Name)
		}
		return &domain.ImageID{ID: ref.ID}, nil
	}
	return nil, nil
}
