package usecase

import (
	"context"
	"fmt"

	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/upload"
	"github.com/phenrril/catalogsync/internal/variation"
)

type ProductUC struct {
	Products interface {
		domain.ProductReader
		domain.VariationFetcher
	}
}

func (uc *ProductUC) Get(ctx context.Context, id int64) (domain.ProductRecord, error) {
	if id <= 0 {
		return domain.ProductRecord{}, fmt.Errorf("%w: product id", domain.ErrInvalidInput)
	}
	return uc.Products.FindProduct(ctx, id)
}

// Snapshot trae las variaciones persistidas; es el lado "antes" del diff.
func (uc *ProductUC) Snapshot(ctx context.Context, productID int64) ([]domain.PersistedVariation, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id", domain.ErrInvalidInput)
	}
	return uc.Products.FetchVariations(ctx, productID)
}

// SessionSnapshot es el snapshot acotado a las variaciones que el cliente
// tenía cargadas al abrir la sesión. Las que creó otro usuario después no
// entran, así el diff no las borra; las que ya no existen tampoco.
func (uc *ProductUC) SessionSnapshot(ctx context.Context, productID int64, loaded []int64) ([]domain.PersistedVariation, error) {
	current, err := uc.Snapshot(ctx, productID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(loaded))
	for _, id := range loaded {
		seen[id] = struct{}{}
	}
	out := make([]domain.PersistedVariation, 0, len(loaded))
	for _, v := range current {
		if _, ok := seen[v.ID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- Combinaciones ---

type CombinationPreview struct {
	Combinations [][]domain.AttributeValueAssignment `json:"combinations"`
	Total        int                                 `json:"total"`
	Skipped      int                                 `json:"skipped"`
}

func (uc *ProductUC) PreviewCombinations(selections []domain.AttributeSelection, existing [][]domain.AttributeValueAssignment) CombinationPreview {
	total := variation.TotalCombinations(selections)
	var combos [][]domain.AttributeValueAssignment
	if len(existing) > 0 {
		combos = variation.MissingCombinations(selections, existing)
	} else {
		combos = variation.Combinations(selections)
	}
	skipped := len(variation.Combinations(selections)) - len(combos)
	return CombinationPreview{Combinations: combos, Total: total, Skipped: skipped}
}

// PreviewBatch calcula el lote que enviaría un guardado sin escribir nada y
// devuelve el producto leído, con parentSKU aplicado. Las imágenes locales
// figuran con id 0 porque todavía no se subieron.
func (uc *ProductUC) PreviewBatch(ctx context.Context, productID int64, drafts []domain.VariationDraft, parentSKU string) (domain.ProductRecord, domain.SyncBatch, error) {
	record, err := uc.Get(ctx, productID)
	if err != nil {
		return domain.ProductRecord{}, domain.SyncBatch{}, err
	}
	if parentSKU != "" {
		record.SKU = parentSKU
	}
	snap, err := uc.Snapshot(ctx, productID)
	if err != nil {
		return domain.ProductRecord{}, domain.SyncBatch{}, err
	}
	if err := variation.Validate(drafts, record.Attributes).Err(); err != nil {
		return domain.ProductRecord{}, domain.SyncBatch{}, err
	}
	plan := upload.NewPlan(nil, drafts)
	_, images, err := plan.Resolve(make([]domain.UploadedImage, plan.Total()))
	if err != nil {
		return domain.ProductRecord{}, domain.SyncBatch{}, err
	}
	batch, err := variation.BuildBatch(drafts, snap, record, images)
	if err != nil {
		return domain.ProductRecord{}, domain.SyncBatch{}, err
	}
	return record, batch, nil
}
