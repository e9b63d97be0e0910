package postgres

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/catalogsync/internal/domain"
)

// --- Variaciones ---

// SubmitVariationBatch aplica el lote ítem por ítem, cada uno en su propia
// transacción, y devuelve el resultado de cada ítem. Sólo devuelve error si
// el lote no se pudo procesar en absoluto.
func (r *ProductRepo) SubmitVariationBatch(ctx context.Context, productID int64, b domain.SyncBatch) (domain.BatchResponse, error) {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&domain.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return domain.BatchResponse{}, err
	}
	if count == 0 {
		return domain.BatchResponse{}, domain.ErrNotFound
	}

	resp := domain.BatchResponse{
		Create: make([]domain.ItemResult, 0, len(b.Create)),
		Update: make([]domain.ItemResult, 0, len(b.Update)),
		Delete: make([]domain.ItemResult, 0, len(b.Delete)),
	}
	// los borrados van primero para liberar SKUs que una fila nueva o
	// actualizada puede reutilizar
	for _, id := range b.Delete {
		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Where("id = ? AND product_id = ?", id, productID).Delete(&domain.Variation{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil
		})
		resp.Delete = append(resp.Delete, itemResult(id, err))
	}
	for _, u := range b.Update {
		err := db.Transaction(func(tx *gorm.DB) error {
			var v domain.Variation
			if err := tx.First(&v, "id = ? AND product_id = ?", u.ID, productID).Error; err != nil {
				return err
			}
			applyPayload(&v, u.VariationPayload)
			return tx.Save(&v).Error
		})
		resp.Update = append(resp.Update, itemResult(u.ID, err))
	}
	for _, c := range b.Create {
		v := domain.Variation{ProductID: productID}
		applyPayload(&v, c)
		err := db.Transaction(func(tx *gorm.DB) error { return tx.Create(&v).Error })
		resp.Create = append(resp.Create, itemResult(v.ID, err))
	}

	if n := resp.Failed(); n > 0 {
		log.Warn().Int64("product_id", productID).Int("failed", n).Msg("lote con ítems fallidos")
	}
	return resp, nil
}

func applyPayload(v *domain.Variation, p domain.VariationPayload) {
	v.SKU = p.SKU
	v.Attributes = p.Attributes
	v.RegularPrice = p.RegularPrice
	v.SalePrice = p.SalePrice
	v.ManageStock = p.ManageStock
	v.StockQuantity = p.StockQuantity
	v.StockStatus = p.StockStatus
	v.ImageID = nil
	if p.Image != nil && p.Image.ID > 0 {
		id := p.Image.ID
		v.ImageID = &id
	}
}

func itemResult(id int64, err error) domain.ItemResult {
	if err == nil {
		return domain.ItemResult{ID: id}
	}
	ie := &domain.ItemError{Code: "internal", Message: err.Error()}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ie.Code, ie.Message = "not_found", "variación inexistente"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		ie.Code, ie.Message = "duplicate_sku", "SKU ya usado por otra variación"
	}
	return domain.ItemResult{ID: id, Error: ie}
}

func (r *ProductRepo) FetchVariations(ctx context.Context, productID int64) ([]domain.PersistedVariation, error) {
	var list []domain.Variation
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}

	ids := []int64{}
	for _, v := range list {
		if v.ImageID != nil {
			ids = append(ids, *v.ImageID)
		}
	}
	urls := map[int64]string{}
	if len(ids) > 0 {
		var imgs []domain.Image
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&imgs).Error; err != nil {
			return nil, err
		}
		for _, im := range imgs {
			urls[im.ID] = im.URL
		}
	}

	out := make([]domain.PersistedVariation, 0, len(list))
	for _, v := range list {
		pv := domain.PersistedVariation{
			ID:            v.ID,
			Attributes:    v.Attributes,
			SKU:           v.SKU,
			RegularPrice:  v.RegularPrice,
			SalePrice:     v.SalePrice,
			ManageStock:   v.ManageStock,
			StockQuantity: v.StockQuantity,
			StockStatus:   v.StockStatus,
		}
		if v.ImageID != nil {
			pv.Image = &domain.PersistedImageRef{ID: *v.ImageID, URL: urls[*v.ImageID]}
		}
		out = append(out, pv)
	}
	return out, nil
}
