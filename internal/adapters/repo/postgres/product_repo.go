package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/phenrril/catalogsync/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) CreateProduct(ctx context.Context, in domain.ProductPayload) (domain.ProductRecord, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, in.Name, 0)
		if err != nil {
			return err
		}
		p = domain.Product{
			Slug:         slug,
			Name:         in.Name,
			SKU:          in.SKU,
			Type:         in.Type,
			Description:  in.Description,
			RegularPrice: in.RegularPrice,
			Active:       true,
			ImageIDs:     imageIDs(in.Images),
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		attrs, err := syncAttributes(tx, p.ID, nil, in.Attributes)
		if err != nil {
			return err
		}
		p.Attributes = attrs
		return nil
	})
	if err != nil {
		return domain.ProductRecord{}, err
	}
	return toRecord(p), nil
}

func (r *ProductRepo) UpdateProduct(ctx context.Context, id int64, in domain.ProductPayload) (domain.ProductRecord, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Attributes").First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(in.Name)) {
			slug, err := uniqueSlug(tx, in.Name, p.ID)
			if err != nil {
				return err
			}
			p.Slug = slug
		}
		p.Name = in.Name
		p.SKU = in.SKU
		p.Type = in.Type
		p.Description = in.Description
		p.RegularPrice = in.RegularPrice
		p.ImageIDs = imageIDs(in.Images)
		current := p.Attributes
		p.Attributes = nil
		if err := tx.Omit("Attributes", "Variations").Save(&p).Error; err != nil {
			return err
		}
		attrs, err := syncAttributes(tx, p.ID, current, in.Attributes)
		if err != nil {
			return err
		}
		p.Attributes = attrs
		return nil
	})
	if err != nil {
		return domain.ProductRecord{}, err
	}
	return toRecord(p), nil
}

func (r *ProductRepo) FindProduct(ctx context.Context, id int64) (domain.ProductRecord, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Attributes", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductRecord{}, domain.ErrNotFound
		}
		return domain.ProductRecord{}, err
	}
	return toRecord(p), nil
}

// syncAttributes deja en la base exactamente los atributos pedidos: actualiza
// los que coinciden por id o nombre, crea los nuevos y borra el resto.
func syncAttributes(tx *gorm.DB, productID int64, current []domain.ProductAttribute, wanted []domain.Attribute) ([]domain.ProductAttribute, error) {
	kept := map[int64]struct{}{}
	out := make([]domain.ProductAttribute, 0, len(wanted))
	for pos, a := range wanted {
		row := domain.ProductAttribute{ProductID: productID}
		for _, c := range current {
			if _, used := kept[c.ID]; used {
				continue
			}
			if (a.ID > 0 && c.ID == a.ID) || (a.ID <= 0 && strings.EqualFold(c.Name, a.Name)) {
				row = c
				break
			}
		}
		row.Name = strings.TrimSpace(a.Name)
		row.Slug = a.Slug
		if row.Slug == "" {
			row.Slug = domain.Slugify(row.Name)
		}
		row.Options = append([]string{}, a.Options...)
		row.Visible = a.Visible
		row.Variation = a.UsedForVariation
		row.Position = pos
		if err := tx.Save(&row).Error; err != nil {
			return nil, fmt.Errorf("atributo %q: %w", row.Name, err)
		}
		kept[row.ID] = struct{}{}
		out = append(out, row)
	}
	for _, c := range current {
		if _, ok := kept[c.ID]; ok {
			continue
		}
		if err := tx.Delete(&domain.ProductAttribute{}, "id = ?", c.ID).Error; err != nil {
			return nil, err
		}
	}
	return out, nil
}

func uniqueSlug(tx *gorm.DB, name string, selfID int64) (string, error) {
	base := domain.Slugify(name)
	if base == "" {
		base = "producto"
	}
	slug := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&domain.Product{}).Where("slug = ? AND id <> ?", slug, selfID).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i+1)
	}
}

func imageIDs(in []domain.ImageID) []int64 {
	out := make([]int64, 0, len(in))
	for _, i := range in {
		if i.ID > 0 {
			out = append(out, i.ID)
		}
	}
	return out
}

func toRecord(p domain.Product) domain.ProductRecord {
	attrs := make([]domain.Attribute, len(p.Attributes))
	for i, a := range p.Attributes {
		attrs[i] = domain.Attribute{
			ID:               a.ID,
			Name:             a.Name,
			Slug:             a.Slug,
			Options:          a.Options,
			Visible:          a.Visible,
			UsedForVariation: a.Variation,
		}
	}
	return domain.ProductRecord{
		ID:         p.ID,
		Slug:       p.Slug,
		Name:       p.Name,
		SKU:        p.SKU,
		Type:       p.Type,
		Attributes: attrs,
		ImageIDs:   p.ImageIDs,
	}
}

// --- Imágenes ---

func (r *ProductRepo) SaveImage(ctx context.Context, img *domain.Image) error {
	return r.db.WithContext(ctx).Create(img).Error
}
