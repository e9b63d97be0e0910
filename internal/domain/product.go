package domain

import (
	"time"
)

type ProductType string

const (
	ProductSimple   ProductType = "simple"
	ProductVariable ProductType = "variable"
)

// Product, ProductAttribute, Variation e Image son las filas persistidas.
type Product struct {
	ID           int64       `gorm:"primaryKey"`
	Slug         string      `gorm:"uniqueIndex;size:140"`
	Name         string      `gorm:"size:180"`
	SKU          string      `gorm:"size:100;index"`
	Type         ProductType `gorm:"type:varchar(20);default:'simple'"`
	Description  string      `gorm:"type:text"`
	RegularPrice float64     `gorm:"type:decimal(12,2);default:0"`
	Active       bool        `gorm:"default:true;index"`
	ImageIDs     []int64     `gorm:"type:jsonb;serializer:json"`
	Attributes   []ProductAttribute
	Variations   []Variation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ProductAttribute struct {
	ID        int64    `gorm:"primaryKey"`
	ProductID int64    `gorm:"index"`
	Name      string   `gorm:"size:120"`
	Slug      string   `gorm:"size:140"`
	Options   []string `gorm:"type:jsonb;serializer:json"`
	Visible   bool
	Variation bool     `gorm:"default:false"`
	Position  int      `gorm:"type:int;default:0"`
}

type Variation struct {
	ID            int64                      `gorm:"primaryKey"`
	ProductID     int64                      `gorm:"index"`
	SKU           string                     `gorm:"size:100"`
	Attributes    []AttributeValueAssignment `gorm:"type:jsonb;serializer:json"`
	RegularPrice  float64                    `gorm:"type:decimal(12,2);default:0"`
	SalePrice     float64                    `gorm:"type:decimal(12,2);default:0"`
	ManageStock   bool                       `gorm:"default:false"`
	StockQuantity int                        `gorm:"type:int;default:0"`
	StockStatus   StockStatus                `gorm:"type:varchar(20);default:'instock'"`
	ImageID       *int64                     `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Image struct {
	ID          int64  `gorm:"primaryKey"`
	Key         string `gorm:"size:255;index"`
	URL         string `gorm:"size:255"`
	Name        string `gorm:"size:180"`
	Alt         string `gorm:"size:140"`
	ContentType string `gorm:"size:80"`
	Size        int64
	CreatedAt   time.Time
}

// ProductDraft es el producto padre tal como lo editó el usuario.
type ProductDraft struct {
	Name         string       `json:"name"`
	SKU          string       `json:"sku"`
	Type         ProductType  `json:"type"`
	Description  string       `json:"description"`
	RegularPrice float64      `json:"regular_price"`
	Attributes   []Attribute  `json:"attributes"`
	Images       []ImageAsset `json:"-"`
}

// VariationAttributes devuelve los atributos marcados para variaciones.
func (p ProductDraft) VariationAttributes() []Attribute {
	out := make([]Attribute, 0, len(p.Attributes))
	for _, a := range p.Attributes {
		if a.UsedForVariation {
			out = append(out, a)
		}
	}
	return out
}

// ProductPayload es lo que se envía en createProduct/updateProduct.
type ProductPayload struct {
	Name         string      `json:"name"`
	SKU          string      `json:"sku"`
	Type         ProductType `json:"type"`
	Description  string      `json:"description"`
	RegularPrice float64     `json:"regular_price"`
	Attributes   []Attribute `json:"attributes"`
	Images       []ImageID   `json:"images"`
}

// ProductRecord es la respuesta del servidor tras escribir el padre.
type ProductRecord struct {
	ID         int64       `json:"id"`
	Slug       string      `json:"slug"`
	Name       string      `json:"name"`
	SKU        string      `json:"sku"`
	Type       ProductType `json:"type"`
	Attributes []Attribute `json:"attributes"`
	ImageIDs   []int64     `json:"image_ids"`
}
