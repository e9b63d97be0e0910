package domain

import (
	"fmt"
	"strings"
)

type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

func (s StockStatus) Valid() bool {
	switch s {
	case StockInStock, StockOutOfStock, StockOnBackorder:
		return true
	}
	return false
}

// VariationDraft es una fila editada en la sesión. PersistedID == 0 indica
// que todavía no existe en el servidor.
type VariationDraft struct {
	LocalID       string                     `json:"local_id"`
	PersistedID   int64                      `json:"id"`
	Attributes    []AttributeValueAssignment `json:"attributes"`
	SKU           string                     `json:"sku"`
	RegularPrice  float64                    `json:"regular_price"`
	SalePrice     float64                    `json:"sale_price"`
	ManageStock   bool                       `json:"manage_stock"`
	StockQuantity int                        `json:"stock_quantity"`
	StockStatus   StockStatus                `json:"stock_status"`
	Image         ImageAsset                 `json:"-"`
}

// Check valida la forma de la fila; no mira el esquema del padre.
func (v VariationDraft) Check() error {
	if v.PersistedID < 0 {
		return fmt.Errorf("%w: id de variación negativo", ErrInvalidInput)
	}
	if v.RegularPrice < 0 || v.SalePrice < 0 {
		return fmt.Errorf("%w: precio negativo", ErrInvalidInput)
	}
	if v.SalePrice > 0 && v.RegularPrice > 0 && v.SalePrice > v.RegularPrice {
		return fmt.Errorf("%w: precio de oferta mayor al regular", ErrInvalidInput)
	}
	if v.StockQuantity < 0 {
		return fmt.Errorf("%w: stock negativo", ErrInvalidInput)
	}
	if v.StockStatus != "" && !v.StockStatus.Valid() {
		return fmt.Errorf("%w: stock_status %q", ErrInvalidInput, v.StockStatus)
	}
	for _, a := range v.Attributes {
		if strings.TrimSpace(a.AttributeName) == "" && a.AttributeID <= 0 {
			return fmt.Errorf("%w: asignación sin atributo", ErrInvalidInput)
		}
	}
	return nil
}

// PersistedVariation es una variación conocida por el servidor al iniciar la
// sesión. El motor nunca la modifica.
type PersistedVariation struct {
	ID            int64                      `json:"id"`
	Attributes    []AttributeValueAssignment `json:"attributes"`
	SKU           string                     `json:"sku"`
	RegularPrice  float64                    `json:"regular_price"`
	SalePrice     float64                    `json:"sale_price"`
	ManageStock   bool                       `json:"manage_stock"`
	StockQuantity int                        `json:"stock_quantity"`
	StockStatus   StockStatus                `json:"stock_status"`
	Image         *PersistedImageRef         `json:"image"`
}

// DraftFromSnapshot arma una fila editable a partir de una variación persistida.
func DraftFromSnapshot(p PersistedVariation) VariationDraft {
	attrs := make([]AttributeValueAssignment, len(p.Attributes))
	copy(attrs, p.Attributes)
	d := VariationDraft{
		LocalID:       fmt.Sprintf("persisted-%d", p.ID),
		PersistedID:   p.ID,
		Attributes:    attrs,
		SKU:           p.SKU,
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		ManageStock:   p.ManageStock,
		StockQuantity: p.StockQuantity,
		StockStatus:   p.StockStatus,
	}
	if p.Image != nil {
		d.Image = PersistedImage(*p.Image)
	}
	return d
}
