package domain

type ImageID struct {
	ID int64 `json:"id"`
}

// VariationPayload es el cuerpo de una variación en el lote. Image nil se
// envía como null y borra la imagen en el servidor.
type VariationPayload struct {
	SKU           string                     `json:"sku"`
	RegularPrice  float64                    `json:"regular_price"`
	SalePrice     float64                    `json:"sale_price"`
	ManageStock   bool                       `json:"manage_stock"`
	StockQuantity int                        `json:"stock_quantity"`
	StockStatus   StockStatus                `json:"stock_status"`
	Attributes    []AttributeValueAssignment `json:"attributes"`
	Image         *ImageID                   `json:"image"`
}

type VariationUpdate struct {
	ID int64 `json:"id"`
	VariationPayload
}

// SyncBatch es el único pedido create/update/delete de una sesión de guardado.
type SyncBatch struct {
	Create []VariationPayload `json:"create"`
	Update []VariationUpdate  `json:"update"`
	Delete []int64            `json:"delete"`
}

func (b SyncBatch) Empty() bool {
	return len(b.Create) == 0 && len(b.Update) == 0 && len(b.Delete) == 0
}

// Writes cuenta las variaciones que el lote crea o actualiza.
func (b SyncBatch) Writes() int { return len(b.Create) + len(b.Update) }

type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ItemResult struct {
	ID    int64      `json:"id"`
	Error *ItemError `json:"error,omitempty"`
}

// BatchResponse es la respuesta por ítem de submitVariationBatch.
type BatchResponse struct {
	Create []ItemResult `json:"create"`
	Update []ItemResult `json:"update"`
	Delete []ItemResult `json:"delete"`
}

// FirstError devuelve el primer ítem con error, priorizando create, luego
// update y por último delete. nil si todos salieron bien.
func (r BatchResponse) FirstError() *PartialBatchError {
	groups := []struct {
		kind  BatchOp
		items []ItemResult
	}{
		{BatchCreate, r.Create},
		{BatchUpdate, r.Update},
		{BatchDelete, r.Delete},
	}
	for _, g := range groups {
		for i, it := range g.items {
			if it.Error == nil {
				continue
			}
			return &PartialBatchError{
				Op:      g.kind,
				Index:   i,
				ID:      it.ID,
				Code:    it.Error.Code,
				Message: it.Error.Message,
			}
		}
	}
	return nil
}

// Failed cuenta los ítems con error.
func (r BatchResponse) Failed() int {
	n := 0
	for _, items := range [][]ItemResult{r.Create, r.Update, r.Delete} {
		for _, it := range items {
			if it.Error != nil {
				n++
			}
		}
	}
	return n
}
