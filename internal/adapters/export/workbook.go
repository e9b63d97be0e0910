package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/catalogsync/internal/domain"
)

const (
	sheetVariations = "Variaciones"
	sheetCreate     = "Crear"
	sheetUpdate     = "Actualizar"
	sheetDelete     = "Borrar"
)

type row struct {
	id      int64
	attrs   []domain.AttributeValueAssignment
	sku     string
	regular float64
	sale    float64
	manage  bool
	qty     int
	status  domain.StockStatus
	image   string
}

// VariationsWorkbook vuelca las variaciones persistidas de un producto, una
// columna por atributo de variación.
func VariationsWorkbook(p domain.ProductRecord, list []domain.PersistedVariation) (*excelize.File, error) {
	rows := make([]row, 0, len(list))
	for _, v := range list {
		r := row{id: v.ID, attrs: v.Attributes, sku: v.SKU, regular: v.RegularPrice, sale: v.SalePrice,
			manage: v.ManageStock, qty: v.StockQuantity, status: v.StockStatus}
		if v.Image != nil {
			r.image = v.Image.URL
		}
		rows = append(rows, r)
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetVariations); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetVariations, attributeColumns(p), rows); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// BatchWorkbook muestra un lote sin enviarlo: una hoja por operación.
func BatchWorkbook(p domain.ProductRecord, b domain.SyncBatch) (*excelize.File, error) {
	cols := attributeColumns(p)
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetCreate); err != nil {
		return nil, err
	}

	create := make([]row, 0, len(b.Create))
	for _, c := range b.Create {
		create = append(create, payloadRow(0, c))
	}
	update := make([]row, 0, len(b.Update))
	for _, u := range b.Update {
		update = append(update, payloadRow(u.ID, u.VariationPayload))
	}

	if err := writeSheet(f, sheetCreate, cols, create); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(sheetUpdate); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSheet(f, sheetUpdate, cols, update); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(sheetDelete); err != nil {
		_ = f.Close()
		return nil, err
	}
	_ = f.SetCellValue(sheetDelete, "A1", "ID")
	for i, id := range b.Delete {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetCellValue(sheetDelete, cell, id)
	}
	return f, nil
}

// Write serializa el libro y lo cierra.
func Write(f *excelize.File, w io.Writer) error {
	defer f.Close()
	return f.Write(w)
}

func payloadRow(id int64, p domain.VariationPayload) row {
	r := row{id: id, attrs: p.Attributes, sku: p.SKU, regular: p.RegularPrice, sale: p.SalePrice,
		manage: p.ManageStock, qty: p.StockQuantity, status: p.StockStatus}
	if p.Image != nil {
		r.image = fmt.Sprintf("#%d", p.Image.ID)
	}
	return r
}

func attributeColumns(p domain.ProductRecord) []domain.Attribute {
	out := make([]domain.Attribute, 0, len(p.Attributes))
	for _, a := range p.Attributes {
		if a.UsedForVariation {
			out = append(out, a)
		}
	}
	return out
}

func writeSheet(f *excelize.File, sheet string, attrs []domain.Attribute, rows []row) error {
	header := []interface{}{"ID", "SKU"}
	for _, a := range attrs {
		header = append(header, a.Name)
	}
	header = append(header, "Precio", "Oferta", "Gestiona stock", "Stock", "Estado", "Imagen")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		values := []interface{}{idCell(r.id), r.sku}
		for _, a := range attrs {
			values = append(values, optionFor(a, r.attrs))
		}
		values = append(values, r.regular, r.sale, siNo(r.manage), r.qty, string(r.status), r.image)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// optionFor devuelve la opción asignada al atributo; vacío es comodín.
func optionFor(a domain.Attribute, assigned []domain.AttributeValueAssignment) string {
	for _, as := range assigned {
		if a.Matches(as) {
			if as.IsWildcard() {
				return "Cualquiera"
			}
			return as.Option
		}
	}
	return ""
}

func idCell(id int64) interface{} {
	if id <= 0 {
		return ""
	}
	return id
}

func siNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}

// Filename arma un nombre de archivo estable para la descarga.
func Filename(p domain.ProductRecord, suffix string) string {
	base := p.Slug
	if strings.TrimSpace(base) == "" {
		base = fmt.Sprintf("producto-%d", p.ID)
	}
	return base + "-" + suffix + ".xlsx"
}
