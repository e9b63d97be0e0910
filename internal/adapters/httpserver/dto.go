package httpserver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phenrril/catalogsync/internal/domain"
)

// fileDTO es una imagen en el cuerpo JSON: persistida (id) o local (data en
// base64, opcionalmente como data URL).
type fileDTO struct {
	ID          int64  `json:"id" validate:"gte=0"`
	URL         string `json:"url"`
	Filename    string `json:"filename" validate:"required_with=Data,max=180"`
	ContentType string `json:"content_type" validate:"max=80"`
	Data        string `json:"data"`
}

func (f *fileDTO) asset() (domain.ImageAsset, error) {
	if f == nil {
		return domain.ImageAsset{}, nil
	}
	if f.Data != "" {
		data, ct, err := decodeData(f.Data)
		if err != nil {
			return domain.ImageAsset{}, fmt.Errorf("%w: imagen %q: %v", domain.ErrInvalidInput, f.Filename, err)
		}
		if f.ContentType != "" {
			ct = f.ContentType
		}
		return domain.LocalImage(domain.LocalFile{Name: f.Filename, ContentType: ct, Data: data}), nil
	}
	if f.ID > 0 {
		return domain.PersistedImage(domain.PersistedImageRef{ID: f.ID, URL: f.URL}), nil
	}
	return domain.ImageAsset{}, nil
}

func decodeData(raw string) ([]byte, string, error) {
	ct := ""
	if strings.HasPrefix(raw, "data:") {
		head, body, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(head, ";base64") {
			return nil, "", errors.New("data URL inválida")
		}
		ct = strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64")
		raw = body
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", err
	}
	return b, ct, nil
}

type attributeDTO struct {
	ID               int64    `json:"id" validate:"gte=0"`
	Name             string   `json:"name" validate:"required,max=120"`
	Options          []string `json:"options" validate:"dive,required,max=120"`
	Visible          bool     `json:"visible"`
	UsedForVariation bool     `json:"used_for_variation"`
}

type productDTO struct {
	Name         string         `json:"name" validate:"required,max=200"`
	SKU          string         `json:"sku" validate:"max=100"`
	Type         string         `json:"type" validate:"omitempty,oneof=simple variable"`
	Description  string         `json:"description"`
	RegularPrice float64        `json:"regular_price" validate:"gte=0"`
	Attributes   []attributeDTO `json:"attributes" validate:"dive"`
	Images       []fileDTO      `json:"images" validate:"dive"`
}

type variationDTO struct {
	LocalID       string                            `json:"local_id"`
	ID            int64                             `json:"id" validate:"gte=0"`
	Attributes    []domain.AttributeValueAssignment `json:"attributes"`
	SKU           string                            `json:"sku" validate:"max=100"`
	RegularPrice  float64                           `json:"regular_price" validate:"gte=0"`
	SalePrice     float64                           `json:"sale_price" validate:"gte=0"`
	ManageStock   bool                              `json:"manage_stock"`
	StockQuantity int                               `json:"stock_quantity" validate:"gte=0"`
	StockStatus   string                            `json:"stock_status" validate:"omitempty,oneof=instock outofstock onbackorder"`
	Image         *fileDTO                          `json:"image" validate:"omitempty"`
}

// saveRequest.SnapshotIDs son los ids de variación que el cliente leyó al
// abrir el producto. Si no vienen se usa el estado actual de la base.
type saveRequest struct {
	Product     productDTO     `json:"product"`
	Variations  []variationDTO `json:"variations" validate:"dive"`
	SnapshotIDs *[]int64       `json:"snapshot_ids"`
}

type validateRequest struct {
	Attributes []attributeDTO `json:"attributes" validate:"dive"`
	Variations []variationDTO `json:"variations" validate:"dive"`
}

type previewRequest struct {
	SKU        string         `json:"sku"`
	Variations []variationDTO `json:"variations" validate:"dive"`
}

type combinationsRequest struct {
	Selections []domain.AttributeSelection        `json:"selections" validate:"dive"`
	Existing   [][]domain.AttributeValueAssignment `json:"existing"`
}

func toAttributes(in []attributeDTO) ([]domain.Attribute, error) {
	out := make([]domain.Attribute, 0, len(in))
	for _, a := range in {
		attr, err := domain.NewAttribute(a.ID, a.Name, a.Options, a.Visible, a.UsedForVariation)
		if err != nil {
			return nil, err
		}
		out = append(out, attr)
	}
	return out, nil
}

func toDrafts(in []variationDTO) ([]domain.VariationDraft, error) {
	out := make([]domain.VariationDraft, 0, len(in))
	for i, v := range in {
		img, err := v.Image.asset()
		if err != nil {
			return nil, fmt.Errorf("variación %d: %w", i+1, err)
		}
		localID := v.LocalID
		if localID == "" {
			localID = uuid.NewString()
		}
		out = append(out, domain.VariationDraft{
			LocalID:       localID,
			PersistedID:   v.ID,
			Attributes:    trimAssignments(v.Attributes),
			SKU:           strings.TrimSpace(v.SKU),
			RegularPrice:  v.RegularPrice,
			SalePrice:     v.SalePrice,
			ManageStock:   v.ManageStock,
			StockQuantity: v.StockQuantity,
			StockStatus:   domain.StockStatus(v.StockStatus),
			Image:         img,
		})
	}
	return out, nil
}

func trimAssignments(in []domain.AttributeValueAssignment) []domain.AttributeValueAssignment {
	out := make([]domain.AttributeValueAssignment, len(in))
	for i, as := range in {
		as.AttributeName = strings.TrimSpace(as.AttributeName)
		as.Option = strings.TrimSpace(as.Option)
		out[i] = as
	}
	return out
}

func (p productDTO) toDraft() (domain.ProductDraft, error) {
	attrs, err := toAttributes(p.Attributes)
	if err != nil {
		return domain.ProductDraft{}, err
	}
	images := make([]domain.ImageAsset, 0, len(p.Images))
	for i := range p.Images {
		a, err := p.Images[i].asset()
		if err != nil {
			return domain.ProductDraft{}, err
		}
		if a.Kind() != domain.ImageAbsent {
			images = append(images, a)
		}
	}
	return domain.ProductDraft{
		Name:         strings.TrimSpace(p.Name),
		SKU:          strings.TrimSpace(p.SKU),
		Type:         domain.ProductType(p.Type),
		Description:  p.Description,
		RegularPrice: p.RegularPrice,
		Attributes:   attrs,
		Images:       images,
	}, nil
}

// fieldErrors traduce los errores del validador a campo -> mensaje.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["_"] = "cuerpo inválido"
		return out
	}
	for _, fe := range ve {
		out[fe.Namespace()] = messageForTag(fe.Tag(), fe.Param())
	}
	return out
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required", "required_with":
		return "campo obligatorio"
	case "gte":
		return "debe ser mayor o igual a " + param
	case "max":
		return "máximo " + param
	case "oneof":
		return "valor no permitido, opciones: " + param
	default:
		return "valor inválido"
	}
}
