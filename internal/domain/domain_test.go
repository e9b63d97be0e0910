package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttribute(t *testing.T) {
	a, err := NewAttribute(0, "  Talle Grande ", []string{"S", " M ", "S"}, true, true)
	require.NoError(t, err)
	assert.Equal(t, "Talle Grande", a.Name)
	assert.Equal(t, "talle-grande", a.Slug)
	assert.Equal(t, []string{"S", "M"}, a.Options)
	assert.False(t, a.Persisted())

	_, err = NewAttribute(0, " ", nil, false, false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewAttribute(1, "Color", []string{"Red", ""}, false, true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAttributeMatches(t *testing.T) {
	persisted := Attribute{ID: 3, Name: "Color"}
	assert.True(t, persisted.Matches(AttributeValueAssignment{AttributeID: 3, AttributeName: "otro"}))
	assert.False(t, persisted.Matches(AttributeValueAssignment{AttributeID: 4, AttributeName: "Color"}))
	assert.True(t, persisted.Matches(AttributeValueAssignment{AttributeName: "color"}))

	local := Attribute{Name: "Size"}
	assert.True(t, local.Matches(AttributeValueAssignment{AttributeID: 9, AttributeName: " SIZE "}))
}

func TestVariationDraftCheck(t *testing.T) {
	ok := VariationDraft{RegularPrice: 10, SalePrice: 8, StockStatus: StockOnBackorder}
	assert.NoError(t, ok.Check())

	bad := []VariationDraft{
		{PersistedID: -1},
		{RegularPrice: -1},
		{RegularPrice: 5, SalePrice: 6},
		{StockQuantity: -2},
		{StockStatus: "agotado"},
		{Attributes: []AttributeValueAssignment{{Option: "Red"}}},
	}
	for i, v := range bad {
		assert.ErrorIs(t, v.Check(), ErrInvalidInput, "caso %d", i)
	}
}

func TestDraftFromSnapshot(t *testing.T) {
	p := PersistedVariation{ID: 8, SKU: "A", Attributes: []AttributeValueAssignment{{AttributeID: 1, Option: "Red"}},
		Image: &PersistedImageRef{ID: 3, URL: "/x.png"}}
	d := DraftFromSnapshot(p)
	assert.Equal(t, int64(8), d.PersistedID)
	assert.Equal(t, ImagePersisted, d.Image.Kind())

	d.Attributes[0].Option = "Blue"
	assert.Equal(t, "Red", p.Attributes[0].Option)
}

func TestFirstError_Priority(t *testing.T) {
	fail := &ItemError{Code: "x", Message: "falló"}
	r := BatchResponse{
		Create: []ItemResult{{ID: 1}},
		Update: []ItemResult{{ID: 5}, {ID: 6, Error: fail}},
		Delete: []ItemResult{{ID: 9, Error: fail}},
	}
	e := r.FirstError()
	require.NotNil(t, e)
	assert.Equal(t, BatchUpdate, e.Op)
	assert.Equal(t, 1, e.Index)
	assert.Equal(t, int64(6), e.ID)
	assert.Equal(t, 2, r.Failed())

	assert.Nil(t, BatchResponse{Create: []ItemResult{{ID: 1}}}.FirstError())
}

func TestSyncBatch(t *testing.T) {
	assert.True(t, SyncBatch{}.Empty())
	b := SyncBatch{Create: []VariationPayload{{}}, Delete: []int64{3}}
	assert.False(t, b.Empty())
	assert.Equal(t, 1, b.Writes())
}

func TestImageResolutionLookup(t *testing.T) {
	r := ImageResolution{
		ByIndex:     map[int]PersistedImageRef{0: {ID: 1}},
		BySignature: map[string]PersistedImageRef{"sig": {ID: 2}},
	}
	ref, ok := r.Lookup(0, "sig")
	assert.True(t, ok)
	assert.Equal(t, int64(1), ref.ID)
	ref, ok = r.Lookup(4, "sig")
	assert.True(t, ok)
	assert.Equal(t, int64(2), ref.ID)
	_, ok = r.Lookup(4, "")
	assert.False(t, ok)
}

func TestPublicMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ValidationError{Issues: []ValidationIssue{{Index: 0, Message: "falta Color"}}}, "Revisá las variaciones: variación 1: falta Color"},
		{&UploadError{Name: "a.png", Err: errors.New("x")}, `No se pudo subir la imagen "a.png". Reintentá el guardado.`},
		{fmt.Errorf("guardar: %w", ErrCanceled), "Guardado cancelado."},
		{ErrNotFound, "Producto no encontrado."},
		{errors.New("boom"), "Error inesperado al guardar."},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PublicMessage(c.err))
	}
	assert.Empty(t, PublicMessage(nil))
	assert.Contains(t, PublicMessage(&PartialBatchError{Op: BatchCreate, Message: "sku"}), "Algunas variaciones no se guardaron")
}
