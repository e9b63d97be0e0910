package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/variation"
)

type fakeUploader struct {
	mu     sync.Mutex
	next   int64
	names  []string
	failOn string
	fails  int
}

func (f *fakeUploader) UploadImage(_ context.Context, file domain.LocalFile) (domain.UploadedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, file.Name)
	// fails < 0 falla siempre, fails > 0 falla esa cantidad de veces
	if file.Name == f.failOn && f.fails != 0 {
		if f.fails > 0 {
			f.fails--
		}
		return domain.UploadedImage{}, errors.New("storage down")
	}
	f.next++
	return domain.UploadedImage{ID: 500 + f.next, URL: "/uploads/" + file.Name, Name: file.Name}, nil
}

type fakeCatalog struct {
	calls      []string
	created    *domain.ProductPayload
	updatedID  int64
	batch      *domain.SyncBatch
	productErr error
	batchErr   error
	itemErrors map[domain.BatchOp]int
	variations []domain.PersistedVariation
}

func (c *fakeCatalog) record(p domain.ProductPayload, id int64) domain.ProductRecord {
	attrs := make([]domain.Attribute, len(p.Attributes))
	for i, a := range p.Attributes {
		attrs[i] = a
		if a.ID <= 0 {
			attrs[i].ID = int64(100 + i)
		}
	}
	return domain.ProductRecord{ID: id, Name: p.Name, SKU: p.SKU, Type: p.Type, Attributes: attrs}
}

func (c *fakeCatalog) CreateProduct(_ context.Context, p domain.ProductPayload) (domain.ProductRecord, error) {
	c.calls = append(c.calls, "create")
	if c.productErr != nil {
		return domain.ProductRecord{}, c.productErr
	}
	c.created = &p
	return c.record(p, 42), nil
}

func (c *fakeCatalog) UpdateProduct(_ context.Context, id int64, p domain.ProductPayload) (domain.ProductRecord, error) {
	c.calls = append(c.calls, "update")
	if c.productErr != nil {
		return domain.ProductRecord{}, c.productErr
	}
	c.updatedID = id
	c.created = &p
	return c.record(p, id), nil
}

func (c *fakeCatalog) SubmitVariationBatch(_ context.Context, productID int64, b domain.SyncBatch) (domain.BatchResponse, error) {
	c.calls = append(c.calls, "batch")
	c.batch = &b
	if c.batchErr != nil {
		return domain.BatchResponse{}, c.batchErr
	}
	resp := domain.BatchResponse{}
	for i := range b.Create {
		resp.Create = append(resp.Create, domain.ItemResult{ID: int64(900 + i)})
	}
	for _, u := range b.Update {
		resp.Update = append(resp.Update, domain.ItemResult{ID: u.ID})
	}
	for _, id := range b.Delete {
		resp.Delete = append(resp.Delete, domain.ItemResult{ID: id})
	}
	for op, idx := range c.itemErrors {
		ie := &domain.ItemError{Code: "invalid", Message: fmt.Sprintf("%s item failed", op)}
		switch op {
		case domain.BatchCreate:
			resp.Create[idx].Error = ie
		case domain.BatchUpdate:
			resp.Update[idx].Error = ie
		case domain.BatchDelete:
			resp.Delete[idx].Error = ie
		}
	}
	return resp, nil
}

func (c *fakeCatalog) FindProduct(_ context.Context, id int64) (domain.ProductRecord, error) {
	return domain.ProductRecord{ID: id, Attributes: colorSize()}, nil
}

func (c *fakeCatalog) FetchVariations(_ context.Context, _ int64) ([]domain.PersistedVariation, error) {
	return c.variations, nil
}

func colorSize() []domain.Attribute {
	return []domain.Attribute{
		{ID: 0, Name: "Color", Options: []string{"Red", "Blue"}, UsedForVariation: true},
		{ID: 0, Name: "Size", Options: []string{"S", "M"}, UsedForVariation: true},
	}
}

func generatedDrafts() []domain.VariationDraft {
	combos := variation.Combinations([]domain.AttributeSelection{
		{AttributeName: "Color", Values: []string{"Red", "Blue"}},
		{AttributeName: "Size", Values: []string{"S", "M"}},
	})
	out := make([]domain.VariationDraft, len(combos))
	for i, c := range combos {
		out[i] = domain.VariationDraft{Attributes: c, RegularPrice: 25}
	}
	return out
}

func recorder() (*[]domain.ProgressState, func(domain.ProgressState)) {
	var got []domain.ProgressState
	return &got, func(s domain.ProgressState) { got = append(got, s) }
}

func TestSave_NewVariableProduct(t *testing.T) {
	cat := &fakeCatalog{}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}
	got, obs := recorder()

	res, err := uc.Save(context.Background(), SaveRequest{
		Product:    domain.ProductDraft{Name: "Remera", SKU: "REM", Attributes: colorSize()},
		Variations: generatedDrafts(),
	}, obs)
	require.NoError(t, err)

	assert.Len(t, res.Batch.Create, 4)
	assert.Empty(t, res.Batch.Update)
	assert.Empty(t, res.Batch.Delete)
	assert.Equal(t, []string{"create", "batch"}, cat.calls)
	assert.Equal(t, domain.ProductVariable, cat.created.Type)
	// ids asignados por el servidor a atributos nuevos
	assert.Equal(t, int64(100), res.Batch.Create[0].Attributes[0].AttributeID)

	assert.Equal(t, domain.StageComplete, res.Progress.Stage)
	assert.Equal(t, 100, res.Progress.Percentage)
	var seen []domain.Stage
	for _, s := range *got {
		if len(seen) == 0 || seen[len(seen)-1] != s.Stage {
			seen = append(seen, s.Stage)
		}
	}
	assert.Equal(t, []domain.Stage{
		domain.StageUploadingImages,
		domain.StageCreatingProduct,
		domain.StageCreatingVariations,
		domain.StageComplete,
	}, seen)
}

func TestSave_ExistingProductDiff(t *testing.T) {
	cat := &fakeCatalog{}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}
	attrs := []domain.Attribute{{ID: 1, Name: "Color", Options: []string{"Red", "Blue", "Green"}, UsedForVariation: true}}
	row := func(id int64, opt string) domain.VariationDraft {
		return domain.VariationDraft{PersistedID: id, Attributes: []domain.AttributeValueAssignment{{AttributeID: 1, AttributeName: "Color", Option: opt}}}
	}

	res, err := uc.Save(context.Background(), SaveRequest{
		ProductID:  7,
		Product:    domain.ProductDraft{Name: "Taza", Attributes: attrs},
		Variations: []domain.VariationDraft{row(10, "Red"), row(11, "Blue"), row(0, "Green")},
		Snapshot:   []domain.PersistedVariation{{ID: 10}, {ID: 11}, {ID: 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), cat.updatedID)
	require.Len(t, res.Batch.Update, 2)
	assert.Equal(t, int64(10), res.Batch.Update[0].ID)
	assert.Equal(t, int64(11), res.Batch.Update[1].ID)
	assert.Len(t, res.Batch.Create, 1)
	assert.Equal(t, []int64{12}, res.Batch.Delete)
}

func TestSave_ValidationBlocksNetwork(t *testing.T) {
	cat := &fakeCatalog{}
	up := &fakeUploader{}
	uc := &SaveUC{Uploader: up, Catalog: cat}
	drafts := generatedDrafts()
	drafts[2].Attributes = drafts[2].Attributes[:1]
	drafts[0].Image = domain.LocalImage(domain.LocalFile{Name: "a.jpg"})

	_, err := uc.Save(context.Background(), SaveRequest{
		Product:    domain.ProductDraft{Name: "Remera", Attributes: colorSize()},
		Variations: drafts,
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 2, ve.Issues[0].Index)
	assert.Empty(t, cat.calls)
	assert.Empty(t, up.names)
}

func TestSave_UploadsParentAndVariationImages(t *testing.T) {
	cat := &fakeCatalog{}
	up := &fakeUploader{}
	uc := &SaveUC{Uploader: up, Catalog: cat, MaxConcurrent: 2}
	drafts := generatedDrafts()
	drafts[1].Image = domain.LocalImage(domain.LocalFile{Name: "v1.jpg"})
	drafts[3].Image = domain.PersistedImage(domain.PersistedImageRef{ID: 77})
	got, obs := recorder()

	res, err := uc.Save(context.Background(), SaveRequest{
		Product: domain.ProductDraft{
			Name:       "Remera",
			Attributes: colorSize(),
			Images: []domain.ImageAsset{
				domain.LocalImage(domain.LocalFile{Name: "p0.jpg"}),
				domain.PersistedImage(domain.PersistedImageRef{ID: 3}),
				domain.LocalImage(domain.LocalFile{Name: "p2.jpg"}),
			},
		},
		Variations: drafts,
	}, obs)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"p0.jpg", "p2.jpg", "v1.jpg"}, up.names)
	require.Len(t, cat.created.Images, 3)
	assert.Equal(t, int64(3), cat.created.Images[1].ID)
	assert.NotNil(t, res.Batch.Create[1].Image)
	assert.Equal(t, &domain.ImageID{ID: 77}, res.Batch.Create[3].Image)
	assert.Nil(t, res.Batch.Create[0].Image)

	var upl []int
	for _, s := range *got {
		if s.Stage == domain.StageUploadingImages {
			upl = append(upl, s.Percentage)
		}
	}
	// 0/3, 2/3, 3/3
	assert.Equal(t, []int{0, 27, 40}, upl)
}

func TestSave_UploadFailureAbortsBeforeProductWrite(t *testing.T) {
	cat := &fakeCatalog{}
	uc := &SaveUC{Uploader: &fakeUploader{failOn: "bad.jpg", fails: -1}, Catalog: cat}
	got, obs := recorder()

	_, err := uc.Save(context.Background(), SaveRequest{
		Product: domain.ProductDraft{Name: "X", Images: []domain.ImageAsset{domain.LocalImage(domain.LocalFile{Name: "bad.jpg"})}},
	}, obs)
	var ue *domain.UploadError
	require.True(t, errors.As(err, &ue))
	assert.Empty(t, cat.calls)
	last := (*got)[len(*got)-1]
	assert.Equal(t, domain.StageError, last.Stage)
	assert.NotEmpty(t, last.Error)
}

func TestSave_RetryIsOptIn(t *testing.T) {
	cat := &fakeCatalog{}
	up := &fakeUploader{failOn: "flaky.jpg", fails: 1}
	uc := &SaveUC{Uploader: up, Catalog: cat, RetryAttempts: 3}

	_, err := uc.Save(context.Background(), SaveRequest{
		Product: domain.ProductDraft{Name: "X", Images: []domain.ImageAsset{domain.LocalImage(domain.LocalFile{Name: "flaky.jpg"})}},
	})
	require.NoError(t, err)
	assert.Len(t, up.names, 2)
}

func TestSave_ProductWriteFailure(t *testing.T) {
	cat := &fakeCatalog{productErr: errors.New("502 bad gateway")}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}

	_, err := uc.Save(context.Background(), SaveRequest{Product: domain.ProductDraft{Name: "X"}, Variations: nil})
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"create"}, cat.calls)
}

func TestSave_PartialBatchFailurePriority(t *testing.T) {
	cat := &fakeCatalog{itemErrors: map[domain.BatchOp]int{domain.BatchUpdate: 0, domain.BatchDelete: 0}}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}
	attrs := []domain.Attribute{{ID: 1, Name: "Color", Options: []string{"Red"}, UsedForVariation: true}}

	_, err := uc.Save(context.Background(), SaveRequest{
		ProductID: 7,
		Product:   domain.ProductDraft{Name: "X", Attributes: attrs},
		Variations: []domain.VariationDraft{
			{PersistedID: 10, Attributes: []domain.AttributeValueAssignment{{AttributeID: 1, AttributeName: "Color", Option: "Red"}}},
		},
		Snapshot: []domain.PersistedVariation{{ID: 10}, {ID: 11}},
	})
	var be *domain.PartialBatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, domain.BatchUpdate, be.Op)
	assert.Equal(t, int64(10), be.ID)
}

func TestSave_BatchTransportFailure(t *testing.T) {
	cat := &fakeCatalog{batchErr: errors.New("timeout")}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}

	_, err := uc.Save(context.Background(), SaveRequest{
		Product:    domain.ProductDraft{Name: "Remera", Attributes: colorSize()},
		Variations: generatedDrafts(),
	})
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "lote de variaciones", pe.Op)
}

func TestSave_EmptyBatchSkipsSubmit(t *testing.T) {
	cat := &fakeCatalog{}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}

	res, err := uc.Save(context.Background(), SaveRequest{Product: domain.ProductDraft{Name: "Simple"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"create"}, cat.calls)
	assert.Equal(t, domain.ProductSimple, cat.created.Type)
	assert.Equal(t, 100, res.Progress.Percentage)
}

func TestSave_CanceledBeforeStart(t *testing.T) {
	cat := &fakeCatalog{}
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: cat}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Save(ctx, SaveRequest{Product: domain.ProductDraft{Name: "X"}})
	require.ErrorIs(t, err, domain.ErrCanceled)
	assert.Empty(t, cat.calls)
}

func TestSave_RejectsMalformedDraft(t *testing.T) {
	uc := &SaveUC{Uploader: &fakeUploader{}, Catalog: &fakeCatalog{}}
	_, err := uc.Save(context.Background(), SaveRequest{
		Product:    domain.ProductDraft{Name: "X"},
		Variations: []domain.VariationDraft{{RegularPrice: -1}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreviewBatch(t *testing.T) {
	cat := &fakeCatalog{variations: []domain.PersistedVariation{{ID: 5}}}
	uc := &ProductUC{Products: cat}

	rec, b, err := uc.PreviewBatch(context.Background(), 9, generatedDrafts(), "BUZ-2")
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec.ID)
	assert.Equal(t, "BUZ-2", rec.SKU)
	assert.Len(t, rec.Attributes, 2)
	assert.Len(t, b.Create, 4)
	assert.Equal(t, []int64{5}, b.Delete)
}

func TestSessionSnapshot(t *testing.T) {
	cat := &fakeCatalog{variations: []domain.PersistedVariation{{ID: 11, SKU: "A"}, {ID: 12, SKU: "B"}, {ID: 13, SKU: "C"}}}
	uc := &ProductUC{Products: cat}

	got, err := uc.SessionSnapshot(context.Background(), 9, []int64{13, 11, 40})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(11), got[0].ID)
	assert.Equal(t, int64(13), got[1].ID)

	got, err = uc.SessionSnapshot(context.Background(), 9, []int64{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = uc.SessionSnapshot(context.Background(), 0, []int64{11})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreviewCombinations(t *testing.T) {
	uc := &ProductUC{}
	sel := []domain.AttributeSelection{{AttributeName: "Color", Values: []string{"Red", "Blue"}}}
	p := uc.PreviewCombinations(sel, [][]domain.AttributeValueAssignment{{{AttributeName: "Color", Option: "Red"}}})
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, 1, p.Skipped)
	require.Len(t, p.Combinations, 1)
}
