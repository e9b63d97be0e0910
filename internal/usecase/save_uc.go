package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/progress"
	"github.com/phenrril/catalogsync/internal/upload"
	"github.com/phenrril/catalogsync/internal/variation"
)

// SaveUC orquesta el guardado de un producto con sus variaciones:
// validación, subida de imágenes, escritura del padre y lote de variaciones.
type SaveUC struct {
	Uploader domain.ImageUploader
	Catalog  interface {
		domain.ProductWriter
		domain.VariationBatcher
	}

	MaxConcurrent int
	// RetryAttempts > 0 activa reintentos en las subidas de imágenes.
	RetryAttempts    int
	RetryDelay       time.Duration
	MatchBySignature bool
}

type SaveRequest struct {
	// ProductID 0 crea el producto.
	ProductID  int64
	Product    domain.ProductDraft
	Variations []domain.VariationDraft
	// Snapshot es lo que había en el servidor al abrir la edición.
	Snapshot []domain.PersistedVariation
}

type SaveResult struct {
	Product  domain.ProductRecord `json:"product"`
	Batch    domain.SyncBatch     `json:"batch"`
	Response domain.BatchResponse `json:"response"`
	Progress domain.ProgressState `json:"progress"`
}

// Save corre el pipeline completo. La cancelación de ctx es consultiva: se
// revisa antes de cada fase y las llamadas en curso no se cortan. Con éxito el
// llamador debe descartar su snapshot y volver a pedirlo.
func (uc *SaveUC) Save(ctx context.Context, req SaveRequest, observers ...progress.Observer) (*SaveResult, error) {
	tracker := progress.NewTracker(observers...)
	res, err := uc.run(ctx, req, tracker)
	if err != nil {
		tracker.Fail(err)
		return nil, err
	}
	tracker.Complete()
	res.Progress = tracker.State()
	log.Info().Int64("product_id", res.Product.ID).
		Int("create", len(res.Batch.Create)).
		Int("update", len(res.Batch.Update)).
		Int("delete", len(res.Batch.Delete)).
		Msg("producto guardado")
	return res, nil
}

func (uc *SaveUC) run(ctx context.Context, req SaveRequest, tracker *progress.Tracker) (*SaveResult, error) {
	if strings.TrimSpace(req.Product.Name) == "" {
		return nil, fmt.Errorf("%w: nombre de producto vacío", domain.ErrInvalidInput)
	}
	for i, v := range req.Variations {
		if err := v.Check(); err != nil {
			return nil, fmt.Errorf("variación %d: %w", i+1, err)
		}
	}
	if err := variation.Validate(req.Variations, req.Product.Attributes).Err(); err != nil {
		return nil, err
	}

	inflight := context.WithoutCancel(ctx)

	// imágenes
	plan := upload.NewPlan(req.Product.Images, req.Variations)
	tracker.StartUploads(plan.Total())
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	var uploadFn upload.UploadFunc = uc.Uploader.UploadImage
	if uc.RetryAttempts > 0 {
		uploadFn = upload.WithRetry(uploadFn, uc.RetryAttempts, uc.RetryDelay)
	}
	results, err := upload.UploadAll(ctx, plan.Files, uploadFn, tracker.ImagesUploaded, uc.MaxConcurrent)
	if err != nil {
		return nil, err
	}
	gallery, images, err := plan.Resolve(results)
	if err != nil {
		return nil, err
	}

	// padre
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}
	tracker.StartProduct()
	payload := productPayload(req.Product, gallery)
	var record domain.ProductRecord
	if req.ProductID > 0 {
		record, err = uc.Catalog.UpdateProduct(inflight, req.ProductID, payload)
	} else {
		record, err = uc.Catalog.CreateProduct(inflight, payload)
	}
	if err != nil {
		op := "crear producto"
		if req.ProductID > 0 {
			op = "actualizar producto"
		}
		return nil, persistenceErr(op, err)
	}
	if record.ID <= 0 {
		return nil, &domain.PersistenceError{Op: "escribir producto", Err: errors.New("el servidor no devolvió id")}
	}

	// variaciones
	var opts []variation.Option
	if uc.MatchBySignature {
		opts = append(opts, variation.WithSignatureMatching())
	}
	batch, err := variation.BuildBatch(req.Variations, req.Snapshot, record, images, opts...)
	if err != nil {
		return nil, err
	}
	tracker.ProductSaved(batch.Writes())
	if err := checkCanceled(ctx); err != nil {
		return nil, err
	}

	out := &SaveResult{Product: record, Batch: batch}
	if batch.Empty() {
		return out, nil
	}
	resp, err := uc.Catalog.SubmitVariationBatch(inflight, record.ID, batch)
	if err != nil {
		return nil, persistenceErr("lote de variaciones", err)
	}
	out.Response = resp
	if perr := resp.FirstError(); perr != nil {
		log.Error().Str("op", string(perr.Op)).Int("item", perr.Index).Int("failed", resp.Failed()).Msg(perr.Message)
		return nil, perr
	}
	tracker.VariationsCreated(batch.Writes())
	return out, nil
}

func productPayload(d domain.ProductDraft, gallery []domain.PersistedImageRef) domain.ProductPayload {
	typ := d.Type
	if typ == "" {
		typ = domain.ProductSimple
		if len(d.VariationAttributes()) > 0 {
			typ = domain.ProductVariable
		}
	}
	imgs := make([]domain.ImageID, 0, len(gallery))
	for _, g := range gallery {
		imgs = append(imgs, domain.ImageID{ID: g.ID})
	}
	return domain.ProductPayload{
		Name:         strings.TrimSpace(d.Name),
		SKU:          strings.TrimSpace(d.SKU),
		Type:         typ,
		Description:  d.Description,
		RegularPrice: d.RegularPrice,
		Attributes:   d.Attributes,
		Images:       imgs,
	}
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCanceled, err)
	}
	return nil
}
