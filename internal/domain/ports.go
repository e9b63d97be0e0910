package domain

import (
	"context"
	"io"
)

// ImageUploader sube un binario y devuelve la imagen persistida. Debe poder
// reintentarse sin efectos duplicados visibles.
type ImageUploader interface {
	UploadImage(ctx context.Context, f LocalFile) (UploadedImage, error)
}

type ProductWriter interface {
	CreateProduct(ctx context.Context, p ProductPayload) (ProductRecord, error)
	UpdateProduct(ctx context.Context, id int64, p ProductPayload) (ProductRecord, error)
}

type ProductReader interface {
	FindProduct(ctx context.Context, id int64) (ProductRecord, error)
}

type VariationBatcher interface {
	SubmitVariationBatch(ctx context.Context, productID int64, b SyncBatch) (BatchResponse, error)
}

type VariationFetcher interface {
	FetchVariations(ctx context.Context, productID int64) ([]PersistedVariation, error)
}

// Catalog reúne los colaboradores de persistencia del padre y las variaciones.
type Catalog interface {
	ProductWriter
	ProductReader
	VariationBatcher
	VariationFetcher
}

type ImageRepo interface {
	SaveImage(ctx context.Context, img *Image) error
}

type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

// FileStorage guarda binarios (disco local, S3, Cloudinary).
type FileStorage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}
