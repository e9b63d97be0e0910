package cloudinary

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/phenrril/catalogsync/internal/domain"
)

// Storage sube las imágenes a Cloudinary; la clave es el public id.
type Storage struct {
	cld    *cloudinary.Cloudinary
	Folder string
}

func New(cloudURL, folder string) (*Storage, error) {
	if strings.TrimSpace(cloudURL) == "" {
		return nil, errors.New("CLOUDINARY_URL vacío")
	}
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, err
	}
	return &Storage{cld: cld, Folder: strings.Trim(folder, "/")}, nil
}

func (s *Storage) Put(ctx context.Context, r io.Reader, in domain.PutInput) (domain.PutResult, error) {
	publicID := uuid.NewString()
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: publicID,
		Folder:   s.Folder,
	})
	if err != nil {
		return domain.PutResult{}, err
	}
	if res.Error.Message != "" {
		return domain.PutResult{}, errors.New(res.Error.Message)
	}
	return domain.PutResult{Key: res.PublicID, URL: res.SecureURL}, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

func (s *Storage) String() string { return "cloudinary(" + s.Folder + ")" }
