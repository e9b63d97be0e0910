package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

// Uploader sube binarios al FileStorage configurado y registra la imagen.
type Uploader struct {
	Storage  domain.FileStorage
	Images   domain.ImageRepo
	MaxBytes int64
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (u *Uploader) UploadImage(ctx context.Context, f domain.LocalFile) (domain.UploadedImage, error) {
	if len(f.Data) == 0 {
		return domain.UploadedImage{}, fmt.Errorf("%w: archivo %q vacío", domain.ErrInvalidInput, f.Name)
	}
	if u.MaxBytes > 0 && int64(len(f.Data)) > u.MaxBytes {
		return domain.UploadedImage{}, fmt.Errorf("%w: archivo %q supera %d bytes", domain.ErrInvalidInput, f.Name, u.MaxBytes)
	}
	ct := f.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(f.Data)
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowedTypes[ct] {
		return domain.UploadedImage{}, fmt.Errorf("%w: tipo %q no soportado", domain.ErrInvalidInput, ct)
	}

	res, err := u.Storage.Put(ctx, bytes.NewReader(f.Data), domain.PutInput{
		Filename:    f.Name,
		ContentType: ct,
		Size:        int64(len(f.Data)),
	})
	if err != nil {
		return domain.UploadedImage{}, err
	}

	img := &domain.Image{
		Key:         res.Key,
		URL:         res.URL,
		Name:        f.Name,
		Alt:         altText(f.Name),
		ContentType: ct,
		Size:        int64(len(f.Data)),
	}
	if err := u.Images.SaveImage(ctx, img); err != nil {
		if derr := u.Storage.Delete(context.WithoutCancel(ctx), res.Key); derr != nil {
			log.Warn().Err(derr).Str("key", res.Key).Msg("no se pudo borrar el binario huérfano")
		}
		return domain.UploadedImage{}, err
	}
	log.Debug().Int64("image_id", img.ID).Str("name", f.Name).Str("url", img.URL).Msg("imagen subida")
	return domain.UploadedImage{ID: img.ID, URL: img.URL, Name: img.Name, Alt: img.Alt}, nil
}

func altText(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
