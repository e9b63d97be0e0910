package upload

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/phenrril/catalogsync/internal/domain"
)

const DefaultMaxConcurrent = 3

type UploadFunc func(ctx context.Context, f domain.LocalFile) (domain.UploadedImage, error)

// ProgressFunc recibe la cantidad de archivos subidos y el total, una vez por tanda.
type ProgressFunc func(done, total int)

// UploadAll sube los archivos en tandas secuenciales de maxConcurrent. Dentro
// de una tanda las subidas corren en paralelo y se esperan todas; recién
// entonces se reporta progreso y se arranca la siguiente. El resultado
// respeta el orden de entrada.
//
// Si una subida falla se devuelve *domain.UploadError y las tandas restantes
// no se ejecutan. Lo subido en tandas anteriores no se revierte.
//
// La cancelación de ctx se mira entre tandas; las subidas en curso reciben un
// contexto sin cancelación y terminan igual.
func UploadAll(ctx context.Context, files []domain.LocalFile, fn UploadFunc, onProgress ProgressFunc, maxConcurrent int) ([]domain.UploadedImage, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	total := len(files)
	results := make([]domain.UploadedImage, total)
	inflight := context.WithoutCancel(ctx)

	for start := 0; start < total; start += maxConcurrent {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, err)
		}
		end := start + maxConcurrent
		if end > total {
			end = total
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				img, err := fn(inflight, files[i])
				if err != nil {
					return &domain.UploadError{Index: i, Name: files[i].Name, Err: err}
				}
				results[i] = img
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Error().Err(err).Int("batch_start", start).Int("total", total).Msg("subida de imágenes abortada")
			return nil, err
		}

		log.Debug().Int("done", end).Int("total", total).Msg("tanda de imágenes subida")
		if onProgress != nil {
			onProgress(end, total)
		}
	}
	return results, nil
}
