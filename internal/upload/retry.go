package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/catalogsync/internal/domain"
)

const DefaultAttempts = 3

// Retry ejecuta fn hasta attempts veces; la espera arranca en delay y se
// duplica en cada intento. attempts <= 0 usa DefaultAttempts.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var err error
	wait := delay
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Dur("wait", wait).Msg("reintentando")
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %v", domain.ErrCanceled, ctx.Err())
		case <-t.C:
		}
		wait *= 2
	}
	return fmt.Errorf("tras %d intentos: %w", attempts, err)
}

// WithRetry envuelve una UploadFunc con Retry. Sólo tiene sentido con
// subidas idempotentes.
func WithRetry(fn UploadFunc, attempts int, delay time.Duration) UploadFunc {
	return func(ctx context.Context, f domain.LocalFile) (domain.UploadedImage, error) {
		var out domain.UploadedImage
		err := Retry(ctx, attempts, delay, func(ctx context.Context) error {
			img, err := fn(ctx, f)
			if err != nil {
				return err
			}
			out = img
			return nil
		})
		return out, err
	}
}
