package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/catalogsync/internal/domain"
)

// Storage guarda los archivos en un directorio local servido bajo URLPrefix.
type Storage struct {
	Dir       string
	URLPrefix string
}

func New(dir, urlPrefix string) *Storage {
	return &Storage{Dir: dir, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

func (s *Storage) Put(ctx context.Context, r io.Reader, in domain.PutInput) (domain.PutResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PutResult{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return domain.PutResult{}, err
	}
	key := uuid.NewString() + strings.ToLower(filepath.Ext(in.Filename))
	f, err := os.Create(filepath.Join(s.Dir, key))
	if err != nil {
		return domain.PutResult{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return domain.PutResult{}, err
	}
	if err := f.Close(); err != nil {
		return domain.PutResult{}, err
	}
	return domain.PutResult{Key: key, URL: s.URLPrefix + "/" + key}, nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("clave inválida: %q", key)
	}
	err := os.Remove(filepath.Join(s.Dir, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Storage) String() string { return "local(" + s.Dir + ")" }
