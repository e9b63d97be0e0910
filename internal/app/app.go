package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/phenrril/catalogsync/internal/adapters/httpserver"
	"github.com/phenrril/catalogsync/internal/adapters/media"
	"github.com/phenrril/catalogsync/internal/adapters/repo/postgres"
	"github.com/phenrril/catalogsync/internal/adapters/storage"
	"github.com/phenrril/catalogsync/internal/config"
	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/usecase"
)

type App struct {
	DB        *gorm.DB
	Config    *config.Config
	ProductUC *usecase.ProductUC
	SaveUC    *usecase.SaveUC
	Storage   domain.FileStorage
	Hub       *httpserver.ProgressHub
}

func NewApp(ctx context.Context, db *gorm.DB, cfg *config.Config) (*App, error) {
	repo := postgres.NewProductRepo(db)

	fs, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	uploader := &media.Uploader{Storage: fs, Images: repo, MaxBytes: cfg.Upload.MaxBytes}

	app := &App{DB: db, Config: cfg, Storage: fs, Hub: httpserver.NewProgressHub()}
	app.ProductUC = &usecase.ProductUC{Products: repo}
	app.SaveUC = &usecase.SaveUC{
		Uploader:         uploader,
		Catalog:          repo,
		MaxConcurrent:    cfg.Upload.MaxConcurrent,
		RetryAttempts:    cfg.Upload.RetryAttempts,
		RetryDelay:       cfg.Upload.RetryDelay,
		MatchBySignature: cfg.Upload.MatchBySignature,
	}
	return app, nil
}

// HTTPHandler arma el router. El hub de progreso debe estar corriendo (Run).
func (a *App) HTTPHandler() http.Handler {
	deps := httpserver.Deps{
		Products:     a.ProductUC,
		Saver:        a.SaveUC,
		Hub:          a.Hub,
		MaxBodyBytes: a.Config.Upload.MaxBytes * 16,
	}
	if a.Config.Storage.Driver == "" || strings.EqualFold(a.Config.Storage.Driver, "local") {
		deps.UploadsDir = a.Config.Storage.Dir
		deps.UploadsPrefix = a.Config.Storage.URLPrefix
	}
	return httpserver.New(deps)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.Product{},
		&domain.ProductAttribute{},
		&domain.Variation{},
		&domain.Image{},
	); err != nil {
		return err
	}

	_ = a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_variations_sku_unique ON variations (sku) WHERE sku IS NOT NULL AND sku <> ''").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_variations_attributes_gin ON variations USING gin (attributes)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_product_attributes_position ON product_attributes (product_id, position)").Error

	if err := a.DB.Exec("UPDATE products SET type = 'simple' WHERE type IS NULL OR type = ''").Error; err != nil {
		return err
	}
	_ = a.DB.Exec("UPDATE variations SET stock_status = 'instock' WHERE stock_status IS NULL OR stock_status = ''").Error
	return nil
}
