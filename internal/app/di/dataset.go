// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"chart_backend/internal/feature/ingest/adapters"
	"chart_backend/internal/feature/ingest/adapters/csvdecoder"
	ingesthandler "chart_backend/internal/feature/ingest/transport/handler"
	ingestusecase "chart_backend/internal/feature/ingest/usecase"
	serieshandler "chart_backend/internal/feature/series/transport/handler"
	seriesusecase "chart_backend/internal/feature/series/usecase"
	"chart_backend/internal/platform/cache"
	"chart_backend/internal/platform/config"
	jwtmw "chart_backend/internal/platform/jwt"
)

// NewDatasetStore creates the gorm dataset repository wrapped in the Redis cache.
// A nil rdb disables caching.
func NewDatasetStore(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration) *cache.CachingDatasetRepository {
	return cache.NewCachingDatasetRepository(rdb, cacheTTL, adapters.NewDatasetRepository(db), "datasets")
}

// NewParser creates the ingestion parser configured by cfg.
func NewParser(cfg config.ParserConfig) *ingestusecase.Parser {
	if cfg.HourOnlyPadding {
		return ingestusecase.NewParser(ingestusecase.WithHourOnlyPadding())
	}
	return ingestusecase.NewParser()
}

// NewUploadHandler wires the upload usecase to the store and token issuer.
func NewUploadHandler(cfg *config.Config, store *cache.CachingDatasetRepository) *ingesthandler.UploadHandler {
	uc := ingestusecase.NewUploadUsecase(
		store,
		csvdecoder.Decoder{},
		jwtmw.NewIssuer(cfg.JWT.Secret),
		NewParser(cfg.Parser),
		ingestusecase.UploadConfig{
			MaxBytes: cfg.Upload.MaxBytes,
			TTL:      cfg.Upload.DatasetTTL,
		},
	)
	return ingesthandler.NewUploadHandler(uc)
}

// NewSeriesHandler wires the read side to the store.
func NewSeriesHandler(store *cache.CachingDatasetRepository) *serieshandler.SeriesHandler {
	return serieshandler.NewSeriesHandler(seriesusecase.NewSeriesUsecase(store, time.Now))
}
