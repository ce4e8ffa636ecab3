package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	ingesthandler "chart_backend/internal/feature/ingest/transport/handler"
	serieshandler "chart_backend/internal/feature/series/transport/handler"
	platformhandler "chart_backend/internal/platform/http/handler"
	"chart_backend/internal/platform/http/middleware"
	jwtmw "chart_backend/internal/platform/jwt"
)

// Options configures the cross-cutting middleware of the router.
type Options struct {
	Logger        *slog.Logger
	JWTSecret     string
	AllowOrigins  []string
	UploadLimiter middleware.Allower
	HealthChecks  []platformhandler.Check
}

func NewRouter(upload *ingesthandler.UploadHandler, series *serieshandler.SeriesHandler, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.Logger), cors.New(corsConfig(opts.AllowOrigins)))

	// 認証不要
	// 導通確認用
	health := platformhandler.Health(opts.HealthChecks...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	// アップロード（データセットとトークンを発行）
	uploads := r.Group("/datasets")
	if opts.UploadLimiter != nil {
		uploads.Use(middleware.Throttle(opts.UploadLimiter))
	}
	{
		uploads.POST("", upload.Upload)
		uploads.POST("/rows", upload.UploadRows)
	}

	// 発行されたデータセットトークンが必要なルート
	// → Authorization: Bearer <token> の sub が :id と一致すること
	dataset := r.Group("/datasets/:id")
	dataset.Use(jwtmw.DatasetAuthRequired(opts.JWTSecret))
	{
		dataset.GET("", series.Summary)
		dataset.GET("/symbols", series.Symbols)
		dataset.GET("/errors", series.Errors)
		dataset.GET("/series/*symbol", series.Series)
		dataset.DELETE("", upload.Discard)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
