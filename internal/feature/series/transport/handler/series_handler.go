// Package handler はseriesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
	ingestdto "chart_backend/internal/feature/ingest/transport/http/dto"
	"chart_backend/internal/feature/series/transport/http/dto"
)

// SeriesUsecase はデータセット参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SeriesUsecase interface {
	Summary(ctx context.Context, id string) (*entity.Dataset, error)
	Symbols(ctx context.Context, id string) ([]string, error)
	Errors(ctx context.Context, id string, limit int) ([]entity.RowError, int, error)
	Series(ctx context.Context, id, symbol string) ([]entity.Record, error)
}

// SeriesHandler はデータセット参照のHTTPリクエストを処理します。
type SeriesHandler struct {
	uc SeriesUsecase
}

// NewSeriesHandler は新しい SeriesHandler を作成します。
func NewSeriesHandler(uc SeriesUsecase) *SeriesHandler {
	return &SeriesHandler{uc: uc}
}

// Summary はデータセットの概要を返します。
//
// エンドポイント例:
// GET /datasets/:id
func (h *SeriesHandler) Summary(c *gin.Context) {
	ds, err := h.uc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingestdto.NewDatasetSummary(*ds))
}

// Symbols は銘柄の一覧を初出順に返します。先頭がデフォルトの銘柄です。
//
// エンドポイント例:
// GET /datasets/:id/symbols
func (h *SeriesHandler) Symbols(c *gin.Context) {
	symbols, err := h.uc.Symbols(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	res := dto.SymbolsRes{Symbols: symbols}
	if len(symbols) > 0 {
		res.DefaultSymbol = symbols[0]
	}
	c.JSON(http.StatusOK, res)
}

// Errors は解析時に除外された行の一覧を返します。
//
// エンドポイント例:
// GET /datasets/:id/errors?limit=50
func (h *SeriesHandler) Errors(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	errs, total, err := h.uc.Errors(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ErrorsRes{Total: total, Errors: dto.NewRowErrorItems(errs)})
}

// Series は銘柄の時系列をチャート描画用の形式で返します。
// 銘柄がデータセットに存在しない場合は空の系列を返します。
// EUR/USD のように "/" を含む銘柄も扱えるよう、銘柄はパスの残り全体から取得します。
//
// エンドポイント例:
// GET /datasets/:id/series/*symbol?view=candlestick
func (h *SeriesHandler) Series(c *gin.Context) {
	view := c.DefaultQuery("view", dto.ViewCandlestick)
	if view != dto.ViewCandlestick && view != dto.ViewLine {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be candlestick or line"})
		return
	}

	symbol := strings.TrimPrefix(c.Param("symbol"), "/")
	records, err := h.uc.Series(c.Request.Context(), c.Param("id"), symbol)
	if err != nil {
		respondError(c, err)
		return
	}

	res := dto.SeriesRes{
		Symbol:  symbol,
		View:    view,
		Volumes: dto.VolumeLookup(records),
	}
	if view == dto.ViewLine {
		res.Points = dto.LinePoints(records)
	} else {
		res.Points = dto.CandlePoints(records)
	}
	c.JSON(http.StatusOK, res)
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrDatasetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	slog.Error("series request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
