// Package handler はingestフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
	"chart_backend/internal/feature/ingest/transport/http/dto"
	"chart_backend/internal/feature/ingest/usecase"
)

// multipartOverhead はmultipartの境界やヘッダー分としてファイル上限に上乗せするバイト数です。
const multipartOverhead = 1 << 20

const (
	msgUndecodable = "Failed to parse CSV file."
	defaultRowsSet = "rows.json"
)

// UploadUsecase はアップロード処理のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type UploadUsecase interface {
	Upload(ctx context.Context, in usecase.UploadInput) (*usecase.UploadResult, error)
	UploadRows(ctx context.Context, name string, rows []entity.RawRow) (*usecase.UploadResult, error)
	Discard(ctx context.Context, id string) error
	MaxBytes() int64
}

// UploadHandler はデータセットのアップロードと破棄のHTTPリクエストを処理します。
type UploadHandler struct {
	uc UploadUsecase
}

// NewUploadHandler は新しい UploadHandler を作成します。
func NewUploadHandler(uc UploadUsecase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

// Upload はmultipartの file フィールドで送られたCSVを受け付けます。
//
// エンドポイント例:
// POST /datasets  (multipart/form-data, field "file")
func (h *UploadHandler) Upload(c *gin.Context) {
	limit := h.uc.MaxBytes() + multipartOverhead
	if c.Request.ContentLength > limit {
		h.respondError(c, domain.ErrFileTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, domain.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		slog.Error("failed to open uploaded file", "file", fh.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer func() { _ = f.Close() }()

	res, err := h.uc.Upload(c.Request.Context(), usecase.UploadInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUploadRes(res))
}

// UploadRows はデコード済みの行をJSONで受け付けます。
//
// エンドポイント例:
// POST /datasets/rows  {"name": "export", "rows": [{"DATE": "2024-01-15", ...}]}
func (h *UploadHandler) UploadRows(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.uc.MaxBytes())
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var req dto.RowsReq
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, domain.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Rows == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rows is required"})
		return
	}
	name := req.Name
	if name == "" {
		name = defaultRowsSet
	}

	res, err := h.uc.UploadRows(c.Request.Context(), name, req.Rows)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUploadRes(res))
}

// Discard はデータセットを破棄します。
//
// エンドポイント例:
// DELETE /datasets/:id
func (h *UploadHandler) Discard(c *gin.Context) {
	if err := h.uc.Discard(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError はユースケースのエラーをHTTPステータスに対応付けます。
func (h *UploadHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		mb := h.uc.MaxBytes() / (1024 * 1024)
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Please upload a CSV file less than %dMB.", mb)})
	case errors.Is(err, domain.ErrUnsupportedFileType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUndecodableFile):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msgUndecodable})
	case errors.Is(err, domain.ErrDatasetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("upload request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func newUploadRes(res *usecase.UploadResult) dto.UploadRes {
	return dto.UploadRes{
		Dataset:   dto.NewDatasetSummary(res.Dataset),
		Token:     res.Token,
		TokenType: "Bearer",
	}
}
