// Package dto はingestフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"time"

	"chart_backend/internal/feature/ingest/domain/entity"
)

// RowsReq は /datasets/rows エンドポイントのリクエストボディを表します。
// UseNumber 付きでデコードし、セルの数値は json.Number のままパーサーに渡します。
type RowsReq struct {
	Name string          `json:"name"`
	Rows []entity.RawRow `json:"rows"`
}

// DatasetSummary はデータセットの概要です。アップロード応答とデータセット参照の両方で使います。
type DatasetSummary struct {
	ID             string    `json:"id"`
	FileName       string    `json:"file_name"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	RowCount       int       `json:"row_count"`
	RecordCount    int       `json:"record_count"`
	ErrorCount     int       `json:"error_count"`
	Symbols        []string  `json:"symbols"`
	DefaultSymbol  string    `json:"default_symbol"`
	MissingColumns []string  `json:"missing_columns"`
}

// UploadRes はアップロード成功時のレスポンスです。
// Token は以降の参照APIで Authorization: Bearer として送ります。
type UploadRes struct {
	Dataset   DatasetSummary `json:"dataset"`
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
}

// NewDatasetSummary はエンティティから概要DTOを組み立てます。
func NewDatasetSummary(ds entity.Dataset) DatasetSummary {
	symbols := ds.Outcome.Symbols
	if symbols == nil {
		symbols = []string{}
	}
	missing := ds.MissingColumns
	if missing == nil {
		missing = []string{}
	}
	return DatasetSummary{
		ID:             ds.ID,
		FileName:       ds.FileName,
		CreatedAt:      ds.CreatedAt,
		ExpiresAt:      ds.ExpiresAt,
		RowCount:       ds.Outcome.RowCount(),
		RecordCount:    len(ds.Outcome.Records),
		ErrorCount:     len(ds.Outcome.Errors),
		Symbols:        symbols,
		DefaultSymbol:  ds.DefaultSymbol(),
		MissingColumns: missing,
	}
}
