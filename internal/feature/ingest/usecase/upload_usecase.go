package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
)

const (
	// DefaultMaxUploadBytes はアップロード可能なファイルサイズの上限（100MiB）です。
	DefaultMaxUploadBytes int64 = 100 * 1024 * 1024
	// DefaultDatasetTTL はデータセットを保持する期間のデフォルト値です。
	DefaultDatasetTTL = time.Hour
)

// DatasetRepository はデータセットの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type DatasetRepository interface {
	// Save はデータセットを記録・行エラーごと保存します。
	Save(ctx context.Context, ds entity.Dataset) error
	// Delete はデータセットを削除します。存在しない場合は domain.ErrDatasetNotFound を返します。
	Delete(ctx context.Context, id string) error
}

// FileDecoder はアップロードされたファイルを生の行に分解します。
type FileDecoder interface {
	Decode(r io.Reader) (entity.DecodedFile, error)
}

// TokenIssuer はデータセット閲覧用トークンを発行します。
type TokenIssuer interface {
	IssueDatasetToken(datasetID string, expiresAt time.Time) (string, error)
}

// UploadInput はアップロードされた1ファイルを表します。
// Size が不明な場合は負の値を指定します。上限はBodyの読み込み時にも検査されます。
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult は保存されたデータセットと、その閲覧用トークンです。
type UploadResult struct {
	Dataset entity.Dataset
	Token   string
}

// UploadConfig はアップロードの制限値を保持します。ゼロ値の項目にはデフォルトが使われます。
type UploadConfig struct {
	MaxBytes int64
	TTL      time.Duration
	// Now は現在時刻を返します。nil の場合は time.Now を使用します。
	Now func() time.Time
}

// uploadUsecase はファイルの受付から解析・保存までを担います。
type uploadUsecase struct {
	repo    DatasetRepository
	decoder FileDecoder
	tokens  TokenIssuer
	parser  *Parser
	cfg     UploadConfig
}

// NewUploadUsecase はuploadUsecaseの新しいインスタンスを生成します。
func NewUploadUsecase(repo DatasetRepository, decoder FileDecoder, tokens TokenIssuer, parser *Parser, cfg UploadConfig) *uploadUsecase {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxUploadBytes
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultDatasetTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if parser == nil {
		parser = NewParser()
	}
	return &uploadUsecase{
		repo:    repo,
		decoder: decoder,
		tokens:  tokens,
		parser:  parser,
		cfg:     cfg,
	}
}

// MaxBytes はアップロード上限のバイト数を返します。
func (u *uploadUsecase) MaxBytes() int64 {
	return u.cfg.MaxBytes
}

// Upload はファイルを検査・デコード・解析し、データセットとして保存します。
//
// サイズ超過・形式違い・デコード失敗はバッチ全体のエラーとして扱い、パーサーは呼び出しません。
// 個々の行の不備は Outcome.Errors に記録され、アップロード自体は成功します。
func (u *uploadUsecase) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Size > u.cfg.MaxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if !isCSV(in.FileName, in.ContentType) {
		return nil, domain.ErrUnsupportedFileType
	}

	// Sizeが申告と異なる場合に備えて上限+1バイトまでしか読まない
	body, err := io.ReadAll(io.LimitReader(in.Body, u.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(body)) > u.cfg.MaxBytes {
		return nil, domain.ErrFileTooLarge
	}

	file, err := u.decoder.Decode(bytes.NewReader(body))
	if err != nil {
		slog.Warn("upload could not be decoded", "file", in.FileName, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUndecodableFile, err)
	}

	return u.store(ctx, in.FileName, file.Rows, file.MissingColumns)
}

// UploadRows はデコード済みの行（JSON配列など）を解析し、データセットとして保存します。
func (u *uploadUsecase) UploadRows(ctx context.Context, name string, rows []entity.RawRow) (*UploadResult, error) {
	missing := []string{}
	if len(rows) > 0 {
		missing = entity.MissingColumns(func(col string) bool {
			for _, row := range rows {
				if _, ok := row[col]; ok {
					return true
				}
			}
			return false
		})
	}
	return u.store(ctx, name, rows, missing)
}

// Discard はデータセットを破棄します。
func (u *uploadUsecase) Discard(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("dataset discarded", "dataset_id", id)
	return nil
}

func (u *uploadUsecase) store(ctx context.Context, name string, rows []entity.RawRow, missing []string) (*UploadResult, error) {
	outcome := u.parser.Parse(rows)

	now := u.cfg.Now().UTC()
	ds := entity.Dataset{
		ID:             uuid.NewString(),
		FileName:       name,
		CreatedAt:      now,
		ExpiresAt:      now.Add(u.cfg.TTL),
		MissingColumns: missing,
		Outcome:        outcome,
	}

	if err := u.repo.Save(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}

	token, err := u.tokens.IssueDatasetToken(ds.ID, ds.ExpiresAt)
	if err != nil {
		// トークンが発行できないデータセットは誰も参照できないため削除しておく
		if delErr := u.repo.Delete(ctx, ds.ID); delErr != nil {
			slog.Error("failed to remove orphaned dataset", "dataset_id", ds.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to issue dataset token: %w", err)
	}

	slog.Info("dataset uploaded",
		"dataset_id", ds.ID,
		"file", name,
		"rows", outcome.RowCount(),
		"records", len(outcome.Records),
		"row_errors", len(outcome.Errors),
		"symbols", len(outcome.Symbols),
		"missing_columns", missing,
	)

	return &UploadResult{Dataset: ds, Token: token}, nil
}

// isCSV は拡張子 .csv または MIMEタイプ text/csv のファイルを受け付けます。
func isCSV(fileName, contentType string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return true
	}
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/csv"
}
