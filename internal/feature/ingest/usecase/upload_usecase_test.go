package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart_backend/internal/feature/ingest/adapters/csvdecoder"
	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
	"chart_backend/internal/feature/ingest/usecase"
)

// mockDatasetRepository はDatasetRepositoryのモック実装です。
type mockDatasetRepository struct {
	SaveFunc   func(ctx context.Context, ds entity.Dataset) error
	DeleteFunc func(ctx context.Context, id string) error

	saved   []entity.Dataset
	deleted []string
}

func (m *mockDatasetRepository) Save(ctx context.Context, ds entity.Dataset) error {
	m.saved = append(m.saved, ds)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, ds)
	}
	return nil
}

func (m *mockDatasetRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockTokenIssuer はTokenIssuerのモック実装です。
type mockTokenIssuer struct {
	IssueFunc func(datasetID string, expiresAt time.Time) (string, error)
}

func (m *mockTokenIssuer) IssueDatasetToken(datasetID string, expiresAt time.Time) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(datasetID, expiresAt)
	}
	return "token-" + datasetID, nil
}

// uploader はテスト対象のuploadUsecaseが満たすメソッド集合です。
type uploader interface {
	Upload(ctx context.Context, in usecase.UploadInput) (*usecase.UploadResult, error)
	UploadRows(ctx context.Context, name string, rows []entity.RawRow) (*usecase.UploadResult, error)
	Discard(ctx context.Context, id string) error
}

const sampleCSV = "DATE,TIME,SYMBOL,OPEN,HIGH,LOW,CLOSE,VOLUME\n" +
	"01-15-2024,09:30:00,ABC,10,11,9,10.5,1000\n" +
	"2024-01-15,09:31:00,ABC,10.5,10.6,10.4,10.5,500\n" +
	"bad,09:32:00,ABC,1,1,1,1,1\n"

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newUploadUsecase(repo *mockDatasetRepository, tokens *mockTokenIssuer, maxBytes int64) uploader {
	return usecase.NewUploadUsecase(repo, csvdecoder.Decoder{}, tokens, usecase.NewParser(), usecase.UploadConfig{
		MaxBytes: maxBytes,
		TTL:      30 * time.Minute,
		Now:      func() time.Time { return fixedNow },
	})
}

// TestUploadUsecase_Upload_Success はCSVが解析されデータセットとして保存されることを検証します。
func TestUploadUsecase_Upload_Success(t *testing.T) {
	t.Parallel()

	repo := &mockDatasetRepository{}
	uc := newUploadUsecase(repo, &mockTokenIssuer{}, 0)

	res, err := uc.Upload(context.Background(), usecase.UploadInput{
		FileName: "prices.csv",
		Size:     int64(len(sampleCSV)),
		Body:     strings.NewReader(sampleCSV),
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	ds := res.Dataset
	assert.Equal(t, repo.saved[0].ID, ds.ID)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "prices.csv", ds.FileName)
	assert.Equal(t, fixedNow, ds.CreatedAt)
	assert.Equal(t, fixedNow.Add(30*time.Minute), ds.ExpiresAt)
	assert.Empty(t, ds.MissingColumns)
	assert.Len(t, ds.Outcome.Records, 2)
	assert.Len(t, ds.Outcome.Errors, 1)
	assert.Equal(t, []string{"ABC"}, ds.Outcome.Symbols)
	assert.Equal(t, "token-"+ds.ID, res.Token)
}

// TestUploadUsecase_Upload_BatchErrors はバッチ全体のエラーでパーサーや保存処理が呼ばれないことを検証します。
func TestUploadUsecase_Upload_BatchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   usecase.UploadInput
		max     int64
		wantErr error
	}{
		{
			name:    "error: declared size over limit",
			input:   usecase.UploadInput{FileName: "a.csv", Size: 11, Body: strings.NewReader("")},
			max:     10,
			wantErr: domain.ErrFileTooLarge,
		},
		{
			name:    "error: actual body over limit",
			input:   usecase.UploadInput{FileName: "a.csv", Size: -1, Body: strings.NewReader(sampleCSV)},
			max:     10,
			wantErr: domain.ErrFileTooLarge,
		},
		{
			name:    "error: not a csv",
			input:   usecase.UploadInput{FileName: "a.xlsx", ContentType: "application/vnd.ms-excel", Size: 3, Body: strings.NewReader("a,b")},
			wantErr: domain.ErrUnsupportedFileType,
		},
		{
			name:    "error: no name and no content type",
			input:   usecase.UploadInput{Size: 3, Body: strings.NewReader("a,b")},
			wantErr: domain.ErrUnsupportedFileType,
		},
		{
			name:    "error: undecodable",
			input:   usecase.UploadInput{FileName: "a.csv", Size: 8, Body: strings.NewReader("A\n\"open")},
			wantErr: domain.ErrUndecodableFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockDatasetRepository{}
			uc := newUploadUsecase(repo, &mockTokenIssuer{}, tt.max)

			res, err := uc.Upload(context.Background(), tt.input)

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.saved, "nothing must be stored on a batch error")
		})
	}
}

// TestUploadUsecase_Upload_FileType は拡張子またはMIMEタイプでCSVと判定されることを検証します。
func TestUploadUsecase_Upload_FileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fileName    string
		contentType string
	}{
		{name: "lowercase extension", fileName: "data.csv"},
		{name: "uppercase extension", fileName: "DATA.CSV"},
		{name: "mime type only", fileName: "export", contentType: "text/csv"},
		{name: "mime type with charset", fileName: "export.txt", contentType: "text/csv; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockDatasetRepository{}
			uc := newUploadUsecase(repo, &mockTokenIssuer{}, 0)

			_, err := uc.Upload(context.Background(), usecase.UploadInput{
				FileName:    tt.fileName,
				ContentType: tt.contentType,
				Size:        int64(len(sampleCSV)),
				Body:        strings.NewReader(sampleCSV),
			})

			require.NoError(t, err)
			assert.Len(t, repo.saved, 1)
		})
	}
}

// TestUploadUsecase_Upload_MissingColumns はヘッダーに不足する列が報告されることを検証します。
func TestUploadUsecase_Upload_MissingColumns(t *testing.T) {
	t.Parallel()

	repo := &mockDatasetRepository{}
	uc := newUploadUsecase(repo, &mockTokenIssuer{}, 0)
	body := "DATE,TIME,SYMBOL,OPEN,HIGH,LOW,CLOSE\n2024-01-15,09:30:00,ABC,1,1,1,1\n"

	res, err := uc.Upload(context.Background(), usecase.UploadInput{FileName: "x.csv", Size: -1, Body: strings.NewReader(body)})

	require.NoError(t, err)
	assert.Equal(t, []string{"VOLUME"}, res.Dataset.MissingColumns)
	require.Len(t, res.Dataset.Outcome.Errors, 1)
	assert.Equal(t, entity.KindInvalidNumericField, res.Dataset.Outcome.Errors[0].Kind)
	assert.Equal(t, "VOLUME", res.Dataset.Outcome.Errors[0].Column)
}

// TestUploadUsecase_Upload_RepositoryError は保存失敗がエラーとして返されることを検証します。
func TestUploadUsecase_Upload_RepositoryError(t *testing.T) {
	t.Parallel()

	repo := &mockDatasetRepository{
		SaveFunc: func(ctx context.Context, ds entity.Dataset) error { return errors.New("disk full") },
	}
	uc := newUploadUsecase(repo, &mockTokenIssuer{}, 0)

	res, err := uc.Upload(context.Background(), usecase.UploadInput{FileName: "a.csv", Size: -1, Body: strings.NewReader(sampleCSV)})

	assert.Nil(t, res)
	assert.ErrorContains(t, err, "disk full")
}

// TestUploadUsecase_Upload_TokenError はトークン発行に失敗した場合にデータセットが削除されることを検証します。
func TestUploadUsecase_Upload_TokenError(t *testing.T) {
	t.Parallel()

	repo := &mockDatasetRepository{}
	tokens := &mockTokenIssuer{
		IssueFunc: func(string, time.Time) (string, error) { return "", errors.New("no secret") },
	}
	uc := newUploadUsecase(repo, tokens, 0)

	res, err := uc.Upload(context.Background(), usecase.UploadInput{FileName: "a.csv", Size: -1, Body: strings.NewReader(sampleCSV)})

	assert.Nil(t, res)
	require.Error(t, err)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, []string{repo.saved[0].ID}, repo.deleted)
}

// TestUploadUsecase_UploadRows はデコード済みの行がそのまま解析されることを検証します。
func TestUploadUsecase_UploadRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rows        []entity.RawRow
		wantRecords int
		wantMissing []string
	}{
		{
			name: "success: complete rows",
			rows: []entity.RawRow{
				{"DATE": "2024-01-15", "TIME": "09:30:00", "SYMBOL": "X", "OPEN": 1.0, "HIGH": 2.0, "LOW": 0.5, "CLOSE": 1.5, "VOLUME": 10.0},
			},
			wantRecords: 1,
			wantMissing: []string{},
		},
		{
			name: "success: column present in any row is not missing",
			rows: []entity.RawRow{
				{"DATE": "2024-01-15", "TIME": "09:30:00", "SYMBOL": "X", "OPEN": 1.0, "HIGH": 2.0, "LOW": 0.5, "CLOSE": 1.5},
				{"DATE": "2024-01-15", "TIME": "09:31:00", "SYMBOL": "X", "OPEN": 1.0, "HIGH": 2.0, "LOW": 0.5, "CLOSE": 1.5, "VOLUME": 3.0},
			},
			wantRecords: 1,
			wantMissing: []string{},
		},
		{
			name:        "success: no rows",
			rows:        nil,
			wantRecords: 0,
			wantMissing: []string{},
		},
		{
			name:        "success: volume absent everywhere",
			rows:        []entity.RawRow{{"DATE": "2024-01-15", "TIME": "09:30:00", "SYMBOL": "X", "OPEN": 1.0, "HIGH": 2.0, "LOW": 0.5, "CLOSE": 1.5}},
			wantRecords: 0,
			wantMissing: []string{"VOLUME"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockDatasetRepository{}
			uc := newUploadUsecase(repo, &mockTokenIssuer{}, 0)

			res, err := uc.UploadRows(context.Background(), "rows.json", tt.rows)

			require.NoError(t, err)
			assert.Equal(t, "rows.json", res.Dataset.FileName)
			assert.Len(t, res.Dataset.Outcome.Records, tt.wantRecords)
			assert.Equal(t, tt.wantMissing, res.Dataset.MissingColumns)
		})
	}
}

// TestUploadUsecase_Discard はリポジトリのエラーがそのまま返されることを検証します。
func TestUploadUsecase_Discard(t *testing.T) {
	t.Parallel()

	repo := &mockDatasetRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			if id == "missing" {
				return domain.ErrDatasetNotFound
			}
			return nil
		},
	}
	uc := newUploadUsecase(repo, &mockTokenIssuer{}, 0)

	assert.NoError(t, uc.Discard(context.Background(), "present"))
	assert.ErrorIs(t, uc.Discard(context.Background(), "missing"), domain.ErrDatasetNotFound)
	assert.Equal(t, []string{"present", "missing"}, repo.deleted)
}
