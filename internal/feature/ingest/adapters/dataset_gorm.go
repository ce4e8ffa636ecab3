package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
	"chart_backend/internal/feature/ingest/usecase"
)

// batchSize caps the rows per INSERT; sqlite limits bound parameters per statement.
const batchSize = 500

type datasetGorm struct {
	db *gorm.DB
}

var _ usecase.DatasetRepository = (*datasetGorm)(nil)

// NewDatasetRepository returns a gorm-backed dataset store.
func NewDatasetRepository(db *gorm.DB) *datasetGorm {
	return &datasetGorm{db: db}
}

type DatasetModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	FileName       string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	MissingColumns string    `gorm:"size:128;not null;default:''"`
}

func (DatasetModel) TableName() string {
	return "datasets"
}

type RecordModel struct {
	ID        uint   `gorm:"primaryKey"`
	DatasetID string `gorm:"size:36;not null;index:record_dataset_seq,priority:1"`
	Seq       int    `gorm:"not null;index:record_dataset_seq,priority:2"`
	Symbol    string `gorm:"type:text;not null"`
	Time      int64  `gorm:"not null"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume float64 `gorm:"not null;default:0"`
}

func (RecordModel) TableName() string {
	return "dataset_records"
}

type RowErrorModel struct {
	ID        uint   `gorm:"primaryKey"`
	DatasetID string `gorm:"size:36;not null;index:row_error_dataset_seq,priority:1"`
	Seq       int    `gorm:"not null;index:row_error_dataset_seq,priority:2"`
	Row       int    `gorm:"not null"`
	Kind      string `gorm:"size:32;not null"`
	Column    string `gorm:"column:column_name;size:16"`
	Message   string `gorm:"type:text"`
	Content   string `gorm:"type:text"`
}

func (RowErrorModel) TableName() string {
	return "dataset_row_errors"
}

// Models lists every table this package owns, for AutoMigrate.
func Models() []any {
	return []any{&DatasetModel{}, &RecordModel{}, &RowErrorModel{}}
}

// Save stores the dataset with its records and row errors in one transaction.
func (r *datasetGorm) Save(ctx context.Context, ds entity.Dataset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		head := DatasetModel{
			ID:             ds.ID,
			FileName:       ds.FileName,
			CreatedAt:      ds.CreatedAt.UTC(),
			ExpiresAt:      ds.ExpiresAt.UTC(),
			MissingColumns: strings.Join(ds.MissingColumns, ","),
		}
		if err := tx.Create(&head).Error; err != nil {
			return fmt.Errorf("insert dataset: %w", err)
		}

		if n := len(ds.Outcome.Records); n > 0 {
			ms := make([]RecordModel, 0, n)
			for i, rec := range ds.Outcome.Records {
				ms = append(ms, RecordModel{
					DatasetID: ds.ID,
					Seq:       i,
					Symbol:    rec.Symbol,
					Time:      rec.Time,
					Open:      rec.Open,
					High:      rec.High,
					Low:       rec.Low,
					Close:     rec.Close,
					Volume:    rec.Volume,
				})
			}
			if err := tx.CreateInBatches(&ms, batchSize).Error; err != nil {
				return fmt.Errorf("insert records: %w", err)
			}
		}

		if n := len(ds.Outcome.Errors); n > 0 {
			ms := make([]RowErrorModel, 0, n)
			for i, e := range ds.Outcome.Errors {
				ms = append(ms, RowErrorModel{
					DatasetID: ds.ID,
					Seq:       i,
					Row:       e.Row,
					Kind:      string(e.Kind),
					Column:    e.Column,
					Message:   e.Message,
					Content:   e.Content,
				})
			}
			if err := tx.CreateInBatches(&ms, batchSize).Error; err != nil {
				return fmt.Errorf("insert row errors: %w", err)
			}
		}
		return nil
	})
}

// Find loads a dataset. A missing or expired dataset is domain.ErrDatasetNotFound.
func (r *datasetGorm) Find(ctx context.Context, id string, now time.Time) (*entity.Dataset, error) {
	db := r.db.WithContext(ctx)

	var head DatasetModel
	if err := db.Where("id = ?", id).Take(&head).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, err
	}

	ds := &entity.Dataset{
		ID:             head.ID,
		FileName:       head.FileName,
		CreatedAt:      head.CreatedAt.UTC(),
		ExpiresAt:      head.ExpiresAt.UTC(),
		MissingColumns: splitColumns(head.MissingColumns),
	}
	if ds.Expired(now) {
		return nil, domain.ErrDatasetNotFound
	}

	var recs []RecordModel
	if err := db.Where("dataset_id = ?", id).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	var errs []RowErrorModel
	if err := db.Where("dataset_id = ?", id).Order("seq ASC").Find(&errs).Error; err != nil {
		return nil, err
	}

	out := entity.Outcome{
		Records: make([]entity.Record, 0, len(recs)),
		Symbols: []string{},
		Errors:  make([]entity.RowError, 0, len(errs)),
	}
	seen := make(map[string]struct{})
	for _, m := range recs {
		out.Records = append(out.Records, entity.Record{
			Symbol: m.Symbol,
			Time:   m.Time,
			Open:   m.Open,
			High:   m.High,
			Low:    m.Low,
			Close:  m.Close,
			Volume: m.Volume,
		})
		if _, ok := seen[m.Symbol]; !ok {
			seen[m.Symbol] = struct{}{}
			out.Symbols = append(out.Symbols, m.Symbol)
		}
	}
	for _, m := range errs {
		out.Errors = append(out.Errors, entity.RowError{
			Row:     m.Row,
			Kind:    entity.ErrorKind(m.Kind),
			Column:  m.Column,
			Message: m.Message,
			Content: m.Content,
		})
	}
	ds.Outcome = out
	return ds, nil
}

// Delete removes a dataset and everything stored with it.
func (r *datasetGorm) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, []string{id}); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&DatasetModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

// DeleteExpired removes every dataset whose expiry is at or before now and
// returns how many were removed.
func (r *datasetGorm) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&DatasetModel{}).Where("expires_at <= ?", now.UTC()).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := deleteChildren(tx, ids); err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&DatasetModel{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

func deleteChildren(tx *gorm.DB, ids []string) error {
	if err := tx.Where("dataset_id IN ?", ids).Delete(&RecordModel{}).Error; err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	if err := tx.Where("dataset_id IN ?", ids).Delete(&RowErrorModel{}).Error; err != nil {
		return fmt.Errorf("delete row errors: %w", err)
	}
	return nil
}

func splitColumns(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
