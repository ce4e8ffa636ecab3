package usecase

import (
	"context"
	"time"

	"chart_backend/internal/feature/ingest/domain/entity"
)

// DatasetReader はデータセットの読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type DatasetReader interface {
	// Find は now 時点で有効なデータセットを返します。
	// 存在しない、または期限切れの場合は domain.ErrDatasetNotFound を返します。
	Find(ctx context.Context, id string, now time.Time) (*entity.Dataset, error)
}

// seriesUsecase はアップロード済みデータセットの参照を担います。
type seriesUsecase struct {
	datasets DatasetReader
	now      func() time.Time
}

// NewSeriesUsecase はseriesUsecaseの新しいインスタンスを生成します。now が nil の場合は time.Now を使用します。
func NewSeriesUsecase(datasets DatasetReader, now func() time.Time) *seriesUsecase {
	if now == nil {
		now = time.Now
	}
	return &seriesUsecase{datasets: datasets, now: now}
}

// Summary はデータセット全体を返します。
func (u *seriesUsecase) Summary(ctx context.Context, id string) (*entity.Dataset, error) {
	return u.datasets.Find(ctx, id, u.now())
}

// Symbols は銘柄を初出順に返します。
func (u *seriesUsecase) Symbols(ctx context.Context, id string) ([]string, error) {
	ds, err := u.datasets.Find(ctx, id, u.now())
	if err != nil {
		return nil, err
	}
	return BuildIndex(ds.Outcome).Symbols(), nil
}

// Errors は行エラーを入力順に返します。limit が正の場合は先頭から最大 limit 件に絞ります。
// 2番目の戻り値は絞り込み前の総件数です。
func (u *seriesUsecase) Errors(ctx context.Context, id string, limit int) ([]entity.RowError, int, error) {
	ds, err := u.datasets.Find(ctx, id, u.now())
	if err != nil {
		return nil, 0, err
	}
	errs := ds.Outcome.Errors
	total := len(errs)
	if limit > 0 && limit < total {
		errs = errs[:limit]
	}
	if errs == nil {
		errs = []entity.RowError{}
	}
	return errs, total, nil
}

// Series は指定銘柄のレコードを時刻の昇順で返します。銘柄が存在しない場合は空のスライスを返します。
func (u *seriesUsecase) Series(ctx context.Context, id, symbol string) ([]entity.Record, error) {
	ds, err := u.datasets.Find(ctx, id, u.now())
	if err != nil {
		return nil, err
	}
	return BuildIndex(ds.Outcome).Select(symbol), nil
}
