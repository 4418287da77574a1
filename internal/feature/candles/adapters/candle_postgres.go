// Package adapters provides the repository implementations for the candles feature.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_ingest/internal/feature/candles/domain/entity"
	"stock_ingest/internal/feature/candles/usecase"
)

// candlePostgres implements usecase.CandleRepository on top of the four
// candle tables. The target table is picked per call from the TableKind, so
// one adapter serves both session and granularity axes.
type candlePostgres struct {
	db *gorm.DB
}

var _ usecase.CandleRepository = (*candlePostgres)(nil)

// NewCandleRepository creates a candle repository on the given DB handle.
func NewCandleRepository(db *gorm.DB) *candlePostgres {
	return &candlePostgres{db: db}
}

// CandleModel is the row shape shared by all four candle tables.
type CandleModel struct {
	ID        uint      `gorm:"primaryKey"`
	Ticker    string    `gorm:"size:20;not null"`
	BeginTime time.Time `gorm:"not null"`
	CloseTime time.Time `gorm:"not null"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Ticker:    e.Ticker,
		BeginTime: e.BeginTime,
		CloseTime: e.CloseTime,
		Open:      e.Open,
		High:      e.High,
		Low:       e.Low,
		Close:     e.Close,
	}
}

func toEntity(m CandleModel) entity.Candle {
	return entity.Candle{
		Ticker:    m.Ticker,
		BeginTime: m.BeginTime,
		CloseTime: m.CloseTime,
		Open:      m.Open,
		High:      m.High,
		Low:       m.Low,
		Close:     m.Close,
	}
}

// Migrate creates the four candle tables and their uniqueness indexes. Rows
// are identified by (ticker, begin_time); the unique index both backs the
// insert-or-ignore conflict target and makes concurrent writers safe.
func Migrate(db *gorm.DB) error {
	for _, kind := range entity.AllTableKinds() {
		name := kind.TableName()
		if err := db.Table(name).AutoMigrate(&CandleModel{}); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		idx := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_ticker_begin_time ON %s (ticker, begin_time)",
			name, name,
		)
		if err := db.Exec(idx).Error; err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	return nil
}

// InsertIgnoreBatch writes candles into the table selected by kind in a
// single statement; rows whose (ticker, begin_time) already exists are left
// untouched. Stored candles are immutable: this is insert-or-ignore, never
// insert-or-overwrite.
func (r *candlePostgres) InsertIgnoreBatch(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
	if len(candles) == 0 {
		return 0, nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(e))
	}

	tx := r.db.WithContext(ctx).
		Table(kind.TableName()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}, {Name: "begin_time"}},
			DoNothing: true,
		}).
		Create(&ms)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

// LatestBeginTime returns the most recent bucket start stored for the ticker
// in the table selected by kind. found is false when the ticker has no rows.
func (r *candlePostgres) LatestBeginTime(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
	var m CandleModel
	err := r.db.WithContext(ctx).
		Table(kind.TableName()).
		Where("ticker = ?", ticker).
		Order("begin_time DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return m.BeginTime, true, nil
}

// Find returns candles matching the filter, most recent first. Date filters
// are day-granular and inclusive: the end day is included up to midnight of
// the following day.
func (r *candlePostgres) Find(ctx context.Context, kind entity.TableKind, f usecase.QueryFilter) ([]entity.Candle, error) {
	q := r.db.WithContext(ctx).Table(kind.TableName())
	if f.Ticker != "" {
		q = q.Where("ticker = ?", f.Ticker)
	}
	if !f.StartDate.IsZero() {
		q = q.Where("begin_time >= ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		q = q.Where("begin_time < ?", f.EndDate.AddDate(0, 0, 1))
	}
	q = q.Order("begin_time DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []CandleModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
