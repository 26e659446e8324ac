package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"otc-signal/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by the repositories.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	upsertCandleSQL = `
INSERT INTO otc_candles (symbol, interval, open_time, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (symbol, interval, open_time) DO UPDATE
SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
    close = EXCLUDED.close, volume = EXCLUDED.volume`

	recentCandlesSQL = `
SELECT symbol, interval, open_time, open, high, low, close, volume
FROM otc_candles
WHERE symbol = $1 AND interval = $2
ORDER BY open_time DESC
LIMIT $3`

	pruneCandlesSQL = `DELETE FROM otc_candles WHERE open_time < $1`
)

// CandleRepository archives the broker candles that signal requests fetched.
// Rows are keyed by (symbol, interval, open_time); re-fetching a candle
// overwrites the stored prices.
type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, candles []domain.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "candle-repo.upsert", trace.WithAttributes(
		attribute.String("asset", candles[0].Symbol),
		attribute.Int("count", len(candles)),
	))
	defer func() { endSpan(span, err) }()

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(upsertCandleSQL, c.Symbol, c.Interval, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, c := range candles {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert candle %s@%s: %w", c.Symbol, c.OpenTime.Format(time.RFC3339), err)
		}
	}
	return nil
}

// GetCandles returns up to limit archived candles, newest first.
func (r *CandleRepository) GetCandles(ctx context.Context, symbol, interval string, limit int) (candles []*domain.Candle, err error) {
	ctx, span := r.tracer.Start(ctx, "candle-repo.recent", trace.WithAttributes(
		attribute.String("asset", symbol),
		attribute.Int("limit", limit),
	))
	defer func() { endSpan(span, err) }()

	rows, err := r.pool.Query(ctx, recentCandlesSQL, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("query candles %s: %w", symbol, err)
	}
	candles, err = pgx.CollectRows(rows, scanCandle)
	if err != nil {
		return nil, fmt.Errorf("scan candles %s: %w", symbol, err)
	}
	return candles, nil
}

// DeleteCandlesBefore prunes archived candles opened before cutoff and
// reports how many rows went away.
func (r *CandleRepository) DeleteCandlesBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	ctx, span := r.tracer.Start(ctx, "candle-repo.prune", trace.WithAttributes(
		attribute.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
	))
	defer func() { endSpan(span, err) }()

	tag, err := r.pool.Exec(ctx, pruneCandlesSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune candles: %w", err)
	}
	span.SetAttributes(attribute.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func scanCandle(row pgx.CollectableRow) (*domain.Candle, error) {
	var c domain.Candle
	err := row.Scan(&c.Symbol, &c.Interval, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
	return &c, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
