package job

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRetention = 7 * 24 * time.Hour
	retentionTick    = time.Hour
)

type CandlePruner interface {
	DeleteCandlesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CandleRetention removes archived candles older than the retention window.
type CandleRetention struct {
	tracer    trace.Tracer
	pruner    CandlePruner
	retention time.Duration
	tick      time.Duration
	now       func() time.Time
}

func NewCandleRetention(tracer trace.Tracer, pruner CandlePruner, retention time.Duration) *CandleRetention {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &CandleRetention{
		tracer:    tracer,
		pruner:    pruner,
		retention: retention,
		tick:      retentionTick,
		now:       time.Now,
	}
}

func (j *CandleRetention) Start(ctx context.Context) {
	if j == nil || j.pruner == nil {
		<-ctx.Done()
		return
	}

	log.Info().Dur("retention", j.retention).Msg("candle retention starting")
	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()

	j.runCleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("candle retention stopped")
			return
		case <-ticker.C:
			j.runCleanup(ctx)
		}
	}
}

func (j *CandleRetention) runCleanup(ctx context.Context) {
	if j.tracer != nil {
		var span trace.Span
		ctx, span = j.tracer.Start(ctx, "candle-retention.cleanup")
		defer span.End()
	}
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.pruner.DeleteCandlesBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("candle retention cleanup")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("candle retention removed rows")
	}
}
