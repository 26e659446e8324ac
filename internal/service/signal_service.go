package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"otc-signal/internal/domain"
	"otc-signal/internal/signal"
)

const (
	defaultCandlePeriod = 60
	defaultFetchTimeout = 10 * time.Second
	defaultArchiveLimit = 100
	maxArchiveLimit     = 1000
)

// MarketFeed is the upstream candle source.
type MarketFeed interface {
	FetchCandles(ctx context.Context, creds domain.Credentials, asset domain.Asset, period, count int) ([]domain.Candle, error)
}

type SignalEngine interface {
	Decide(asset domain.Asset, candles []domain.Candle, fetchErr error) domain.SignalDecision
}

type CandleArchive interface {
	UpsertCandles(ctx context.Context, candles []domain.Candle) error
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

type SignalMetrics interface {
	ObserveFetch(elapsed time.Duration, err error)
	ObserveDecision(decision domain.SignalDecision)
}

type SignalServiceOptions struct {
	CandlePeriod int
	FetchTimeout time.Duration
	Archive      CandleArchive
	Metrics      SignalMetrics
}

type SignalService struct {
	tracer       trace.Tracer
	feed         MarketFeed
	engine       SignalEngine
	archive      CandleArchive
	metrics      SignalMetrics
	period       int
	fetchTimeout time.Duration
}

func NewSignalService(tracer trace.Tracer, feed MarketFeed, engine SignalEngine, opts SignalServiceOptions) *SignalService {
	if opts.CandlePeriod <= 0 {
		opts.CandlePeriod = defaultCandlePeriod
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &SignalService{
		tracer:       tracer,
		feed:         feed,
		engine:       engine,
		archive:      opts.Archive,
		metrics:      opts.Metrics,
		period:       opts.CandlePeriod,
		fetchTimeout: opts.FetchTimeout,
	}
}

func (s *SignalService) Catalog() []domain.Asset {
	return domain.Catalog
}

// GetSignal returns a decision for symbol. The only error is an unsupported
// symbol; upstream and computation failures produce a fallback decision.
func (s *SignalService) GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-signal")
	defer span.End()

	if s.engine == nil {
		return domain.SignalDecision{}, fmt.Errorf("signal service is not fully initialized")
	}
	asset, ok := domain.LookupAsset(symbol)
	if !ok {
		return domain.SignalDecision{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, strings.TrimSpace(symbol))
	}
	span.SetAttributes(attribute.String("asset", asset.Symbol))

	candles, fetchErr := s.fetch(ctx, asset, creds)
	if fetchErr == nil && len(candles) > 0 {
		s.archiveCandles(ctx, candles)
	}

	decision := s.engine.Decide(asset, candles, fetchErr)
	span.SetAttributes(
		attribute.String("direction", string(decision.Direction)),
		attribute.String("source", string(decision.Source)),
	)
	if s.metrics != nil {
		s.metrics.ObserveDecision(decision)
	}

	var evt *zerolog.Event
	if decision.IsFallback() {
		evt = log.Warn().Str("reason", decision.Reason).AnErr("cause", fetchErr)
	} else {
		evt = log.Info()
	}
	evt.Str("asset", asset.Symbol).
		Str("direction", string(decision.Direction)).
		Float64("confidence", decision.Confidence).
		Str("source", string(decision.Source)).
		Msg("signal decided")

	return decision, nil
}

func (s *SignalService) fetch(ctx context.Context, asset domain.Asset, creds domain.Credentials) ([]domain.Candle, error) {
	if s.feed == nil {
		return nil, &domain.UpstreamUnavailableError{Op: "connect", Err: errors.New("no market feed configured")}
	}
	if creds.IsZero() {
		return nil, &domain.UpstreamUnavailableError{Op: "auth", Err: errors.New("missing credentials")}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	started := time.Now()
	candles, err := s.feed.FetchCandles(fetchCtx, creds, asset, s.period, signal.WindowSize)
	if s.metrics != nil {
		s.metrics.ObserveFetch(time.Since(started), err)
	}
	if err != nil {
		var upstream *domain.UpstreamUnavailableError
		if !errors.As(err, &upstream) {
			err = &domain.UpstreamUnavailableError{Op: "fetch candles", Err: err}
		}
		return nil, err
	}
	return candles, nil
}

func (s *SignalService) archiveCandles(ctx context.Context, candles []domain.Candle) {
	if s.archive == nil {
		return
	}
	if err := s.archive.UpsertCandles(ctx, candles); err != nil {
		log.Error().Err(err).Str("asset", candles[0].Symbol).Msg("archive candles")
	}
}

// ListArchivedCandles reads stored candles for symbol at the configured period.
func (s *SignalService) ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.list-archived-candles")
	defer span.End()

	if s.archive == nil {
		return nil, fmt.Errorf("candle archive is not configured")
	}
	asset, ok := domain.LookupAsset(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, strings.TrimSpace(symbol))
	}
	if limit <= 0 {
		limit = defaultArchiveLimit
	}
	if limit > maxArchiveLimit {
		limit = maxArchiveLimit
	}
	return s.archive.GetCandles(ctx, asset.Symbol, s.Interval(), limit)
}

// Interval is the candle interval label for the configured period.
func (s *SignalService) Interval() string {
	if s.period%60 == 0 {
		return fmt.Sprintf("%dm", s.period/60)
	}
	return fmt.Sprintf("%ds", s.period)
}
