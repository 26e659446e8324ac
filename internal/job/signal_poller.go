package job

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"otc-signal/internal/domain"
)

const defaultPollInterval = 5 * time.Minute

type SignalGenerator interface {
	GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error)
}

type SignalAlertSink interface {
	NotifySignals(ctx context.Context, decisions []domain.SignalDecision) error
}

// SignalPoller evaluates a fixed watchlist on an interval and forwards
// decisive indicator calls to the alert sink. A symbol is re-alerted only
// after its direction changes.
type SignalPoller struct {
	tracer    trace.Tracer
	generator SignalGenerator
	sink      SignalAlertSink
	creds     domain.Credentials
	watchlist []string
	interval  time.Duration

	lastAlerted map[string]domain.Direction
}

func NewSignalPoller(
	tracer trace.Tracer,
	generator SignalGenerator,
	sink SignalAlertSink,
	creds domain.Credentials,
	watchlist []string,
	interval time.Duration,
) *SignalPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &SignalPoller{
		tracer:      tracer,
		generator:   generator,
		sink:        sink,
		creds:       creds,
		watchlist:   append([]string(nil), watchlist...),
		interval:    interval,
		lastAlerted: make(map[string]domain.Direction),
	}
}

// Start blocks until ctx is cancelled.
func (p *SignalPoller) Start(ctx context.Context) {
	if p == nil || p.generator == nil || len(p.watchlist) == 0 {
		log.Info().Msg("signal poller disabled: no generator or empty watchlist")
		<-ctx.Done()
		return
	}

	log.Info().Strs("watchlist", p.watchlist).Dur("interval", p.interval).Msg("signal poller starting")
	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("signal poller stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *SignalPoller) pollOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "signal-poller.poll")
	defer span.End()

	var alerts []domain.SignalDecision
	for _, symbol := range p.watchlist {
		if ctx.Err() != nil {
			return
		}
		decision, err := p.generator.GetSignal(ctx, symbol, p.creds)
		if err != nil {
			log.Error().Err(err).Str("asset", symbol).Msg("poll signal")
			continue
		}
		if !decision.IsDecisive() {
			delete(p.lastAlerted, symbol)
			continue
		}
		if p.lastAlerted[symbol] == decision.Direction {
			continue
		}
		alerts = append(alerts, decision)
	}
	span.SetAttributes(attribute.Int("alerts", len(alerts)))

	if len(alerts) == 0 || p.sink == nil {
		return
	}
	// Directions are remembered only once delivered, so a failed batch is
	// retried on the next poll.
	if err := p.sink.NotifySignals(ctx, alerts); err != nil {
		log.Error().Err(err).Int("alerts", len(alerts)).Msg("dispatch signal alerts")
		return
	}
	for _, d := range alerts {
		p.lastAlerted[d.Asset.Symbol] = d.Direction
	}
}
