package signal

import (
	"time"

	"otc-signal/internal/domain"
)

type Engine struct {
	now      func() time.Time
	fuser    *Fuser
	fallback *FallbackGenerator
}

func NewEngine(now func() time.Time, fuser *Fuser, fallback *FallbackGenerator) *Engine {
	if now == nil {
		now = time.Now
	}
	if fuser == nil {
		fuser = NewFuser(DefaultFuserConfig())
	}
	if fallback == nil {
		fallback = NewFallbackGenerator(nil)
	}
	return &Engine{now: now, fuser: fuser, fallback: fallback}
}

// Evaluate runs the indicator path only. Any error means no indicator
// decision could be made.
func (e *Engine) Evaluate(asset domain.Asset, candles []domain.Candle) (domain.SignalDecision, error) {
	set, err := ComputeFromCandles(candles)
	if err != nil {
		return domain.SignalDecision{}, err
	}
	direction, confidence := e.fuser.Fuse(set)
	return domain.SignalDecision{
		Asset:      asset,
		Direction:  direction,
		Confidence: confidence,
		Timestamp:  e.now(),
		Source:     domain.SourceIndicators,
		Indicators: &set,
	}, nil
}

// Decide always returns a decision. fetchErr is the upstream failure, if any;
// it and every Evaluate error route to the fallback generator.
func (e *Engine) Decide(asset domain.Asset, candles []domain.Candle, fetchErr error) domain.SignalDecision {
	if fetchErr == nil {
		decision, err := e.Evaluate(asset, candles)
		if err == nil {
			return decision
		}
		fetchErr = err
	}
	return e.Fallback(asset, fetchErr)
}

func (e *Engine) Fallback(asset domain.Asset, cause error) domain.SignalDecision {
	direction, confidence := e.fallback.Draw()
	return domain.SignalDecision{
		Asset:      asset,
		Direction:  direction,
		Confidence: confidence,
		Timestamp:  e.now(),
		Source:     domain.SourceFallback,
		Reason:     domain.FallbackReason(cause),
	}
}
