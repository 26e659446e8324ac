package signal

import (
	"otc-signal/internal/domain"
)

const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// FuserConfig holds the fusion thresholds.
type FuserConfig struct {
	MinAgreeing        int
	DecisiveConfidence float64
	NeutralConfidence  float64
}

// DefaultFuserConfig is three agreeing votes at 90, otherwise neutral at 70.
func DefaultFuserConfig() FuserConfig {
	return FuserConfig{
		MinAgreeing:        3,
		DecisiveConfidence: 90.0,
		NeutralConfidence:  70.0,
	}
}

// Fuser turns an indicator set into a direction. A direction is only called
// when at least MinAgreeing indicators vote and every voting indicator agrees.
type Fuser struct {
	cfg FuserConfig
}

// NewFuser fills non-positive fields from DefaultFuserConfig.
func NewFuser(cfg FuserConfig) *Fuser {
	def := DefaultFuserConfig()
	if cfg.MinAgreeing <= 0 {
		cfg.MinAgreeing = def.MinAgreeing
	}
	if cfg.DecisiveConfidence <= 0 {
		cfg.DecisiveConfidence = def.DecisiveConfidence
	}
	if cfg.NeutralConfidence <= 0 {
		cfg.NeutralConfidence = def.NeutralConfidence
	}
	return &Fuser{cfg: cfg}
}

// Votes is one vote per indicator.
type Votes struct {
	RSI       domain.Vote
	SMA       domain.Vote
	MACD      domain.Vote
	Bollinger domain.Vote
}

func (v Votes) list() []domain.Vote {
	return []domain.Vote{v.RSI, v.SMA, v.MACD, v.Bollinger}
}

// VotesFor derives the per-indicator votes. Equality on any comparison abstains.
func VotesFor(set domain.IndicatorSet) Votes {
	var v Votes
	switch {
	case set.RSI < rsiOversold:
		v.RSI = domain.VoteUp
	case set.RSI > rsiOverbought:
		v.RSI = domain.VoteDown
	}
	switch {
	case set.CurrentPrice > set.SMA:
		v.SMA = domain.VoteUp
	case set.CurrentPrice < set.SMA:
		v.SMA = domain.VoteDown
	}
	switch {
	case set.MACD > set.MACDSignal:
		v.MACD = domain.VoteUp
	case set.MACD < set.MACDSignal:
		v.MACD = domain.VoteDown
	}
	switch {
	case set.CurrentPrice < set.BollingerLower:
		v.Bollinger = domain.VoteUp
	case set.CurrentPrice > set.BollingerUpper:
		v.Bollinger = domain.VoteDown
	}
	return v
}

// Fuse votes on set and fuses the result.
func (f *Fuser) Fuse(set domain.IndicatorSet) (domain.Direction, float64) {
	return f.FuseVotes(VotesFor(set))
}

// FuseVotes returns the direction and its confidence for precomputed votes.
func (f *Fuser) FuseVotes(votes Votes) (domain.Direction, float64) {
	var up, down int
	for _, vote := range votes.list() {
		switch vote {
		case domain.VoteUp:
			up++
		case domain.VoteDown:
			down++
		}
	}
	switch {
	case down == 0 && up >= f.cfg.MinAgreeing:
		return domain.DirectionUp, f.cfg.DecisiveConfidence
	case up == 0 && down >= f.cfg.MinAgreeing:
		return domain.DirectionDown, f.cfg.DecisiveConfidence
	default:
		return domain.DirectionNeutral, f.cfg.NeutralConfidence
	}
}
