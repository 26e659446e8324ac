package domain

import "time"

type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

type Direction string

const (
	DirectionUp      Direction = "Up"
	DirectionDown    Direction = "Down"
	DirectionNeutral Direction = "Neutral"
)

// Vote is one indicator's opinion. The zero value abstains.
type Vote string

const (
	VoteAbstain Vote = ""
	VoteUp      Vote = "Up"
	VoteDown    Vote = "Down"
)

const (
	IndicatorRSI       = "rsi"
	IndicatorSMA       = "sma"
	IndicatorMACD      = "macd"
	IndicatorBollinger = "bollinger"
)

type DecisionSource string

const (
	SourceIndicators DecisionSource = "indicators"
	SourceFallback   DecisionSource = "fallback"
)

// IndicatorSet holds the values computed from one candle window.
type IndicatorSet struct {
	RSI            float64 `json:"rsi"`
	SMA            float64 `json:"sma"`
	MACD           float64 `json:"macd"`
	MACDSignal     float64 `json:"macd_signal"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerLower float64 `json:"bollinger_lower"`
	CurrentPrice   float64 `json:"current_price"`
}

// SignalDecision is the result of one signal request. Indicators is nil when
// the decision was produced by the fallback generator.
type SignalDecision struct {
	Asset      Asset          `json:"asset"`
	Direction  Direction      `json:"direction"`
	Confidence float64        `json:"confidence"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     DecisionSource `json:"source"`
	Indicators *IndicatorSet  `json:"indicators,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

func (d SignalDecision) IsFallback() bool {
	return d.Source == SourceFallback
}

// IsDecisive reports whether the indicator path produced an Up or Down call.
func (d SignalDecision) IsDecisive() bool {
	return d.Source == SourceIndicators && d.Direction != DirectionNeutral
}

// Credentials authenticate one broker session. They are passed per request
// and never stored by the signal engine.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Account  string `json:"account,omitempty"`
}

func (c Credentials) IsZero() bool {
	return c.Email == "" || c.Password == ""
}

const (
	AccountPractice = "PRACTICE"
	AccountReal     = "REAL"
)
