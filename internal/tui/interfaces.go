package tui

import (
	"context"

	"otc-signal/internal/domain"
)

// SignalQuerier provides signal decisions and archived candles to the TUI.
type SignalQuerier interface {
	GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error)
	ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error)
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Signals     SignalQuerier
	Credentials domain.Credentials
	UserID      int64
	Username    string
}
