package mcp

import (
	"context"

	"otc-signal/internal/domain"
)

// SignalReader is the part of the signal service the MCP surface needs.
type SignalReader interface {
	GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error)
	ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error)
}
