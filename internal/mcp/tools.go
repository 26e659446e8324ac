package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

func registerTools(server *mcp.Server, signals SignalReader, creds domain.Credentials) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "assets_list",
		Description: "List the OTC assets signals can be generated for, optionally by category",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in assetsListInput) (*mcp.CallToolResult, assetsListOutput, error) {
		category, err := normalizeCategory(in.Category)
		if err != nil {
			return nil, assetsListOutput{}, err
		}
		return nil, listAssets(category), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signal_get",
		Description: "Compute an Up/Down/Neutral signal for one asset from the latest one-minute candles",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalGetInput) (*mcp.CallToolResult, signalGetOutput, error) {
		if signals == nil {
			return nil, signalGetOutput{}, fmt.Errorf("signal service unavailable")
		}
		asset, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, signalGetOutput{}, err
		}
		decision, err := signals.GetSignal(ctx, asset.Symbol, creds)
		if err != nil {
			return nil, signalGetOutput{}, err
		}
		return nil, signalGetOutput{Signal: render.NewPayload(decision), Reason: decision.Reason}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "candles_list",
		Description: "List archived one-minute candles for an asset, newest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in candlesListInput) (*mcp.CallToolResult, candlesListOutput, error) {
		if signals == nil {
			return nil, candlesListOutput{}, fmt.Errorf("signal service unavailable")
		}
		asset, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		candles, err := signals.ListArchivedCandles(ctx, asset.Symbol, normalizeCandleLimit(in.Limit))
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		return nil, candlesListOutput{Symbol: asset.Symbol, Candles: candles}, nil
	})
}
