package mcp

import (
	"fmt"
	"strings"

	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

const (
	defaultCandleLimit = 100
	maxCandleLimit     = 1000
)

type assetEntry struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	BrokerCode string `json:"broker_code"`
}

type assetsListInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional category: Forex, Cryptocurrencies, Commodities, Stocks"`
}

type assetsListOutput struct {
	Assets []assetEntry `json:"assets"`
}

type signalGetInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol or name (e.g. EUR/USD, XAU/USD, Microsoft)"`
}

type signalGetOutput struct {
	Signal render.Payload `json:"signal"`
	Reason string         `json:"fallback_reason,omitempty"`
}

type candlesListInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (e.g. EUR/USD)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of archived candles to return, newest first, max 1000"`
}

type candlesListOutput struct {
	Symbol  string           `json:"symbol"`
	Candles []*domain.Candle `json:"candles"`
}

func normalizeSymbol(symbol string) (domain.Asset, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return domain.Asset{}, fmt.Errorf("symbol is required")
	}
	asset, ok := domain.LookupAsset(symbol)
	if !ok {
		return domain.Asset{}, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	return asset, nil
}

func normalizeCategory(raw string) (domain.AssetCategory, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	category, ok := domain.ParseCategory(raw)
	if !ok {
		return "", fmt.Errorf("unsupported category: %s", strings.TrimSpace(raw))
	}
	return category, nil
}

func normalizeCandleLimit(limit int) int {
	if limit <= 0 {
		return defaultCandleLimit
	}
	if limit > maxCandleLimit {
		return maxCandleLimit
	}
	return limit
}

// listAssets returns the catalog, or one category of it when category is set.
func listAssets(category domain.AssetCategory) assetsListOutput {
	out := assetsListOutput{Assets: make([]assetEntry, 0, len(domain.Catalog))}
	for _, a := range domain.Catalog {
		if category != "" && a.Category != category {
			continue
		}
		out.Assets = append(out.Assets, assetEntry{
			Symbol:     a.Symbol,
			Name:       a.Name,
			Category:   string(a.Category),
			BrokerCode: a.BrokerCode(),
		})
	}
	return out
}
