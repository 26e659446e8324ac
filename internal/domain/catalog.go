package domain

import (
	"strings"
)

type AssetCategory string

const (
	CategoryForex       AssetCategory = "Forex"
	CategoryCrypto      AssetCategory = "Cryptocurrencies"
	CategoryCommodities AssetCategory = "Commodities"
	CategoryStocks      AssetCategory = "Stocks"
)

// Categories lists catalog groups in display order.
var Categories = []AssetCategory{CategoryForex, CategoryCrypto, CategoryCommodities, CategoryStocks}

type Asset struct {
	Symbol   string        `json:"symbol"`
	Name     string        `json:"name"`
	Category AssetCategory `json:"category"`
}

// Label is the human readable form used in rendered signals.
func (a Asset) Label() string {
	if a.Name == "" || a.Name == a.Symbol {
		return a.Symbol
	}
	return a.Symbol + " (" + a.Name + ")"
}

// BrokerCode is the identifier of the OTC variant on the broker feed,
// e.g. EUR/USD -> EURUSD_otc.
func (a Asset) BrokerCode() string {
	code := strings.NewReplacer("/", "", " ", "", "&", "", "'", "").Replace(a.Symbol)
	return code + "_otc"
}

var forexPairs = []string{
	"EUR/NZD", "USD/BDT", "AUD/CAD", "CAD/JPY", "USD/JPY", "GBP/NZD", "CHF/JPY",
	"AUD/JPY", "AUD/NZD", "ARS/USD", "NZD/JPY", "USD/TRY", "AUD/USD", "GBP/AUD",
	"EUR/SGD", "BRL/USD", "EUR/CHF", "DZD/USD", "USD/MXN", "USD/PKR", "USD/COP",
	"EUR/JPY", "INR/USD", "EUR/AUD", "GBP/JPY", "AUD/CHF", "NZD/USD", "USD/CAD",
	"EUR/CAD", "GBP/CAD", "EUR/USD", "GBP/CHF", "USD/CHF", "NZD/CAD", "CAD/CHF", "NZD/CHF",
}

// Catalog is the fixed set of supported OTC instruments.
var Catalog = buildCatalog()

// SupportedSymbols lists catalog symbols in catalog order.
var SupportedSymbols = symbolsOf(Catalog)

var catalogIndex = indexCatalog(Catalog)

func buildCatalog() []Asset {
	assets := make([]Asset, 0, len(forexPairs)+13)
	for _, pair := range forexPairs {
		assets = append(assets, Asset{Symbol: pair, Name: pair, Category: CategoryForex})
	}
	assets = append(assets,
		Asset{Symbol: "BTC/USD", Name: "BTC/USD", Category: CategoryCrypto},

		Asset{Symbol: "XAU/USD", Name: "Gold", Category: CategoryCommodities},
		Asset{Symbol: "XAG/USD", Name: "Silver", Category: CategoryCommodities},
		Asset{Symbol: "USCrude", Name: "WTI Oil", Category: CategoryCommodities},
		Asset{Symbol: "UKBrent", Name: "Brent Oil", Category: CategoryCommodities},

		Asset{Symbol: "INTC", Name: "Intel", Category: CategoryStocks},
		Asset{Symbol: "JNJ", Name: "Johnson & Johnson", Category: CategoryStocks},
		Asset{Symbol: "MCD", Name: "McDonald's", Category: CategoryStocks},
		Asset{Symbol: "MSFT", Name: "Microsoft", Category: CategoryStocks},
		Asset{Symbol: "AXP", Name: "American Express", Category: CategoryStocks},
		Asset{Symbol: "PFE", Name: "Pfizer", Category: CategoryStocks},
		Asset{Symbol: "BA", Name: "Boeing Company", Category: CategoryStocks},
		Asset{Symbol: "FB", Name: "Facebook", Category: CategoryStocks},
	)
	return assets
}

func symbolsOf(assets []Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Symbol
	}
	return out
}

func indexCatalog(assets []Asset) map[string]Asset {
	idx := make(map[string]Asset, len(assets)*2)
	for _, a := range assets {
		idx[normalizeKey(a.Symbol)] = a
		idx[normalizeKey(a.Label())] = a
		if a.Category == CategoryStocks {
			idx[normalizeKey(a.Name)] = a
		}
	}
	return idx
}

func normalizeKey(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "’", "'")
	return strings.TrimSuffix(s, " (OTC)")
}

// LookupAsset resolves a symbol case-insensitively. Display labels such as
// "XAU/USD (Gold)" and stock names are accepted as aliases.
func LookupAsset(symbol string) (Asset, bool) {
	a, ok := catalogIndex[normalizeKey(symbol)]
	return a, ok
}

// AssetsByCategory groups the catalog preserving catalog order.
func AssetsByCategory() map[AssetCategory][]Asset {
	out := make(map[AssetCategory][]Asset, len(Categories))
	for _, a := range Catalog {
		out[a.Category] = append(out[a.Category], a)
	}
	return out
}

// ParseCategory matches a category name case-insensitively. "crypto" is
// accepted as a short form.
func ParseCategory(raw string) (AssetCategory, bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "crypto") {
		return CategoryCrypto, true
	}
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}
