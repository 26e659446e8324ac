package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestCatalogComposition(t *testing.T) {
	groups := AssetsByCategory()
	if got := len(groups[CategoryForex]); got != 36 {
		t.Fatalf("expected 36 forex pairs, got %d", got)
	}
	if got := len(groups[CategoryCrypto]); got != 1 {
		t.Fatalf("expected 1 crypto asset, got %d", got)
	}
	if got := len(groups[CategoryCommodities]); got != 4 {
		t.Fatalf("expected 4 commodities, got %d", got)
	}
	if got := len(groups[CategoryStocks]); got != 8 {
		t.Fatalf("expected 8 stocks, got %d", got)
	}
	if len(SupportedSymbols) != len(Catalog) {
		t.Fatalf("symbol list out of sync with catalog")
	}
}

func TestLookupAsset(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"EUR/USD", "EUR/USD"},
		{" eur/usd ", "EUR/USD"},
		{"EUR/USD (OTC)", "EUR/USD"},
		{"msft", "MSFT"},
		{"Microsoft", "MSFT"},
		{"McDonald’s", "MCD"},
		{"ukbrent", "UKBrent"},
		{"XAU/USD (Gold)", "XAU/USD"},
		{"USCrude (WTI Oil)", "USCrude"},
		{"UKBrent (Brent Oil) (OTC)", "UKBrent"},
		{"MSFT (Microsoft)", "MSFT"},
		{"BTC/USD", "BTC/USD"},
	}
	for _, c := range cases {
		a, ok := LookupAsset(c.in)
		if !ok || a.Symbol != c.want {
			t.Errorf("LookupAsset(%q) = %+v, %v; want %s", c.in, a, ok, c.want)
		}
	}
	if _, ok := LookupAsset("DOGE/USD"); ok {
		t.Fatal("expected unknown symbol to be rejected")
	}
}

func TestBrokerCode(t *testing.T) {
	cases := map[string]string{
		"EUR/USD": "EURUSD_otc",
		"BTC/USD": "BTCUSD_otc",
		"USCrude": "USCrude_otc",
		"FB":      "FB_otc",
	}
	for symbol, want := range cases {
		a, ok := LookupAsset(symbol)
		if !ok {
			t.Fatalf("missing %s", symbol)
		}
		if got := a.BrokerCode(); got != want {
			t.Errorf("BrokerCode(%s) = %s, want %s", symbol, got, want)
		}
	}
}

func TestAssetLabel(t *testing.T) {
	if got := (Asset{Symbol: "EUR/USD", Name: "EUR/USD"}).Label(); got != "EUR/USD" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Asset{Symbol: "XAU/USD", Name: "Gold"}).Label(); got != "XAU/USD (Gold)" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestLookupAssetAcceptsEveryLabel(t *testing.T) {
	for _, a := range Catalog {
		got, ok := LookupAsset(a.Label())
		if !ok || got.Symbol != a.Symbol {
			t.Errorf("LookupAsset(%q) = %+v, %v", a.Label(), got, ok)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory("forex"); !ok || c != CategoryForex {
		t.Fatalf("unexpected %v %v", c, ok)
	}
	if c, ok := ParseCategory("crypto"); !ok || c != CategoryCrypto {
		t.Fatalf("unexpected %v %v", c, ok)
	}
	if _, ok := ParseCategory("bonds"); ok {
		t.Fatal("expected unknown category to fail")
	}
}

func TestDecisionPredicates(t *testing.T) {
	d := SignalDecision{Source: SourceIndicators, Direction: DirectionUp}
	if !d.IsDecisive() || d.IsFallback() {
		t.Fatalf("unexpected predicates for %+v", d)
	}
	d.Direction = DirectionNeutral
	if d.IsDecisive() {
		t.Fatal("neutral decision should not be decisive")
	}
	d = SignalDecision{Source: SourceFallback, Direction: DirectionDown}
	if d.IsDecisive() || !d.IsFallback() {
		t.Fatalf("fallback should not be decisive: %+v", d)
	}
}

func TestCredentialsIsZero(t *testing.T) {
	if !(Credentials{Email: "a@b.c"}).IsZero() {
		t.Fatal("missing password should be zero")
	}
	if (Credentials{Email: "a@b.c", Password: "x"}).IsZero() {
		t.Fatal("complete credentials should not be zero")
	}
}

func TestFallbackReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&InsufficientDataError{Have: 3, Need: 26}, "insufficient_data"},
		{fmt.Errorf("fetch: %w", &UpstreamUnavailableError{Op: "auth"}), "upstream_unavailable"},
		{&ComputationError{Indicator: "rsi", Err: errors.New("nan")}, "computation_error"},
		{errors.New("boom"), "unknown"},
	}
	for _, c := range cases {
		if got := FallbackReason(c.err); got != c.want {
			t.Errorf("FallbackReason(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestUpstreamUnavailableUnwrap(t *testing.T) {
	inner := errors.New("dial refused")
	err := &UpstreamUnavailableError{Op: "connect", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected wrapped error to be reachable")
	}
	if err.Error() != "upstream unavailable: connect: dial refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
