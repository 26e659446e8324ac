package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"otc-signal/internal/chart"
	"otc-signal/internal/domain"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	if d := StartTelegramBot("", nil, domain.Credentials{}, nil); d != nil {
		t.Fatal("expected nil dispatcher without token")
	}
}

func TestAssetsReplyAllCategories(t *testing.T) {
	reply := assetsReply(nil)
	for _, c := range domain.Categories {
		if !strings.Contains(reply, string(c)+":") {
			t.Fatalf("missing category %s in %q", c, reply)
		}
	}
	if !strings.Contains(reply, "XAU/USD (Gold)") || !strings.Contains(reply, "EUR/USD") {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestAssetsReplySingleCategory(t *testing.T) {
	reply := assetsReply([]string{"crypto"})
	if !strings.HasPrefix(reply, string(domain.CategoryCrypto)+":") || strings.Contains(reply, "EUR/USD") {
		t.Fatalf("unexpected reply: %s", reply)
	}

	if reply := assetsReply([]string{"bonds"}); !strings.HasPrefix(reply, "Unknown category") {
		t.Fatalf("expected unknown category reply, got %s", reply)
	}
}

func TestSignalReply(t *testing.T) {
	creds := domain.Credentials{Email: "bot@example.com", Password: "pw"}
	stub := &stubSignalQuerier{decision: domain.SignalDecision{
		Asset:      domain.Asset{Symbol: "EUR/USD", Name: "EUR/USD", Category: domain.CategoryForex},
		Direction:  domain.DirectionNeutral,
		Confidence: 70,
		Timestamp:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Source:     domain.SourceIndicators,
		Indicators: &domain.IndicatorSet{RSI: 50, SMA: 1, MACD: 0, BollingerUpper: 1.1, BollingerLower: 0.9},
	}}

	reply := signalReply(context.Background(), stub, creds, "  EUR/USD ")
	if stub.lastSymbol != "EUR/USD" || stub.lastCreds != creds {
		t.Fatalf("unexpected call: %q %+v", stub.lastSymbol, stub.lastCreds)
	}
	if !strings.Contains(reply, "Asset: EUR/USD (OTC)\nDirection: Neutral\nConfidence: 70.00%") {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestSignalReplyErrors(t *testing.T) {
	if reply := signalReply(context.Background(), &stubSignalQuerier{}, domain.Credentials{}, ""); !strings.HasPrefix(reply, "Usage") {
		t.Fatalf("expected usage, got %s", reply)
	}

	unsupported := &stubSignalQuerier{err: fmt.Errorf("%w: DOGE", domain.ErrUnsupportedAsset)}
	if reply := signalReply(context.Background(), unsupported, domain.Credentials{}, "DOGE"); !strings.HasPrefix(reply, "Unknown asset: DOGE") {
		t.Fatalf("unexpected reply: %s", reply)
	}

	broken := &stubSignalQuerier{err: errors.New("boom")}
	if reply := signalReply(context.Background(), broken, domain.Credentials{}, "MSFT"); strings.Contains(reply, "boom") {
		t.Fatalf("internal error leaked: %s", reply)
	}
}

type stubSignalQuerier struct {
	decision   domain.SignalDecision
	candles    []*domain.Candle
	err        error
	lastSymbol string
	lastCreds  domain.Credentials
	lastLimit  int
}

func (s *stubSignalQuerier) GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error) {
	s.lastSymbol = symbol
	s.lastCreds = creds
	return s.decision, s.err
}

func (s *stubSignalQuerier) ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error) {
	s.lastSymbol = symbol
	s.lastLimit = limit
	return s.candles, s.err
}

func TestChartReply(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var candles []*domain.Candle
	for i := 0; i < 40; i++ {
		price := 410 + float64(i%5)
		candles = append(candles, &domain.Candle{Symbol: "MSFT", OpenTime: base.Add(time.Duration(i) * time.Minute), Open: price, High: price + 1, Low: price - 1, Close: price + 0.5})
	}
	stub := &stubSignalQuerier{candles: candles}

	photo, text := chartReply(context.Background(), stub, chart.NewRenderer(), " msft ")
	if photo == nil {
		t.Fatalf("expected photo, got text %q", text)
	}
	if stub.lastSymbol != "MSFT" || stub.lastLimit != chartCandleLimit {
		t.Fatalf("unexpected archive query: %s %d", stub.lastSymbol, stub.lastLimit)
	}
	if photo.Caption != "MSFT (Microsoft) (OTC), last 40 candles" {
		t.Fatalf("unexpected caption %q", photo.Caption)
	}
}

func TestChartReplyTextFallbacks(t *testing.T) {
	renderer := chart.NewRenderer()

	if photo, text := chartReply(context.Background(), &stubSignalQuerier{}, renderer, ""); photo != nil || !strings.HasPrefix(text, "Usage") {
		t.Fatalf("expected usage, got %q", text)
	}
	if _, text := chartReply(context.Background(), &stubSignalQuerier{}, renderer, "DOGE"); !strings.HasPrefix(text, "Unknown asset: DOGE") {
		t.Fatalf("unexpected reply: %s", text)
	}
	if _, text := chartReply(context.Background(), &stubSignalQuerier{}, renderer, "MSFT"); !strings.HasPrefix(text, "Not enough archived candles for MSFT") {
		t.Fatalf("unexpected reply: %s", text)
	}
	broken := &stubSignalQuerier{err: errors.New("archive is not configured")}
	if _, text := chartReply(context.Background(), broken, renderer, "MSFT"); strings.Contains(text, "archive") {
		t.Fatalf("internal error leaked: %s", text)
	}
}
