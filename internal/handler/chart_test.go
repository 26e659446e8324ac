package handler

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"otc-signal/internal/domain"
)

func chartCandles(n int) []*domain.Candle {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	out := make([]*domain.Candle, n)
	for i := range out {
		price := 1.08 + float64(i%7)*0.001
		out[i] = &domain.Candle{Symbol: "EUR/USD", Interval: "1m", OpenTime: base.Add(-time.Duration(i) * time.Minute), Open: price, High: price + 0.002, Low: price - 0.002, Close: price + 0.001}
	}
	return out
}

func TestGetChartPNG(t *testing.T) {
	signals := &stubSignals{candles: chartCandles(60)}
	router := newTestRouter(signals, &stubSessions{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chart?asset=eur/usd&limit=500", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if signals.lastSymbol != "EUR/USD" || signals.lastLimit != maxChartCandles {
		t.Fatalf("unexpected archive query: %s %d", signals.lastSymbol, signals.lastLimit)
	}
}

func TestGetChartErrors(t *testing.T) {
	cases := []struct {
		name    string
		signals *stubSignals
		target  string
		code    int
		body    string
	}{
		{"unknown asset", &stubSignals{}, "/api/chart?asset=DOGE", http.StatusBadRequest, "supported_symbols"},
		{"missing asset", &stubSignals{}, "/api/chart", http.StatusBadRequest, "unknown or missing asset"},
		{"bad limit", &stubSignals{}, "/api/chart?asset=MSFT&limit=1", http.StatusBadRequest, "limit"},
		{"archive down", &stubSignals{archiveErr: errors.New("db down")}, "/api/chart?asset=MSFT", http.StatusServiceUnavailable, "candle archive unavailable"},
		{"empty archive", &stubSignals{candles: chartCandles(1)}, "/api/chart?asset=MSFT", http.StatusNotFound, "not enough archived candles for MSFT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(tc.signals, &stubSessions{})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.target, nil))
			if w.Code != tc.code || !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("expected %d with %q, got %d: %s", tc.code, tc.body, w.Code, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "db down") {
				t.Fatal("internal error leaked")
			}
		})
	}
}

func TestGetChartUnavailable(t *testing.T) {
	router := newTestRouter(nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chart?asset=MSFT", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
