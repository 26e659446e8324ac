package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

func newTestRouter(signals SignalProvider, sessions SessionManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), signals, sessions)
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func TestHealth(t *testing.T) {
	router := newTestRouter(nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
}

func TestGetAssets(t *testing.T) {
	router := newTestRouter(nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assets", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Categories []string               `json:"categories"`
		Assets     map[string][]assetView `json:"assets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Categories) != 4 {
		t.Fatalf("expected 4 categories, got %v", resp.Categories)
	}
	total := 0
	for _, views := range resp.Assets {
		total += len(views)
	}
	if total != len(domain.Catalog) {
		t.Fatalf("expected %d assets, got %d", len(domain.Catalog), total)
	}
	if stocks := resp.Assets[string(domain.CategoryStocks)]; len(stocks) == 0 || stocks[0].Label == "" {
		t.Fatalf("unexpected stocks group: %+v", stocks)
	}
}

func TestGetSignalRequiresSession(t *testing.T) {
	signals := &stubSignals{}
	router := newTestRouter(signals, &stubSessions{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/api/signal", url.Values{"asset": {"EUR/USD"}}))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if signals.calls != 0 {
		t.Fatal("signal provider should not be called without a session")
	}
}

func TestGetSignalJSON(t *testing.T) {
	signals := &stubSignals{decision: indicatorDecision()}
	sessions := &stubSessions{tokens: map[string]domain.Credentials{"tok": testCreds}}
	router := newTestRouter(signals, sessions)

	req := formRequest("/api/signal", url.Values{"asset": {"EUR/USD"}})
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if signals.lastSymbol != "EUR/USD" || signals.lastCreds != testCreds {
		t.Fatalf("unexpected call: %s %+v", signals.lastSymbol, signals.lastCreds)
	}
	var payload render.Payload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if payload.Direction != "Up" || payload.Confidence != "90.00" || payload.RSI != "25.00" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Time != "2024-05-01 09:00:00" {
		t.Fatalf("unexpected time %q", payload.Time)
	}
}

func TestGetSignalHeaderTokenAndJSONBody(t *testing.T) {
	signals := &stubSignals{decision: indicatorDecision()}
	sessions := &stubSessions{tokens: map[string]domain.Credentials{"tok": testCreds}}
	router := newTestRouter(signals, sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/signal", strings.NewReader(`{"asset":"btc/usd"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, "tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if signals.lastSymbol != "btc/usd" {
		t.Fatalf("expected raw symbol forwarded, got %s", signals.lastSymbol)
	}
}

func TestGetSignalHTMLFormat(t *testing.T) {
	fallback := domain.SignalDecision{
		Asset:      domain.Asset{Symbol: "MSFT", Name: "Microsoft", Category: domain.CategoryStocks},
		Direction:  domain.DirectionDown,
		Confidence: 81.37,
		Timestamp:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Source:     domain.SourceFallback,
		Reason:     "upstream_unavailable",
	}
	signals := &stubSignals{decision: fallback}
	sessions := &stubSessions{tokens: map[string]domain.Credentials{"tok": testCreds}}
	router := newTestRouter(signals, sessions)

	req := formRequest("/api/signal?format=html", url.Values{"asset": {"MSFT"}})
	req.Header.Set(sessionHeader, "tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Direction: Down<br>Confidence: 81.37%") || !strings.Contains(body, "Bollinger Bands: N/A") {
		t.Fatalf("unexpected html body: %s", body)
	}
}

func TestGetSignalUnsupportedAsset(t *testing.T) {
	signals := &stubSignals{err: fmt.Errorf("%w: DOGE", domain.ErrUnsupportedAsset)}
	sessions := &stubSessions{tokens: map[string]domain.Credentials{"tok": testCreds}}
	router := newTestRouter(signals, sessions)

	req := formRequest("/api/signal", url.Values{"asset": {"DOGE"}})
	req.Header.Set(sessionHeader, "tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "supported_symbols") {
		t.Fatalf("expected supported symbols in body: %s", w.Body.String())
	}
}

func TestGetSignalMissingAsset(t *testing.T) {
	sessions := &stubSessions{tokens: map[string]domain.Credentials{"tok": testCreds}}
	router := newTestRouter(&stubSignals{}, sessions)

	req := formRequest("/api/signal", url.Values{})
	req.Header.Set(sessionHeader, "tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetSignalUnavailable(t *testing.T) {
	router := newTestRouter(nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, formRequest("/api/signal", url.Values{"asset": {"EUR/USD"}}))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

var testCreds = domain.Credentials{Email: "trader@example.com", Password: "pw", Account: domain.AccountPractice}

func indicatorDecision() domain.SignalDecision {
	return domain.SignalDecision{
		Asset:      domain.Asset{Symbol: "EUR/USD", Name: "EUR/USD", Category: domain.CategoryForex},
		Direction:  domain.DirectionUp,
		Confidence: 90,
		Timestamp:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Source:     domain.SourceIndicators,
		Indicators: &domain.IndicatorSet{RSI: 25, SMA: 1.1, MACD: 0.01, BollingerUpper: 1.2, BollingerLower: 1.0, CurrentPrice: 0.99},
	}
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type stubSignals struct {
	decision   domain.SignalDecision
	candles    []*domain.Candle
	err        error
	archiveErr error
	calls      int
	lastSymbol string
	lastCreds  domain.Credentials
	lastLimit  int
}

func (s *stubSignals) ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error) {
	s.lastSymbol = symbol
	s.lastLimit = limit
	return s.candles, s.archiveErr
}

func (s *stubSignals) GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error) {
	s.calls++
	s.lastSymbol = symbol
	s.lastCreds = creds
	if s.err != nil {
		return domain.SignalDecision{}, s.err
	}
	return s.decision, nil
}

type stubSessions struct {
	tokens    map[string]domain.Credentials
	loginErr  error
	loggedIn  domain.Credentials
	loggedOut []string
}

func (s *stubSessions) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	s.loggedIn = creds
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return "new-token", nil
}

func (s *stubSessions) Resolve(ctx context.Context, token string) (domain.Credentials, error) {
	creds, ok := s.tokens[token]
	if !ok {
		return domain.Credentials{}, domain.ErrNoSession
	}
	return creds, nil
}

func (s *stubSessions) Logout(ctx context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	if token == "broken" {
		return errors.New("redis down")
	}
	return nil
}

func TestLegacySignalAlwaysHTML(t *testing.T) {
	signals := &stubSignals{decision: indicatorDecision()}
	sessions := &stubSessions{tokens: map[string]domain.Credentials{"tok": testCreds}}
	router := newTestRouter(signals, sessions)

	req := formRequest("/get_signal", url.Values{"asset": {"EUR/USD"}})
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "Asset: EUR/USD (OTC)<br>Direction: Up") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestIndexListsAssets(t *testing.T) {
	router := newTestRouter(nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<option value="XAU/USD">XAU/USD (Gold)</option>`) {
		t.Fatalf("expected gold option in index page")
	}
	if !strings.Contains(body, `<optgroup label="Stocks">`) {
		t.Fatalf("expected stocks group in index page")
	}
}
