package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"otc-signal/internal/domain"
)

var serviceCreds = domain.Credentials{Email: "mcp@example.com", Password: "pw", Account: domain.AccountPractice}

type stubSignalService struct {
	decision domain.SignalDecision
	candles  []*domain.Candle

	lastSymbol string
	lastCreds  domain.Credentials
	lastLimit  int
}

func (s *stubSignalService) GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error) {
	s.lastSymbol = symbol
	s.lastCreds = creds
	return s.decision, nil
}

func (s *stubSignalService) ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error) {
	s.lastSymbol = symbol
	s.lastLimit = limit
	candles := s.candles
	if len(candles) > limit {
		candles = candles[:limit]
	}
	return append([]*domain.Candle(nil), candles...), nil
}

func testServer() (*sdkmcp.Server, *stubSignalService) {
	signals := &stubSignalService{
		decision: domain.SignalDecision{
			Asset:      domain.Asset{Symbol: "EUR/USD", Name: "EUR/USD", Category: domain.CategoryForex},
			Direction:  domain.DirectionDown,
			Confidence: 77.5,
			Timestamp:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			Source:     domain.SourceFallback,
			Reason:     "upstream_unavailable",
		},
		candles: []*domain.Candle{
			{Symbol: "EUR/USD", Interval: "1m", Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, OpenTime: time.Unix(60, 0).UTC()},
			{Symbol: "EUR/USD", Interval: "1m", Open: 1.0, High: 1.1, Low: 0.9, Close: 1.1, OpenTime: time.Unix(0, 0).UTC()},
		},
	}

	srv := NewServer(nil, signals, ServerConfig{RequestTimeout: time.Second, Credentials: serviceCreds})
	return srv, signals
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	raw, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
