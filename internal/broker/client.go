package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"otc-signal/internal/domain"
)

const (
	actionAuth    = "auth"
	actionCandles = "candles"
	actionError   = "error"

	defaultTimeout = 10 * time.Second
)

// Client talks to the broker websocket feed. Every call opens its own
// session, authenticates with the supplied credentials and closes it again.
type Client struct {
	url     string
	dialer  *websocket.Dialer
	timeout time.Duration
	tracer  trace.Tracer
}

func NewClient(url string, timeout time.Duration, tracer trace.Tracer) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("broker")
	}
	return &Client{
		url:     url,
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
		timeout: timeout,
		tracer:  tracer,
	}
}

type authRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Account  string `json:"account"`
}

type candlesRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	Asset     string `json:"asset"`
	Period    int    `json:"period"`
	Count     int    `json:"count"`
}

type wireCandle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type response struct {
	Action    string       `json:"action"`
	OK        bool         `json:"ok"`
	Reason    string       `json:"reason"`
	RequestID string       `json:"request_id"`
	Candles   []wireCandle `json:"candles"`
}

// Verify opens a session and authenticates. A rejected login returns
// domain.ErrLoginFailed; transport failures return UpstreamUnavailableError.
func (c *Client) Verify(ctx context.Context, creds domain.Credentials) error {
	ctx, span := c.tracer.Start(ctx, "broker.verify")
	defer span.End()

	sess, err := c.open(ctx, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return sess.Close()
}

// FetchCandles returns up to count candles of period seconds for asset,
// ordered oldest to newest.
func (c *Client) FetchCandles(ctx context.Context, creds domain.Credentials, asset domain.Asset, period, count int) ([]domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "broker.fetch-candles", trace.WithAttributes(
		attribute.String("asset", asset.Symbol),
		attribute.Int("period", period),
		attribute.Int("count", count),
	))
	defer span.End()

	candles, err := c.fetchCandles(ctx, creds, asset, period, count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("candles.returned", len(candles)))
	return candles, nil
}

func (c *Client) fetchCandles(ctx context.Context, creds domain.Credentials, asset domain.Asset, period, count int) ([]domain.Candle, error) {
	sess, err := c.open(ctx, creds)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	conn := sess.conn

	req := candlesRequest{
		Action:    actionCandles,
		RequestID: uuid.NewString(),
		Asset:     asset.BrokerCode(),
		Period:    period,
		Count:     count,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, unavailable("send candles request", err)
	}

	for {
		resp, err := readResponse(conn)
		if err != nil {
			return nil, unavailable("read candles", err)
		}
		switch resp.Action {
		case actionError:
			return nil, unavailable("candles", errors.New(resp.Reason))
		case actionCandles:
			if resp.RequestID != "" && resp.RequestID != req.RequestID {
				continue
			}
			candles := toDomainCandles(asset, period, resp.Candles)
			sort.Slice(candles, func(i, j int) bool {
				return candles[i].OpenTime.Before(candles[j].OpenTime)
			})
			return candles, nil
		default:
			log.Debug().Str("action", resp.Action).Msg("broker: ignoring frame")
		}
	}
}

type session struct {
	conn *websocket.Conn
	stop func() bool
}

func (s *session) Close() error {
	s.stop()
	return s.conn.Close()
}

// open dials and authenticates. The connection carries a deadline derived
// from ctx and the client timeout, and is closed if ctx is cancelled.
func (c *Client) open(ctx context.Context, creds domain.Credentials) (*session, error) {
	if c.url == "" {
		return nil, unavailable("connect", errors.New("broker url not configured"))
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	ok := false
	defer func() {
		if !ok {
			stop()
			_ = conn.Close()
		}
	}()

	account := creds.Account
	if account == "" {
		account = domain.AccountPractice
	}
	if err := conn.WriteJSON(authRequest{Action: actionAuth, Email: creds.Email, Password: creds.Password, Account: account}); err != nil {
		return nil, unavailable("send auth", err)
	}
	resp, err := readResponse(conn)
	if err != nil {
		return nil, unavailable("read auth", err)
	}
	if resp.Action == actionError {
		return nil, unavailable("auth", errors.New(resp.Reason))
	}
	if resp.Action != actionAuth {
		return nil, unavailable("auth", fmt.Errorf("unexpected frame %q", resp.Action))
	}
	if !resp.OK {
		log.Info().Str("reason", resp.Reason).Msg("broker: authentication rejected")
		return nil, fmt.Errorf("%w: %s", domain.ErrLoginFailed, resp.Reason)
	}
	ok = true
	return &session{conn: conn, stop: stop}, nil
}

func readResponse(conn *websocket.Conn) (response, error) {
	_, b, err := conn.ReadMessage()
	if err != nil {
		return response{}, err
	}
	var resp response
	if err := json.Unmarshal(b, &resp); err != nil {
		return response{}, fmt.Errorf("decode frame: %w", err)
	}
	return resp, nil
}

func toDomainCandles(asset domain.Asset, period int, in []wireCandle) []domain.Candle {
	interval := fmt.Sprintf("%ds", period)
	if period%60 == 0 {
		interval = fmt.Sprintf("%dm", period/60)
	}
	out := make([]domain.Candle, 0, len(in))
	for _, w := range in {
		out = append(out, domain.Candle{
			Symbol:   asset.Symbol,
			Interval: interval,
			OpenTime: time.Unix(w.Time, 0).UTC(),
			Open:     w.Open,
			High:     w.High,
			Low:      w.Low,
			Close:    w.Close,
			Volume:   w.Volume,
		})
	}
	return out
}

func unavailable(op string, err error) error {
	return &domain.UpstreamUnavailableError{Op: op, Err: err}
}
