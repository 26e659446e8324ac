package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"otc-signal/internal/domain"
)

const defaultRequestTimeout = 15 * time.Second

// RequestObserver receives one call per handled MCP request.
type RequestObserver interface {
	ObserveMCPRequest(method string, elapsed time.Duration, err error)
}

type ServerConfig struct {
	RequestTimeout time.Duration
	// Credentials is the broker account signal_get runs under.
	Credentials domain.Credentials
	Metrics     RequestObserver
}

func NewServer(tracer trace.Tracer, signals SignalReader, cfg ServerConfig) *sdkmcp.Server {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("otc-signal-mcp")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "otc-signal-mcp", Version: "1.0.0"}, &sdkmcp.ServerOptions{
		Instructions: "Use assets_list or the assets:// resources to pick an OTC asset, then signal_get for an Up/Down/Neutral call. " +
			"Fallback signals carry a fallback_reason. candles_list returns the archived candles behind past signals.",
		// The SDK only logs through slog; application logs stay on zerolog.
		Logger: slog.Default(),
	})
	srv.AddReceivingMiddleware(withDeadline(timeout), observe(tracer, cfg.Metrics))

	registerTools(srv, signals, cfg.Credentials)
	registerResources(srv)
	return srv
}

func withDeadline(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, method, req)
		}
	}
}

// observe wraps every request in a span named after the tool or resource and
// logs its outcome. Failed requests are logged at warn level.
func observe(tracer trace.Tracer, metrics RequestObserver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			name, attrs := describeRequest(method, req)
			ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
			defer span.End()

			started := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(started)

			if metrics != nil {
				metrics.ObserveMCPRequest(method, elapsed, err)
			}
			evt := log.Debug()
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				evt = log.Warn().Err(err)
			}
			evt.Str("method", method).Str("op", name).Dur("elapsed", elapsed).Msg("mcp request")
			return result, err
		}
	}
}

// describeRequest derives the span name, e.g. mcp.tool.signal_get, and the
// span attributes for one request.
func describeRequest(method string, req sdkmcp.Request) (string, []attribute.KeyValue) {
	attrs := []attribute.KeyValue{attribute.String("mcp.method", method)}
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		var tool string
		if r.Params != nil {
			tool = strings.TrimSpace(r.Params.Name)
		}
		if tool == "" {
			return "mcp.tool.call", attrs
		}
		return "mcp.tool." + tool, append(attrs, attribute.String("mcp.tool", tool))
	case *sdkmcp.ReadResourceRequest:
		if r.Params != nil {
			attrs = append(attrs, attribute.String("mcp.resource.uri", strings.TrimSpace(r.Params.URI)))
		}
		return "mcp.resource.read", attrs
	}
	return "mcp." + strings.ReplaceAll(method, "/", "."), attrs
}
