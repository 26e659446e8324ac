package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"otc-signal/internal/broker"
	"otc-signal/internal/config"
	"otc-signal/internal/db"
	mcpserver "otc-signal/internal/mcp"
	"otc-signal/internal/metrics"
	"otc-signal/internal/repository"
	"otc-signal/internal/service"
	"otc-signal/pkg/logger"
	"otc-signal/pkg/tracing"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initLoggerFunc       = logger.Init
	initPostgresFunc     = db.InitPostgres
	initTracerFunc       = tracing.InitTracer
	newCandleRepoFunc    = repository.NewCandleRepository
	newBrokerClientFunc  = broker.NewClient
	newSignalServiceFunc = service.NewSignalService
	newMetricsFunc       = func() *metrics.Recorder { return metrics.NewRecorder(prometheus.DefaultRegisterer) }
	metricsHandlerFunc   = promhttp.Handler
	newMCPServerFunc     = mcpserver.NewServer
	newMCPHandlerFunc    = mcpserver.NewHTTPTransportHandler
	runStdioFunc         = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	// stdout carries the stdio protocol, logs go to stderr.
	initLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	defer db.Close()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var archive service.CandleArchive
	if db.Pool != nil {
		archive = newCandleRepoFunc(db.Pool, tracer)
	}
	recorder := newMetricsFunc()
	brokerClient := newBrokerClientFunc(cfg.BrokerWSURL, time.Duration(cfg.BrokerTimeoutSecs)*time.Second, tracer)
	signalService := newSignalServiceFunc(tracer, brokerClient, cfg.Engine(), service.SignalServiceOptions{
		CandlePeriod: cfg.CandlePeriodSecs,
		FetchTimeout: time.Duration(cfg.BrokerTimeoutSecs) * time.Second,
		Archive:      archive,
		Metrics:      recorder,
	})

	mcpSrv := newMCPServerFunc(tracer, signalService, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
		Credentials:    cfg.ServiceCredentials(),
		Metrics:        recorder,
	})

	switch strings.ToLower(strings.TrimSpace(cfg.MCPTransport)) {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatal().Err(err).Msg("mcp stdio server failed")
		}
	case "http":
		if err := runHTTPMode(cancel, cfg, mcpSrv, recorder); err != nil {
			log.Fatal().Err(err).Msg("mcp http server failed")
		}
	default:
		log.Fatal().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT")
	}
}

// runHTTPMode serves MCP and /metrics on one listener until SIGINT or SIGTERM.
func runHTTPMode(cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server, recorder *metrics.Recorder) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandlerFunc())
	mux.Handle("/", newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
		Middleware:      []gin.HandlerFunc{otelgin.Middleware("otc-signal-mcp"), recorder.GinMiddleware()},
	}))

	addr := net.JoinHostPort(cfg.MCPHTTPBind, strconv.Itoa(cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("mcp http server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("mcp http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
