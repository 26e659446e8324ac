package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"otc-signal/internal/bot"
	"otc-signal/internal/broker"
	"otc-signal/internal/cache"
	"otc-signal/internal/config"
	"otc-signal/internal/db"
	"otc-signal/internal/handler"
	"otc-signal/internal/job"
	"otc-signal/internal/metrics"
	"otc-signal/internal/repository"
	"otc-signal/internal/service"
	"otc-signal/pkg/logger"
	"otc-signal/pkg/tracing"

	_ "otc-signal/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initLoggerFunc         = logger.Init
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	ensureSchemaFunc       = repository.EnsureSchema
	newCandleRepoFunc      = repository.NewCandleRepository
	newBrokerClientFunc    = broker.NewClient
	newSessionStoreFunc    = cache.NewSessionStore
	newSubscriberStoreFunc = cache.NewSubscriberStore
	newMetricsFunc         = func() *metrics.Recorder { return metrics.NewRecorder(prometheus.DefaultRegisterer) }
	metricsHandlerFunc     = promhttp.Handler
	newSignalServiceFunc   = service.NewSignalService
	newSessionServiceFunc  = service.NewSessionService
	startTelegramBotFunc   = bot.StartTelegramBot
	newSignalPollerFunc    = job.NewSignalPoller
	startSignalPollerFunc  = func(p *job.SignalPoller, ctx context.Context) { go p.Start(ctx) }
	newRetentionJobFunc    = job.NewCandleRetention
	startRetentionJobFunc  = func(j *job.CandleRetention, ctx context.Context) { go j.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.New
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           OTC Signal API
// @version         1.0
// @description     Technical-indicator trading signals for OTC assets.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	initLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	defer db.Close()
	initRedisFunc(ctx, cfg.RedisURL)

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
	var pruner job.CandlePruner
	if db.Pool != nil {
		if err := ensureSchemaFunc(ctx, db.Pool); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		candleRepo := newCandleRepoFunc(db.Pool, tracer)
		archive, pruner = candleRepo, candleRepo
	}

	recorder := newMetricsFunc()
	brokerClient := newBrokerClientFunc(cfg.BrokerWSURL, time.Duration(cfg.BrokerTimeoutSecs)*time.Second, tracer)
	signalService := newSignalServiceFunc(tracer, brokerClient, cfg.Engine(), service.SignalServiceOptions{
		CandlePeriod: cfg.CandlePeriodSecs,
		FetchTimeout: time.Duration(cfg.BrokerTimeoutSecs) * time.Second,
		Archive:      archive,
		Metrics:      recorder,
	})

	var sessions *service.SessionService
	if cache.Client != nil && cfg.SessionSecret != "" {
		store, err := newSessionStoreFunc(cache.Client, cfg.SessionSecret, cfg.SessionTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create session store")
		}
		sessions = newSessionServiceFunc(tracer, brokerClient, store, cfg.BrokerAccount)
	}

	var subscribers bot.SubscriberStore
	if cache.Client != nil {
		subscribers = newSubscriberStoreFunc(cache.Client)
	}
	alerts := startTelegramBotFunc(cfg.TelegramBotToken, signalService, cfg.ServiceCredentials(), subscribers)
	var sink job.SignalAlertSink
	if alerts != nil {
		sink = alerts
	}
	poller := newSignalPollerFunc(tracer, signalService, sink, cfg.ServiceCredentials(),
		cfg.Watchlist, time.Duration(cfg.SignalPollSecs)*time.Second)
	startSignalPollerFunc(poller, ctx)

	retention := newRetentionJobFunc(tracer, pruner, time.Duration(cfg.ArchiveRetentionDays)*24*time.Hour)
	startRetentionJobFunc(retention, ctx)

	var sessionManager handler.SessionManager
	if sessions != nil {
		sessionManager = sessions
	}
	h := newHandlerFunc(tracer, signalService, sessionManager).WithSecureCookies(cfg.SessionCookieSecure)

	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("otc-signal"))
	r.Use(recorder.GinMiddleware())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Content-Type", "X-Session-Token"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metricsHandlerFunc()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
