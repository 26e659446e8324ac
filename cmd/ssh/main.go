package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"otc-signal/internal/broker"
	"otc-signal/internal/config"
	"otc-signal/internal/db"
	"otc-signal/internal/repository"
	"otc-signal/internal/service"
	"otc-signal/internal/tui"
	"otc-signal/pkg/logger"
	"otc-signal/pkg/tracing"
)

const sshIdleTimeout = 30 * time.Minute

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initLoggerFunc       = logger.Init
	initPostgresFunc     = db.InitPostgres
	initTracerFunc       = tracing.InitTracer
	ensureSchemaFunc     = repository.EnsureSchema
	newCandleRepoFunc    = repository.NewCandleRepository
	newSSHUserRepoFunc   = repository.NewSSHUserRepository
	newBrokerClientFunc  = broker.NewClient
	newSignalServiceFunc = service.NewSignalService
	newSSHServerFunc     = tui.NewSSHServer
	startSSHServerFunc   = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFn  = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
	argsFunc             = func() []string { return os.Args[1:] }
	readFileFunc         = os.ReadFile
)

// userAdmin manages the operators allowed into the terminal UI.
type userAdmin interface {
	Register(ctx context.Context, username, authorizedKey string) (int64, string, error)
	Deactivate(ctx context.Context, username string) error
}

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	initLoggerFunc(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	defer db.Close()
	if db.Pool == nil {
		log.Fatal().Msg("DATABASE_URL is required: ssh users are stored in postgres")
	}
	if err := ensureSchemaFunc(ctx, db.Pool); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	users := newSSHUserRepoFunc(db.Pool, tracer)
	if args := argsFunc(); len(args) > 0 {
		if err := runAdminCommand(ctx, users, args); err != nil {
			log.Fatal().Err(err).Msg("ssh user command failed")
		}
		return
	}

	brokerClient := newBrokerClientFunc(cfg.BrokerWSURL, time.Duration(cfg.BrokerTimeoutSecs)*time.Second, tracer)
	signalService := newSignalServiceFunc(tracer, brokerClient, cfg.Engine(), service.SignalServiceOptions{
		CandlePeriod: cfg.CandlePeriodSecs,
		FetchTimeout: time.Duration(cfg.BrokerTimeoutSecs) * time.Second,
		Archive:      newCandleRepoFunc(db.Pool, tracer),
	})

	srv, err := newSSHServerFunc(tui.SSHConfig{
		Bind:        cfg.SSHBind,
		Port:        cfg.SSHPort,
		HostKeyPath: cfg.SSHHostKeyPath,
		IdleTimeout: sshIdleTimeout,
	}, users, signalService, cfg.ServiceCredentials())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ssh server")
	}

	go func() {
		log.Info().Str("bind", cfg.SSHBind).Int("port", cfg.SSHPort).Msg("ssh server listening")
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error().Err(err).Msg("ssh server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down ssh server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := shutdownSSHServerFn(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ssh server forced to shutdown")
	}
}

// runAdminCommand handles "adduser <name> <pubkey-file>" and "revoke <name>".
func runAdminCommand(ctx context.Context, users userAdmin, args []string) error {
	switch {
	case args[0] == "adduser" && len(args) == 3:
		key, err := readFileFunc(args[2])
		if err != nil {
			return fmt.Errorf("read public key: %w", err)
		}
		id, fingerprint, err := users.Register(ctx, args[1], string(key))
		if err != nil {
			return err
		}
		log.Info().Int64("user_id", id).Str("username", args[1]).Str("fingerprint", fingerprint).Msg("ssh user registered")
		return nil
	case args[0] == "revoke" && len(args) == 2:
		if err := users.Deactivate(ctx, args[1]); err != nil {
			return err
		}
		log.Info().Str("username", args[1]).Msg("ssh user deactivated")
		return nil
	}
	return fmt.Errorf("usage: ssh adduser <username> <public-key-file> | ssh revoke <username>")
}
