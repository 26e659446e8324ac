package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"otc-signal/internal/domain"
	"otc-signal/internal/signal"
)

type Config struct {
	Port string

	BrokerWSURL       string
	BrokerEmail       string
	BrokerPassword    string
	BrokerAccount     string
	BrokerTimeoutSecs int
	CandlePeriodSecs  int

	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string

	FallbackSeed       int64
	FuserMinAgreeing   int
	DecisiveConfidence float64
	NeutralConfidence  float64

	Watchlist            []string
	SignalPollSecs       int
	ArchiveRetentionDays int
	CORSAllowedOrigins   []string
	LogLevel             string
	LogFormat            string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string
}

// ServiceCredentials are the broker credentials used by the bot, the poller
// and the other front-ends that have no interactive login.
func (c *Config) ServiceCredentials() domain.Credentials {
	return domain.Credentials{Email: c.BrokerEmail, Password: c.BrokerPassword, Account: c.BrokerAccount}
}

// Engine builds the signal engine from the FUSER_* settings. A non-zero
// FALLBACK_SEED makes fallback draws reproducible.
func (c *Config) Engine() *signal.Engine {
	fallback := signal.NewFallbackGenerator(nil)
	if c.FallbackSeed != 0 {
		fallback = signal.NewSeededFallback(c.FallbackSeed)
	}
	fuser := signal.NewFuser(signal.FuserConfig{
		MinAgreeing:        c.FuserMinAgreeing,
		DecisiveConfidence: c.DecisiveConfidence,
		NeutralConfidence:  c.NeutralConfidence,
	})
	return signal.NewEngine(nil, fuser, fallback)
}

func Load() *Config {
	cfg := &Config{
		BrokerWSURL:      strings.TrimSpace(os.Getenv("BROKER_WS_URL")),
		BrokerEmail:      strings.TrimSpace(os.Getenv("BROKER_EMAIL")),
		BrokerPassword:   os.Getenv("BROKER_PASSWORD"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = ":8080"
	} else if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	if cfg.BrokerWSURL == "" {
		log.Warn().Msg("BROKER_WS_URL not set, every signal will use the fallback generator")
	}
	if cfg.BrokerEmail == "" || cfg.BrokerPassword == "" {
		log.Warn().Msg("BROKER_EMAIL/BROKER_PASSWORD not set, bot and poller signals will use the fallback generator")
	}
	cfg.BrokerAccount = strings.ToUpper(strings.TrimSpace(os.Getenv("BROKER_ACCOUNT")))
	if cfg.BrokerAccount != domain.AccountReal {
		cfg.BrokerAccount = domain.AccountPractice
	}
	cfg.BrokerTimeoutSecs = envInt("BROKER_TIMEOUT_SECS", 10)
	cfg.CandlePeriodSecs = envInt("CANDLE_PERIOD_SECS", 60)

	if cfg.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET not set, web login is disabled")
	}
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_MINUTES", 720)) * time.Minute
	cfg.SessionCookieSecure = strings.EqualFold(strings.TrimSpace(os.Getenv("SESSION_COOKIE_SECURE")), "true")

	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	if v := strings.TrimSpace(os.Getenv("FALLBACK_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.FallbackSeed = n
		}
	}
	cfg.FuserMinAgreeing = envInt("FUSER_MIN_AGREEING", 3)
	cfg.DecisiveConfidence = envFloat("FUSER_DECISIVE_CONFIDENCE", 90)
	cfg.NeutralConfidence = envFloat("FUSER_NEUTRAL_CONFIDENCE", 70)

	cfg.Watchlist = parseWatchlist(os.Getenv("WATCHLIST"))
	cfg.SignalPollSecs = envInt("SIGNAL_POLL_SECS", 300)
	cfg.ArchiveRetentionDays = envInt("ARCHIVE_RETENTION_DAYS", 7)
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if cfg.LogFormat != "console" {
		cfg.LogFormat = "json"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")
	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = envInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = envInt("MCP_REQUEST_TIMEOUT_SECS", 15)
	cfg.MCPRateLimitPerMin = envInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}
	cfg.SSHPort = envInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/otc_signal_ed25519"
	}

	return cfg
}

// envInt reads a positive integer, keeping def for missing or invalid values.
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n <= 100 {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid number, using default")
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseWatchlist keeps catalog symbols only, deduplicated, in the given order.
func parseWatchlist(raw string) []string {
	parts := splitList(raw)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		asset, ok := domain.LookupAsset(part)
		if !ok {
			log.Warn().Str("symbol", part).Msg("ignoring unknown WATCHLIST symbol")
			continue
		}
		if _, ok := seen[asset.Symbol]; ok {
			continue
		}
		seen[asset.Symbol] = struct{}{}
		out = append(out, asset.Symbol)
	}
	return out
}
