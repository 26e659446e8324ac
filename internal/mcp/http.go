package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultMaxBodyBytes int64 = 1 << 20
	defaultRatePerMin         = 60
	idleClientTTL             = 10 * time.Minute
)

type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
	// Middleware runs before authentication, e.g. tracing and request metrics.
	Middleware []gin.HandlerFunc
}

// NewHTTPTransportHandler serves the streamable MCP transport on / and /mcp
// behind bearer auth, a per-client rate limit and a body size cap.
// GET /healthz is left open for probes.
func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	transport := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return server }, nil)
	return newHTTPRouter(gin.WrapH(transport), cfg)
}

func newHTTPRouter(serve gin.HandlerFunc, cfg HTTPHandlerConfig) *gin.Engine {
	r := gin.New()
	// Clients are keyed by the socket address, never by forwarded headers.
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(cfg.Middleware...)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	guarded := r.Group("/", requireBearer(cfg.AuthToken), limitClients(newClientLimiter(cfg.RateLimitPerMin)), limitBody(cfg.MaxBodyBytes))
	guarded.Any("/", serve)
	guarded.Any("/mcp", serve)
	return r
}

// requireBearer rejects every request when no token is configured.
func requireBearer(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(strings.TrimSpace(c.GetHeader("Authorization")), "Bearer ")
		got = strings.TrimSpace(got)
		if !ok || got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			log.Warn().Str("remote", c.ClientIP()).Msg("mcp request with invalid bearer token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Next()
	}
}

func limitClients(l *clientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// clientLimiter keeps one token bucket per client address. The bucket holds
// a full minute of requests; clients idle past idleClientTTL are forgotten.
type clientLimiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	clients map[string]*client
	now     func() time.Time
	swept   time.Time
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(perMin int) *clientLimiter {
	if perMin <= 0 {
		perMin = defaultRatePerMin
	}
	return &clientLimiter{
		every:   rate.Every(time.Minute / time.Duration(perMin)),
		burst:   perMin,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (l *clientLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) >= idleClientTTL {
		for k, c := range l.clients {
			if now.Sub(c.seen) > idleClientTTL {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[key] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}
