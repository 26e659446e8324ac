package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"otc-signal/internal/chart"
	"otc-signal/internal/domain"
)

const (
	sessionCookie = "session"
	sessionHeader = "X-Session-Token"
)

type SignalProvider interface {
	GetSignal(ctx context.Context, symbol string, creds domain.Credentials) (domain.SignalDecision, error)
	ListArchivedCandles(ctx context.Context, symbol string, limit int) ([]*domain.Candle, error)
}

type SessionManager interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Resolve(ctx context.Context, token string) (domain.Credentials, error)
	Logout(ctx context.Context, token string) error
}

type Handler struct {
	tracer        trace.Tracer
	signals       SignalProvider
	sessions      SessionManager
	charts        *chart.Renderer
	secureCookies bool
}

func New(tracer trace.Tracer, signals SignalProvider, sessions SessionManager) *Handler {
	return &Handler{tracer: tracer, signals: signals, sessions: sessions, charts: chart.NewRenderer()}
}

// WithSecureCookies marks the session cookie Secure; enable behind TLS.
func (h *Handler) WithSecureCookies(secure bool) *Handler {
	h.secureCookies = secure
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.POST("/get_signal", h.LegacySignal)
	api := r.Group("/api")
	api.GET("/assets", h.GetAssets)
	api.GET("/chart", h.GetChart)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	api.POST("/signal", h.GetSignal)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
