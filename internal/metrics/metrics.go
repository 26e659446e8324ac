package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"otc-signal/internal/domain"
)

// Recorder holds the Prometheus collectors for signal requests.
type Recorder struct {
	Decisions     *prometheus.CounterVec
	Fallbacks     *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	FetchErrors   prometheus.Counter
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	MCPRequests   *prometheus.CounterVec
	MCPDuration   *prometheus.HistogramVec
}

// NewRecorder registers all collectors on reg. Passing a fresh registry keeps
// tests independent of the global default.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_signal_decisions_total",
			Help: "Signal decisions by direction and source",
		}, []string{"direction", "source"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_signal_fallbacks_total",
			Help: "Fallback decisions by cause",
		}, []string{"reason"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "otc_broker_fetch_duration_seconds",
			Help:    "Broker candle fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otc_broker_fetch_errors_total",
			Help: "Broker candle fetches that failed",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "otc_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		MCPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_mcp_requests_total",
			Help: "MCP requests by method and outcome",
		}, []string{"method", "outcome"}),
		MCPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "otc_mcp_request_duration_seconds",
			Help:    "MCP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(r.Decisions, r.Fallbacks, r.FetchDuration, r.FetchErrors,
		r.HTTPRequests, r.HTTPDuration, r.MCPRequests, r.MCPDuration)
	return r
}

func (r *Recorder) ObserveFetch(elapsed time.Duration, err error) {
	r.FetchDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.FetchErrors.Inc()
	}
}

func (r *Recorder) ObserveDecision(d domain.SignalDecision) {
	r.Decisions.WithLabelValues(string(d.Direction), string(d.Source)).Inc()
	if d.IsFallback() {
		reason := d.Reason
		if reason == "" {
			reason = "unknown"
		}
		r.Fallbacks.WithLabelValues(reason).Inc()
	}
}

func (r *Recorder) ObserveMCPRequest(method string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.MCPRequests.WithLabelValues(method, outcome).Inc()
	r.MCPDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// GinMiddleware records request counts and latency by route template.
func (r *Recorder) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		r.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
