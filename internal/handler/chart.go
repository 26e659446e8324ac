package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"otc-signal/internal/chart"
	"otc-signal/internal/domain"
)

const maxChartCandles = 120

// GetChart godoc
// @Summary      Candle chart
// @Description  PNG chart of archived candles with Bollinger bands, SMA, RSI and MACD overlays
// @Tags         signals
// @Produce      png
// @Param        asset  query     string  true   "Asset symbol, e.g. EUR/USD"
// @Param        limit  query     int     false  "Number of candles (max 120)"
// @Success      200    {file}    binary
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /api/chart [get]
func (h *Handler) GetChart(c *gin.Context) {
	if h.signals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	asset, ok := domain.LookupAsset(c.Query("asset"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown or missing asset", "supported_symbols": domain.SupportedSymbols})
		return
	}
	span.SetAttributes(attribute.String("asset", asset.Symbol))

	limit := maxChartCandles
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer of at least 2"})
			return
		}
		limit = min(n, maxChartCandles)
	}

	candles, err := h.signals.ListArchivedCandles(ctx, asset.Symbol, limit)
	if err != nil {
		log.Error().Err(err).Str("asset", asset.Symbol).Msg("chart candles")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "candle archive unavailable"})
		return
	}
	if len(candles) < 2 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not enough archived candles for " + asset.Symbol})
		return
	}

	data, err := h.charts.Render(candles, nil)
	if err != nil {
		log.Error().Err(err).Str("asset", asset.Symbol).Msg("chart render")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chart render failed"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, chart.MimeType, data)
}
