package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"otc-signal/internal/domain"
	"otc-signal/internal/render"
)

type signalRequest struct {
	Asset string `form:"asset" json:"asset"`
}

type assetView struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Label  string `json:"label"`
}

// GetAssets godoc
// @Summary      List tradable OTC assets
// @Description  Returns the asset catalog grouped by category
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/assets [get]
func (h *Handler) GetAssets(c *gin.Context) {
	grouped := domain.AssetsByCategory()
	out := make(map[string][]assetView, len(grouped))
	for category, assets := range grouped {
		views := make([]assetView, 0, len(assets))
		for _, a := range assets {
			views = append(views, assetView{Symbol: a.Symbol, Name: a.Name, Label: a.Label()})
		}
		out[string(category)] = views
	}
	c.JSON(http.StatusOK, gin.H{"categories": domain.Categories, "assets": out})
}

// GetSignal godoc
// @Summary      Generate a signal for an asset
// @Description  Requires a session from /api/login, as cookie or X-Session-Token header
// @Tags         signals
// @Accept       json,x-www-form-urlencoded
// @Produce      json,html
// @Param        asset   formData  string  true   "Asset symbol, e.g. EUR/USD"
// @Param        format  query     string  false  "html for the legacy text block"
// @Success      200  {object}  render.Payload
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/signal [post]
func (h *Handler) GetSignal(c *gin.Context) {
	h.respondSignal(c, strings.EqualFold(c.Query("format"), "html"))
}

// LegacySignal serves POST /get_signal, which always answers with the
// <br>-joined block the index page injects.
func (h *Handler) LegacySignal(c *gin.Context) {
	h.respondSignal(c, true)
}

func (h *Handler) respondSignal(c *gin.Context, asHTML bool) {
	if h.signals == nil || h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()

	creds, err := h.sessions.Resolve(ctx, sessionToken(c))
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			log.Error().Err(err).Msg("resolve session")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}

	var req signalRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Asset) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset is required"})
		return
	}
	span.SetAttributes(attribute.String("asset", req.Asset))

	decision, err := h.signals.GetSignal(ctx, req.Asset, creds)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedAsset) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "unsupported asset: " + strings.TrimSpace(req.Asset),
				"supported_symbols": domain.SupportedSymbols,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if asHTML {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(render.HTML(decision)))
		return
	}
	c.JSON(http.StatusOK, render.NewPayload(decision))
}
