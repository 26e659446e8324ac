package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"otc-signal/internal/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexGroup struct {
	Category string
	Assets   []assetView
}

// Index renders the login form and asset picker.
func (h *Handler) Index(c *gin.Context) {
	grouped := domain.AssetsByCategory()
	groups := make([]indexGroup, 0, len(domain.Categories))
	for _, category := range domain.Categories {
		g := indexGroup{Category: string(category)}
		for _, a := range grouped[category] {
			g.Assets = append(g.Assets, assetView{Symbol: a.Symbol, Name: a.Name, Label: a.Label()})
		}
		groups = append(groups, g)
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(c.Writer, gin.H{"Groups": groups}); err != nil {
		_ = c.Error(err)
	}
}
