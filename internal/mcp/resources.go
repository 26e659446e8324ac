package mcp

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	catalogURI          = "assets://catalog"
	categoryURIPrefix   = "assets://category/"
	resourceContentType = "application/json"
)

func registerResources(server *sdkmcp.Server) {
	server.AddResource(&sdkmcp.Resource{
		URI:         catalogURI,
		Name:        "asset-catalog",
		Description: "Every OTC asset with its category and broker code",
		MIMEType:    resourceContentType,
	}, readCatalog)

	server.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: categoryURIPrefix + "{category}",
		Name:        "assets-by-category",
		Description: "OTC assets in one category: Forex, Cryptocurrencies, Commodities or Stocks",
		MIMEType:    resourceContentType,
	}, readCategory)
}

func readCatalog(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return assetsResource(req.Params.URI, listAssets(""))
}

// readCategory serves assets://category/{category}. The category is matched
// case-insensitively and may be percent-encoded.
func readCategory(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	uri := req.Params.URI
	raw, ok := strings.CutPrefix(uri, categoryURIPrefix)
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(uri)
	}
	name, err := url.PathUnescape(strings.Trim(raw, "/"))
	if err != nil || name == "" {
		return nil, sdkmcp.ResourceNotFoundError(uri)
	}
	category, err := normalizeCategory(name)
	if err != nil {
		return nil, err
	}
	return assetsResource(uri, listAssets(category))
}

func assetsResource(uri string, assets assetsListOutput) (*sdkmcp.ReadResourceResult, error) {
	body, err := json.Marshal(assets)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.ReadResourceResult{Contents: []*sdkmcp.ResourceContents{
		{URI: uri, MIMEType: resourceContentType, Text: string(body)},
	}}, nil
}
