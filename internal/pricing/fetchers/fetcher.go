// Package fetchers contains one adapter per external price source. Each
// adapter performs a single bounded-timeout GET and normalizes the
// heterogeneously-named payload into a canonical PriceQuote. Retry
// policy belongs to the caller.
package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// Fetcher is the capability every external price source implements.
type Fetcher interface {
	// Fetch pulls the current published prices. The region argument is
	// ignored by sources that publish a single national price.
	Fetch(ctx context.Context, region string) (*models.PriceQuote, error)
	Source() models.PriceSource
}

// Registry maps the closed source enumeration to its adapter.
type Registry struct {
	fetchers map[models.PriceSource]Fetcher
}

// NewRegistry indexes the given adapters by source.
func NewRegistry(all ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[models.PriceSource]Fetcher, len(all))}
	for _, f := range all {
		r.fetchers[f.Source()] = f
	}
	return r
}

// Lookup returns the adapter for the given source, or nil when the
// source has no online adapter (manual, simulate, unknown).
func (r *Registry) Lookup(source models.PriceSource) Fetcher {
	return r.fetchers[source]
}

func newHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
}

func getJSON(ctx context.Context, client *resty.Client, url string, headers map[string]string) (map[string]any, error) {
	req := client.R().SetContext(ctx)
	for k, v := range headers {
		req.SetHeader(k, v)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("price source request: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("price source returned status %d", resp.StatusCode())
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("price source payload: %w", err)
	}
	return raw, nil
}
