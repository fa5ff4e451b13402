package client

import (
	"context"
	"errors"
	"net/url"
	"sort"

	zendfi "github.com/zendfi/zendfi-go"
)

// SearchProvidersParams filter the marketplace provider list.
type SearchProvidersParams struct {
	// ServiceType narrows results to one service category.
	ServiceType string

	// MaxPriceUSD excludes providers above this per-unit price. Zero means
	// no cap.
	MaxPriceUSD float64

	// MinReputation excludes providers below this reputation score.
	MinReputation float64

	// AvailableOnly excludes providers not currently accepting work.
	AvailableOnly bool
}

// SearchProviders lists marketplace providers, cheapest first. A missing
// marketplace returns an empty list rather than an error.
func (c *Client) SearchProviders(ctx context.Context, params SearchProvidersParams) ([]zendfi.AgentProvider, error) {
	path := "/api/v1/marketplace/providers"
	if params.ServiceType != "" {
		path += "?service_type=" + url.QueryEscape(params.ServiceType)
	}

	var resp struct {
		Providers []zendfi.AgentProvider `json:"providers"`
	}
	if err := c.do(ctx, "GET", path, nil, &resp, ""); err != nil {
		var apiErr *zendfi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return []zendfi.AgentProvider{}, nil
		}
		return nil, err
	}

	filtered := make([]zendfi.AgentProvider, 0, len(resp.Providers))
	for _, p := range resp.Providers {
		if params.MaxPriceUSD > 0 && p.PricePerUnit > params.MaxPriceUSD {
			continue
		}
		if p.Reputation < params.MinReputation {
			continue
		}
		if params.AvailableOnly && !p.Available {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PricePerUnit < filtered[j].PricePerUnit
	})

	return filtered, nil
}

// Provider fetches a single marketplace provider. An unknown agent ID
// returns (nil, nil).
func (c *Client) Provider(ctx context.Context, agentID string) (*zendfi.AgentProvider, error) {
	var provider zendfi.AgentProvider
	if err := c.do(ctx, "GET", "/api/v1/marketplace/providers/"+url.PathEscape(agentID), nil, &provider, ""); err != nil {
		var apiErr *zendfi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}
