package client

import (
	"context"
	"fmt"
	"strings"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/validation"
)

// PPPFactor returns the Purchasing Power Parity factor for a country,
// identified by its ISO 3166-1 alpha-2 code.
func (c *Client) PPPFactor(ctx context.Context, countryCode string) (*zendfi.PPPFactor, error) {
	countryCode = strings.ToUpper(countryCode)
	if err := validation.ValidateCountryCode(countryCode); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	body := map[string]string{"country_code": countryCode}

	var factor zendfi.PPPFactor
	if err := c.do(ctx, "POST", "/api/v1/ai/pricing/ppp-factor", body, &factor, ""); err != nil {
		return nil, err
	}
	return &factor, nil
}

// SuggestPriceParams describe the service and buyer for a pricing suggestion.
type SuggestPriceParams struct {
	// ServiceType categorizes the service being priced. Required.
	ServiceType string

	// BaseAmountUSD is the provider's reference price. Required.
	BaseAmountUSD float64

	// CountryCode enables PPP adjustment for the buyer's country.
	CountryCode string

	// ApplyPPP requests a PPP-adjusted suggestion. Needs CountryCode.
	ApplyPPP bool
}

// SuggestPrice asks the backend for a price suggestion, optionally adjusted
// for the buyer's purchasing power.
func (c *Client) SuggestPrice(ctx context.Context, params SuggestPriceParams) (*zendfi.PricingSuggestion, error) {
	if params.ServiceType == "" {
		return nil, fmt.Errorf("%w: service type required", zendfi.ErrValidation)
	}
	if err := validation.ValidateAmountUSD(params.BaseAmountUSD); err != nil {
		return nil, fmt.Errorf("%w: base amount %v", zendfi.ErrValidation, err)
	}

	userProfile := map[string]interface{}{}
	if params.CountryCode != "" {
		code := strings.ToUpper(params.CountryCode)
		if err := validation.ValidateCountryCode(code); err != nil {
			return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
		}
		userProfile["country_code"] = code
	}

	body := map[string]interface{}{
		"service_type":    params.ServiceType,
		"base_amount_usd": params.BaseAmountUSD,
		"user_profile":    userProfile,
		"ppp_config": map[string]interface{}{
			"enabled": params.ApplyPPP,
		},
	}

	var suggestion zendfi.PricingSuggestion
	if err := c.do(ctx, "POST", "/api/v1/ai/pricing/suggest", body, &suggestion, ""); err != nil {
		return nil, err
	}
	return &suggestion, nil
}
