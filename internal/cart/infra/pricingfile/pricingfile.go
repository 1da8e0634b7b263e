package pricingfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

type file struct {
	Currency              string `yaml:"currency"`
	FreeShippingThreshold *int64 `yaml:"free_shipping_threshold"`
	FlatShippingFee       *int64 `yaml:"flat_shipping_fee"`
	TaxRate               string `yaml:"tax_rate"`
}

// Load reads a YAML pricing policy. Fields left out keep the default
// policy's values; an empty path returns the defaults.
func Load(path string) (domain.PricingPolicy, error) {
	if strings.TrimSpace(path) == "" {
		return domain.DefaultPricingPolicy(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.PricingPolicy{}, fmt.Errorf("read pricing file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (domain.PricingPolicy, error) {
	p := domain.DefaultPricingPolicy()

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return domain.PricingPolicy{}, fmt.Errorf("parse pricing file: %w", err)
	}

	if f.Currency != "" {
		p.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))
	}
	if f.FreeShippingThreshold != nil {
		p.FreeShippingThreshold = *f.FreeShippingThreshold
	}
	if f.FlatShippingFee != nil {
		p.FlatShippingFee = *f.FlatShippingFee
	}
	if f.TaxRate != "" {
		rate, err := decimal.NewFromString(f.TaxRate)
		if err != nil {
			return domain.PricingPolicy{}, fmt.Errorf("tax_rate %q: %w", f.TaxRate, err)
		}
		p.TaxRate = rate
	}

	if p.FreeShippingThreshold < 0 || p.FlatShippingFee < 0 || p.TaxRate.IsNegative() {
		return domain.PricingPolicy{}, fmt.Errorf("pricing values must not be negative")
	}
	return p, nil
}
