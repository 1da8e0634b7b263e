package domain

import "github.com/shopspring/decimal"

type PriceBreakdown struct {
	Currency        string `json:"currency"`
	ItemsPrice      int64  `json:"items_price"`
	ShippingCharges int64  `json:"shipping_charges"`
	Tax             int64  `json:"tax"`
	TotalAmount     int64  `json:"total_amount"`
}

// PricingPolicy holds the storefront's shipping and tax rules. Amounts are in
// whole currency units.
type PricingPolicy struct {
	Currency              string
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRate               decimal.Decimal
}

func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		Currency:              "INR",
		FreeShippingThreshold: 1000,
		FlatShippingFee:       40,
		TaxRate:               decimal.RequireFromString("0.10"),
	}
}

// Price computes the breakdown for the given lines. An empty cart costs
// nothing, shipping included.
func (p PricingPolicy) Price(items []LineItem) PriceBreakdown {
	var itemsPrice int64
	for _, it := range items {
		itemsPrice += it.LineTotal()
	}

	out := PriceBreakdown{Currency: p.Currency, ItemsPrice: itemsPrice}
	if len(items) == 0 {
		return out
	}

	out.ShippingCharges = p.Shipping(itemsPrice)
	out.Tax = p.Tax(itemsPrice)
	out.TotalAmount = itemsPrice + out.ShippingCharges + out.Tax
	return out
}

func (p PricingPolicy) Shipping(itemsPrice int64) int64 {
	if itemsPrice >= p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// Tax rounds half away from zero, which is half-up for prices.
func (p PricingPolicy) Tax(itemsPrice int64) int64 {
	return decimal.NewFromInt(itemsPrice).Mul(p.TaxRate).Round(0).IntPart()
}

// PriceWith prices the ledger with a custom policy.
func (l *Ledger) PriceWith(p PricingPolicy) PriceBreakdown {
	return p.Price(l.items)
}
