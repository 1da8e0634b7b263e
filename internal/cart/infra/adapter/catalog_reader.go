package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
)

type CatalogServiceReader struct {
	svc      *catalogapp.Service
	currency string
}

// NewCatalogServiceReader reads snapshots for carts priced in currency.
func NewCatalogServiceReader(svc *catalogapp.Service, currency string) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc, currency: currency}
}

// Snapshot reads the product's current price and stock as a ledger snapshot.
func (r *CatalogServiceReader) Snapshot(ctx context.Context, productID string) (domain.ItemSnapshot, error) {
	p, err := r.svc.GetProduct(ctx, productID)
	if errors.Is(err, catalogapp.ErrNotFound) || errors.Is(err, catalogapp.ErrInvalidInput) {
		return domain.ItemSnapshot{}, cartapp.ErrProductNotFound
	}
	if err != nil {
		return domain.ItemSnapshot{}, err
	}
	if !strings.EqualFold(p.Price.Currency, r.currency) {
		return domain.ItemSnapshot{}, fmt.Errorf("%w: %s is priced in %s, cart uses %s",
			cartapp.ErrCurrencyMismatch, p.ID, p.Price.Currency, r.currency)
	}

	return domain.ItemSnapshot{
		ProductID:    p.ID,
		Name:         p.Name,
		UnitPrice:    p.Price.Amount,
		ImageRef:     p.PrimaryImage(),
		StockCeiling: p.Stock,
	}, nil
}
