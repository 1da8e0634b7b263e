package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

// CartRepo persists one ledger per shopping session. Get returns an empty
// state, not an error, for a session that has no cart yet.
type CartRepo interface {
	Get(ctx context.Context, sessionID string) (domain.CartState, error)
	Save(ctx context.Context, state domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) bool
}

// CatalogReader resolves the stock snapshot for a product.
type CatalogReader interface {
	Snapshot(ctx context.Context, productID string) (domain.ItemSnapshot, error)
}
