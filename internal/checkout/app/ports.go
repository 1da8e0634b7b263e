package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/checkout/domain"
)

type CartReader interface {
	GetCart(ctx context.Context, sessionID string) (Cart, error)
	// ConsumeCart runs fn on the session's cart while other changes to that
	// cart wait, and empties the cart when fn succeeds. fn's error is returned
	// unchanged. A cart that could not be emptied is ErrCartNotCleared.
	ConsumeCart(ctx context.Context, sessionID string, fn func(Cart) error) error
}

type Cart struct {
	Items     []CartItem
	Breakdown domain.Breakdown
}

type CartItem struct {
	ProductID string
	Name      string
	ImageRef  string
	UnitPrice int64
	Quantity  int64
}

// CatalogReader returns ErrProductUnavailable for products the catalog no
// longer carries.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

type Product struct {
	ID       string
	Name     string
	Currency string
	Amount   int64
	Stock    int64
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, req OrderRequest) (domain.PlacedOrder, error)
}

type OrderRequest struct {
	UserID        string
	PaymentMethod string
	Shipping      domain.ShippingInfo
	Lines         []domain.QuoteLine
	Breakdown     domain.Breakdown
}
