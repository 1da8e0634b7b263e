package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/order/domain"
)

type OrderRepo interface {
	CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	// List returns orders of any user, optionally only those in status.
	List(ctx context.Context, status string, limit int) ([]domain.Order, error)
	// UpdateStatus moves an order from one status to another. It returns
	// ErrStatusConflict when the order is no longer in status from.
	UpdateStatus(ctx context.Context, id, from, to string) (domain.Order, error)
}
