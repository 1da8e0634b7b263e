package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
)

type ProductRepo interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Product, string, error)
	SetStock(ctx context.Context, id string, stock int32) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type ListFilter struct {
	Query    string
	Category string
	Limit    int
	Cursor   string
}

// CategoryRepo returns ErrAlreadyExists for a name that is taken. Delete
// also detaches the category from every product that uses it.
type CategoryRepo interface {
	Create(ctx context.Context, c domain.Category) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	GetByName(ctx context.Context, name string) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}
