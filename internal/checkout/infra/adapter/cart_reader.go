package adapter

import (
	"context"
	"errors"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	"github.com/dwikikusuma/storefront/internal/checkout/domain"
)

type CartServiceReader struct {
	svc *cartapp.Service
}

func NewCartServiceReader(svc *cartapp.Service) *CartServiceReader {
	return &CartServiceReader{svc: svc}
}

func (r *CartServiceReader) GetCart(ctx context.Context, sessionID string) (checkoutapp.Cart, error) {
	v, err := r.svc.Get(ctx, sessionID)
	if err != nil {
		return checkoutapp.Cart{}, err
	}
	return toCart(v), nil
}

func (r *CartServiceReader) ConsumeCart(ctx context.Context, sessionID string, fn func(checkoutapp.Cart) error) error {
	err := r.svc.Consume(ctx, sessionID, func(v cartapp.View) error {
		return fn(toCart(v))
	})
	if errors.Is(err, cartapp.ErrClearFailed) {
		return errors.Join(checkoutapp.ErrCartNotCleared, err)
	}
	return err
}

func toCart(v cartapp.View) checkoutapp.Cart {
	items := make([]checkoutapp.CartItem, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, checkoutapp.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageRef:  it.ImageRef,
			UnitPrice: it.UnitPrice,
			Quantity:  int64(it.Quantity),
		})
	}

	b := v.Breakdown
	return checkoutapp.Cart{
		Items: items,
		Breakdown: domain.Breakdown{
			Currency:        b.Currency,
			ItemsPrice:      b.ItemsPrice,
			ShippingCharges: b.ShippingCharges,
			Tax:             b.Tax,
			TotalAmount:     b.TotalAmount,
		},
	}
}
