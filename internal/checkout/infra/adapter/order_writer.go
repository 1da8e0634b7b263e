package adapter

import (
	"context"

	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	checkoutdomain "github.com/dwikikusuma/storefront/internal/checkout/domain"
	orderapp "github.com/dwikikusuma/storefront/internal/order/app"
	orderdomain "github.com/dwikikusuma/storefront/internal/order/domain"
)

type OrderServiceWriter struct {
	svc *orderapp.Service
}

func NewOrderServiceWriter(svc *orderapp.Service) *OrderServiceWriter {
	return &OrderServiceWriter{svc: svc}
}

func (w *OrderServiceWriter) CreateOrder(ctx context.Context, req checkoutapp.OrderRequest) (checkoutdomain.PlacedOrder, error) {
	items := make([]orderdomain.OrderItemRequest, 0, len(req.Lines))
	for _, ln := range req.Lines {
		items = append(items, orderdomain.OrderItemRequest{
			ProductID:  ln.ProductID,
			Name:       ln.Name,
			ImageRef:   ln.ImageRef,
			UnitAmount: ln.UnitPrice.Amount,
			Quantity:   int32(ln.Quantity),
		})
	}

	o, err := w.svc.CreateOrder(ctx, orderdomain.CreateOrderRequest{
		UserID:        req.UserID,
		Currency:      req.Breakdown.Currency,
		PaymentMethod: orderdomain.PaymentMethod(req.PaymentMethod),
		Shipping: orderdomain.ShippingInfo{
			Address: req.Shipping.Address,
			City:    req.Shipping.City,
			Country: req.Shipping.Country,
			PinCode: req.Shipping.PinCode,
		},
		TaxPrice:        req.Breakdown.Tax,
		ShippingCharges: req.Breakdown.ShippingCharges,
		TotalAmount:     req.Breakdown.TotalAmount,
		Items:           items,
	})
	if err != nil {
		return checkoutdomain.PlacedOrder{}, err
	}

	return checkoutdomain.PlacedOrder{
		OrderID:     o.ID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		CreatedAt:   o.CreatedAt,
	}, nil
}
