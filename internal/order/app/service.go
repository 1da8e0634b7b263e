package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/storefront/internal/order/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidOrder = errors.New("invalid order")
	ErrNotFound     = errors.New("not found")
	// ErrOrderFinal is returned when processing an order that was delivered.
	ErrOrderFinal = errors.New("order already delivered")
	// ErrStatusConflict means the order changed status while it was being
	// processed.
	ErrStatusConflict = errors.New("order status changed")
)

type Service struct {
	repo OrderRepo
}

func NewService(repo OrderRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: items must not be empty", ErrInvalidOrder)
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Currency) == "" {
		return domain.Order{}, fmt.Errorf("%w: user id and currency are required", ErrInvalidOrder)
	}
	if _, ok := domain.ParsePaymentMethod(string(req.PaymentMethod)); !ok {
		return domain.Order{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, req.PaymentMethod)
	}
	if !req.Shipping.Complete() {
		return domain.Order{}, fmt.Errorf("%w: shipping info incomplete", ErrInvalidOrder)
	}
	if req.ShippingCharges < 0 || req.TaxPrice < 0 {
		return domain.Order{}, fmt.Errorf("%w: charges cannot be negative", ErrInvalidOrder)
	}

	orderItems := make([]domain.OrderItem, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	var itemsPrice int64

	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.Order{}, fmt.Errorf("%w: item %d: product id is required", ErrInvalidOrder, i)
		}
		if _, dup := seen[item.ProductID]; dup {
			return domain.Order{}, fmt.Errorf("%w: item %d: duplicate product %s", ErrInvalidOrder, i, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d: quantity must be positive, got %d", ErrInvalidOrder, i, item.Quantity)
		}
		if item.UnitAmount < 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d: unit amount cannot be negative, got %d", ErrInvalidOrder, i, item.UnitAmount)
		}

		lineTotal := item.UnitAmount * int64(item.Quantity)
		orderItems = append(orderItems, domain.OrderItem{
			ProductID:       item.ProductID,
			Name:            item.Name,
			ImageRef:        item.ImageRef,
			UnitAmount:      item.UnitAmount,
			Quantity:        item.Quantity,
			LineTotalAmount: lineTotal,
		})
		itemsPrice += lineTotal
	}

	total := itemsPrice + req.TaxPrice + req.ShippingCharges
	if req.TotalAmount != 0 && req.TotalAmount != total {
		return domain.Order{}, fmt.Errorf("%w: total %d does not match computed %d", ErrInvalidOrder, req.TotalAmount, total)
	}

	method, _ := domain.ParsePaymentMethod(string(req.PaymentMethod))
	order := domain.Order{
		UserID:          strings.TrimSpace(req.UserID),
		Status:          domain.StatusPending,
		PaymentMethod:   method,
		Shipping:        req.Shipping,
		Currency:        strings.TrimSpace(req.Currency),
		ItemsPrice:      itemsPrice,
		TaxPrice:        req.TaxPrice,
		ShippingCharges: req.ShippingCharges,
		TotalAmount:     total,
		OrderItems:      orderItems,
	}

	return s.repo.CreateOrderTx(ctx, order)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// ProcessOrder moves an order one step along its lifecycle.
func (s *Service) ProcessOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	next, ok := domain.NextStatus(o.Status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %s is %s", ErrOrderFinal, o.ID, o.Status)
	}
	return s.repo.UpdateStatus(ctx, o.ID, o.Status, next)
}

// ListAllOrders is the admin view over every user's orders.
func (s *Service) ListAllOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, status, limit)
}
