package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dwikikusuma/storefront/internal/order/domain"
)

type fakeRepo struct {
	created    []domain.Order
	lastLim    int
	lastStatus string
	stored     map[string]domain.Order
	updates    int
}

func (f *fakeRepo) CreateOrderTx(ctx context.Context, o domain.Order) (domain.Order, error) {
	o.ID = "order-1"
	f.created = append(f.created, o)
	return o, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	o, ok := f.stored[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) List(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	f.lastStatus, f.lastLim = status, limit
	return nil, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, from, to string) (domain.Order, error) {
	o := f.stored[id]
	if o.Status != from {
		return domain.Order{}, ErrStatusConflict
	}
	o.Status = to
	f.stored[id] = o
	f.updates++
	return o, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	f.lastLim = limit
	return nil, nil
}

func validRequest() domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		UserID:          "u1",
		Currency:        "INR",
		PaymentMethod:   domain.PaymentOnline,
		Shipping:        domain.ShippingInfo{Address: "1 Main St", City: "Pune", Country: "IN", PinCode: "411001"},
		TaxPrice:        130,
		ShippingCharges: 0,
		TotalAmount:     1430,
		Items: []domain.OrderItemRequest{
			{ProductID: "p1", Name: "Kettle", UnitAmount: 500, Quantity: 2},
			{ProductID: "p2", Name: "Mug", UnitAmount: 100, Quantity: 3},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	o, err := svc.CreateOrder(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if o.Status != domain.StatusPending {
		t.Fatalf("status=%s", o.Status)
	}
	if o.ItemsPrice != 1300 || o.TotalAmount != 1430 {
		t.Fatalf("items=%d total=%d", o.ItemsPrice, o.TotalAmount)
	}
	if o.OrderItems[0].LineTotalAmount != 1000 {
		t.Fatalf("line total=%d", o.OrderItems[0].LineTotalAmount)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	cases := []struct {
		name   string
		modify func(r *domain.CreateOrderRequest)
	}{
		{"no items", func(r *domain.CreateOrderRequest) { r.Items = nil }},
		{"zero quantity", func(r *domain.CreateOrderRequest) { r.Items[0].Quantity = 0 }},
		{"negative unit amount", func(r *domain.CreateOrderRequest) { r.Items[1].UnitAmount = -1 }},
		{"duplicate product", func(r *domain.CreateOrderRequest) { r.Items[1].ProductID = "p1" }},
		{"unknown payment method", func(r *domain.CreateOrderRequest) { r.PaymentMethod = "CARD" }},
		{"missing pin code", func(r *domain.CreateOrderRequest) { r.Shipping.PinCode = " " }},
		{"negative shipping", func(r *domain.CreateOrderRequest) { r.ShippingCharges = -40 }},
		{"total mismatch", func(r *domain.CreateOrderRequest) { r.TotalAmount = 1 }},
		{"missing user", func(r *domain.CreateOrderRequest) { r.UserID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := NewService(repo)

			req := validRequest()
			tc.modify(&req)
			_, err := svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got %v", err)
			}
			if len(repo.created) != 0 {
				t.Fatalf("repo should not be called")
			}
		})
	}
}

func TestCreateOrderLowercasePaymentMethod(t *testing.T) {
	svc := NewService(&fakeRepo{})
	req := validRequest()
	req.PaymentMethod = "cod"

	o, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if o.PaymentMethod != domain.PaymentCOD {
		t.Fatalf("payment method=%s", o.PaymentMethod)
	}
}

func TestListOrdersLimits(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	if _, err := svc.ListOrders(context.Background(), "", 10); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, _ = svc.ListOrders(context.Background(), "u1", 0)
	if repo.lastLim != 20 {
		t.Fatalf("limit=%d", repo.lastLim)
	}
	_, _ = svc.ListOrders(context.Background(), "u1", 1000)
	if repo.lastLim != 100 {
		t.Fatalf("limit=%d", repo.lastLim)
	}
}

func TestProcessOrder(t *testing.T) {
	repo := &fakeRepo{stored: map[string]domain.Order{"o1": {ID: "o1", Status: domain.StatusPending}}}
	svc := NewService(repo)

	for _, want := range []string{domain.StatusPreparing, domain.StatusShipped, domain.StatusDelivered} {
		o, err := svc.ProcessOrder(context.Background(), "o1")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if o.Status != want {
			t.Fatalf("status=%s, want %s", o.Status, want)
		}
	}

	if _, err := svc.ProcessOrder(context.Background(), "o1"); !errors.Is(err, ErrOrderFinal) {
		t.Fatalf("expected ErrOrderFinal, got %v", err)
	}
	if repo.updates != 3 {
		t.Fatalf("updates=%d", repo.updates)
	}
	if _, err := svc.ProcessOrder(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAllOrders(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	if _, err := svc.ListAllOrders(context.Background(), "lost", 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, _ = svc.ListAllOrders(context.Background(), " shipped ", 0)
	if repo.lastStatus != domain.StatusShipped || repo.lastLim != 20 {
		t.Fatalf("status=%q limit=%d", repo.lastStatus, repo.lastLim)
	}
	_, _ = svc.ListAllOrders(context.Background(), "", 500)
	if repo.lastStatus != "" || repo.lastLim != 100 {
		t.Fatalf("status=%q limit=%d", repo.lastStatus, repo.lastLim)
	}
}
