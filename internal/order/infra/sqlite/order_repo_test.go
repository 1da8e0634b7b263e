package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/storefront/internal/order/app"
	"github.com/dwikikusuma/storefront/internal/order/domain"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
)

func newTestRepo(t *testing.T) *OrderRepo {
	t.Helper()
	db, err := sqlite.Open(sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewOrderRepo(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func pendingOrder(userID string) domain.Order {
	return domain.Order{
		UserID:        userID,
		Status:        domain.StatusPending,
		PaymentMethod: domain.PaymentCOD,
		Shipping:      domain.ShippingInfo{Address: "1 Main St", City: "Pune", Country: "IN", PinCode: "411001"},
		Currency:      "INR",
		ItemsPrice:    1300,
		TaxPrice:      130,
		TotalAmount:   1430,
		OrderItems: []domain.OrderItem{
			{ProductID: "p1", Name: "Kettle", UnitAmount: 500, Quantity: 2, LineTotalAmount: 1000},
			{ProductID: "p2", Name: "Mug", UnitAmount: 100, Quantity: 3, LineTotalAmount: 300},
		},
	}
}

func TestOrderRepoCreateGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateOrderTx(ctx, pendingOrder("u1"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	for _, it := range created.OrderItems {
		assert.Equal(t, created.ID, it.OrderID)
		assert.NotEmpty(t, it.ID)
	}

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, domain.PaymentCOD, got.PaymentMethod)
	assert.Equal(t, "Pune", got.Shipping.City)
	assert.Equal(t, int64(1430), got.TotalAmount)
	require.Len(t, got.OrderItems, 2)
	assert.Equal(t, "p1", got.OrderItems[0].ProductID)
	assert.Equal(t, "p2", got.OrderItems[1].ProductID)

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, app.ErrNotFound)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, app.ErrInvalidInput)
}

func TestOrderRepoCreateRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	bad := pendingOrder("u1")
	bad.OrderItems[1].LineTotalAmount = 1

	_, err := repo.CreateOrderTx(ctx, bad)
	require.ErrorIs(t, err, app.ErrInvalidOrder)

	orders, err := repo.ListByUser(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderRepoListByUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var tick int
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := repo.CreateOrderTx(ctx, pendingOrder("u1"))
	require.NoError(t, err)
	second, err := repo.CreateOrderTx(ctx, pendingOrder("u1"))
	require.NoError(t, err)
	_, err = repo.CreateOrderTx(ctx, pendingOrder("u2"))
	require.NoError(t, err)

	orders, err := repo.ListByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.Len(t, orders[0].OrderItems, 2)

	limited, err := repo.ListByUser(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOrderRepoUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateOrderTx(ctx, pendingOrder("u1"))
	require.NoError(t, err)

	later := created.CreatedAt.Add(time.Hour)
	repo.now = func() time.Time { return later }

	updated, err := repo.UpdateStatus(ctx, created.ID, domain.StatusPending, domain.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.Len(t, updated.OrderItems, 2)

	// a second writer still expecting PENDING loses
	_, err = repo.UpdateStatus(ctx, created.ID, domain.StatusPending, domain.StatusPreparing)
	require.ErrorIs(t, err, app.ErrStatusConflict)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), domain.StatusPending, domain.StatusPreparing)
	assert.ErrorIs(t, err, app.ErrNotFound)
	_, err = repo.UpdateStatus(ctx, "nope", domain.StatusPending, domain.StatusPreparing)
	assert.ErrorIs(t, err, app.ErrInvalidInput)
}

func TestOrderRepoList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, err := repo.CreateOrderTx(ctx, pendingOrder("u1"))
	require.NoError(t, err)
	b, err := repo.CreateOrderTx(ctx, pendingOrder("u2"))
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, b.ID, domain.StatusPending, domain.StatusPreparing)
	require.NoError(t, err)

	all, err := repo.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := repo.List(ctx, domain.StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)
	assert.Len(t, pending[0].OrderItems, 2)

	shipped, err := repo.List(ctx, domain.StatusShipped, 10)
	require.NoError(t, err)
	assert.Empty(t, shipped)
}
