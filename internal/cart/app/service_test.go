package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/cart/infra/memory"
)

type fakeCatalog map[string]domain.ItemSnapshot

var errNoProduct = errors.New("no such product")

func (f fakeCatalog) Snapshot(ctx context.Context, productID string) (domain.ItemSnapshot, error) {
	s, ok := f[productID]
	if !ok {
		return domain.ItemSnapshot{}, errNoProduct
	}
	return s, nil
}

func newTestService(t *testing.T, catalog fakeCatalog) (*Service, *memory.CartRepo) {
	t.Helper()
	repo := memory.NewCartRepo()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo,
		WithCatalog(catalog),
		WithClock(func() time.Time { return clock }),
	)
	return svc, repo
}

func TestServiceAddItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, fakeCatalog{
		"p1": {ProductID: "p1", Name: "Kettle", UnitPrice: 500, StockCeiling: 2},
		"p2": {ProductID: "p2", Name: "Mug", UnitPrice: 100, StockCeiling: 0},
	})

	v, err := svc.AddItem(ctx, "s1", "p1", 0)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int32(1), v.Items[0].Quantity)
	assert.Equal(t, domain.PriceBreakdown{Currency: "INR", ItemsPrice: 500, Tax: 50, ShippingCharges: 40, TotalAmount: 590}, v.Breakdown)

	v, err = svc.AddItem(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.TotalQuantity)

	v, err = svc.AddItem(ctx, "s1", "p1", 1)
	assert.ErrorIs(t, err, domain.ErrStockLimitExceeded)
	assert.Equal(t, int64(2), v.TotalQuantity, "view reflects the unchanged cart")

	_, err = svc.AddItem(ctx, "s1", "p2", 1)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = svc.AddItem(ctx, "s1", "missing", 1)
	assert.ErrorIs(t, err, errNoProduct)

	got, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p1", got.Items[0].ProductID)
}

func TestServiceIncrementDecrement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.Upsert(ctx, "s1", domain.ItemSnapshot{ProductID: "p1", UnitPrice: 10, StockCeiling: 2}, 2)
	require.NoError(t, err)

	_, err = svc.Increment(ctx, "s1", "p1")
	assert.ErrorIs(t, err, domain.ErrStockLimitExceeded)

	v, err := svc.Decrement(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.TotalQuantity)

	v, err = svc.Decrement(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Equal(t, domain.PriceBreakdown{Currency: "INR"}, v.Breakdown)

	_, err = svc.Decrement(ctx, "s1", "p1")
	require.NoError(t, err)

	_, err = svc.Increment(ctx, "s1", "ghost")
	require.NoError(t, err)
}

func TestServiceRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)

	_, err := svc.AddSnapshot(ctx, "s1", domain.ItemSnapshot{ProductID: "p1", UnitPrice: 10, StockCeiling: 2})
	require.NoError(t, err)
	_, err = svc.AddSnapshot(ctx, "s1", domain.ItemSnapshot{ProductID: "p2", UnitPrice: 10, StockCeiling: 2})
	require.NoError(t, err)

	v, err := svc.Remove(ctx, "s1", "p1")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)

	require.NoError(t, svc.Clear(ctx, "s1"))
	state, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, state.Items)

	b, err := svc.Breakdown(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, b.TotalAmount)
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, fakeCatalog{})

	_, err := svc.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(ctx, "s1", "", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, svc.Clear(ctx, ""), ErrInvalidInput)

	noCatalog := NewService(memory.NewCartRepo())
	_, err = noCatalog.AddItem(ctx, "s1", "p1", 1)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestServiceStockConditionDoesNotSave(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)

	_, err := svc.Upsert(ctx, "s1", domain.ItemSnapshot{ProductID: "p1", UnitPrice: 10, StockCeiling: 1}, 1)
	require.NoError(t, err)
	before, err := repo.Get(ctx, "s1")
	require.NoError(t, err)

	_, err = svc.Increment(ctx, "s1", "p1")
	require.ErrorIs(t, err, domain.ErrStockLimitExceeded)

	after, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestServiceLedgerIsDetached(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	_, err := svc.Upsert(ctx, "s1", domain.ItemSnapshot{ProductID: "p1", UnitPrice: 10, StockCeiling: 3}, 1)
	require.NoError(t, err)

	l, err := svc.Ledger(ctx, "s1")
	require.NoError(t, err)
	l.Clear()

	v, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
}

func TestServiceSetQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, fakeCatalog{
		"p1": {ProductID: "p1", Name: "Kettle", UnitPrice: 500, StockCeiling: 4},
	})

	v, err := svc.SetQuantity(ctx, "s1", "p1", 3)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(500), v.Items[0].UnitPrice)
	assert.Equal(t, int32(3), v.Items[0].Quantity)

	_, err = svc.SetQuantity(ctx, "s1", "p1", 5)
	assert.ErrorIs(t, err, domain.ErrStockLimitExceeded)
	_, err = svc.SetQuantity(ctx, "s1", "p1", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetQuantity(ctx, "s1", "missing", 1)
	assert.ErrorIs(t, err, errNoProduct)

	_, err = NewService(memory.NewCartRepo()).SetQuantity(ctx, "s1", "p1", 1)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestServiceConsume(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, fakeCatalog{
		"p1": {ProductID: "p1", Name: "Kettle", UnitPrice: 500, StockCeiling: 4},
		"p2": {ProductID: "p2", Name: "Mug", UnitPrice: 100, StockCeiling: 4},
	})
	_, err := svc.AddItem(ctx, "s1", "p1", 2)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = svc.Consume(ctx, "s1", func(v View) error { return boom })
	require.ErrorIs(t, err, boom)
	v, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.TotalQuantity, "failed consume keeps the cart")

	// a mutation started while the cart is consumed waits for it and is kept
	done := make(chan error, 1)
	err = svc.Consume(ctx, "s1", func(v View) error {
		assert.Equal(t, int64(2), v.TotalQuantity)
		go func() {
			_, err := svc.AddItem(ctx, "s1", "p2", 1)
			done <- err
		}()
		select {
		case <-done:
			t.Error("mutation ran while the cart was held")
		case <-time.After(50 * time.Millisecond):
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-done)

	v, err = svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "p2", v.Items[0].ProductID)

	assert.ErrorIs(t, svc.Consume(ctx, " ", func(View) error { return nil }), ErrInvalidInput)
}

type failingDelete struct {
	*memory.CartRepo
}

func (failingDelete) Delete(ctx context.Context, sessionID string) error {
	return errors.New("store down")
}

func TestServiceConsumeClearFailed(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingDelete{memory.NewCartRepo()})

	err := svc.Consume(ctx, "s1", func(View) error { return nil })
	assert.ErrorIs(t, err, ErrClearFailed)
}
