package app_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/cart/infra/memory"
)

func newTestService(t *testing.T) *app.Service {
	t.Helper()
	return app.NewService(memory.NewCartRepo())
}

func TestCart_ConcurrentAddOne_NoLostUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	sessionID := uuid.NewString()
	productID := uuid.NewString()

	const N = 100
	snap := domain.ItemSnapshot{ProductID: productID, Name: "Lamp", UnitPrice: 10, StockCeiling: N}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			_, err := svc.AddSnapshot(gctx, sessionID, snap)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddSnapshot failed: %v", err)
	}

	v, err := svc.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(v.Items) != 1 || v.Items[0].Quantity != N {
		t.Fatalf("expected one line with quantity=%d, got %+v", N, v.Items)
	}
}

func TestCart_ConcurrentAddOne_RespectsCeiling(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	sessionID := uuid.NewString()
	snap := domain.ItemSnapshot{ProductID: "p1", Name: "Lamp", UnitPrice: 10, StockCeiling: 5}

	const N = 40
	var g errgroup.Group
	limited := make(chan struct{}, N)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			_, err := svc.AddSnapshot(ctx, sessionID, snap)
			if domain.IsStockCondition(err) {
				limited <- struct{}{}
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddSnapshot failed: %v", err)
	}
	close(limited)

	v, err := svc.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.TotalQuantity != 5 {
		t.Fatalf("expected quantity=5, got=%d", v.TotalQuantity)
	}
	if got := len(limited); got != N-5 {
		t.Fatalf("expected %d stock notices, got %d", N-5, got)
	}
}

func TestCart_ConcurrentSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	sessions := make([]string, 20)
	for i := range sessions {
		sessions[i] = uuid.NewString()
	}

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			for i := 0; i < 3; i++ {
				if _, err := svc.AddSnapshot(ctx, s, domain.ItemSnapshot{ProductID: "p1", UnitPrice: 1, StockCeiling: 3}); err != nil {
					return err
				}
			}
			return svc.Clear(ctx, s)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent sessions failed: %v", err)
	}

	for _, s := range sessions {
		v, err := svc.Get(ctx, s)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(v.Items) != 0 {
			t.Fatalf("session %s not cleared: %+v", s, v.Items)
		}
	}
}
