package memory

import (
	"context"
	"sync"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

// CartRepo keeps session carts in process memory.
type CartRepo struct {
	mu    sync.RWMutex
	carts map[string]domain.CartState
}

func NewCartRepo() *CartRepo {
	return &CartRepo{carts: make(map[string]domain.CartState)}
}

func (r *CartRepo) Get(ctx context.Context, sessionID string) (domain.CartState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.carts[sessionID]
	if !ok {
		return domain.CartState{SessionID: sessionID}, nil
	}
	state.Items = append([]domain.LineItem(nil), state.Items...)
	return state, nil
}

func (r *CartRepo) Save(ctx context.Context, state domain.CartState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state.Items = append([]domain.LineItem(nil), state.Items...)
	r.carts[state.SessionID] = state
	return nil
}

func (r *CartRepo) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}

func (r *CartRepo) Ping(ctx context.Context) bool {
	return true
}
