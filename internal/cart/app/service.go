package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoCatalog    = errors.New("catalog lookup not configured")

	// ErrProductNotFound is returned by CatalogReader for unknown products.
	ErrProductNotFound = errors.New("product not found")
	// ErrCurrencyMismatch is returned by CatalogReader for products priced in
	// a currency other than the cart's.
	ErrCurrencyMismatch = errors.New("product currency does not match cart currency")

	ErrClearFailed = errors.New("cart not cleared")
)

// View is a ledger as shown to a caller: lines, unit count and prices.
type View struct {
	SessionID     string                `json:"session_id"`
	Items         []domain.LineItem     `json:"items"`
	TotalQuantity int64                 `json:"total_quantity"`
	Breakdown     domain.PriceBreakdown `json:"breakdown"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type Service struct {
	repo    CartRepo
	catalog CatalogReader
	pricing domain.PricingPolicy
	log     *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Service)

func WithCatalog(c CatalogReader) Option {
	return func(s *Service) { s.catalog = c }
}

func WithPricing(p domain.PricingPolicy) Option {
	return func(s *Service) { s.pricing = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo CartRepo, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		pricing: domain.DefaultPricingPolicy(),
		log:     slog.Default(),
		now:     time.Now,
		locks:   make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Pricing() domain.PricingPolicy {
	return s.pricing
}

func (s *Service) Ping(ctx context.Context) bool {
	return s.repo.Ping(ctx)
}

func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *Service) load(ctx context.Context, sessionID string) (*domain.Ledger, error) {
	state, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return domain.Restore(state), nil
}

func (s *Service) view(sessionID string, l *domain.Ledger, at time.Time) View {
	return View{
		SessionID:     sessionID,
		Items:         l.Items(),
		TotalQuantity: l.TotalQuantity(),
		Breakdown:     l.PriceWith(s.pricing),
		UpdatedAt:     at,
	}
}

// mutate runs fn on the session's ledger under the session lock and saves the
// result. A stock condition from fn is returned alongside the unchanged view.
func (s *Service) mutate(ctx context.Context, sessionID string, fn func(l *domain.Ledger) error) (View, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return View{}, ErrInvalidInput
	}

	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	l := domain.Restore(state)

	if err := fn(l); err != nil {
		if domain.IsStockCondition(err) {
			s.log.Debug("cart stock notice", slog.String("session_id", sessionID), slog.Any("err", err))
			return s.view(sessionID, l, state.UpdatedAt), err
		}
		return View{}, err
	}

	now := s.now().UTC()
	if err := s.repo.Save(ctx, l.State(sessionID, now)); err != nil {
		return View{}, err
	}
	return s.view(sessionID, l, now), nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return View{}, ErrInvalidInput
	}
	state, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.view(sessionID, domain.Restore(state), state.UpdatedAt), nil
}

// Ledger returns a detached copy of the session's ledger.
func (s *Service) Ledger(ctx context.Context, sessionID string) (*domain.Ledger, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}
	return s.load(ctx, strings.TrimSpace(sessionID))
}

// AddItem adds quantity units of a catalog product, reading the stock
// snapshot from the catalog.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, quantity int32) (View, error) {
	if s.catalog == nil {
		return View{}, ErrNoCatalog
	}
	if strings.TrimSpace(productID) == "" {
		return View{}, ErrInvalidInput
	}
	if quantity == 0 {
		quantity = 1
	}

	snap, err := s.catalog.Snapshot(ctx, productID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.Add(snap, quantity)
	})
}

// SetQuantity sets the quantity of a catalog product. Name, price and
// ceiling come from the catalog, never from the caller.
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, quantity int32) (View, error) {
	if s.catalog == nil {
		return View{}, ErrNoCatalog
	}
	if strings.TrimSpace(productID) == "" || quantity < 0 {
		return View{}, ErrInvalidInput
	}

	snap, err := s.catalog.Snapshot(ctx, productID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.Upsert(snap, quantity)
	})
}

func (s *Service) AddSnapshot(ctx context.Context, sessionID string, snap domain.ItemSnapshot) (View, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.AddOne(snap)
	})
}

func (s *Service) Upsert(ctx context.Context, sessionID string, snap domain.ItemSnapshot, quantity int32) (View, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.Upsert(snap, quantity)
	})
}

func (s *Service) Increment(ctx context.Context, sessionID, productID string) (View, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		return l.Increment(productID)
	})
}

func (s *Service) Decrement(ctx context.Context, sessionID, productID string) (View, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		l.Decrement(productID)
		return nil
	})
}

func (s *Service) Remove(ctx context.Context, sessionID, productID string) (View, error) {
	return s.mutate(ctx, sessionID, func(l *domain.Ledger) error {
		l.Remove(productID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidInput
	}
	unlock := s.lock(sessionID)
	defer unlock()
	return s.repo.Delete(ctx, sessionID)
}

// Consume runs fn on the session's cart while holding the session lock and
// deletes the cart when fn succeeds. Mutations of the same session wait until
// Consume returns. A failed delete is reported as ErrClearFailed.
func (s *Service) Consume(ctx context.Context, sessionID string, fn func(View) error) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidInput
	}

	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(s.view(sessionID, domain.Restore(state), state.UpdatedAt)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrClearFailed, err)
	}
	return nil
}

func (s *Service) Breakdown(ctx context.Context, sessionID string) (domain.PriceBreakdown, error) {
	v, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}
	return v.Breakdown, nil
}
