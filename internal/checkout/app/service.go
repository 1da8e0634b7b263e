package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/storefront/internal/checkout/domain"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStockChanged       = errors.New("stock changed")
	ErrPriceChanged       = errors.New("price changed")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrCartNotCleared     = errors.New("cart not cleared")
)

// StockChangedError lists the lines that failed re-validation. It matches
// ErrStockChanged.
type StockChangedError struct {
	Shortages []domain.Shortage
}

func (e *StockChangedError) Error() string {
	ids := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		ids = append(ids, s.ProductID)
	}
	return fmt.Sprintf("stock changed for %s", strings.Join(ids, ", "))
}

func (e *StockChangedError) Is(target error) bool {
	return target == ErrStockChanged
}

// PriceChangedError lists the lines whose catalog price no longer matches
// the cart. It matches ErrPriceChanged.
type PriceChangedError struct {
	Changes []domain.PriceChange
}

func (e *PriceChangedError) Error() string {
	ids := make([]string, 0, len(e.Changes))
	for _, c := range e.Changes {
		ids = append(ids, c.ProductID)
	}
	return fmt.Sprintf("price changed for %s", strings.Join(ids, ", "))
}

func (e *PriceChangedError) Is(target error) bool {
	return target == ErrPriceChanged
}

type Options struct {
	MaxConcurrent   int
	RevalidateStock bool
	Logger          *slog.Logger
	Tracer          trace.Tracer
}

type Service struct {
	Cart    CartReader
	Catalog CatalogReader
	Orders  OrderWriter

	maxConcurrent   int
	revalidateStock bool
	log             *slog.Logger
	tracer          trace.Tracer
}

func NewService(cart CartReader, catalog CatalogReader, orders OrderWriter, opts Options) *Service {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/dwikikusuma/storefront/internal/checkout")
	}

	return &Service{
		Cart:            cart,
		Catalog:         catalog,
		Orders:          orders,
		maxConcurrent:   opts.MaxConcurrent,
		revalidateStock: opts.RevalidateStock,
		log:             opts.Logger,
		tracer:          opts.Tracer,
	}
}

func (s *Service) Quote(ctx context.Context, sessionID string) (domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Quote", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	q, err := s.quote(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return q, err
}

func (s *Service) quote(ctx context.Context, sessionID string) (domain.Quote, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Quote{}, ErrInvalidInput
	}

	cart, err := s.Cart.GetCart(ctx, sessionID)
	if err != nil {
		return domain.Quote{}, err
	}
	return buildQuote(sessionID, cart)
}

func buildQuote(sessionID string, cart Cart) (domain.Quote, error) {
	if len(cart.Items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	currency := cart.Breakdown.Currency
	lines := make([]domain.QuoteLine, 0, len(cart.Items))
	var totalQty int64
	for _, it := range cart.Items {
		lines = append(lines, domain.QuoteLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageRef:  it.ImageRef,
			Quantity:  it.Quantity,
			UnitPrice: domain.Money{Currency: currency, Amount: it.UnitPrice},
			LineTotal: domain.Money{Currency: currency, Amount: it.UnitPrice * it.Quantity},
		})
		totalQty += it.Quantity
	}

	return domain.Quote{
		SessionID:     sessionID,
		Lines:         lines,
		TotalQuantity: totalQty,
		Breakdown:     cart.Breakdown,
	}, nil
}

type PlaceOrderRequest struct {
	SessionID string
	// UserID defaults to SessionID.
	UserID        string
	PaymentMethod string
	Shipping      domain.ShippingInfo
}

func (r PlaceOrderRequest) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	switch strings.ToUpper(strings.TrimSpace(r.PaymentMethod)) {
	case "COD", "ONLINE":
	default:
		return fmt.Errorf("%w: payment method must be COD or ONLINE", ErrInvalidInput)
	}
	sh := r.Shipping
	for _, v := range []string{sh.Address, sh.City, sh.Country, sh.PinCode} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: shipping info incomplete", ErrInvalidInput)
		}
	}
	return nil
}

// PlaceOrder turns the session cart into a pending order and clears the cart.
// The cart stays locked from the read until it is cleared, and is left as it
// was when any step fails.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (domain.PlacedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("payment.method", req.PaymentMethod),
	))
	defer span.End()

	placed, err := s.placeOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return domain.PlacedOrder{}, err
	}
	span.SetAttributes(attribute.String("order.id", placed.OrderID))
	return placed, nil
}

func (s *Service) placeOrder(ctx context.Context, req PlaceOrderRequest) (domain.PlacedOrder, error) {
	if err := req.validate(); err != nil {
		return domain.PlacedOrder{}, err
	}
	sessionID := strings.TrimSpace(req.SessionID)

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = sessionID
	}

	var placed domain.PlacedOrder
	err := s.Cart.ConsumeCart(ctx, sessionID, func(cart Cart) error {
		q, err := buildQuote(sessionID, cart)
		if err != nil {
			return err
		}
		if err := s.revalidate(ctx, q); err != nil {
			return err
		}

		placed, err = s.Orders.CreateOrder(ctx, OrderRequest{
			UserID:        userID,
			PaymentMethod: strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
			Shipping:      req.Shipping,
			Lines:         q.Lines,
			Breakdown:     q.Breakdown,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrCartNotCleared):
		s.log.Warn("order placed but cart not cleared",
			slog.String("session_id", sessionID),
			slog.String("order_id", placed.OrderID),
			slog.Any("err", err),
		)
	case err != nil:
		return domain.PlacedOrder{}, err
	}

	s.log.Info("order placed",
		slog.String("session_id", sessionID),
		slog.String("order_id", placed.OrderID),
		slog.Int64("total_amount", placed.TotalAmount),
	)
	return placed, nil
}

// revalidate checks every line against the live catalog. Prices and
// currency must match the cart; stock is compared only when enabled.
// Products the catalog no longer carries are always short.
func (s *Service) revalidate(ctx context.Context, q domain.Quote) error {
	short := make([]*domain.Shortage, len(q.Lines))
	moved := make([]*domain.PriceChange, len(q.Lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range q.Lines {
		g.Go(func() error {
			ln := q.Lines[idx]
			p, err := s.Catalog.GetProduct(gctx, ln.ProductID)
			switch {
			case errors.Is(err, ErrProductUnavailable):
				short[idx] = &domain.Shortage{ProductID: ln.ProductID, Requested: ln.Quantity}
				return nil
			case err != nil:
				return fmt.Errorf("failed to get product %s: %w", ln.ProductID, err)
			}

			if s.revalidateStock && p.Stock < ln.Quantity {
				short[idx] = &domain.Shortage{ProductID: ln.ProductID, Requested: ln.Quantity, Available: p.Stock}
			}
			if p.Amount != ln.UnitPrice.Amount || !strings.EqualFold(p.Currency, ln.UnitPrice.Currency) {
				moved[idx] = &domain.PriceChange{
					ProductID: ln.ProductID,
					Quoted:    ln.UnitPrice,
					Current:   domain.Money{Currency: p.Currency, Amount: p.Amount},
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	var shortages []domain.Shortage
	for _, sh := range short {
		if sh != nil {
			shortages = append(shortages, *sh)
		}
	}
	if len(shortages) > 0 {
		return &StockChangedError{Shortages: shortages}
	}

	var changes []domain.PriceChange
	for _, c := range moved {
		if c != nil {
			changes = append(changes, *c)
		}
	}
	if len(changes) > 0 {
		return &PriceChangedError{Changes: changes}
	}
	return nil
}
