package domain

import (
	"strings"
	"time"
)

// ItemSnapshot is what a catalog surface knows about a product at the moment
// it is put in the cart. StockCeiling is not re-synced afterwards.
type ItemSnapshot struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price"`
	ImageRef     string `json:"image_ref,omitempty"`
	StockCeiling int32  `json:"stock_ceiling"`
}

type LineItem struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price"`
	ImageRef     string `json:"image_ref,omitempty"`
	StockCeiling int32  `json:"stock_ceiling"`
	Quantity     int32  `json:"quantity"`
}

func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

func (li LineItem) snapshot() ItemSnapshot {
	return ItemSnapshot{
		ProductID:    li.ProductID,
		Name:         li.Name,
		UnitPrice:    li.UnitPrice,
		ImageRef:     li.ImageRef,
		StockCeiling: li.StockCeiling,
	}
}

// Ledger holds the line items of one shopping session, unique by product and
// kept in insertion order. It is not safe for concurrent use; callers own it.
type Ledger struct {
	items []LineItem
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) indexOf(productID string) int {
	for i := range l.items {
		if l.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Upsert sets the quantity of a product, inserting it at the end when absent.
// A zero quantity means "not given" and becomes 1. It never clamps: a quantity
// the snapshot cannot cover is rejected and the ledger is left untouched.
func (l *Ledger) Upsert(snap ItemSnapshot, quantity int32) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}
	if snap.StockCeiling <= 0 {
		return ErrOutOfStock
	}
	if quantity > snap.StockCeiling {
		return ErrStockLimitExceeded
	}

	item := LineItem{
		ProductID:    snap.ProductID,
		Name:         snap.Name,
		UnitPrice:    snap.UnitPrice,
		ImageRef:     snap.ImageRef,
		StockCeiling: snap.StockCeiling,
		Quantity:     quantity,
	}

	if i := l.indexOf(snap.ProductID); i >= 0 {
		l.items[i] = item
		return nil
	}
	l.items = append(l.items, item)
	return nil
}

// Add puts n more units of a product in the ledger, on top of what is already
// there. The snapshot's ceiling is the limit for the combined quantity.
func (l *Ledger) Add(snap ItemSnapshot, n int32) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	if n <= 0 {
		return ErrInvalidQuantity
	}
	if snap.StockCeiling <= 0 {
		return ErrOutOfStock
	}

	var existing int32
	if i := l.indexOf(snap.ProductID); i >= 0 {
		existing = l.items[i].Quantity
	}
	if int64(existing)+int64(n) > int64(snap.StockCeiling) {
		return ErrStockLimitExceeded
	}
	return l.Upsert(snap, existing+n)
}

// AddOne is the catalog "add to cart" button.
func (l *Ledger) AddOne(snap ItemSnapshot) error {
	return l.Add(snap, 1)
}

// Increment raises the quantity by one. Unknown products are ignored.
func (l *Ledger) Increment(productID string) error {
	i := l.indexOf(productID)
	if i < 0 {
		return nil
	}
	it := &l.items[i]
	if it.Quantity >= it.StockCeiling {
		return ErrStockLimitExceeded
	}
	it.Quantity++
	return nil
}

// Decrement lowers the quantity by one; the last unit removes the line.
// Unknown products are ignored.
func (l *Ledger) Decrement(productID string) {
	i := l.indexOf(productID)
	if i < 0 {
		return
	}
	if l.items[i].Quantity > 1 {
		l.items[i].Quantity--
		return
	}
	l.removeAt(i)
}

func (l *Ledger) Remove(productID string) {
	if i := l.indexOf(productID); i >= 0 {
		l.removeAt(i)
	}
}

func (l *Ledger) removeAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

func (l *Ledger) Clear() {
	l.items = nil
}

func (l *Ledger) Get(productID string) (LineItem, bool) {
	if i := l.indexOf(productID); i >= 0 {
		return l.items[i], true
	}
	return LineItem{}, false
}

// Items returns a copy of the line items in display order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int {
	return len(l.items)
}

func (l *Ledger) IsEmpty() bool {
	return len(l.items) == 0
}

// TotalQuantity is the number of units across all lines.
func (l *Ledger) TotalQuantity() int64 {
	var n int64
	for _, it := range l.items {
		n += int64(it.Quantity)
	}
	return n
}

// PriceBreakdown prices the ledger with the default policy.
func (l *Ledger) PriceBreakdown() PriceBreakdown {
	return DefaultPricingPolicy().Price(l.items)
}

func validateSnapshot(snap ItemSnapshot) error {
	if strings.TrimSpace(snap.ProductID) == "" || snap.UnitPrice < 0 {
		return ErrInvalidItem
	}
	return nil
}

// CartState is the persisted form of a session's ledger.
type CartState struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (l *Ledger) State(sessionID string, now time.Time) CartState {
	return CartState{
		SessionID: sessionID,
		Items:     l.Items(),
		UpdatedAt: now,
	}
}

// Restore rebuilds a ledger from persisted state. Lines that break the
// quantity invariants or repeat a product are dropped.
func Restore(state CartState) *Ledger {
	l := NewLedger()
	for _, it := range state.Items {
		if it.Quantity < 1 || it.Quantity > it.StockCeiling {
			continue
		}
		if l.indexOf(it.ProductID) >= 0 {
			continue
		}
		_ = l.Upsert(it.snapshot(), it.Quantity)
	}
	return l
}
