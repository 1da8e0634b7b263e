package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dwikikusuma/storefront/internal/order/app"
	"github.com/dwikikusuma/storefront/internal/order/domain"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		status           TEXT NOT NULL,
		payment_method   TEXT NOT NULL,
		ship_address     TEXT NOT NULL,
		ship_city        TEXT NOT NULL,
		ship_country     TEXT NOT NULL,
		ship_pin_code    TEXT NOT NULL,
		currency         TEXT NOT NULL,
		items_price      INTEGER NOT NULL CHECK (items_price >= 0),
		tax_price        INTEGER NOT NULL CHECK (tax_price >= 0),
		shipping_charges INTEGER NOT NULL CHECK (shipping_charges >= 0),
		total_amount     INTEGER NOT NULL CHECK (total_amount >= 0),
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id                TEXT PRIMARY KEY,
		order_id          TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		product_id        TEXT NOT NULL,
		name              TEXT NOT NULL,
		image_ref         TEXT NOT NULL DEFAULT '',
		unit_amount       INTEGER NOT NULL CHECK (unit_amount >= 0),
		quantity          INTEGER NOT NULL CHECK (quantity > 0),
		line_total_amount INTEGER NOT NULL,
		position          INTEGER NOT NULL,
		UNIQUE (order_id, product_id)
	)`,
}

const orderColumns = `id, user_id, status, payment_method, ship_address, ship_city, ship_country, ship_pin_code,
	currency, items_price, tax_price, shipping_charges, total_amount, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type OrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, now: time.Now}
}

func (r *OrderRepo) Migrate(ctx context.Context) error {
	return sqlite.Migrate(ctx, r.db, schema...)
}

func (r *OrderRepo) execTX(ctx context.Context, fn func(q querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	now := r.now().UTC()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now

	err := r.execTX(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, order.UserID, order.Status, string(order.PaymentMethod),
			order.Shipping.Address, order.Shipping.City, order.Shipping.Country, order.Shipping.PinCode,
			order.Currency, order.ItemsPrice, order.TaxPrice, order.ShippingCharges, order.TotalAmount,
			now, now)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		var itemsPrice int64
		for i := range order.OrderItems {
			item := &order.OrderItems[i]
			expected := item.UnitAmount * int64(item.Quantity)
			if item.LineTotalAmount != expected {
				return fmt.Errorf("%w: item %d: line total mismatch", app.ErrInvalidOrder, i)
			}
			itemsPrice += expected

			item.ID = uuid.NewString()
			item.OrderID = order.ID
			_, err := q.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, name, image_ref, unit_amount, quantity, line_total_amount, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.OrderID, item.ProductID, item.Name, item.ImageRef,
				item.UnitAmount, item.Quantity, item.LineTotalAmount, i)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}
		if itemsPrice != order.ItemsPrice {
			return fmt.Errorf("%w: items price mismatch", app.ErrInvalidOrder)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func scanOrder(row interface{ Scan(dest ...any) error }) (domain.Order, error) {
	var (
		o      domain.Order
		method string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &method,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.Country, &o.Shipping.PinCode,
		&o.Currency, &o.ItemsPrice, &o.TaxPrice, &o.ShippingCharges, &o.TotalAmount,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	return o, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, q querier, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, name, image_ref, unit_amount, quantity, line_total_amount
		 FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.ImageRef,
			&it.UnitAmount, &it.Quantity, &it.LineTotalAmount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, app.ErrInvalidInput
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	o.OrderItems, err = r.loadItems(ctx, r.db, o.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	return o, nil
}

// ListByUser returns the user's most recent orders first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	return r.list(ctx, `WHERE user_id = ?`, []any{userID}, limit)
}

// List returns the most recent orders first, across all users.
func (r *OrderRepo) List(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	if status == "" {
		return r.list(ctx, "", nil, limit)
	}
	return r.list(ctx, `WHERE status = ?`, []any{status}, limit)
}

func (r *OrderRepo) list(ctx context.Context, where string, args []any, limit int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC, id LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// items are loaded after the order cursor is closed; the pool may hold a
	// single connection.
	for i := range out {
		out[i].OrderItems, err = r.loadItems(ctx, r.db, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("order %s items: %w", out[i].ID, err)
		}
	}
	return out, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id, from, to string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, app.ErrInvalidInput
	}

	err := r.execTX(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			to, r.now().UTC(), id, from)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}

		var current string
		err = q.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return app.ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: order is %s, not %s", app.ErrStatusConflict, current, from)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.Get(ctx, id)
}
