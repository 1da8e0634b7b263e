package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		price_amount INTEGER NOT NULL CHECK (price_amount >= 0),
		currency     TEXT NOT NULL,
		stock        INTEGER NOT NULL CHECK (stock >= 0),
		images       TEXT NOT NULL DEFAULT '[]',
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
		created_at TIMESTAMP NOT NULL
	)`,
}

const productColumns = `id, name, description, category, price_amount, currency, stock, images, created_at, updated_at`

type ProductRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db, now: time.Now}
}

func (r *ProductRepo) Migrate(ctx context.Context) error {
	return sqlite.Migrate(ctx, r.db, schema...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p      domain.Product
		images string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price.Amount, &p.Price.Currency,
		&p.Stock, &images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return domain.Product{}, fmt.Errorf("product %s images: %w", p.ID, err)
	}
	return p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return domain.Product{}, err
	}

	now := r.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Price.Amount, p.Price.Currency, p.Stock, string(images), now, now)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	p.Images = nonNil(p.Images)
	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, app.ErrInvalidInput
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, filter app.ListFilter) ([]domain.Product, string, error) {
	var (
		where []string
		args  []any
	)
	if cursor := strings.TrimSpace(filter.Cursor); cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return nil, "", app.ErrInvalidInput
		}
		where = append(where, "id > ?")
		args = append(args, cursor)
	}
	if filter.Query != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, filter.Limit)
	var nextCursor string
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, p)
		nextCursor = p.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	if len(out) < filter.Limit {
		nextCursor = ""
	}

	return out, nextCursor, nil
}

func (r *ProductRepo) SetStock(ctx context.Context, id string, stock int32) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, app.ErrInvalidInput
	}

	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, stock, r.now().UTC(), id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, id)
}

// Update overwrites the mutable fields of an existing product. The price
// currency is never changed.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	if _, err := uuid.Parse(p.ID); err != nil {
		return domain.Product{}, app.ErrInvalidInput
	}
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return domain.Product{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE products
		    SET name = ?, description = ?, category = ?, price_amount = ?, stock = ?, images = ?, updated_at = ?
		  WHERE id = ?`,
		p.Name, p.Description, p.Category, p.Price.Amount, p.Stock, string(images), r.now().UTC(), p.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	if err := requireRow(res); err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, p.ID)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return app.ErrInvalidInput
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return app.ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
