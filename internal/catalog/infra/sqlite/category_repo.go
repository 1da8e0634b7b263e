package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
)

type CategoryRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db, now: time.Now}
}

// Migrate creates the catalog schema; it is shared with ProductRepo.
func (r *CategoryRepo) Migrate(ctx context.Context) error {
	return sqlite.Migrate(ctx, r.db, schema...)
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`, c.ID, c.Name, c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.Category{}, fmt.Errorf("%w: category %q", app.ErrAlreadyExists, c.Name)
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE name = ?`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

// Delete removes the category and clears it from its products in one
// transaction.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return app.ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return app.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET category = '', updated_at = ? WHERE category = ? COLLATE NOCASE`,
		r.now().UTC(), name); err != nil {
		return fmt.Errorf("detach category: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT
}
