package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

type Config struct {
	// Path is a file path or ":memory:".
	Path string
	// MaxOpenConns defaults to 1, which keeps a ":memory:" database alive and
	// serialises writers.
	MaxOpenConns int
}

func Open(cfg Config) (*sql.DB, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = ":memory:"
	}

	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	conns := cfg.MaxOpenConns
	if conns <= 0 {
		conns = 1
	}
	db.SetMaxOpenConns(conns)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Migrate applies each statement in order inside one transaction. Statements
// must be idempotent.
func Migrate(ctx context.Context, db *sql.DB, stmts ...string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("migration %d: %w; rollback err: %v", i, err, rbErr)
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return tx.Commit()
}
