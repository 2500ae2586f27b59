package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOrderNumberTaken signals an order_number collision; callers retry
	// with a fresh number.
	ErrOrderNumberTaken = errors.New("order number already taken")
	// ErrInsufficientBalance is returned by CreatePayout when the requested
	// amount exceeds the seller's derived balance inside the transaction.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicate is returned on unique constraint violations (email,
	// username, slug).
	ErrDuplicate = errors.New("already exists")
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB initializes a new database connection pool
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from dir against the
// database at connString.
func RunMigrations(connString, dir string) error {
	// golang-migrate selects its driver by URL scheme; route through pgx/v5.
	url := strings.Replace(connString, "postgres://", "pgx5://", 1)

	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
