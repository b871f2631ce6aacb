package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/syssam/graphop/dialect"
)

// Driver is a dialect.Driver implementation for SQL based databases.
// Statements run through it are counted in its QueryStats.
type Driver struct {
	db      *sql.DB
	dialect string
	stats   *QueryStats

	mu            sync.RWMutex
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

var _ dialect.Driver = (*Driver)(nil)

// Option configures a Driver.
type Option func(*Driver)

// WithPool sets the connection pool limits of the underlying *sql.DB.
// Zero values leave the database/sql defaults in place.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(d *Driver) {
		if maxOpen > 0 {
			d.db.SetMaxOpenConns(maxOpen)
		}
		if maxIdle > 0 {
			d.db.SetMaxIdleConns(maxIdle)
		}
		if maxLifetime > 0 {
			d.db.SetConnMaxLifetime(maxLifetime)
		}
	}
}

// Open validates the dialect and wraps the database/sql.Open method.
// The database/sql driver registered under the dialect name must be
// imported by the caller.
func Open(name, source string, opts ...Option) (*Driver, error) {
	if !dialect.Valid(name) {
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", name)
	}
	db, err := sql.Open(name, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", name, err)
	}
	return OpenDB(name, db, opts...), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(name string, db *sql.DB, opts ...Option) *Driver {
	d := &Driver{
		db:            db,
		dialect:       name,
		stats:         &QueryStats{},
		slowThreshold: DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Dialect implements the dialect.Driver interface.
func (d *Driver) Dialect() string {
	// If the underlying driver is wrapped with a telemetry driver.
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Ping verifies the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("dialect/sql: ping %s: %w", d.dialect, err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// ExecContext executes a statement and records statistics.
func (d *Driver) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.record(ctx, query, args, start, err, false)
	return res, err
}

// QueryContext executes a query and records statistics.
func (d *Driver) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.record(ctx, query, args, start, err, true)
	return rows, err
}

// QueryRowContext executes a query expected to return at most one row.
func (d *Driver) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.record(ctx, query, args, start, row.Err(), true)
	return row
}

// WithTx runs fn in a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (d *Driver) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dialect/sql: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("dialect/sql: rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: commit: %w", err)
	}
	return nil
}

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// Rows is an alias to sql.Rows.
	Rows = sql.Rows
	// Tx is an alias to sql.Tx.
	Tx = sql.Tx
)
