package dialect

import (
	"context"
	"database/sql"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Valid reports if name is a supported dialect.
func Valid(name string) bool {
	switch name {
	case MySQL, SQLite, Postgres:
		return true
	}
	return false
}

// Driver is the interface of a named database connection exposed to
// operations through graphop.Application.Conn.
type Driver interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Ping(ctx context.Context) error
	Close() error
	// Dialect returns the dialect of the driver.
	Dialect() string
}
