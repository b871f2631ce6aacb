// Package dialect names the database dialects graphop applications can
// connect to.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database (github.com/lib/pq)
//   - MySQL: MySQL/MariaDB database (github.com/go-sql-driver/mysql)
//   - SQLite: SQLite database (modernc.org/sqlite)
//
// Each dialect is identified by a constant string that is also the name its
// database/sql driver registers under:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The driver packages are not imported here. Programs opening connections
// import them for their side effects, as cmd/graphop does.
//
// # Driver Interface
//
// Driver is the surface of a connection that operations see:
//
//	type Driver interface {
//	    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
//	    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
//	    Ping(ctx context.Context) error
//	    Close() error
//	    Dialect() string
//	}
//
// The sql subpackage provides the implementation.
package dialect
