// Package sql provides the database/sql backed connections of graphop
// applications.
//
// # Opening Connections
//
//	import (
//	    "github.com/syssam/graphop/dialect"
//	    "github.com/syssam/graphop/dialect/sql"
//
//	    _ "modernc.org/sqlite"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=foreign_keys(1)",
//	    sql.WithPool(10, 5, time.Hour),
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//
// An existing *sql.DB is wrapped with OpenDB, which is how tests plug in
// github.com/DATA-DOG/go-sqlmock.
//
// # Statistics
//
// Every ExecContext, QueryContext and QueryRowContext call is counted.
// Statements slower than the threshold are counted separately and passed
// to the slow query hook:
//
//	fmt.Println(drv.QueryStats().Stats())
//	// queries=12 execs=3 duration=41ms avg=2.7ms slow=0 errors=0
//
// A threshold of zero disables slow statement detection.
//
// # Transactions
//
//	err := drv.WithTx(ctx, func(tx *sql.Tx) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE accounts SET balance = balance - 1 WHERE id = ?", id)
//	    return err
//	})
package sql
