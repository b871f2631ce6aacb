package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/syssam/graphop/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpen tests dialect validation in Open.
func TestOpen(t *testing.T) {
	t.Run("unsupported_dialect", func(t *testing.T) {
		drv, err := Open("oracle", "dsn")
		require.Error(t, err)
		assert.Nil(t, drv)
		assert.Contains(t, err.Error(), `unsupported dialect "oracle"`)
	})

	t.Run("unregistered_driver", func(t *testing.T) {
		// No database/sql driver is imported by this package.
		_, err := Open(dialect.Postgres, "postgres://localhost/none")
		require.Error(t, err)
	})
}

// TestOpenDB tests wrapping an existing *sql.DB.
func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
	}{
		{"Postgres", dialect.Postgres},
		{"MySQL", dialect.MySQL},
		{"SQLite", dialect.SQLite},
		{"Wrapped", dialect.Postgres + "-otel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			require.NotNil(t, drv)
			assert.Same(t, db, drv.DB())
			assert.True(t, dialect.Valid(drv.Dialect()))
			assert.Equal(t, DefaultSlowThreshold, drv.SlowThreshold())
		})
	}
}

// TestWithPool tests pool settings.
func TestWithPool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db, WithPool(3, 2, time.Minute))
	assert.Equal(t, 3, drv.DB().Stats().MaxOpenConnections)
}

// TestDriverQuery tests query operations.
func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	ctx := context.Background()

	t.Run("simple_query", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Alice").
				AddRow(2, "Bob"))

		rows, err := drv.QueryContext(ctx, "SELECT id, name FROM users")
		require.NoError(t, err)
		var names []string
		for rows.Next() {
			var (
				id   int
				name string
			)
			require.NoError(t, rows.Scan(&id, &name))
			names = append(names, name)
		}
		require.NoError(t, rows.Close())
		assert.Equal(t, []string{"Alice", "Bob"}, names)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_row_with_args", func(t *testing.T) {
		mock.ExpectQuery("SELECT name FROM users WHERE id = \\$1").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Alice"))

		var name string
		require.NoError(t, drv.QueryRowContext(ctx, "SELECT name FROM users WHERE id = $1", 1).Scan(&name))
		assert.Equal(t, "Alice", name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		expectedErr := errors.New("database error")
		mock.ExpectQuery("SELECT").WillReturnError(expectedErr)

		_, err := drv.QueryContext(ctx, "SELECT")
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestDriverExec tests execute operations.
func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	ctx := context.Background()

	t.Run("exec_with_args", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name = \\$1 WHERE id = \\$2").
			WithArgs("Alice", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		res, err := drv.ExecContext(ctx, "UPDATE users SET name = $1 WHERE id = $2", "Alice", 1)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		expectedErr := errors.New("constraint violation")
		mock.ExpectExec("DELETE").WillReturnError(expectedErr)

		_, err := drv.ExecContext(ctx, "DELETE FROM users")
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestDriverWithTx tests transaction handling.
func TestDriverWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := drv.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO users (name) VALUES ('test')")
			return err
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("duplicate"))
		mock.ExpectRollback()

		err := drv.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO users (name) VALUES ('test')")
			return err
		})
		require.EqualError(t, err, "duplicate")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback_error_joined", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("conn lost"))

		fnErr := errors.New("fn failed")
		err := drv.WithTx(ctx, func(*sql.Tx) error { return fnErr })
		require.ErrorIs(t, err, fnErr)
		assert.Contains(t, err.Error(), "conn lost")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		called := false
		err := drv.WithTx(ctx, func(*sql.Tx) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestDriverPingClose tests liveness checks and closing.
func TestDriverPingClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	drv := OpenDB(dialect.MySQL, db)
	ctx := context.Background()

	mock.ExpectPing()
	require.NoError(t, drv.Ping(ctx))

	mock.ExpectPing().WillReturnError(errors.New("gone away"))
	err = drv.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping mysql")

	mock.ExpectClose()
	require.NoError(t, drv.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestContextCancellation tests that context cancellation is respected.
func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	mock.ExpectQuery("SELECT").WillReturnError(context.Canceled)
	_, err = drv.QueryContext(ctx, "SELECT 1")
	assert.Error(t, err)
	assert.EqualValues(t, 1, drv.QueryStats().Errors.Load())
}
