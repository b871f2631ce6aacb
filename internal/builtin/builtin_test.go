package builtin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/app"
	"github.com/syssam/graphop/dialect"
	"github.com/syssam/graphop/dialect/sql"
	"github.com/syssam/graphop/graph"
	"github.com/syssam/graphop/internal/builtin"
	"github.com/syssam/graphop/logger"
	"github.com/syssam/graphop/logger/loggertest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type fixture struct {
	builder *graph.Builder
	primary sqlmock.Sqlmock
	replica sqlmock.Sqlmock
	app     *app.App
}

func setup(t *testing.T, log graphop.Logger) *fixture {
	t.Helper()
	newMock := func(name string) (*sql.Driver, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		return sql.OpenDB(name, db), mock
	}
	primary, pm := newMock(dialect.Postgres)
	replica, rm := newMock(dialect.MySQL)

	a := app.New(app.WithLogger(log), app.WithConn("primary", primary), app.WithConn("replica", replica))
	require.NoError(t, a.RegisterService(builtin.ServicePool, a))

	b := graph.NewBuilder()
	require.NoError(t, graphop.NewManager(b).RegisterOperations(builtin.Operations(), a))
	return &fixture{builder: b, primary: pm, replica: rm, app: a}
}

func TestOperations(t *testing.T) {
	b := graph.NewBuilder()
	require.NoError(t, graphop.NewManager(b).RegisterOperations(builtin.Operations(), app.New()))

	var names []string
	for _, e := range b.Entrypoints() {
		assert.Equal(t, graph.Query, e.Category)
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"ping", "connections"}, names)

	s, err := b.Schema()
	require.NoError(t, err)
	assert.NotNil(t, s.Types["PingResult"])
	assert.NotNil(t, s.Types["ConnectionStats"])
}

func TestPing(t *testing.T) {
	f := setup(t, loggertest.New(t))
	f.primary.ExpectPing()
	f.replica.ExpectPing()

	resp := f.builder.Exec(context.Background(), graph.Request{
		Query: `{ ping { status connections { name dialect ok error } } }`,
	})
	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]any{
		"status": builtin.StatusOK,
		"connections": []any{
			map[string]any{"name": "primary", "dialect": dialect.Postgres, "ok": true, "error": nil},
			map[string]any{"name": "replica", "dialect": dialect.MySQL, "ok": true, "error": nil},
		},
	}, resp.Data["ping"])

	require.NoError(t, f.primary.ExpectationsWereMet())
	require.NoError(t, f.replica.ExpectationsWereMet())
}

func TestPingDegraded(t *testing.T) {
	log, logs := loggertest.NewObserved(t, zapcore.ErrorLevel)
	f := setup(t, log)
	f.primary.ExpectPing()
	f.replica.ExpectPing().WillReturnError(errors.New("too many connections"))

	resp := f.builder.Exec(context.Background(), graph.Request{
		Query: `{ ping { status connections { name ok error latencyMs } } }`,
	})
	require.Empty(t, resp.Errors)
	ping := resp.Data["ping"].(map[string]any)
	assert.Equal(t, builtin.StatusDegraded, ping["status"])

	conns := ping["connections"].([]any)
	require.Len(t, conns, 2)
	replica := conns[1].(map[string]any)
	assert.Equal(t, false, replica["ok"])
	assert.Contains(t, replica["error"], "too many connections")
	assert.IsType(t, float64(0), replica["latencyMs"])

	entries := logs.FilterMessage("connection unhealthy").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "replica", entries[0].ContextMap()["connection"])
}

func TestOperationDescriptors(t *testing.T) {
	tests := []struct {
		op      graphop.Operation
		name    string
		typeDef string
	}{
		{op: &builtin.Ping{}, name: "ping", typeDef: "ping: PingResult!"},
		{op: &builtin.Connections{}, name: "connections", typeDef: "connections(name: String): [Connection!]!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.op.Name())
			assert.Equal(t, "Query", tt.op.Entrypoint())
			assert.Contains(t, tt.op.TypeDef(), tt.typeDef)
		})
	}
}

func TestPingWithoutPool(t *testing.T) {
	b := graph.NewBuilder()
	require.NoError(t, graphop.NewManager(b).RegisterOperations(builtin.Operations(), app.New(app.WithLogger(logger.Nop()))))

	resp := b.Exec(context.Background(), graph.Request{Query: `{ ping { status } }`})
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, app.ErrServiceNotFound.Error())
}

func TestConnections(t *testing.T) {
	f := setup(t, loggertest.New(t))
	f.primary.ExpectExec("UPDATE accounts").WillReturnResult(sqlmock.NewResult(0, 1))
	f.primary.ExpectQuery("SELECT 1").WillReturnError(errors.New("boom"))

	ctx := context.Background()
	drv, err := f.app.Driver("primary")
	require.NoError(t, err)
	_, err = drv.ExecContext(ctx, "UPDATE accounts SET active = true")
	require.NoError(t, err)
	_, err = drv.QueryContext(ctx, "SELECT 1")
	require.Error(t, err)

	resp := f.builder.Exec(ctx, graph.Request{
		Query: `query Stats($name: String) {
  connections(name: $name) { name dialect stats { totalQueries totalExecs errors } }
}`,
		Variables: map[string]any{"name": "primary"},
	})
	require.Empty(t, resp.Errors)
	assert.Equal(t, []any{
		map[string]any{
			"name":    "primary",
			"dialect": dialect.Postgres,
			"stats":   map[string]any{"totalQueries": 1.0, "totalExecs": 1.0, "errors": 1.0},
		},
	}, resp.Data["connections"])

	resp = f.builder.Exec(ctx, graph.Request{Query: `{ all: connections { name } }`})
	require.Empty(t, resp.Errors)
	assert.Equal(t, []any{
		map[string]any{"name": "primary"},
		map[string]any{"name": "replica"},
	}, resp.Data["all"])

	resp = f.builder.Exec(ctx, graph.Request{Query: `{ connections(name: "archive") { name } }`})
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, app.ErrConnNotFound.Error())
}
