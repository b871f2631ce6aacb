// Package builtin holds the operations every graphop server registers:
// connection health and connection statistics.
package builtin

import (
	"context"
	"time"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/dialect/sql"

	"golang.org/x/sync/errgroup"
)

// ServicePool is the service name under which the connection registry is
// looked up.
const ServicePool = "graphop.pool"

// Status values reported by the ping operation.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Pool lists and returns named connections. *app.App implements it.
type Pool interface {
	ConnNames() []string
	Driver(name string) (*sql.Driver, error)
}

// Operations returns the factories of every built-in operation.
func Operations() []graphop.Factory {
	return []graphop.Factory{
		func() graphop.Operation { return &Ping{} },
		func() graphop.Operation { return &Connections{} },
	}
}

// Ping reports the health of every connection.
type Ping struct {
	graphop.Base
}

// Name returns the query field name, "ping".
func (*Ping) Name() string { return "ping" }

// Entrypoint places ping on the query root.
func (*Ping) Entrypoint() string { return "Query" }

// TypeDef declares PingResult and the ping query field.
func (*Ping) TypeDef() string {
	return `
type ConnectionHealth {
  name: String!
  dialect: String!
  ok: Boolean!
  latencyMs: Float!
  error: String
}

type PingResult {
  status: String!
  connections: [ConnectionHealth!]!
}

extend type Query {
  ping: PingResult!
}
`
}

// Resolve pings every connection of the pool concurrently. The status is
// StatusDegraded when any ping fails; each failure is logged.
func (op *Ping) Resolve(ctx context.Context, _ any, _ map[string]any) (any, error) {
	pool, err := graphop.ServiceAs[Pool](op, ServicePool)
	if err != nil {
		return nil, err
	}
	names := pool.ConnNames()
	health := make([]map[string]any, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			health[i] = pingOne(ctx, pool, name)
			return nil
		})
	}
	_ = g.Wait()

	status := StatusOK
	for _, h := range health {
		if h["ok"] != true {
			status = StatusDegraded
			_ = op.Error("connection unhealthy", "connection", h["name"], "error", h["error"])
		}
	}
	return map[string]any{"status": status, "connections": health}, nil
}

func pingOne(ctx context.Context, pool Pool, name string) map[string]any {
	h := map[string]any{"name": name, "dialect": "", "ok": false, "latencyMs": 0.0, "error": nil}
	drv, err := pool.Driver(name)
	if err != nil {
		h["error"] = err.Error()
		return h
	}
	h["dialect"] = drv.Dialect()
	start := time.Now()
	err = drv.Ping(ctx)
	h["latencyMs"] = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		h["error"] = err.Error()
		return h
	}
	h["ok"] = true
	return h
}

// Connections reports the query statistics of every connection.
type Connections struct {
	graphop.Base
}

// Name returns the query field name, "connections".
func (*Connections) Name() string { return "connections" }

// Entrypoint places connections on the query root.
func (*Connections) Entrypoint() string { return "Query" }

// TypeDef declares Connection, ConnectionStats and the connections query
// field.
func (*Connections) TypeDef() string {
	return `
type ConnectionStats {
  totalQueries: Int!
  totalExecs: Int!
  slowQueries: Int!
  errors: Int!
  totalDurationMs: Float!
  avgQueryDurationMs: Float!
}

type Connection {
  name: String!
  dialect: String!
  slowThresholdMs: Float!
  stats: ConnectionStats!
}

extend type Query {
  connections(name: String): [Connection!]!
}
`
}

// Resolve returns the statistics of every connection, or of the one named
// by the optional name argument. An unknown name is an error.
func (op *Connections) Resolve(_ context.Context, _ any, args map[string]any) (any, error) {
	pool, err := graphop.ServiceAs[Pool](op, ServicePool)
	if err != nil {
		return nil, err
	}
	names := pool.ConnNames()
	if name, ok := args["name"].(string); ok {
		names = []string{name}
	}
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		drv, err := pool.Driver(name)
		if err != nil {
			return nil, err
		}
		s := drv.QueryStats().Stats()
		out = append(out, map[string]any{
			"name":            name,
			"dialect":         drv.Dialect(),
			"slowThresholdMs": millis(drv.SlowThreshold()),
			"stats": map[string]any{
				"totalQueries":       s.TotalQueries,
				"totalExecs":         s.TotalExecs,
				"slowQueries":        s.SlowQueries,
				"errors":             s.Errors,
				"totalDurationMs":    millis(s.TotalDuration),
				"avgQueryDurationMs": millis(s.AvgQueryDuration()),
			},
		})
	}
	return out, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
