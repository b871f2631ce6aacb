// Package app provides the default graphop.Application: a logger plus
// registries of named services and database connections.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/config"
	"github.com/syssam/graphop/dialect/sql"
	"github.com/syssam/graphop/logger"

	"golang.org/x/sync/errgroup"
)

// Lookup errors, wrapped with the requested name.
var (
	ErrServiceNotFound = errors.New("app: service not found")
	ErrConnNotFound    = errors.New("app: connection not found")
)

// App implements graphop.Application.
type App struct {
	log   graphop.Logger
	level logger.Leveler

	mu       sync.RWMutex
	services map[string]any
	conns    map[string]*sql.Driver
}

var _ graphop.Application = (*App)(nil)

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l graphop.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithLevel sets the level control used by SetLevel.
func WithLevel(lv logger.Leveler) Option {
	return func(a *App) {
		a.level = lv
	}
}

// WithService registers a service.
func WithService(name string, v any) Option {
	return func(a *App) {
		a.services[name] = v
	}
}

// WithConn registers a connection.
func WithConn(name string, drv *sql.Driver) Option {
	return func(a *App) {
		a.conns[name] = drv
	}
}

// New returns an App. The logger defaults to slog.Default.
func New(opts ...Option) *App {
	a := &App{
		log:      slog.Default(),
		services: make(map[string]any),
		conns:    make(map[string]*sql.Driver),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromConfig builds the logger described by cfg, writing to w, and opens
// every configured connection. Connections already opened are closed when a
// later one fails.
func FromConfig(cfg *config.Config, w io.Writer) (*App, error) {
	log, lv, err := logger.New(cfg.Log, w)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a := New(WithLogger(log), WithLevel(lv))
	names := make([]string, 0, len(cfg.Connections))
	for name := range cfg.Connections {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cc := cfg.Connections[name]
		opts := []sql.Option{
			sql.WithPool(cc.MaxOpenConns, cc.MaxIdleConns, cc.ConnMaxLifetime),
			sql.WithSlowQueryLog(log),
		}
		if cc.SlowThreshold > 0 {
			opts = append(opts, sql.WithSlowThreshold(cc.SlowThreshold))
		}
		drv, err := sql.Open(cc.Driver, cc.DSN, opts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("app: connection %q: %w", name, err), a.Close())
		}
		a.conns[name] = drv
		log.Debug("connection opened", "connection", name, "dialect", drv.Dialect())
	}
	return a, nil
}

// Logger implements graphop.Application.
func (a *App) Logger() graphop.Logger {
	return a.log
}

// Service implements graphop.Application.
func (a *App) Service(name string) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}
	return v, nil
}

// Conn implements graphop.Application. The value is a *sql.Driver.
func (a *App) Conn(name string) (any, error) {
	drv, err := a.Driver(name)
	if err != nil {
		return nil, err
	}
	return drv, nil
}

// Driver returns the connection registered under name.
func (a *App) Driver(name string) (*sql.Driver, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	drv, ok := a.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConnNotFound, name)
	}
	return drv, nil
}

// RegisterService adds a service. Names are unique.
func (a *App) RegisterService(name string, v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.services[name]; ok {
		return fmt.Errorf("app: service %q already registered", name)
	}
	a.services[name] = v
	return nil
}

// RegisterConn adds a connection. Names are unique.
func (a *App) RegisterConn(name string, drv *sql.Driver) error {
	if drv == nil {
		return fmt.Errorf("app: connection %q is nil", name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.conns[name]; ok {
		return fmt.Errorf("app: connection %q already registered", name)
	}
	a.conns[name] = drv
	return nil
}

// ConnNames returns the sorted connection names.
func (a *App) ConnNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.conns))
	for name := range a.conns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetLevel changes the logger level at runtime. It fails for an App built
// without WithLevel.
func (a *App) SetLevel(level string) error {
	if a.level == nil {
		return errors.New("app: logger level is not adjustable")
	}
	if err := a.level.SetLevel(level); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// Ping checks every connection concurrently and joins the failures.
func (a *App) Ping(ctx context.Context) error {
	return a.each(func(name string, drv *sql.Driver) error {
		if err := drv.Ping(ctx); err != nil {
			return fmt.Errorf("app: connection %q: %w", name, err)
		}
		return nil
	})
}

// Close closes every connection concurrently and joins the failures, then
// flushes the logger. Sync errors are dropped: syncing a terminal or a pipe
// fails with EINVAL on most platforms.
func (a *App) Close() error {
	err := a.each(func(name string, drv *sql.Driver) error {
		if err := drv.Close(); err != nil {
			return fmt.Errorf("app: close %q: %w", name, err)
		}
		return nil
	})
	_ = logger.Sync(a.log)
	return err
}

func (a *App) each(fn func(string, *sql.Driver) error) error {
	names := a.ConnNames()
	errs := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		drv, err := a.Driver(name)
		if err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			errs[i] = fn(name, drv)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
