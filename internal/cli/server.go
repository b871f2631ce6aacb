package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/app"
	"github.com/syssam/graphop/config"
	"github.com/syssam/graphop/contrib/graphql"
	"github.com/syssam/graphop/graph"
	"github.com/syssam/graphop/hook"
	"github.com/syssam/graphop/internal/builtin"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"
)

// HeaderRequestID is the request header propagated as the request id.
const HeaderRequestID = "X-Request-ID"

// SchemaPath serves the SDL of the registered operations.
const SchemaPath = "/schema.graphql"

// Server wires the application, the schema builder and the HTTP transport
// described by a Config.
type Server struct {
	cfg     *config.Config
	app     *app.App
	builder *graph.Builder
	manager *graphop.Manager
}

// NewServer builds the application from cfg, logging to w, and registers
// the built-in operations.
func NewServer(cfg *config.Config, w io.Writer) (*Server, error) {
	a, err := app.FromConfig(cfg, w)
	if err != nil {
		return nil, err
	}
	s, err := newServer(cfg, a)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return s, nil
}

func newServer(cfg *config.Config, a *app.App) (*Server, error) {
	if err := a.RegisterService(builtin.ServicePool, a); err != nil {
		return nil, err
	}
	b := graph.NewBuilder()
	m := graphop.NewManager(b)
	m.RegisterPreHook(hook.RequestID())
	m.RegisterPreHook(hook.Logging())
	if err := m.RegisterOperations(builtin.Operations(), a); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, app: a, builder: b, manager: m}, nil
}

// App returns the application.
func (s *Server) App() *app.App { return s.app }

// Builder returns the schema builder.
func (s *Server) Builder() *graph.Builder { return s.builder }

// Manager returns the operation manager, for registering more operations
// and hooks before serving.
func (s *Server) Manager() *graphop.Manager { return s.manager }

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Server.Path, graphql.NewHandler(s.builder, graphql.WithLogger(s.app.Logger())))
	mux.Handle(SchemaPath, graphql.SchemaHandler(s.builder))
	if s.cfg.Server.Playground && s.cfg.Server.Path != "/" {
		mux.Handle("GET /{$}", graphql.Playground("graphop", s.cfg.Server.Path))
	}
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(HeaderRequestID); id != "" {
			r = r.WithContext(hook.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WaitReady pings every connection until all answer, retrying with a
// fixed delay up to the configured number of attempts.
func (s *Server) WaitReady(ctx context.Context) error {
	log := s.app.Logger()
	return retry.Do(
		func() error { return s.app.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(max(s.cfg.Server.ReadyAttempts, 1)),
		retry.Delay(s.cfg.Server.ReadyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Error("connections not ready", "attempt", n+1, "error", err.Error())
		}),
	)
}

// Run waits for the connections, listens on the configured address and
// serves until ctx is done.
func (s *Server) Run(ctx context.Context, configPath string) error {
	if err := s.WaitReady(ctx); err != nil {
		return fmt.Errorf("cli: %w", errors.Join(err, s.app.Close()))
	}
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("cli: listen: %w", errors.Join(err, s.app.Close()))
	}
	return s.Serve(ctx, ln, configPath)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and
// closes every connection. When configPath is set, changes to the file
// update the log level.
func (s *Server) Serve(ctx context.Context, ln net.Listener, configPath string) error {
	log := s.app.Logger()
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", "addr", ln.Addr().String(), "path", s.cfg.Server.Path)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("server stopping")
		return srv.Shutdown(shutdown)
	})
	if configPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, configPath, s.reload, config.OnError(func(err error) {
				log.Error("config reload failed", "error", err.Error())
			}))
		})
	}
	return errors.Join(g.Wait(), s.app.Close())
}

// reload applies the parts of cfg that can change at runtime.
func (s *Server) reload(cfg *config.Config) {
	log := s.app.Logger()
	if err := s.app.SetLevel(cfg.Log.Level); err != nil {
		log.Error("config reload failed", "error", err.Error())
		return
	}
	log.Info("log level updated", "log_level", cfg.Log.Level)
}
