// Package logger provides the logging backends used by graphop applications.
//
// Two backends are available. The default one is log/slog, the other wraps a
// zap SugaredLogger. Both satisfy graphop.Logger, take slog-style alternating
// key/value arguments and have a level adjustable at runtime:
//
//	l.Debug("executing operation", "operation", "ping")
//
// Tests should use the loggertest package so output goes through testing.TB.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/syssam/graphop"
)

// Backend names.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Format names.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config configures a logger.
type Config struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend"`
}

// Leveler changes the level of a logger at runtime.
type Leveler interface {
	SetLevel(level string) error
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logger: unknown level %q", s)
}

// New returns a logger for cfg writing to w, or to stderr when w is nil,
// and the Leveler controlling its level.
func New(cfg Config, w io.Writer) (graphop.Logger, Leveler, error) {
	if w == nil {
		w = os.Stderr
	}
	switch cfg.Backend {
	case "", BackendSlog:
		return NewSlog(cfg, w)
	case BackendZap:
		return NewZap(cfg, w)
	}
	return nil, nil, fmt.Errorf("logger: unknown backend %q", cfg.Backend)
}

// NewSlog returns a slog text or JSON logger writing to w.
func NewSlog(cfg Config, w io.Writer) (graphop.Logger, Leveler, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	lv := new(slog.LevelVar)
	lv.Set(lvl)
	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	switch cfg.Format {
	case "", FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}
	return slog.New(h), slogLevel{lv}, nil
}

// NewZap returns a zap logger writing to w with the production encoder
// settings. FormatText selects the console encoder.
func NewZap(cfg Config, w io.Writer) (graphop.Logger, Leveler, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	atom := zap.NewAtomicLevelAt(zapLevel(lvl))
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch cfg.Format {
	case "", FormatText:
		enc = zapcore.NewConsoleEncoder(ec)
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(ec)
	default:
		return nil, nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}
	z := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), atom), zap.ErrorOutput(zapcore.AddSync(w)))
	return Sugared(z.Sugar()), atomicLevel{atom}, nil
}

// Sugared adapts a zap SugaredLogger to graphop.Logger.
func Sugared(s *zap.SugaredLogger) graphop.Logger {
	return &sugared{s}
}

// Nop returns a logger discarding everything.
func Nop() graphop.Logger {
	return Sugared(zap.NewNop().Sugar())
}

// Sync flushes l when its backend buffers entries.
func Sync(l graphop.Logger) error {
	if s, ok := l.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

type sugared struct {
	s *zap.SugaredLogger
}

func (l *sugared) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l *sugared) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *sugared) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }

// Sync flushes buffered entries.
func (l *sugared) Sync() error { return l.s.Sync() }

type slogLevel struct {
	v *slog.LevelVar
}

func (l slogLevel) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.v.Set(lvl)
	return nil
}

type atomicLevel struct {
	a zap.AtomicLevel
}

func (l atomicLevel) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.a.SetLevel(zapLevel(lvl))
	return nil
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l < slog.LevelInfo:
		return zapcore.DebugLevel
	case l < slog.LevelWarn:
		return zapcore.InfoLevel
	case l < slog.LevelError:
		return zapcore.WarnLevel
	}
	return zapcore.ErrorLevel
}
