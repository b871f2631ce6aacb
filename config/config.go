// Package config loads the YAML configuration of a graphop server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/syssam/graphop/dialect"
	"github.com/syssam/graphop/logger"

	"gopkg.in/yaml.v3"
)

// EnvAddr overrides Server.Addr when set.
const EnvAddr = "GRAPHOP_ADDR"

// Config is the root configuration.
type Config struct {
	Log         logger.Config         `yaml:"log"`
	Server      ServerConfig          `yaml:"server"`
	Connections map[string]ConnConfig `yaml:"connections,omitempty"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Path            string        `yaml:"path"`
	Playground      bool          `yaml:"playground"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ReadyAttempts bounds the connection checks made before serving.
	ReadyAttempts uint          `yaml:"ready_attempts"`
	ReadyDelay    time.Duration `yaml:"ready_delay"`
}

// ConnConfig configures one named database connection.
type ConnConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
	SlowThreshold   time.Duration `yaml:"slow_threshold,omitempty"`
}

// Default returns the configuration used for omitted settings.
func Default() *Config {
	return &Config{
		Log: logger.Config{
			Level:   "info",
			Format:  logger.FormatText,
			Backend: logger.BackendSlog,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			Path:            "/query",
			Playground:      true,
			ShutdownTimeout: 10 * time.Second,
			ReadyAttempts:   3,
			ReadyDelay:      time.Second,
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults, applies environment overrides and
// validates the result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if addr := os.Getenv(EnvAddr); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case logger.FormatText, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	switch c.Log.Backend {
	case logger.BackendSlog, logger.BackendZap:
	default:
		errs = append(errs, fmt.Errorf("log.backend: unknown backend %q", c.Log.Backend))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: empty address"))
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		errs = append(errs, fmt.Errorf("server.path: %q must start with /", c.Server.Path))
	}
	for name, conn := range c.Connections {
		if !dialect.Valid(conn.Driver) {
			errs = append(errs, fmt.Errorf("connections.%s.driver: unknown driver %q", name, conn.Driver))
		}
		if conn.DSN == "" {
			errs = append(errs, fmt.Errorf("connections.%s.dsn: empty dsn", name))
		}
	}
	return errors.Join(errs...)
}
