package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	onError func(error)
}

// OnError sets the callback receiving reload and watcher failures.
func OnError(fn func(error)) WatchOption {
	return func(c *watchConfig) {
		c.onError = fn
	}
}

// Watch reloads the file at path whenever it is written or replaced and
// passes the new configuration to fn. Invalid files are skipped. Watch
// blocks until ctx is done.
//
// The parent directory is watched so that editors replacing the file by
// rename are noticed.
func Watch(ctx context.Context, path string, fn func(*Config), opts ...WatchOption) error {
	wc := &watchConfig{onError: func(error) {}}
	for _, opt := range opts {
		opt(wc)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				wc.onError(err)
				continue
			}
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			wc.onError(fmt.Errorf("config: watch %s: %w", path, err))
		}
	}
}
