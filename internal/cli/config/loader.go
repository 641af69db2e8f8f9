package config

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pradeepp88/indy-cli-go/internal/infra/confloader"
)

// Load reads the CLI config file. An empty path yields the defaults with
// INDY_CLI_* environment overrides applied; a path that cannot be read or
// parsed is an error.
func Load(path string) (*CLIConfig, error) {
	cfg := Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		return nil, fmt.Errorf("cli config: %w", err)
	}
	if cfg.TAAAcceptanceMechanism == "" {
		cfg.TAAAcceptanceMechanism = DefaultAcceptanceMechanism
	}
	return cfg, nil
}

// Live holds the settings that an interactive session picks up again when
// the config file changes.
type Live struct {
	path string
	log  *slog.Logger

	mu        sync.RWMutex
	mechanism string

	watcher *confloader.Watcher
}

// NewLive creates a Live view seeded from an already loaded config.
func NewLive(path string, cfg *CLIConfig, log *slog.Logger) *Live {
	if log == nil {
		log = slog.Default()
	}
	return &Live{
		path:      path,
		log:       log,
		mechanism: cfg.TAAAcceptanceMechanism,
	}
}

// AcceptanceMechanism returns the current TAA acceptance mechanism.
func (l *Live) AcceptanceMechanism() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mechanism
}

// Reload re-reads the config file. On failure the previous values stay.
func (l *Live) Reload() error {
	cfg, err := Load(l.path)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.mechanism = cfg.TAAAcceptanceMechanism
	l.mu.Unlock()
	return nil
}

// Watch starts reloading on file changes. It is a no-op without a path.
func (l *Live) Watch() error {
	if l.path == "" {
		return nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(l.log))
	if err != nil {
		return err
	}
	if err := w.Watch(l.path); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(func(string) {
		if err := l.Reload(); err != nil {
			l.log.Warn("config reload failed", "path", l.path, "error", err)
			return
		}
		l.log.Info("config reloaded", "path", l.path)
	})
	w.StartAsync()
	l.watcher = w
	return nil
}

// Stop stops watching.
func (l *Live) Stop() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Stop()
}
