// Package di wires the modelmux services into a samber/do container.
package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/modelmux/modelmux/internal/config"
)

// ConfigPathKey is the named injection key for the config file path.
const ConfigPathKey = "config-path"

// ConfigService wraps the loaded configuration with hot-reload support.
type ConfigService struct {
	Runtime *config.Runtime
	watcher *config.Watcher
	path    string
}

// Get returns the current configuration via atomic load.
func (c *ConfigService) Get() *config.Config {
	return c.Runtime.Get()
}

// OnReload registers a callback invoked after each successful hot-reload,
// in addition to the runtime swap. No-op when the watcher is unavailable.
func (c *ConfigService) OnReload(cb config.ReloadCallback) {
	if c.watcher != nil {
		c.watcher.OnReload(cb)
	}
}

// StartWatching begins watching the config file for changes. Call after
// the container is fully initialized; cancel the context to stop.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("config watcher error")
		}
	}()

	log.Info().Str("path", c.path).Msg("config file watcher started")
}

// Shutdown implements do.Shutdowner.
func (c *ConfigService) Shutdown() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// NewConfig loads and validates the configuration, then creates the
// watcher. The watcher is not started; call StartWatching after container
// init.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	svc := &ConfigService{
		Runtime: config.NewRuntime(cfg),
		path:    path,
	}

	// Hot-reload is optional; a watcher failure only disables it.
	watcher, err := config.NewWatcher(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher creation failed, hot-reload disabled")
	} else {
		svc.watcher = watcher
		watcher.OnReload(func(newCfg *config.Config) error {
			svc.Runtime.Store(newCfg)
			log.Info().Str("path", path).Msg("config hot-reloaded successfully")
			return nil
		})
	}

	return svc, nil
}
