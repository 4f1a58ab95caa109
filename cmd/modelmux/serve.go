package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/modelmux/modelmux/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the modelmux server",
	Long: `Start the routing server: selection and rule administration over HTTP,
periodic health monitoring of every configured provider, and metrics
aggregation into the local time-series store.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	container, err := di.NewContainer(configPath)
	if err != nil {
		return err
	}

	cfgSvc, err := di.Invoke[*di.ConfigService](container)
	if err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		return err
	}

	// Logger must resolve before anything logs through the global.
	if _, err := di.Invoke[*di.LoggerService](container); err != nil {
		return err
	}

	srvSvc, err := di.Invoke[*di.ServerService](container)
	if err != nil {
		log.Error().Err(err).Msg("failed to assemble services")
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfgSvc.StartWatching(ctx)

	cfg := cfgSvc.Get()
	if cfg.Health.IsEnabled() {
		monitorSvc := di.MustInvoke[*di.MonitorService](container)
		monitorSvc.Monitor.Start(ctx)
		for _, seed := range cfg.Providers {
			if seed.IsEnabled() {
				monitorSvc.Monitor.StartMonitoring(seed.ID, seed.OrgID)
			}
		}
	}

	if cfg.Metrics.IsEnabled() {
		aggSvc := di.MustInvoke[*di.AggregatorService](container)
		if err := aggSvc.Aggregator.Start(ctx); err != nil {
			log.Error().Err(err).Msg("failed to start metrics aggregator")
			return err
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srvSvc.Server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown error")
		}
		cancel()
		if err := container.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("service shutdown error")
		}

		close(done)
	}()

	log.Info().Str("listen", cfg.Server.GetListen()).Msg("starting modelmux")

	if err := srvSvc.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		return err
	}

	<-done
	log.Info().Msg("server stopped")
	return nil
}

// findConfigFile searches for modelmux.yaml in default locations.
func findConfigFile() string {
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", "modelmux", defaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return defaultConfigFile
}
