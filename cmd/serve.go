package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/humorloos/feierabend/internal/calendar"
	"github.com/humorloos/feierabend/internal/config"
	"github.com/humorloos/feierabend/internal/instrumentation"
	"github.com/humorloos/feierabend/internal/logging"
	"github.com/humorloos/feierabend/internal/reconcile"
	"github.com/humorloos/feierabend/internal/server"
	"github.com/humorloos/feierabend/internal/watchstore"
)

func newServeCmd() *cobra.Command {
	var (
		listenAddr  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook daemon",
		Long: `Run the webhook daemon that receives Google Calendar push notifications
and reconciles the watched calendars on every change.

Watch channels must be registered first with "feierabend watch setup".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "Webhook server bind address (overrides listen_addr)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server bind address (overrides metrics_addr)")

	return cmd
}

func runServe(cfg *config.Config) error {
	log := logging.WithAccount(logging.Setup(cfg.LogLevel, cfg.LogFormat), cfg.Account)

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return err
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	client, err := calendar.NewClientForAccount(shutdownCtx, cfg.Account, cfg.IgnoreCalendars)
	if err != nil {
		return err
	}
	store, err := watchstore.Load(cfg.WatchStateDir())
	if err != nil {
		return err
	}
	regs, err := store.All(shutdownCtx)
	if err != nil {
		return err
	}
	provider.Metrics().AddWatchChannels(int64(len(regs)))

	engine := reconcile.NewEngine(client, store, cfg.Reconcile(), log, provider.Metrics())

	webhookServer := server.New(server.Config{
		Addr:       cfg.ListenAddr,
		Reconciler: engine,
		Logger:     log,
		Metrics:    provider.Metrics(),
	})

	errCh := make(chan error, 2)
	go func() {
		if err := webhookServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("webhook server failed: %w", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	log.Info("daemon running",
		"listen_addr", cfg.ListenAddr, "metrics_addr", cfg.MetricsAddr, "account", cfg.Account)

	select {
	case <-shutdownCtx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer stopCancel()

	webhookServer.Health().SetReady(false)
	if err := webhookServer.Shutdown(stopCtx); err != nil {
		log.Error("webhook server shutdown failed", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			log.Error("metrics server shutdown failed", logging.Err(err))
		}
	}
	return nil
}
