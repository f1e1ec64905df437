package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/internal/config"
	"github.com/armgate-dev/armgate/internal/server"
	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	b, err := backend.New(backend.Config{
		Mock:     cfg.Backend.Mock,
		Endpoint: cfg.RPC.Endpoint,
		Timeout:  cfg.RPC.Timeout,
		Retries:  cfg.RPC.Retries,
	}, logger, registry)
	if err != nil {
		return err
	}

	srv := server.New(cfg, b, logger, registry)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown did not drain cleanly", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
