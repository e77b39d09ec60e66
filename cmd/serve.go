package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/config"
	"github.com/kmuriithi/vehicleguard/internal/device"
	"github.com/kmuriithi/vehicleguard/internal/logging"
	"github.com/kmuriithi/vehicleguard/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the device API server",
	Long: `Start the VehicleGuard device API.
The API accepts authentication attempts, remote engine commands,
telemetry queries and device heartbeats. The heartbeat monitor runs in
the background and marks silent units offline.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().Bool("simulated", false, "Force simulated hardware backends")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := logging.New()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if mustGetBool(cmd, "simulated") {
		cfg.Hardware.Simulated = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	coord := buildCoordinator(cfg, st, logger)
	server := web.NewServer(cfg, coord, st, logger)

	monitor := device.NewMonitor(st, time.Minute, 5*time.Minute, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
