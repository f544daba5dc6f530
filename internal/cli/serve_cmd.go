package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/dealflow/internal/config"
	"github.com/alexanderramin/dealflow/internal/httpapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local database as a record API for remote dealflow clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if app.Config != nil {
				cfg = *app.Config
			}
			if cfg.Store.Mode != config.StoreLocal {
				return fmt.Errorf("serve needs store.mode=%s (currently %s)", config.StoreLocal, cfg.Store.Mode)
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, app, cfg.Server, func(addr string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving record API on http://%s/api/v1\n", addr)
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")

	return cmd
}

// serve runs the record API until ctx is cancelled, then shuts down within
// the configured timeout.
func serve(ctx context.Context, app *App, sc config.ServerConfig, started func(addr string)) error {
	logger := app.logger()
	srv, err := httpapi.NewServer(app.Store, logger, httpapi.WithRegistry(app.Registry))
	if err != nil {
		return err
	}

	addr := sc.Addr()
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start(addr)
	}()
	if started != nil {
		started(addr)
	}

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	timeout := sc.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
