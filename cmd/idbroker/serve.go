package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idbroker/internal/app"
	httpserver "github.com/dropDatabas3/idbroker/internal/http"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Arranca el broker y el router operativo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logger.L().With(logger.Component("serve"))
			ctx = logger.ToContext(ctx, log)

			c, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Bootstrap(ctx); err != nil {
				return err
			}

			metricsHandler, err := httpserver.RegisterMetrics(httpserver.MetricsConfig{DB: c.Stores.DB})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr: cfg.Server.Addr,
				Handler: httpserver.NewRouter(httpserver.Deps{
					Stores:      c.Stores,
					Authorities: c.Authorities,
					Metrics:     metricsHandler,
					Version:     version,
				}),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      30 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
