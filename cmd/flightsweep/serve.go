package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightsweep/internal/handler"
	"github.com/dharmasatrya/flightsweep/internal/metrics"
	"github.com/dharmasatrya/flightsweep/pkg/logger"
)

func serveCmd(a *app) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sweeps and single searches over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sc, err := a.cfg.SweepConfig()
			if err != nil {
				return err
			}

			c, store, err := a.newCollector(ctx, offline)
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true

			e.Use(middleware.Recover())
			e.Use(middleware.CORS())
			e.Use(middleware.RequestID())
			e.Use(logger.EchoMiddleware(a.logger))
			e.Use(metrics.EchoMiddleware(a.metrics))

			sweepHandler := handler.NewSweepHandler(c, sc, a.cfg.AdapterFor, a.logger, a.metrics)
			sweepHandler.Register(e.Group(a.cfg.APIPrefix))
			e.GET("/health", handler.HealthHandler)
			e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

			addr := ":" + strconv.Itoa(a.cfg.Port)
			a.logger.Info("starting flightsweep server", zap.String("addr", addr), zap.Bool("offline", offline))

			errCh := make(chan error, 1)
			go func() {
				errCh <- e.Start(addr)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "answer from the cache only")
	return cmd
}
