package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/api"
	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/pipeline"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve grades and charts over a local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Flags())
			if err != nil {
				return err
			}
			defer s.log.Sync() //nolint:errcheck

			app := api.SetupRouter(pipeline.NewRunner(s.client, s.log), s.cfg, s.log)
			return listen(cmd.Context(), app, addr, s.log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3000", "Listen address")
	cmd.Flags().String("api-url", config.DefaultAPIURL, "Base URL of the Canvas instance")
	return cmd
}

// listen serves until ctx is cancelled, then shuts the server down.
func listen(ctx context.Context, app *fiber.App, addr string, log *zap.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		log.Info("starting fiber server", zap.String("addr", addr))
		errChan <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("start fiber server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down fiber server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	}
}
