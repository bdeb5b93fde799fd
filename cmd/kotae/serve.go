package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the kotae HTTP API. One usage tracker lives for the whole process and is
reported at /api/v1/usage.

Endpoints:
  POST   /api/v1/ask         {"question": "...", "query": "..."}
  GET    /api/v1/runs        ?offset=&limit=
  GET    /api/v1/runs/{id}
  DELETE /api/v1/runs/{id}
  GET    /api/v1/usage
  GET    /api/v1/status
  GET    /health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port > 0 {
				a.cfg.Server.Port = port
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default: server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: server.port)")
	return cmd
}

func runServe(parent context.Context, a *app) error {
	logger := a.logger
	logger.Info("config loaded", zap.String("config_path", a.resolvedPath))

	components, err := initializeComponents(a.cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer components.Close()

	srv := server.NewServer(components.Pipeline, components.Storage, a.cfg.Storage.DatabasePath, &a.cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx, stop := withSignals(parent)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...",
		zap.Int("calls", components.Tracker.Calls()),
		zap.Int("total_tokens", components.Tracker.Total().TotalTokens))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
