package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/capstone-ai/dna/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves POST /ai/chat plus /health, /info, /tools and, when enabled, /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		logger := app.Logger

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxInputSize(cfg.Server.MaxInputSize),
		}
		if cfg.Server.Metrics {
			opts = append(opts, httpAdapter.WithMetrics(app.Metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           httpAdapter.NewHandler(app.Assistant, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting DNA server", "addr", srv.Addr, "env", cfg.Env)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8000, "Port to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().Int("max-input-size", 4096, "Maximum utterance size in bytes")
	serveCmd.Flags().String("catalog", "", "Extra tool catalog (YAML or JSON)")
	serveCmd.Flags().String("dispatch", "", "Dispatch table overlay (YAML)")
	serveCmd.Flags().String("store", "memory", "Conversation store: memory, redis or file")
	serveCmd.Flags().String("redis", "localhost:6379", "Redis address for the redis store")
	serveCmd.Flags().String("store-dir", ".dna", "Directory for the file store")
}
