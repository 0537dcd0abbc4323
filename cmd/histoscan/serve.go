package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"histoscan/internal/httpapi"
)

func newServeCmd(f *rootFlags, getenv func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  histoscan serve --addr :5000 --model-path model/best_cancer_model_small.onnx",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := newLogger(stderr, cfg.LogLevel)
			httpapi.SetLogger(log)
			httpapi.SetDefaultLogLevel(cfg.LogLevel)
			httpapi.SetMaxUploadBytes(int64(cfg.MaxUploadMB) << 20)
			httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)
			httpapi.SetBaseContext(ctx)

			mgr := newManager(cfg, log)
			defer func() {
				if err := mgr.Close(); err != nil {
					log.Warn().Err(err).Msg("closing model session")
				}
			}()

			if cfg.Preload {
				go func() {
					if err := mgr.LoadModel(); err != nil {
						log.Warn().Err(err).Msg("preload failed; will retry on first request")
					}
				}()
			}
			if cfg.WatchArtifacts {
				go func() {
					if err := mgr.WatchArtifacts(ctx); err != nil {
						log.Warn().Err(err).Msg("artifact watcher stopped")
					}
				}()
			}

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(mgr),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Strs("candidates", mgr.Candidates()).
					Bool("degraded", cfg.DegradedMode).Msg("histoscan listening")
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
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
}
