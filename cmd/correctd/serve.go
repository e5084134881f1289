package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"correctd/internal/corrector"
	"correctd/internal/httpapi"
	"correctd/internal/resource"
	"correctd/pkg/types"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *cliOptions) *cobra.Command {
	var (
		addr       string
		enableCORS bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP correction daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log := newLogger(opts)

			res := resource.New(resource.Config{
				MemoryBudgetGB: cfg.Resource.MemoryBudgetGB,
				CleanupDelay:   cfg.Resource.CleanupDelay(),
				Logger:         log.With().Str("component", "resource").Logger(),
			})
			res.SetSampleHook(func(mi resource.MemoryInfo) {
				httpapi.ObserveMemorySample(mi.AvailableGB, mi.PercentUsed)
			})
			stopMonitor := res.EnableMonitoring(cfg.Resource.MonitorInterval())
			defer stopMonitor()

			hub := httpapi.NewProgressHub()
			orch := corrector.New(res, cfg,
				log.With().Str("component", "corrector").Logger(),
				corrector.WithProgressSink(hub))

			baseCtx, baseCancel := context.WithCancel(cmd.Context())
			defer baseCancel()
			httpapi.SetBaseContext(baseCtx)
			httpapi.SetLogger(log.With().Str("component", "http").Logger())
			if enableCORS {
				httpapi.SetCORSOptions(true,
					[]string{"*"},
					[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
					[]string{"*"})
			}

			srv := &http.Server{Addr: cfg.Server.Addr, Handler: httpapi.NewMux(orch, hub)}
			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", cfg.Server.Addr).
					Str("segmenter", orch.ChunkerStrategy()).
					Str("gpu", string(res.GPU())).
					Msg("correctd listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			// Graceful shutdown (Ctrl+C / SIGTERM)
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-stop:
			}
			log.Info().Msg("shutting down")
			baseCancel()

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("graceful shutdown error")
			}
			// Tear loaded backends down so subprocess servers do not outlive us.
			for _, mt := range []types.ModelType{types.ModelTypeLanguage, types.ModelTypeTranscription} {
				if err := res.Release(ctx, mt); err != nil && !resource.IsNotLoaded(err) {
					log.Error().Err(err).Str("model", string(mt)).Msg("release on shutdown failed")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envDefault("CORRECTD_ADDR", ""),
		"HTTP listen address, e.g. :8091 (overrides config)")
	cmd.Flags().BoolVar(&enableCORS, "cors", false, "Enable permissive CORS for browser clients")
	return cmd
}
