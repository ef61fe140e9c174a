package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tunneld/internal/httpapi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent: periodic reconcile loop plus the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)
	rec, sup := buildReconciler(cfg, log)

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Parallel snap installs need a one-time feature flag on the host.
	// Failing here is not fatal: the flag may already be set, or snapd may
	// come up later; the first install effect will report the real problem.
	if err := sup.EnableParallelInstances(baseCtx); err != nil {
		log.Warn().Err(err).Msg("could not enable snapd parallel instances")
	}

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(baseCtx)
	mux := httpapi.NewMux(rec)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("tunneld listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Reconcile loop: one pass now, then on every tick. A fatal pass failure
	// is logged and surfaced through metrics; the loop keeps running so a
	// recovered host converges on the next tick.
	go func() {
		runPass := func() {
			if _, err := rec.Reconcile(baseCtx); err != nil {
				if baseCtx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("reconcile pass failed")
			}
		}
		runPass()
		ticker := time.NewTicker(time.Duration(cfg.PollIntervalSeconds) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-baseCtx.Done():
				return
			case <-ticker.C:
				runPass()
			}
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
