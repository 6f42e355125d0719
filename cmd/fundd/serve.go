package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"ZeitFund/internal/metrics"
	"ZeitFund/internal/notifier"
	"ZeitFund/internal/scheduler"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, chat commands and metrics endpoint",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true",
		"issue the configured dividend once at startup")
	cmd.RunE = withApp(opts, func(parent context.Context, a *app) error {
		return serve(parent, a, runOnStart)
	})
	return cmd
}

func serve(parent context.Context, a *app, runOnStart bool) error {
	cfg := a.cfg
	log := a.log
	log.Info("ZeitFund starting", "fund", cfg.Fund.Name, "manager", cfg.Fund.Manager,
		"phase", a.ledger.Phase())

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var n notifier.Notifier
	if cfg.TelegramEnabled() {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	} else {
		log.Info("telegram not configured, notifications disabled")
		n = notifier.NewNoopNotifier()
	}

	dividendAmount, err := cfg.DividendAmount()
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(ctx, a.ledger, n, a.recorder, a.units, log)
	if err := sched.RegisterAll(cfg.Dividend.Cron, dividendAmount, cfg.Schedule.StatusCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go n.StartPolling(ctx, sched.HandleCommand)

	metrics.ObserveSummary(a.ledger.Summary())
	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	if runOnStart && isPositive(dividendAmount) {
		log.Info("run-on-start enabled, issuing dividend now")
		go func() { _ = sched.RunDividendNow(dividendAmount) }()
	}

	log.Info("ZeitFund is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", "error", err)
		}
	}
	log.Info("ZeitFund stopped")
	return nil
}
