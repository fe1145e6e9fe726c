package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/charon/config"
	"github.com/ErlanBelekov/charon/internal/clock"
	"github.com/ErlanBelekov/charon/internal/health"
	"github.com/ErlanBelekov/charon/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/charon/internal/log"
	"github.com/ErlanBelekov/charon/internal/metrics"
	"github.com/ErlanBelekov/charon/internal/reaper"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.DatabaseURL == "" {
		log.Fatal("reaper: DATABASE_URL is required")
	}

	schedule, err := reaper.ParseSchedule(cfg.ReaperSchedule)
	if err != nil {
		log.Fatalf("reaper: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker([]health.Dependency{{Name: "postgres", Pinger: pool}}, logger, prometheus.DefaultRegisterer)

	r := reaper.NewReaper(postgres.NewUserRepository(pool), schedule, cfg.ReaperBatch, clock.System{}, logger)
	go r.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("reaper shut down")
}
