package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"resmatch/internal/catalog/handler"
	catalogmetrics "resmatch/internal/catalog/metrics"
	"resmatch/internal/catalog/store"
	"resmatch/internal/platform/config"
	"resmatch/internal/platform/httpserver"
	"resmatch/internal/platform/logger"
	"resmatch/internal/platform/postgres"
	"resmatch/migrations"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Query logic lives in the catalog store; handlers stay thin.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.Apply(ctx, db); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	h := handler.New(store.NewPostgres(db), log, catalogmetrics.New())

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting catalog server", "addr", cfg.Server.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("catalog server stopped")
}
