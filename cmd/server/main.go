package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"crpstore/internal/crp/handler"
	crpmetrics "crpstore/internal/crp/metrics"
	"crpstore/internal/crp/service"
	"crpstore/internal/platform/config"
	"crpstore/internal/platform/health"
	"crpstore/internal/platform/logger"
	"crpstore/internal/platform/metrics"
	"crpstore/internal/platform/tracer"
	httptransport "crpstore/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/crp.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, _ := cfg.Substrate()
	log.Info("initializing crpstore",
		"addr", cfg.Addr,
		"substrate", string(sub),
		"env", cfg.Env,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hc := health.New(cfg.Env)

	backend, err := openStore(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer backend.close()
	hc.RegisterCheck("store", backend.store.Health)

	auditSink, err := openAudit(cfg, log)
	if err != nil {
		return err
	}
	defer auditSink.close()
	if auditSink.health != nil {
		hc.RegisterCheck("audit", auditSink.health)
	}

	svc := service.New(backend.store,
		service.WithLogger(log),
		service.WithMetrics(crpmetrics.New(reg)),
		service.WithTracer(tracer.NewOTel()),
		service.WithAuditPublisher(auditSink.publisher),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Gatherer:       reg,
		HTTPMetrics:    metrics.NewHTTP(reg),
	}, log, handler.New(svc, log), hc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
