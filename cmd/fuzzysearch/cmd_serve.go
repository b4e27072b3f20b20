package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/router"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/search"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/internal/segment"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/redis"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve search, health and metrics endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service", "port", cfg.Server.Port, "data_dir", cfg.Index.DataDir)

	readers, err := segment.OpenDir(cfg.Index.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		for _, r := range readers {
			if err := r.Close(); err != nil {
				slog.Error("closing segment", "segment", r.Name(), "error", err)
			}
		}
	}()
	s, err := segment.CommonSchema(readers)
	if err != nil {
		return err
	}
	slog.Info("segments loaded", "count", len(readers))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	m.SegmentsLoaded.Set(float64(len(readers)))

	searcher := search.New(segmentReaders(readers), search.Options{
		Parallelism:         cfg.Search.Parallelism,
		Timeout:             cfg.Search.Timeout,
		SkipFailedSegments:  cfg.Search.SkipFailedSegments,
		QuarantineThreshold: cfg.Search.QuarantineThreshold,
		QuarantineDuration:  cfg.Search.QuarantineDuration,
		Trace:               cfg.Tracing.Enabled,
		Metrics:             m,
	})
	checker := health.NewChecker()
	checker.Register("segments", health.SegmentsCheck(func() int { return len(searcher.Segments()) }))

	var queryCache *cache.QueryCache
	if cfg.Redis.Addr != "" {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			names := make([]string, len(readers))
			for i, r := range readers {
				names[i] = r.Name()
			}
			queryCache = cache.New(redisClient, cache.Generation(names), cfg.Redis.CacheTTL, m)
			checker.Register("cache", health.DependencyCheck(redisClient.Ping))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	h := handler.New(searcher, s, handler.Options{
		DefaultLimit:         cfg.Search.DefaultLimit,
		MaxResults:           cfg.Search.MaxResults,
		MaxEditDistance:      cfg.Search.MaxEditDistance,
		TranspositionCostOne: cfg.Search.TranspositionCostOne,
		Cache:                queryCache,
	})

	routes := router.New(h, checker, router.Config{
		Metrics:        m,
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowOrigins:   cfg.Server.AllowOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port != cfg.Server.Port {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("search service stopped")
	return nil
}
