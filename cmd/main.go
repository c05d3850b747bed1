package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/wordcount/config"
	"github.com/angeloszaimis/wordcount/internal/handler"
	"github.com/angeloszaimis/wordcount/internal/httpserver"
	"github.com/angeloszaimis/wordcount/internal/metrics"
	"github.com/angeloszaimis/wordcount/internal/middleware"
	"github.com/angeloszaimis/wordcount/internal/wordcount"
	"github.com/angeloszaimis/wordcount/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level, cfg.Logging.AddSource, cfg.Server.Environment)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collectorCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()
	collector := newCollector(collectorCtx, cfg, log)

	aggregator := wordcount.NewAggregator(log, aggregatorOptions(cfg))
	wordCountHandler := handler.NewWordCountHandler(log, aggregator, uploadLimits(cfg), collector)

	root := middleware.Chain(
		setupRouter(withRateLimit(ctx, cfg, log, wordCountHandler), collector),
		middleware.RequestID(log),
		middleware.AccessLog(log),
	)

	srv, err := httpserver.New(cfg.Server.Address, root, serverTimeouts(cfg))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Word count service listening", slog.String("address", cfg.Server.Address))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// The collector outlives the server so responses finished during shutdown are counted.
	stopCollector()
	if collector != nil {
		<-collector.Done()
	}
}

func newCollector(ctx context.Context, cfg *config.Config, log *slog.Logger) *metrics.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	collector.Start(ctx)
	return collector
}

func withRateLimit(ctx context.Context, cfg *config.Config, log *slog.Logger, next http.Handler) http.Handler {
	if !cfg.RateLimit.Enabled {
		return next
	}

	ttl := cfg.RateLimit.IdleTTLDuration()
	store := middleware.NewLimiterStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst, ttl)
	store.StartJanitor(ctx, ttl/2)

	log.Info("Rate limiting enabled",
		slog.Float64("rps", cfg.RateLimit.RPS),
		slog.Int("burst", cfg.RateLimit.Burst))

	return middleware.RateLimit(store, log)(next)
}

func aggregatorOptions(cfg *config.Config) wordcount.Options {
	return wordcount.Options{
		MaxConcurrency:  cfg.Processing.MaxConcurrency,
		MaxFileBytes:    cfg.Upload.MaxFileBytes,
		FileReadTimeout: cfg.Processing.FileReadTimeoutDuration(),
	}
}

func uploadLimits(cfg *config.Config) handler.Limits {
	return handler.Limits{
		MaxRequestBytes: cfg.Upload.MaxRequestBytes,
		MaxMemoryBytes:  cfg.Upload.MaxMemoryBytes,
		MaxFiles:        cfg.Upload.MaxFiles,
	}
}

func serverTimeouts(cfg *config.Config) httpserver.Timeouts {
	return httpserver.Timeouts{
		Read:     cfg.Server.ReadTimeoutDuration(),
		Write:    cfg.Server.WriteTimeoutDuration(),
		Idle:     cfg.Server.IdleTimeoutDuration(),
		Shutdown: cfg.Server.ShutdownTimeoutDuration(),
	}
}
