package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stevemurr/words-log/config"
	"github.com/stevemurr/words-log/dictionary"
	"github.com/stevemurr/words-log/handler"
	"github.com/stevemurr/words-log/metrics"
	"github.com/stevemurr/words-log/middleware"
	"github.com/stevemurr/words-log/store"
	"github.com/stevemurr/words-log/transcript"
	"github.com/stevemurr/words-log/words"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)
	os.Exit(finish(logger, run(cfg, logger)))
}

// finish logs how run ended and flushes the logger before the process exits.
// It returns the exit code.
func finish(logger *zap.Logger, err error) int {
	defer logger.Sync()
	if err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}
	logger.Info("Words Log shutdown complete")
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	surface, err := store.New(ctx, store.Config{
		Backend: cfg.Store.Backend,
		DataDir: cfg.Store.DataDir,
		Redis: store.RedisOptions{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create store (backend=%s): %w", cfg.Store.Backend, err)
	}
	defer surface.Close()

	wordStore := words.New(ctx, surface, words.Config{
		Key:           cfg.Store.Key,
		FlushInterval: cfg.Store.FlushInterval,
		Metrics:       m,
	}, logger.Named("words"))

	dict := dictionary.New(dictionary.Config{
		BaseURL:           cfg.Dictionary.BaseURL,
		Timeout:           cfg.Dictionary.Timeout,
		RequestsPerSecond: cfg.Dictionary.RequestsPerSecond,
		Burst:             cfg.Dictionary.Burst,
		Concurrency:       cfg.Dictionary.Concurrency,
	}, logger.Named("dictionary"), m)

	var articles handler.ArticleFetcher
	if cfg.Article.Enabled {
		articles = transcript.NewFetcher(cfg.Article.Timeout)
	}

	h := handler.New(wordStore, dict, articles, logger.Named("handler"))

	mux := http.NewServeMux()
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", h)

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
	}
	if cfg.RateLimiter.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimiter.RequestsPerSecond, cfg.RateLimiter.BurstSize, logger)
		chain = append(chain, limiter.Limit)
	}
	chain = append(chain, middleware.Timeout(cfg.Server.RequestTimeout), middleware.Metrics(m))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      middleware.Chain(chain...)(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	logger.Info("Words Log starting",
		zap.String("addr", srv.Addr),
		zap.String("backend", cfg.Store.Backend),
		zap.String("data_dir", cfg.Store.DataDir),
		zap.Int("words", wordStore.Len()),
	)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case serveErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}
	// Write any pending changes before the surface closes.
	if err := wordStore.Close(shutdownCtx); err != nil {
		logger.Error("failed to flush words on shutdown", zap.Error(err))
	}
	return serveErr
}

// initLogger builds the zap logger from the logging section.
func initLogger(cfg config.LoggingConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
