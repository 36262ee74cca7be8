package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"gradecalc/internal/backend"
	"gradecalc/internal/cache"
	"gradecalc/internal/cli"
	"gradecalc/internal/config"
	apphttp "gradecalc/internal/http"
	"gradecalc/internal/log"
	"gradecalc/internal/report"
	"gradecalc/internal/semesters"
	"gradecalc/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, nil)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	caches := cache.NewManager()
	for _, c := range result.Caches {
		caches.Register(c)
	}
	if len(result.Caches) > 0 {
		caches.StartCleanup(cacheCleanupInterval(cfg))
	}
	defer caches.Stop()

	opts := []semesters.Option{semesters.WithLogger(logger.WithComponent(log.ComponentStorage))}
	if result.Notifier != nil {
		opts = append(opts, semesters.WithNotifier(result.Notifier))
	}
	store := semesters.NewStore(result.KV, opts...)
	calc := services.NewCalculator(ctx, store, logger.WithComponent(log.ComponentCalculator))

	srv, err := apphttp.NewServer(":"+cfg.Port, calc,
		report.NewExporter(logger.WithComponent(log.ComponentReport)),
		apphttp.Options{
			Logger:             logger.WithComponent(log.ComponentHTTP),
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			Ready:              result.Ready,
		})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting gradecalc server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			cancel()
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

// cacheCleanupInterval sweeps expired entries twice per TTL, at most once a minute.
func cacheCleanupInterval(cfg *config.Config) time.Duration {
	interval := cfg.CacheTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}
