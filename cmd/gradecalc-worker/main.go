package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"gradecalc/internal/amqp"
	"gradecalc/internal/backend"
	"gradecalc/internal/cli"
	"gradecalc/internal/config"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters"
	"gradecalc/internal/semesters/sheets"
	"gradecalc/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting gradecalc-worker", log.FieldBackend, cfg.DataBackend, log.FieldOperation, log.OpStartup)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The worker reads the live record and never publishes change events itself.
	backendCfg.AMQPURL = ""
	backendCfg.CacheTTL = 0
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
	}()

	mirror, err := mirrorFor(ctx, cfg, result)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", log.FieldError, err)
		os.Exit(1)
	}

	mw := worker.NewMirrorWorker(result.KV, mirror, logger.WithComponent(log.ComponentWorker))
	if _, err := mw.Sync(ctx); err != nil {
		// Keep going; the periodic pass retries.
		logger.Error("Startup mirror failed", log.FieldError, err, log.FieldOperation, log.OpMirror)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mw.RunPeriodic(gctx, cfg.MirrorInterval)
	})

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			client, err := amqp.DialWithRetry(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			defer client.Close()

			err = client.ConsumeSemestersChanged(gctx, mw.HandleChangeMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP_URL not set, relying on periodic mirroring only", "interval", cfg.MirrorInterval.String())
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		cancel()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}

// mirrorFor reuses the sheets backend as its own mirror, otherwise opens the
// configured spreadsheet.
func mirrorFor(ctx context.Context, cfg *config.Config, result *backend.BackendResult) (semesters.Mirror, error) {
	if result.Mirror != nil {
		return result.Mirror, nil
	}
	return sheets.New(ctx, sheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
}
