package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/sheets"
	"ledger/internal/storage"
)

const stopTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $LEDGER_CONFIG)")
	flag.Parse()

	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(*configPath)
	if err == nil {
		err = cfg.ValidateMirror()
	}
	if err == nil && cfg.DataBackend != "sqlite" {
		err = fmt.Errorf("the mirror worker reads the sqlite pending set, DATA_BACKEND is %q", cfg.DataBackend)
	}
	if err != nil {
		cli.Exit(cli.SetupLogger(nil, log.ComponentWorker), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting ledger-worker", log.FieldOperation, log.OpStartup)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		cli.Exit(logger, "Failed to initialize SQLite repository", err)
	}
	defer repo.Close()

	sheetsClient, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Exit(logger, "Failed to initialize Google Sheets client", err)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		// Appends still work without a header row.
		logger.WithComponent(log.ComponentSheets).Warn("Failed to ensure sheet header", log.FieldError, err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Exit(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	processor := services.NewMirrorProcessor(repo, sheetsClient, services.MirrorProcessorConfig{
		PollInterval: cfg.MirrorInterval,
		BatchSize:    cfg.MirrorBatchSize,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		return processor.Stop(stopCtx)
	})
	g.Go(func() error {
		err := amqpClient.Consume(gctx, processor.HandleMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		amqpClient.Close()
		repo.Close()
		cli.Exit(logger, "Worker stopped with error", err)
	}
	logger.Info("Worker shutdown complete")
}
