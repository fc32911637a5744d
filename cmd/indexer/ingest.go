package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tickScope/internal/config"
	"tickScope/internal/indexer"
	"tickScope/internal/metrics"
	"tickScope/internal/model"
	"tickScope/internal/storage"
)

func runIngest(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadIngest(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	cursors, cursorName := cursorStore(store, cfg.CursorName, cfg.CursorFile)
	var cursor model.Cursor
	if cursors != nil {
		saved, ok, err := cursors.Load(ctx)
		if err != nil {
			return fmt.Errorf("load cursor: %w", err)
		}
		if ok {
			cursor = saved
		}
	}

	m := metrics.Default()
	timer := metrics.NewTimer(m)
	ingestor := indexer.NewIngestor(indexer.IngestorConfig{
		CursorName:         cursorName,
		RecordFailedBlocks: cfg.RecordFailedBlocks,
		Cursor:             cursor,
	}, store, nil, timer, m, logger)

	logger.Info("ingest start",
		zap.String("in", cfg.In),
		zap.Int("page_size", cfg.PageSize),
		zap.String("store", cfg.Store.Driver),
		zap.String("pg_dsn", redactDSN(cfg.Store.PGDSN)),
		zap.Int64("cursor_height", cursor.Height),
		zap.Int("cursor_index", cursor.Index),
	)

	total := 0
	err = storage.ReadTxResults(cfg.In, cfg.PageSize, func(page []model.TransactionResult) error {
		next, err := ingestor.Ingest(ctx, page)
		if cursors != nil {
			if saveErr := cursors.Save(ctx, next); saveErr != nil && err == nil {
				err = fmt.Errorf("save cursor: %w", saveErr)
			}
		}
		if err != nil {
			return err
		}
		total += len(page)
		logger.Debug("ingest page",
			zap.Int("txs", len(page)),
			zap.Int64("height", next.Height),
			zap.Int("index", next.Index),
		)
		return nil
	})
	logStageTotals(logger, timer)
	if err != nil {
		return err
	}

	final := ingestor.Cursor()
	logger.Info("ingest complete",
		zap.Int("txs", total),
		zap.Int64("height", final.Height),
		zap.Int("index", final.Index),
		zap.String("tx_hash", final.TxHash),
	)
	return nil
}
