package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"tickScope/internal/chain"
	"tickScope/internal/config"
	"tickScope/internal/indexer"
	"tickScope/internal/metrics"
	"tickScope/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "DEX transaction indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index transactions from a node RPC",
		RunE:  runIndexer,
	}

	runCmd.Flags().String("rpc", "", "node RPC URL")
	runCmd.Flags().Int64("from", 1, "start height (inclusive)")
	runCmd.Flags().Int64("to", 0, "end height (inclusive), 0 means latest")
	runCmd.Flags().Int64("batch-size", 500, "heights per tx_search range")
	runCmd.Flags().Int("per-page", 100, "tx_search page size (max 100)")
	runCmd.Flags().Bool("follow", false, "keep polling for new heights after reaching the head")
	runCmd.Flags().Duration("poll-interval", 5*time.Second, "poll interval in follow mode")
	addStoreFlags(runCmd)
	runCmd.Flags().String("cursor-name", "tickscope", "cursor name in the store")
	runCmd.Flags().String("cursor-file", "", "keep the cursor in a JSON file instead of the store")
	runCmd.Flags().String("archive", "", "optional JSONL path receiving every fetched tx")
	runCmd.Flags().Bool("base64-attributes", false, "event attributes are base64 encoded (CometBFT < 0.37)")
	runCmd.Flags().Bool("record-failed-blocks", false, "write block rows for heights of failed txs")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("metrics-addr", ":9102", "listen address for /metrics and /healthz, empty disables")
	addLogFlags(runCmd)

	root.AddCommand(runCmd)

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a JSONL file of transaction results",
		RunE:  runIngest,
	}

	ingestCmd.Flags().String("in", "", "input transaction results JSONL")
	ingestCmd.Flags().Int("page-size", 100, "transactions per ingest batch")
	addStoreFlags(ingestCmd)
	ingestCmd.Flags().String("cursor-name", "", "cursor name in the store, empty disables")
	ingestCmd.Flags().String("cursor-file", "", "keep the cursor in a JSON file")
	ingestCmd.Flags().Bool("record-failed-blocks", false, "write block rows for heights of failed txs")
	addLogFlags(ingestCmd)

	root.AddCommand(ingestCmd)

	ticksCmd := &cobra.Command{
		Use:   "ticks",
		Short: "Print the tick state of a pair as JSON lines",
		RunE:  runTicks,
	}

	ticksCmd.Flags().String("pair", "", "pair denoms as token0,token1")
	addStoreFlags(ticksCmd)
	ticksCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(ticksCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", config.DriverSQLite, "store backend (postgres, sqlite, memory)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("sqlite-path", "./data/tickscope.db", "SQLite database path")
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "also write logs to this file, rotated")
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
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

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.Base64Attributes)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.Default()
	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr, metrics.Checker{
			StorePing: store.Ping,
			RPCPing:   chainClient.Ping,
		})
		defer shutdownServer(srv, logger)
	}

	cursors, cursorName := cursorStore(store, cfg.CursorName, cfg.CursorFile)
	timer := metrics.NewTimer(m)
	ingestor := indexer.NewIngestor(indexer.IngestorConfig{
		CursorName:         cursorName,
		RecordFailedBlocks: cfg.RecordFailedBlocks,
	}, store, nil, timer, m, logger)

	var archive indexer.Archive
	if cfg.Archive != "" {
		archive = storage.NewJsonlArchive(cfg.Archive)
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromHeight:   cfg.FromHeight,
		ToHeight:     cfg.ToHeight,
		BatchSize:    cfg.BatchSize,
		PerPage:      cfg.PerPage,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Follow:       cfg.Follow,
		PollInterval: cfg.PollInterval,
	}, chainClient, ingestor, cursors, archive, logger)

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.Int64("from", cfg.FromHeight),
		zap.Int64("to", cfg.ToHeight),
		zap.Int64("batch_size", cfg.BatchSize),
		zap.Bool("follow", cfg.Follow),
		zap.String("store", cfg.Store.Driver),
		zap.String("pg_dsn", redactDSN(cfg.Store.PGDSN)),
		zap.String("cursor_name", cursorName),
		zap.String("cursor_file", cfg.CursorFile),
		zap.String("archive", cfg.Archive),
	)

	err = runner.Run(ctx)
	logStageTotals(logger, timer)
	if errors.Is(err, context.Canceled) {
		logger.Info("indexer stopped", zap.Int64("height", ingestor.Cursor().Height))
		return nil
	}
	return err
}

func shutdownServer(srv *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
	}
}

func logStageTotals(logger *zap.Logger, timer *metrics.Timer) {
	for _, total := range timer.Totals() {
		logger.Debug("stage total",
			zap.String("stage", total.Label),
			zap.Int("count", total.Count),
			zap.Duration("elapsed", total.Total),
		)
	}
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil || file == "" {
		return logger, err
	}

	rotated := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}),
		cfg.Level,
	)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, rotated)
	})), nil
}
