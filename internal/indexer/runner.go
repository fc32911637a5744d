package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tickScope/internal/chain"
	"tickScope/internal/model"
)

// TxSource pages through transaction results by height.
type TxSource interface {
	LatestHeight(ctx context.Context) (int64, error)
	TxSearch(ctx context.Context, from, to int64, page, perPage int) ([]model.TransactionResult, int, error)
}

// Archive receives every fetched page before it is ingested.
type Archive interface {
	PutTxBatch(txs []model.TransactionResult) error
}

// RunConfig holds runtime settings for the runner.
type RunConfig struct {
	FromHeight   int64
	ToHeight     int64
	BatchSize    int64
	PerPage      int
	MaxRetries   int
	RetryBackoff time.Duration
	Follow       bool
	PollInterval time.Duration
}

// Runner streams transaction results from the chain into the ingestor.
type Runner struct {
	cfg      RunConfig
	source   TxSource
	ingestor *Ingestor
	cursors  CursorStore
	archive  Archive
	logger   *zap.Logger
}

// NewRunner builds a Runner with its dependencies. cursors and archive may be nil.
func NewRunner(cfg RunConfig, source TxSource, ingestor *Ingestor, cursors CursorStore, archive Archive, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		source:   source,
		ingestor: ingestor,
		cursors:  cursors,
		archive:  archive,
		logger:   logger,
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("tx source is nil")
	}
	if r.ingestor == nil {
		return fmt.Errorf("ingestor is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	from := r.cfg.FromHeight
	if from <= 0 {
		from = 1
	}
	if r.cursors != nil {
		cursor, ok, err := r.cursors.Load(ctx)
		if err != nil {
			return fmt.Errorf("load cursor: %w", err)
		}
		if ok {
			r.ingestor.Resume(cursor)
			if cursor.Height >= from {
				// Restart at the block boundary; the ingestor skips what it already has.
				from = cursor.Height
			}
			r.logger.Info("resume from cursor",
				zap.Int64("height", cursor.Height),
				zap.Int("index", cursor.Index),
				zap.String("tx_hash", cursor.TxHash),
				zap.Int64("from", from),
			)
		}
	}

	for {
		to := r.cfg.ToHeight
		if to == 0 {
			latest, err := r.latestHeightWithRetry(ctx)
			if err != nil {
				return fmt.Errorf("get latest height: %w", err)
			}
			to = latest
		}

		if from <= to {
			if err := r.syncRange(ctx, from, to); err != nil {
				return err
			}
			from = to + 1
		} else {
			r.logger.Info("nothing to sync", zap.Int64("from", from), zap.Int64("to", to))
		}

		if !r.cfg.Follow || r.cfg.ToHeight != 0 {
			return nil
		}

		timer := time.NewTimer(r.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Runner) syncRange(ctx context.Context, from, to int64) error {
	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, heights := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch txs", zap.Int64("from", heights.From), zap.Int64("to", heights.To))

		fetched := 0
		for page := 1; ; page++ {
			txs, total, err := r.txSearchWithRetry(ctx, heights, page)
			if err != nil {
				return fmt.Errorf("tx search: %w", err)
			}
			if r.archive != nil && len(txs) > 0 {
				if err := r.archive.PutTxBatch(txs); err != nil {
					return fmt.Errorf("archive txs: %w", err)
				}
			}

			cursor, err := r.ingestor.Ingest(ctx, txs)
			if saveErr := r.saveCursor(ctx, cursor); saveErr != nil && err == nil {
				err = saveErr
			}
			if err != nil {
				return err
			}

			fetched += len(txs)
			if len(txs) == 0 || fetched >= total {
				break
			}
		}

		r.logger.Info("batch complete",
			zap.Int("txs", fetched),
			zap.Int64("from", heights.From),
			zap.Int64("to", heights.To),
			zap.Int64("cursor_height", r.ingestor.Cursor().Height),
		)
	}
	return nil
}

func (r *Runner) saveCursor(ctx context.Context, cursor model.Cursor) error {
	if r.cursors == nil {
		return nil
	}
	if err := r.cursors.Save(ctx, cursor); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func (r *Runner) txSearchWithRetry(ctx context.Context, heights HeightRange, page int) ([]model.TransactionResult, int, error) {
	var (
		txs   []model.TransactionResult
		total int
	)
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		txs, total, err = r.source.TxSearch(ctx, heights.From, heights.To, page, r.cfg.PerPage)
		if err != nil {
			r.logger.Warn("tx search failed", zap.Error(err), zap.Int64("from", heights.From), zap.Int64("to", heights.To), zap.Int("page", page))
		}
		if errors.Is(err, chain.ErrMalformedResponse) {
			return permanent(err)
		}
		return err
	})
	return txs, total, err
}

func (r *Runner) latestHeightWithRetry(ctx context.Context) (int64, error) {
	var latest int64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = r.source.LatestHeight(ctx)
		if err != nil {
			r.logger.Warn("latest height fetch failed", zap.Error(err))
		}
		if errors.Is(err, chain.ErrMalformedResponse) {
			return permanent(err)
		}
		return err
	})
	return latest, err
}
