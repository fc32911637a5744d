package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tickScope/internal/aggregate"
	"tickScope/internal/dex"
	"tickScope/internal/metrics"
	"tickScope/internal/model"
	"tickScope/internal/storage"
)

const (
	labelBlock    = "processing:txs:block"
	labelTokens   = "processing:txs:dex.tokens"
	labelPairs    = "processing:txs:dex.pairs"
	labelTx       = "processing:txs:tx"
	labelTxMsg    = "processing:txs:tx_msg"
	labelTxEvents = "processing:txs:tx_result.events"
)

// IngestorConfig holds ingestion settings.
type IngestorConfig struct {
	// CursorName is the indexer_state row the cursor is saved under. Empty disables saving.
	CursorName string
	// RecordFailedBlocks writes the block row of heights whose tx failed.
	RecordFailedBlocks bool
	// Cursor is the position to resume after; zero starts fresh.
	Cursor model.Cursor
}

// Ingestor writes ordered transaction results into a Store, one store transaction per tx.
type Ingestor struct {
	cfg          IngestorConfig
	store        storage.Store
	refs         *ReferenceResolver
	materializer *aggregate.Materializer
	timer        *metrics.Timer
	metrics      *metrics.Metrics
	logger       *zap.Logger

	// cursor is the last completed tx; seen is the last tx position read from the source.
	cursor model.Cursor
	seen   model.Cursor
}

func NewIngestor(cfg IngestorConfig, store storage.Store, materializer *aggregate.Materializer, timer *metrics.Timer, m *metrics.Metrics, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if materializer == nil {
		materializer = aggregate.NewMaterializer(m, logger)
	}
	return &Ingestor{
		cfg:          cfg,
		store:        store,
		refs:         NewReferenceResolver(logger),
		materializer: materializer,
		timer:        timer,
		metrics:      m,
		logger:       logger,
		cursor:       cfg.Cursor,
	}
}

// Cursor returns the position of the last completed transaction.
func (i *Ingestor) Cursor() model.Cursor {
	return i.cursor
}

// Resume positions the ingestor after cursor. The next batch must start at or before the
// first tx of cursor's height; txs up to the cursor are verified and skipped.
func (i *Ingestor) Resume(cursor model.Cursor) {
	i.cursor = cursor
	i.seen = model.Cursor{}
}

// Ingest processes txs in the given order and returns the cursor after the last one.
// On error the returned cursor still reflects every tx committed before the failure, and the
// next batch is aligned as after Resume.
func (i *Ingestor) Ingest(ctx context.Context, txs []model.TransactionResult) (model.Cursor, error) {
	if i.store == nil {
		return i.cursor, fmt.Errorf("store is nil")
	}
	for _, tx := range txs {
		err := ctx.Err()
		if err == nil {
			err = i.ingestOne(ctx, tx)
		}
		if err != nil {
			i.seen = model.Cursor{}
			return i.cursor, err
		}
	}
	return i.cursor, nil
}

func (i *Ingestor) ingestOne(ctx context.Context, tx model.TransactionResult) error {
	height, err := tx.ParseHeight()
	if err != nil {
		return &IngestError{TxHash: tx.TxHash, EventIndex: -1, Stage: "height", Err: fmt.Errorf("%w: %v", ErrOutOfOrder, err)}
	}
	if !i.seen.IsZero() && height < i.seen.Height {
		return &IngestError{
			Height: height, TxHash: tx.TxHash, EventIndex: -1, Stage: "height",
			Err: fmt.Errorf("%w: height %d after %d", ErrOutOfOrder, height, i.seen.Height),
		}
	}
	index := i.seen.NextIndex(height)
	i.seen = i.seen.Advance(height, index, tx.TxHash)

	if i.replayed(height, index) {
		if height == i.cursor.Height && index == i.cursor.Index && !strings.EqualFold(tx.TxHash, i.cursor.TxHash) {
			return &IngestError{
				Height: height, TxHash: tx.TxHash, TxIndex: index, EventIndex: -1, Stage: "cursor",
				Err: fmt.Errorf("%w: expected %s", ErrCursorMismatch, i.cursor.TxHash),
			}
		}
		i.metrics.TxIngested("replayed")
		return nil
	}

	next := i.cursor.Advance(height, index, tx.TxHash)

	if !tx.Succeeded() {
		if err := i.skipFailed(ctx, tx, height, index, next); err != nil {
			return err
		}
		i.cursor = next
		i.metrics.TxIngested("skipped")
		return nil
	}

	i.timer.Start(labelTx)
	defer i.timer.Stop(labelTx)

	events := dex.DecodeEvents(tx.Events)
	i.reportAnomalies(tx, height, index, events)

	var refs *Refs
	err = i.store.InTx(ctx, func(w storage.Writer) error {
		var err error
		refs, err = i.writeTx(ctx, w, tx, height, index, events)
		if err != nil {
			return err
		}
		return i.saveCursor(ctx, w, next, height, tx.TxHash, index)
	})
	if err != nil {
		return wrapIngestError(err, height, tx.TxHash, index, "commit")
	}

	i.refs.Commit(refs)
	i.cursor = next
	i.metrics.TxIngested("ok")
	return nil
}

func (i *Ingestor) replayed(height int64, index int) bool {
	if i.cursor.IsZero() {
		return false
	}
	if height != i.cursor.Height {
		return height < i.cursor.Height
	}
	return index <= i.cursor.Index
}

// skipFailed persists the cursor past a failed tx without writing any of its rows.
func (i *Ingestor) skipFailed(ctx context.Context, tx model.TransactionResult, height int64, index int, next model.Cursor) error {
	i.logger.Debug("skip failed tx",
		zap.Int64("height", height),
		zap.Int("index", index),
		zap.String("tx_hash", tx.TxHash),
		zap.Uint32("code", tx.Code),
		zap.String("codespace", tx.Codespace),
	)
	if i.cfg.CursorName == "" && !i.cfg.RecordFailedBlocks {
		return nil
	}
	err := i.store.InTx(ctx, func(w storage.Writer) error {
		if i.cfg.RecordFailedBlocks {
			if err := i.writeBlock(ctx, w, tx, height); err != nil {
				return &IngestError{Height: height, TxHash: tx.TxHash, TxIndex: index, EventIndex: -1, Stage: "block", Err: err}
			}
		}
		return i.saveCursor(ctx, w, next, height, tx.TxHash, index)
	})
	if err != nil {
		return wrapIngestError(err, height, tx.TxHash, index, "commit")
	}
	return nil
}

func (i *Ingestor) saveCursor(ctx context.Context, w storage.Writer, next model.Cursor, height int64, txHash string, index int) error {
	if i.cfg.CursorName == "" {
		return nil
	}
	if err := w.SaveCursor(ctx, i.cfg.CursorName, next); err != nil {
		return &IngestError{Height: height, TxHash: txHash, TxIndex: index, EventIndex: -1, Stage: "cursor", Err: err}
	}
	return nil
}

// writeTx writes every row of a successful tx through w.
func (i *Ingestor) writeTx(ctx context.Context, w storage.Writer, tx model.TransactionResult, height int64, index int, events []model.DecodedEvent) (*Refs, error) {
	fail := func(stage string, eventIndex int, err error) error {
		return &IngestError{Height: height, TxHash: tx.TxHash, TxIndex: index, EventIndex: eventIndex, Stage: stage, Err: err}
	}

	var refs *Refs
	err := i.timer.Time(labelTokens, func() error {
		var err error
		refs, err = i.refs.Tokens(ctx, w, events)
		return err
	})
	if err != nil {
		return nil, fail("tokens", -1, err)
	}
	if err := i.timer.Time(labelPairs, func() error { return i.refs.Pairs(ctx, w, events, refs) }); err != nil {
		return nil, fail("pairs", -1, err)
	}

	if err := i.timer.Time(labelBlock, func() error { return i.writeBlock(ctx, w, tx, height) }); err != nil {
		return nil, fail("block", -1, err)
	}

	txID, err := w.UpsertTx(ctx, model.Tx{
		Height:    height,
		Index:     index,
		TxHash:    tx.TxHash,
		Code:      tx.Code,
		Codespace: tx.Codespace,
		Info:      tx.Info,
		Log:       tx.Log,
		GasWanted: int64(tx.GasWanted),
		GasUsed:   int64(tx.GasUsed),
	})
	if err != nil {
		return nil, fail("tx", -1, err)
	}

	i.timer.Start(labelTxEvents)
	defer i.timer.Stop(labelTxEvents)

	var msgs msgFold
	for pos, event := range events {
		if dex.IsMessageEvent(event) {
			action, module, sender := dex.MessageFields(event)
			var msgID int64
			err := i.timer.Time(labelTxMsg, func() error {
				var err error
				msgID, err = w.UpsertTxMsg(ctx, model.TxMsg{
					TxID:       txID,
					EventIndex: pos,
					Action:     action,
					Module:     module,
					Sender:     sender,
				})
				return err
			})
			if err != nil {
				return nil, fail("tx_msg", pos, err)
			}
			msgs.begin(msgID)
		}

		key := model.EventKey{Height: height, TxIndex: index, EventIndex: pos}
		if err := w.UpsertTxEvent(ctx, model.TxEvent{
			TxID:       txID,
			Height:     height,
			TxIndex:    index,
			EventIndex: pos,
			MsgID:      msgs.current(),
			Type:       event.Type,
			Attributes: event.Attributes,
		}); err != nil {
			return nil, fail("tx_event", pos, err)
		}

		kind := dex.Classify(event)
		if kind == model.ActionNone {
			continue
		}
		if err := i.timer.Time(stageLabel(kind), func() error { return i.dispatch(ctx, w, refs, kind, event, key) }); err != nil {
			return nil, fail("event."+kind.String(), pos, err)
		}
	}
	return refs, nil
}

func (i *Ingestor) writeBlock(ctx context.Context, w storage.Writer, tx model.TransactionResult, height int64) error {
	ts, err := parseTimestamp(tx.Timestamp)
	if err != nil {
		return err
	}
	return w.InsertBlock(ctx, model.Block{Height: height, Timestamp: ts})
}

func (i *Ingestor) reportAnomalies(tx model.TransactionResult, height int64, index int, events []model.DecodedEvent) {
	for pos, event := range events {
		for _, anomaly := range event.Anomalies {
			i.logger.Warn("undecodable event attribute",
				zap.Int64("height", height),
				zap.Int("index", index),
				zap.String("tx_hash", tx.TxHash),
				zap.Int("event_index", pos),
				zap.String("type", event.Type),
				zap.String("key", anomaly.Key),
				zap.String("reason", anomaly.Reason),
			)
		}
		i.metrics.DecodeAnomalies(len(event.Anomalies))
	}
}

// msgFold carries the id of the last message row forward to the events that follow it.
type msgFold struct {
	id    int64
	valid bool
}

func (f *msgFold) begin(id int64) {
	f.id = id
	f.valid = true
}

func (f *msgFold) current() *int64 {
	if !f.valid {
		return nil
	}
	id := f.id
	return &id
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return ts.UTC(), nil
}

func wrapIngestError(err error, height int64, txHash string, index int, stage string) error {
	var ingestErr *IngestError
	if errors.As(err, &ingestErr) {
		return err
	}
	return &IngestError{Height: height, TxHash: txHash, TxIndex: index, EventIndex: -1, Stage: stage, Err: err}
}
