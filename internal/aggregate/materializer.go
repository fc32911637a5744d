package aggregate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tickScope/internal/dex"
	"tickScope/internal/metrics"
	"tickScope/internal/model"
	"tickScope/internal/storage"
)

// Materializer folds TickUpdate events into the tick state table.
//
// Updates carry the tick's post-update reserves, so the fold is last-write-wins per key.
// An update whose event key is not newer than the stored state's is a no-op, which makes
// replays idempotent and keeps older events from overwriting newer state.
type Materializer struct {
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewMaterializer(m *metrics.Metrics, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{metrics: m, logger: logger}
}

// Apply folds one update into the stored state. Stale updates leave it unchanged.
func (m *Materializer) Apply(ctx context.Context, w storage.Writer, update model.TickUpdate) error {
	key := update.TickKey()

	current, err := w.GetTickState(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		current = model.TickState{}
	case err != nil:
		return fmt.Errorf("load tick state: %w", err)
	default:
		if !current.LastEvent.Less(update.EventKey) {
			m.metrics.TickUpdate("stale")
			m.logger.Debug("stale tick update",
				zap.Int64("pair_id", key.PairID),
				zap.Int64("token_id", key.TokenID),
				zap.Int64("tick_index", key.TickIndex),
				zap.Int64("height", update.Height),
				zap.Int("tx_index", update.TxIndex),
				zap.Int("event_index", update.EventIndex),
			)
			return nil
		}
	}

	next := Fold(current, update)
	if err := w.UpsertTickState(ctx, next); err != nil {
		return fmt.Errorf("upsert tick state: %w", err)
	}
	m.metrics.TickUpdate("applied")
	return nil
}

// Fold returns the state after applying update to current.
func Fold(current model.TickState, update model.TickUpdate) model.TickState {
	next := current
	next.Key = update.TickKey()
	next.Reserves = update.Reserves
	if update.Fee != nil {
		fee := *update.Fee
		next.Fee = &fee
	}
	next.Price = dex.TickPrice(update.TickIndex)
	next.LastEvent = update.EventKey
	return next
}
