package indexer

import (
	"context"
	"fmt"

	"tickScope/internal/dex"
	"tickScope/internal/model"
	"tickScope/internal/storage"
)

func stageLabel(kind model.ActionKind) string {
	return "processing:txs:event." + kind.String()
}

// dispatch routes a classified event to its action handler.
func (i *Ingestor) dispatch(ctx context.Context, w storage.Writer, refs *Refs, kind model.ActionKind, event model.DecodedEvent, key model.EventKey) error {
	switch kind {
	case model.ActionDepositLP:
		return i.handleDepositLP(ctx, w, refs, event, key)
	case model.ActionWithdrawLP:
		return i.handleWithdrawLP(ctx, w, refs, event, key)
	case model.ActionPlaceLimitOrder:
		return i.handlePlaceLimitOrder(ctx, w, refs, event, key)
	case model.ActionTickUpdate:
		return i.handleTickUpdate(ctx, w, refs, event, key)
	default:
		return fmt.Errorf("%s: %w", kind, ErrUnhandledAction)
	}
}

func (i *Ingestor) handleDepositLP(ctx context.Context, w storage.Writer, refs *Refs, event model.DecodedEvent, key model.EventKey) error {
	fields, err := dex.ParseDepositLP(event, key)
	if err != nil {
		return fmt.Errorf("parse DepositLP: %w", err)
	}
	row := fields.Row
	if row.PairID, err = refs.PairID(fields.Pair); err != nil {
		return err
	}
	return w.UpsertDepositLP(ctx, row)
}

func (i *Ingestor) handleWithdrawLP(ctx context.Context, w storage.Writer, refs *Refs, event model.DecodedEvent, key model.EventKey) error {
	fields, err := dex.ParseWithdrawLP(event, key)
	if err != nil {
		return fmt.Errorf("parse WithdrawLP: %w", err)
	}
	row := fields.Row
	if row.PairID, err = refs.PairID(fields.Pair); err != nil {
		return err
	}
	return w.UpsertWithdrawLP(ctx, row)
}

func (i *Ingestor) handlePlaceLimitOrder(ctx context.Context, w storage.Writer, refs *Refs, event model.DecodedEvent, key model.EventKey) error {
	fields, err := dex.ParsePlaceLimitOrder(event, key)
	if err != nil {
		return fmt.Errorf("parse PlaceLimitOrder: %w", err)
	}
	row := fields.Row
	if row.PairID, err = refs.PairID(fields.Pair); err != nil {
		return err
	}
	if row.TokenInID, err = refs.TokenID(fields.TokenIn); err != nil {
		return err
	}
	return w.UpsertPlaceLimitOrder(ctx, row)
}

// handleTickUpdate records the update history row and folds it into the tick state.
func (i *Ingestor) handleTickUpdate(ctx context.Context, w storage.Writer, refs *Refs, event model.DecodedEvent, key model.EventKey) error {
	fields, err := dex.ParseTickUpdate(event, key)
	if err != nil {
		return fmt.Errorf("parse TickUpdate: %w", err)
	}
	row := fields.Row
	if row.PairID, err = refs.PairID(fields.Pair); err != nil {
		return err
	}
	if row.TokenID, err = refs.TokenID(fields.TokenIn); err != nil {
		return err
	}
	if err := w.UpsertTickUpdate(ctx, row); err != nil {
		return err
	}
	return i.materializer.Apply(ctx, w, row)
}
