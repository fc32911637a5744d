package storage

import (
	"context"
	"errors"

	"tickScope/internal/model"
)

// ErrNotFound is returned by lookups that find no row.
var ErrNotFound = errors.New("not found")

// Writer is the row sink driven by the ingestor. Every write is idempotent under its
// natural key so replayed transactions overwrite rather than duplicate.
type Writer interface {
	UpsertToken(ctx context.Context, denom string) (int64, error)
	UpsertPair(ctx context.Context, token0ID, token1ID int64) (int64, error)

	InsertBlock(ctx context.Context, block model.Block) error
	UpsertTx(ctx context.Context, tx model.Tx) (int64, error)
	UpsertTxMsg(ctx context.Context, msg model.TxMsg) (int64, error)
	UpsertTxEvent(ctx context.Context, event model.TxEvent) error

	UpsertDepositLP(ctx context.Context, row model.DepositLP) error
	UpsertWithdrawLP(ctx context.Context, row model.WithdrawLP) error
	UpsertPlaceLimitOrder(ctx context.Context, row model.PlaceLimitOrder) error
	UpsertTickUpdate(ctx context.Context, row model.TickUpdate) error

	// GetTickState returns ErrNotFound when the key has no state yet.
	GetTickState(ctx context.Context, key model.TickKey) (model.TickState, error)
	// UpsertTickState must not overwrite a state whose LastEvent is not older than state.LastEvent.
	UpsertTickState(ctx context.Context, state model.TickState) error

	SaveCursor(ctx context.Context, name string, cursor model.Cursor) error
}

// Store is a transactional persistence backend.
type Store interface {
	// InTx runs fn inside one database transaction; fn's writes commit together or not at all.
	InTx(ctx context.Context, fn func(w Writer) error) error
	LoadCursor(ctx context.Context, name string) (model.Cursor, bool, error)
	ListTickStates(ctx context.Context, pairID int64) ([]model.TickState, error)
	LookupPair(ctx context.Context, token0, token1 string) (model.Pair, error)
	Ping(ctx context.Context) error
	Close() error
}
