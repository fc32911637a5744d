package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tickScope/internal/model"
	"tickScope/internal/storage"
)

// Store provides Postgres persistence for ingested chain data.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// NewStore connects to dsn and creates missing tables.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx runs fn in one database transaction.
func (s *Store) InTx(ctx context.Context, fn func(w storage.Writer) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&writer{tx: tx})
	})
}

// LoadCursor returns the cursor saved under name.
func (s *Store) LoadCursor(ctx context.Context, name string) (model.Cursor, bool, error) {
	if name == "" {
		return model.Cursor{}, false, fmt.Errorf("state name required")
	}
	var cursor model.Cursor
	row := s.pool.QueryRow(ctx, `SELECT height, tx_index, tx_hash, updated_at FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&cursor.Height, &cursor.Index, &cursor.TxHash, &cursor.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cursor{}, false, nil
		}
		return model.Cursor{}, false, err
	}
	return cursor, true, nil
}

// ListTickStates returns the tick states of a pair ordered by side and tick.
func (s *Store) ListTickStates(ctx context.Context, pairID int64) ([]model.TickState, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pair_id, token_id, tick_index, reserves::text, fee, price::text,
			last_height, last_tx_index, last_event_index
		FROM tick_state
		WHERE pair_id = $1
		ORDER BY token_id, tick_index
	`, pairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TickState
	for rows.Next() {
		var st model.TickState
		if err := rows.Scan(
			&st.Key.PairID, &st.Key.TokenID, &st.Key.TickIndex,
			&st.Reserves, &st.Fee, &st.Price,
			&st.LastEvent.Height, &st.LastEvent.TxIndex, &st.LastEvent.EventIndex,
		); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// LookupPair finds a pair by its denoms.
func (s *Store) LookupPair(ctx context.Context, token0, token1 string) (model.Pair, error) {
	pair := model.Pair{Token0: token0, Token1: token1}
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.token0_id, p.token1_id
		FROM pairs p
		JOIN tokens t0 ON t0.id = p.token0_id
		JOIN tokens t1 ON t1.id = p.token1_id
		WHERE t0.denom = $1 AND t1.denom = $2
	`, token0, token1).Scan(&pair.ID, &pair.Token0ID, &pair.Token1ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pair{}, storage.ErrNotFound
		}
		return model.Pair{}, err
	}
	return pair, nil
}

type writer struct {
	tx pgx.Tx
}

func (w *writer) UpsertToken(ctx context.Context, denom string) (int64, error) {
	var id int64
	err := w.tx.QueryRow(ctx, `
		INSERT INTO tokens (denom) VALUES ($1)
		ON CONFLICT (denom) DO UPDATE SET denom = EXCLUDED.denom
		RETURNING id
	`, denom).Scan(&id)
	return id, err
}

func (w *writer) UpsertPair(ctx context.Context, token0ID, token1ID int64) (int64, error) {
	var id int64
	err := w.tx.QueryRow(ctx, `
		INSERT INTO pairs (token0_id, token1_id) VALUES ($1, $2)
		ON CONFLICT (token0_id, token1_id) DO UPDATE SET token0_id = EXCLUDED.token0_id
		RETURNING id
	`, token0ID, token1ID).Scan(&id)
	return id, err
}

func (w *writer) InsertBlock(ctx context.Context, block model.Block) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO blocks (height, block_time) VALUES ($1, $2)
		ON CONFLICT (height) DO NOTHING
	`, block.Height, nullTime(block.Timestamp))
	return err
}

func (w *writer) UpsertTx(ctx context.Context, tx model.Tx) (int64, error) {
	var id int64
	err := w.tx.QueryRow(ctx, `
		INSERT INTO txs (height, tx_index, tx_hash, code, codespace, info, log, gas_wanted, gas_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (height, tx_index) DO UPDATE SET
			tx_hash = EXCLUDED.tx_hash,
			code = EXCLUDED.code,
			codespace = EXCLUDED.codespace,
			info = EXCLUDED.info,
			log = EXCLUDED.log,
			gas_wanted = EXCLUDED.gas_wanted,
			gas_used = EXCLUDED.gas_used
		RETURNING id
	`, tx.Height, tx.Index, tx.TxHash, int64(tx.Code), tx.Codespace, tx.Info, tx.Log, tx.GasWanted, tx.GasUsed).Scan(&id)
	return id, err
}

func (w *writer) UpsertTxMsg(ctx context.Context, msg model.TxMsg) (int64, error) {
	var id int64
	err := w.tx.QueryRow(ctx, `
		INSERT INTO tx_msgs (tx_id, event_index, action, module, sender)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tx_id, event_index) DO UPDATE SET
			action = EXCLUDED.action,
			module = EXCLUDED.module,
			sender = EXCLUDED.sender
		RETURNING id
	`, msg.TxID, msg.EventIndex, msg.Action, msg.Module, msg.Sender).Scan(&id)
	return id, err
}

func (w *writer) UpsertTxEvent(ctx context.Context, event model.TxEvent) error {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	_, err = w.tx.Exec(ctx, `
		INSERT INTO tx_events (height, tx_index, event_index, tx_id, msg_id, type, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (height, tx_index, event_index) DO UPDATE SET
			tx_id = EXCLUDED.tx_id,
			msg_id = EXCLUDED.msg_id,
			type = EXCLUDED.type,
			attributes = EXCLUDED.attributes
	`, event.Height, event.TxIndex, event.EventIndex, event.TxID, event.MsgID, event.Type, string(attrs))
	return err
}

func (w *writer) UpsertDepositLP(ctx context.Context, row model.DepositLP) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO event_deposit_lp (
			height, tx_index, event_index, pair_id, creator, receiver, tick_index, fee,
			reserves0, reserves1, shares_minted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (height, tx_index, event_index) DO UPDATE SET
			pair_id = EXCLUDED.pair_id,
			creator = EXCLUDED.creator,
			receiver = EXCLUDED.receiver,
			tick_index = EXCLUDED.tick_index,
			fee = EXCLUDED.fee,
			reserves0 = EXCLUDED.reserves0,
			reserves1 = EXCLUDED.reserves1,
			shares_minted = EXCLUDED.shares_minted
	`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.Creator, row.Receiver, row.TickIndex, row.Fee,
		row.Reserves0Amount, row.Reserves1Amount, row.SharesMinted,
	)
	return err
}

func (w *writer) UpsertWithdrawLP(ctx context.Context, row model.WithdrawLP) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO event_withdraw_lp (
			height, tx_index, event_index, pair_id, creator, receiver, tick_index, fee,
			reserves0, reserves1, shares_removed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (height, tx_index, event_index) DO UPDATE SET
			pair_id = EXCLUDED.pair_id,
			creator = EXCLUDED.creator,
			receiver = EXCLUDED.receiver,
			tick_index = EXCLUDED.tick_index,
			fee = EXCLUDED.fee,
			reserves0 = EXCLUDED.reserves0,
			reserves1 = EXCLUDED.reserves1,
			shares_removed = EXCLUDED.shares_removed
	`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.Creator, row.Receiver, row.TickIndex, row.Fee,
		row.Reserves0Amount, row.Reserves1Amount, row.SharesRemoved,
	)
	return err
}

func (w *writer) UpsertPlaceLimitOrder(ctx context.Context, row model.PlaceLimitOrder) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO event_place_limit_order (
			height, tx_index, event_index, pair_id, token_in_id, creator, receiver,
			amount_in, limit_tick, order_type, shares, tranche_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (height, tx_index, event_index) DO UPDATE SET
			pair_id = EXCLUDED.pair_id,
			token_in_id = EXCLUDED.token_in_id,
			creator = EXCLUDED.creator,
			receiver = EXCLUDED.receiver,
			amount_in = EXCLUDED.amount_in,
			limit_tick = EXCLUDED.limit_tick,
			order_type = EXCLUDED.order_type,
			shares = EXCLUDED.shares,
			tranche_key = EXCLUDED.tranche_key
	`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.TokenInID, row.Creator, row.Receiver,
		row.AmountIn, row.LimitTick, row.OrderType, row.Shares, row.TrancheKey,
	)
	return err
}

func (w *writer) UpsertTickUpdate(ctx context.Context, row model.TickUpdate) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO event_tick_update (
			height, tx_index, event_index, pair_id, token_id, tick_index, reserves, fee, tranche_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (height, tx_index, event_index) DO UPDATE SET
			pair_id = EXCLUDED.pair_id,
			token_id = EXCLUDED.token_id,
			tick_index = EXCLUDED.tick_index,
			reserves = EXCLUDED.reserves,
			fee = EXCLUDED.fee,
			tranche_key = EXCLUDED.tranche_key
	`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.TokenID, row.TickIndex, row.Reserves, row.Fee, row.TrancheKey,
	)
	return err
}

func (w *writer) GetTickState(ctx context.Context, key model.TickKey) (model.TickState, error) {
	st := model.TickState{Key: key}
	err := w.tx.QueryRow(ctx, `
		SELECT reserves::text, fee, price::text, last_height, last_tx_index, last_event_index
		FROM tick_state
		WHERE pair_id = $1 AND token_id = $2 AND tick_index = $3
	`, key.PairID, key.TokenID, key.TickIndex).Scan(
		&st.Reserves, &st.Fee, &st.Price,
		&st.LastEvent.Height, &st.LastEvent.TxIndex, &st.LastEvent.EventIndex,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TickState{}, storage.ErrNotFound
		}
		return model.TickState{}, err
	}
	return st, nil
}

func (w *writer) UpsertTickState(ctx context.Context, st model.TickState) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO tick_state (
			pair_id, token_id, tick_index, reserves, fee, price,
			last_height, last_tx_index, last_event_index, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (pair_id, token_id, tick_index) DO UPDATE SET
			reserves = EXCLUDED.reserves,
			fee = COALESCE(EXCLUDED.fee, tick_state.fee),
			price = EXCLUDED.price,
			last_height = EXCLUDED.last_height,
			last_tx_index = EXCLUDED.last_tx_index,
			last_event_index = EXCLUDED.last_event_index,
			updated_at = now()
		WHERE (tick_state.last_height, tick_state.last_tx_index, tick_state.last_event_index)
			< (EXCLUDED.last_height, EXCLUDED.last_tx_index, EXCLUDED.last_event_index)
	`,
		st.Key.PairID, st.Key.TokenID, st.Key.TickIndex, st.Reserves, st.Fee, st.Price,
		st.LastEvent.Height, st.LastEvent.TxIndex, st.LastEvent.EventIndex,
	)
	return err
}

func (w *writer) SaveCursor(ctx context.Context, name string, cursor model.Cursor) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := w.tx.Exec(ctx, `
		INSERT INTO indexer_state (name, height, tx_index, tx_hash, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE SET
			height = EXCLUDED.height,
			tx_index = EXCLUDED.tx_index,
			tx_hash = EXCLUDED.tx_hash,
			updated_at = now()
	`, name, cursor.Height, cursor.Index, cursor.TxHash)
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
