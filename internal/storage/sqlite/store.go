package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tickScope/internal/model"
	"tickScope/internal/storage"
)

// Store is a SQLite-backed storage.Store for single-node and offline runs.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open initializes a SQLite database and creates missing tables.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

// dsn carries the per-connection pragmas so every pooled connection gets them.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// configure sets database-wide pragmas; journal_mode persists in the file.
func configure(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set journal_mode: %w", err)
	}
	return nil
}

func migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InTx runs fn inside one SQLite transaction.
func (s *Store) InTx(ctx context.Context, fn func(w storage.Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&writer{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadCursor returns the cursor saved under name.
func (s *Store) LoadCursor(ctx context.Context, name string) (model.Cursor, bool, error) {
	if name == "" {
		return model.Cursor{}, false, errors.New("state name required")
	}
	var (
		cursor    model.Cursor
		updatedAt string
	)
	row := s.db.QueryRowContext(ctx, `
SELECT height, tx_index, tx_hash, updated_at FROM indexer_state WHERE name = ?;
`, name)
	switch err := row.Scan(&cursor.Height, &cursor.Index, &cursor.TxHash, &updatedAt); {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		return model.Cursor{}, false, nil
	default:
		return model.Cursor{}, false, fmt.Errorf("load cursor: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		cursor.UpdatedAt = ts
	}
	return cursor, true, nil
}

// ListTickStates returns the tick states of a pair ordered by side and tick.
func (s *Store) ListTickStates(ctx context.Context, pairID int64) ([]model.TickState, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT pair_id, token_id, tick_index, reserves, fee, price, last_height, last_tx_index, last_event_index
FROM tick_state
WHERE pair_id = ?
ORDER BY token_id, tick_index;
`, pairID)
	if err != nil {
		return nil, fmt.Errorf("list tick states: %w", err)
	}
	defer rows.Close()

	var out []model.TickState
	for rows.Next() {
		var (
			st  model.TickState
			fee sql.NullInt64
		)
		if err := rows.Scan(
			&st.Key.PairID, &st.Key.TokenID, &st.Key.TickIndex,
			&st.Reserves, &fee, &st.Price,
			&st.LastEvent.Height, &st.LastEvent.TxIndex, &st.LastEvent.EventIndex,
		); err != nil {
			return nil, fmt.Errorf("scan tick state: %w", err)
		}
		st.Fee = nullInt64Ptr(fee)
		out = append(out, st)
	}
	return out, rows.Err()
}

// LookupPair finds a pair by its denoms.
func (s *Store) LookupPair(ctx context.Context, token0, token1 string) (model.Pair, error) {
	pair := model.Pair{Token0: token0, Token1: token1}
	err := s.db.QueryRowContext(ctx, `
SELECT p.id, p.token0_id, p.token1_id
FROM pairs p
JOIN tokens t0 ON t0.id = p.token0_id
JOIN tokens t1 ON t1.id = p.token1_id
WHERE t0.denom = ? AND t1.denom = ?;
`, token0, token1).Scan(&pair.ID, &pair.Token0ID, &pair.Token1ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Pair{}, storage.ErrNotFound
		}
		return model.Pair{}, fmt.Errorf("lookup pair: %w", err)
	}
	return pair, nil
}

type writer struct {
	tx *sql.Tx
}

func (w *writer) UpsertToken(ctx context.Context, denom string) (int64, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
INSERT INTO tokens (denom) VALUES (?)
ON CONFLICT(denom) DO UPDATE SET denom = excluded.denom
RETURNING id;
`, denom).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert token: %w", err)
	}
	return id, nil
}

func (w *writer) UpsertPair(ctx context.Context, token0ID, token1ID int64) (int64, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
INSERT INTO pairs (token0_id, token1_id) VALUES (?, ?)
ON CONFLICT(token0_id, token1_id) DO UPDATE SET token0_id = excluded.token0_id
RETURNING id;
`, token0ID, token1ID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert pair: %w", err)
	}
	return id, nil
}

func (w *writer) InsertBlock(ctx context.Context, block model.Block) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO blocks (height, block_time) VALUES (?, ?)
ON CONFLICT(height) DO NOTHING;
`, block.Height, formatTime(block.Timestamp))
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (w *writer) UpsertTx(ctx context.Context, tx model.Tx) (int64, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
INSERT INTO txs (height, tx_index, tx_hash, code, codespace, info, log, gas_wanted, gas_used)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(height, tx_index) DO UPDATE SET
  tx_hash=excluded.tx_hash,
  code=excluded.code,
  codespace=excluded.codespace,
  info=excluded.info,
  log=excluded.log,
  gas_wanted=excluded.gas_wanted,
  gas_used=excluded.gas_used
RETURNING id;
`, tx.Height, tx.Index, tx.TxHash, int64(tx.Code), tx.Codespace, tx.Info, tx.Log, tx.GasWanted, tx.GasUsed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert tx: %w", err)
	}
	return id, nil
}

func (w *writer) UpsertTxMsg(ctx context.Context, msg model.TxMsg) (int64, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
INSERT INTO tx_msgs (tx_id, event_index, action, module, sender)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(tx_id, event_index) DO UPDATE SET
  action=excluded.action,
  module=excluded.module,
  sender=excluded.sender
RETURNING id;
`, msg.TxID, msg.EventIndex, msg.Action, msg.Module, msg.Sender).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert tx msg: %w", err)
	}
	return id, nil
}

func (w *writer) UpsertTxEvent(ctx context.Context, event model.TxEvent) error {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	_, err = w.tx.ExecContext(ctx, `
INSERT INTO tx_events (height, tx_index, event_index, tx_id, msg_id, type, attributes)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(height, tx_index, event_index) DO UPDATE SET
  tx_id=excluded.tx_id,
  msg_id=excluded.msg_id,
  type=excluded.type,
  attributes=excluded.attributes;
`, event.Height, event.TxIndex, event.EventIndex, event.TxID, event.MsgID, event.Type, string(attrs))
	if err != nil {
		return fmt.Errorf("upsert tx event: %w", err)
	}
	return nil
}

func (w *writer) UpsertDepositLP(ctx context.Context, row model.DepositLP) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO event_deposit_lp (
  height, tx_index, event_index, pair_id, creator, receiver, tick_index, fee,
  reserves0, reserves1, shares_minted
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(height, tx_index, event_index) DO UPDATE SET
  pair_id=excluded.pair_id,
  creator=excluded.creator,
  receiver=excluded.receiver,
  tick_index=excluded.tick_index,
  fee=excluded.fee,
  reserves0=excluded.reserves0,
  reserves1=excluded.reserves1,
  shares_minted=excluded.shares_minted;
`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.Creator, row.Receiver, row.TickIndex, row.Fee,
		row.Reserves0Amount, row.Reserves1Amount, row.SharesMinted,
	)
	if err != nil {
		return fmt.Errorf("upsert deposit: %w", err)
	}
	return nil
}

func (w *writer) UpsertWithdrawLP(ctx context.Context, row model.WithdrawLP) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO event_withdraw_lp (
  height, tx_index, event_index, pair_id, creator, receiver, tick_index, fee,
  reserves0, reserves1, shares_removed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(height, tx_index, event_index) DO UPDATE SET
  pair_id=excluded.pair_id,
  creator=excluded.creator,
  receiver=excluded.receiver,
  tick_index=excluded.tick_index,
  fee=excluded.fee,
  reserves0=excluded.reserves0,
  reserves1=excluded.reserves1,
  shares_removed=excluded.shares_removed;
`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.Creator, row.Receiver, row.TickIndex, row.Fee,
		row.Reserves0Amount, row.Reserves1Amount, row.SharesRemoved,
	)
	if err != nil {
		return fmt.Errorf("upsert withdrawal: %w", err)
	}
	return nil
}

func (w *writer) UpsertPlaceLimitOrder(ctx context.Context, row model.PlaceLimitOrder) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO event_place_limit_order (
  height, tx_index, event_index, pair_id, token_in_id, creator, receiver,
  amount_in, limit_tick, order_type, shares, tranche_key
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(height, tx_index, event_index) DO UPDATE SET
  pair_id=excluded.pair_id,
  token_in_id=excluded.token_in_id,
  creator=excluded.creator,
  receiver=excluded.receiver,
  amount_in=excluded.amount_in,
  limit_tick=excluded.limit_tick,
  order_type=excluded.order_type,
  shares=excluded.shares,
  tranche_key=excluded.tranche_key;
`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.TokenInID, row.Creator, row.Receiver,
		row.AmountIn, row.LimitTick, row.OrderType, row.Shares, row.TrancheKey,
	)
	if err != nil {
		return fmt.Errorf("upsert limit order: %w", err)
	}
	return nil
}

func (w *writer) UpsertTickUpdate(ctx context.Context, row model.TickUpdate) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO event_tick_update (
  height, tx_index, event_index, pair_id, token_id, tick_index, reserves, fee, tranche_key
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(height, tx_index, event_index) DO UPDATE SET
  pair_id=excluded.pair_id,
  token_id=excluded.token_id,
  tick_index=excluded.tick_index,
  reserves=excluded.reserves,
  fee=excluded.fee,
  tranche_key=excluded.tranche_key;
`,
		row.Height, row.TxIndex, row.EventIndex, row.PairID, row.TokenID, row.TickIndex, row.Reserves, row.Fee, row.TrancheKey,
	)
	if err != nil {
		return fmt.Errorf("upsert tick update: %w", err)
	}
	return nil
}

func (w *writer) GetTickState(ctx context.Context, key model.TickKey) (model.TickState, error) {
	st := model.TickState{Key: key}
	var fee sql.NullInt64
	err := w.tx.QueryRowContext(ctx, `
SELECT reserves, fee, price, last_height, last_tx_index, last_event_index
FROM tick_state
WHERE pair_id = ? AND token_id = ? AND tick_index = ?;
`, key.PairID, key.TokenID, key.TickIndex).Scan(
		&st.Reserves, &fee, &st.Price,
		&st.LastEvent.Height, &st.LastEvent.TxIndex, &st.LastEvent.EventIndex,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TickState{}, storage.ErrNotFound
		}
		return model.TickState{}, fmt.Errorf("get tick state: %w", err)
	}
	st.Fee = nullInt64Ptr(fee)
	return st, nil
}

func (w *writer) UpsertTickState(ctx context.Context, st model.TickState) error {
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO tick_state (
  pair_id, token_id, tick_index, reserves, fee, price,
  last_height, last_tx_index, last_event_index, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(pair_id, token_id, tick_index) DO UPDATE SET
  reserves=excluded.reserves,
  fee=COALESCE(excluded.fee, tick_state.fee),
  price=excluded.price,
  last_height=excluded.last_height,
  last_tx_index=excluded.last_tx_index,
  last_event_index=excluded.last_event_index,
  updated_at=excluded.updated_at
WHERE (tick_state.last_height, tick_state.last_tx_index, tick_state.last_event_index)
  < (excluded.last_height, excluded.last_tx_index, excluded.last_event_index);
`,
		st.Key.PairID, st.Key.TokenID, st.Key.TickIndex, st.Reserves, st.Fee, st.Price,
		st.LastEvent.Height, st.LastEvent.TxIndex, st.LastEvent.EventIndex, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert tick state: %w", err)
	}
	return nil
}

func (w *writer) SaveCursor(ctx context.Context, name string, cursor model.Cursor) error {
	if name == "" {
		return errors.New("state name required")
	}
	updatedAt := cursor.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := w.tx.ExecContext(ctx, `
INSERT INTO indexer_state (name, height, tx_index, tx_hash, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  height=excluded.height,
  tx_index=excluded.tx_index,
  tx_hash=excluded.tx_hash,
  updated_at=excluded.updated_at;
`, name, cursor.Height, cursor.Index, cursor.TxHash, formatTime(updatedAt))
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
