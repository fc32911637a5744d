package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tickScope/internal/dex"
	"tickScope/internal/indexer"
	"tickScope/internal/indexer/indexertest"
	"tickScope/internal/model"
	"tickScope/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func countRows(t *testing.T, store *Store, table string) int {
	t.Helper()
	var n int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestReferenceUpsertsAreIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var first, second [3]int64
	for _, ids := range []*[3]int64{&first, &second} {
		err := store.InTx(ctx, func(w storage.Writer) error {
			var err error
			if ids[0], err = w.UpsertToken(ctx, "tokenA"); err != nil {
				return err
			}
			if ids[1], err = w.UpsertToken(ctx, "tokenB"); err != nil {
				return err
			}
			ids[2], err = w.UpsertPair(ctx, ids[0], ids[1])
			return err
		})
		if err != nil {
			t.Fatalf("upsert references: %v", err)
		}
	}
	if first != second {
		t.Fatalf("ids changed on re-upsert: %v != %v", first, second)
	}
	if n := countRows(t, store, "tokens"); n != 2 {
		t.Fatalf("expected 2 tokens, got %d", n)
	}

	pair, err := store.LookupPair(ctx, "tokenA", "tokenB")
	if err != nil {
		t.Fatalf("lookup pair: %v", err)
	}
	if pair.ID != first[2] || pair.Token0ID != first[0] || pair.Token1ID != first[1] {
		t.Fatalf("unexpected pair: %+v", pair)
	}
	if _, err := store.LookupPair(ctx, "tokenB", "tokenA"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for reversed pair, got %v", err)
	}
}

func TestTxRequiresBlockRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.InTx(ctx, func(w storage.Writer) error {
		_, err := w.UpsertTx(ctx, model.Tx{Height: 5, Index: 0, TxHash: "AA"})
		return err
	})
	if err == nil {
		t.Fatalf("expected foreign key error without block row")
	}
}

func TestInTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(w storage.Writer) error {
		if _, err := w.UpsertToken(ctx, "tokenA"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := countRows(t, store, "tokens"); n != 0 {
		t.Fatalf("rolled back token persisted: %d rows", n)
	}
}

func TestTickStateUpsertKeepsNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var key model.TickKey
	fee := int64(5)
	err := store.InTx(ctx, func(w storage.Writer) error {
		t0, err := w.UpsertToken(ctx, "tokenA")
		if err != nil {
			return err
		}
		t1, err := w.UpsertToken(ctx, "tokenB")
		if err != nil {
			return err
		}
		pairID, err := w.UpsertPair(ctx, t0, t1)
		if err != nil {
			return err
		}
		key = model.TickKey{PairID: pairID, TokenID: t0, TickIndex: 12}

		newer := model.TickState{Key: key, Reserves: "50", Fee: &fee, Price: "1", LastEvent: model.EventKey{Height: 9, TxIndex: 1, EventIndex: 0}}
		older := model.TickState{Key: key, Reserves: "100", Price: "1", LastEvent: model.EventKey{Height: 9, TxIndex: 0, EventIndex: 4}}
		if err := w.UpsertTickState(ctx, newer); err != nil {
			return err
		}
		return w.UpsertTickState(ctx, older)
	})
	if err != nil {
		t.Fatalf("upsert tick state: %v", err)
	}

	states, err := store.ListTickStates(ctx, key.PairID)
	if err != nil {
		t.Fatalf("list tick states: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	st := states[0]
	if st.Reserves != "50" || st.LastEvent.TxIndex != 1 || st.Fee == nil || *st.Fee != 5 {
		t.Fatalf("older update overwrote state: %+v", st)
	}
}

func TestCursorSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadCursor(ctx, "main"); err != nil || ok {
		t.Fatalf("expected no cursor, ok=%v err=%v", ok, err)
	}
	for _, c := range []model.Cursor{
		{Height: 10, Index: 2, TxHash: "AA", UpdatedAt: time.Now()},
		{Height: 11, Index: 0, TxHash: "BB", UpdatedAt: time.Now()},
	} {
		c := c
		if err := store.InTx(ctx, func(w storage.Writer) error { return w.SaveCursor(ctx, "main", c) }); err != nil {
			t.Fatalf("save cursor: %v", err)
		}
	}
	got, ok, err := store.LoadCursor(ctx, "main")
	if err != nil || !ok {
		t.Fatalf("load cursor: ok=%v err=%v", ok, err)
	}
	if got.Height != 11 || got.Index != 0 || got.TxHash != "BB" || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected cursor: %+v", got)
	}
}

func TestIngestEndToEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []model.TransactionResult{
		indexertest.LimitOrderTx(100, indexertest.Hash(100, 0), -5, "1000"),
		indexertest.Tx(100, indexertest.Hash(100, 1), 13,
			indexertest.TickUpdate("tokenA", "tokenB", "tokenA", -5, "999999")),
		indexertest.Tx(101, indexertest.Hash(101, 0), 0,
			indexertest.Message("/dex.MsgDeposit", "creator1"),
			indexertest.DepositLP("tokenA", "tokenB", -5, 1, "25", "0", "25"),
			indexertest.TickUpdate("tokenA", "tokenB", "tokenA", -5, "1025"),
		),
		indexertest.Tx(102, indexertest.Hash(102, 0), 0,
			indexertest.WithdrawLP("tokenA", "tokenB", -5, 1, "10", "0", "10"),
			indexertest.TickUpdate("tokenA", "tokenB", "tokenA", -5, "1015"),
		),
	}

	run := func() model.Cursor {
		ing := indexer.NewIngestor(indexer.IngestorConfig{CursorName: "e2e"}, store, nil, nil, nil, nil)
		cursor, err := ing.Ingest(ctx, batch)
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		return cursor
	}

	cursor := run()
	if cursor.Height != 102 || cursor.Index != 0 {
		t.Fatalf("cursor mismatch: %+v", cursor)
	}

	counts := map[string]int{
		"tokens":                  2,
		"pairs":                   1,
		"blocks":                  3,
		"txs":                     3,
		"tx_msgs":                 2,
		"tx_events":               9,
		"event_place_limit_order": 1,
		"event_deposit_lp":        1,
		"event_withdraw_lp":       1,
		"event_tick_update":       3,
		"tick_state":              1,
	}
	check := func() {
		t.Helper()
		for table, want := range counts {
			if got := countRows(t, store, table); got != want {
				t.Fatalf("%s: expected %d rows, got %d", table, want, got)
			}
		}
	}
	check()

	pair, err := store.LookupPair(ctx, "tokenA", "tokenB")
	if err != nil {
		t.Fatalf("lookup pair: %v", err)
	}
	states, err := store.ListTickStates(ctx, pair.ID)
	if err != nil {
		t.Fatalf("list tick states: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 tick state, got %d", len(states))
	}
	st := states[0]
	if st.Reserves != "1015" || st.Key.TickIndex != -5 || st.Key.TokenID != pair.Token0ID {
		t.Fatalf("unexpected tick state: %+v", st)
	}
	if st.LastEvent != (model.EventKey{Height: 102, TxIndex: 0, EventIndex: 1}) {
		t.Fatalf("provenance mismatch: %+v", st.LastEvent)
	}
	if st.Price != dex.TickPrice(-5) {
		t.Fatalf("price mismatch: %s", st.Price)
	}

	saved, ok, err := store.LoadCursor(ctx, "e2e")
	if err != nil || !ok || saved.Height != 102 {
		t.Fatalf("cursor not persisted: %+v ok=%v err=%v", saved, ok, err)
	}

	// A second full pass over the same batch must leave every table unchanged.
	run()
	check()
	again, err := store.ListTickStates(ctx, pair.ID)
	if err != nil {
		t.Fatalf("list tick states: %v", err)
	}
	if len(again) != 1 || again[0].Reserves != st.Reserves || again[0].LastEvent != st.LastEvent {
		t.Fatalf("tick state changed on replay: %+v -> %+v", st, again)
	}
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer first.Close()
	second, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer second.Close()

	for i, conn := range []*sql.Conn{first, second} {
		var fk, timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d foreign_keys: %v", i, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if fk != 1 || timeout != 5000 {
			t.Fatalf("conn %d: foreign_keys=%d busy_timeout=%d", i, fk, timeout)
		}
	}
}
