package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"tickScope/internal/model"
	"tickScope/internal/storage"
)

type txKey struct {
	height int64
	index  int
}

type msgKey struct {
	txID       int64
	eventIndex int
}

type pairKey struct {
	token0 int64
	token1 int64
}

type tables struct {
	tokenIDs    map[string]int64
	tokenDenoms map[int64]string
	pairIDs     map[pairKey]int64
	pairTokens  map[int64]pairKey
	blocks      map[int64]model.Block
	txIDs       map[txKey]int64
	txs         map[int64]model.Tx
	msgIDs      map[msgKey]int64
	msgs        map[int64]model.TxMsg
	events      map[model.EventKey]model.TxEvent
	deposits    map[model.EventKey]model.DepositLP
	withdrawals map[model.EventKey]model.WithdrawLP
	orders      map[model.EventKey]model.PlaceLimitOrder
	tickUpdates map[model.EventKey]model.TickUpdate
	tickStates  map[model.TickKey]model.TickState
	cursors     map[string]model.Cursor
	nextID      int64
	writes      []string
}

func newTables() *tables {
	return &tables{
		tokenIDs:    make(map[string]int64),
		tokenDenoms: make(map[int64]string),
		pairIDs:     make(map[pairKey]int64),
		pairTokens:  make(map[int64]pairKey),
		blocks:      make(map[int64]model.Block),
		txIDs:       make(map[txKey]int64),
		txs:         make(map[int64]model.Tx),
		msgIDs:      make(map[msgKey]int64),
		msgs:        make(map[int64]model.TxMsg),
		events:      make(map[model.EventKey]model.TxEvent),
		deposits:    make(map[model.EventKey]model.DepositLP),
		withdrawals: make(map[model.EventKey]model.WithdrawLP),
		orders:      make(map[model.EventKey]model.PlaceLimitOrder),
		tickUpdates: make(map[model.EventKey]model.TickUpdate),
		tickStates:  make(map[model.TickKey]model.TickState),
		cursors:     make(map[string]model.Cursor),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	copyMap(c.tokenIDs, t.tokenIDs)
	copyMap(c.tokenDenoms, t.tokenDenoms)
	copyMap(c.pairIDs, t.pairIDs)
	copyMap(c.pairTokens, t.pairTokens)
	copyMap(c.blocks, t.blocks)
	copyMap(c.txIDs, t.txIDs)
	copyMap(c.txs, t.txs)
	copyMap(c.msgIDs, t.msgIDs)
	copyMap(c.msgs, t.msgs)
	copyMap(c.events, t.events)
	copyMap(c.deposits, t.deposits)
	copyMap(c.withdrawals, t.withdrawals)
	copyMap(c.orders, t.orders)
	copyMap(c.tickUpdates, t.tickUpdates)
	copyMap(c.tickStates, t.tickStates)
	copyMap(c.cursors, t.cursors)
	c.nextID = t.nextID
	c.writes = append([]string(nil), t.writes...)
	return c
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

// Store is an in-memory storage.Store. Each InTx works on a copy of the tables that replaces
// the committed tables only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	data *tables

	// FailOn, when set, is consulted before every write; a non-nil error aborts the write.
	FailOn func(op string) error
}

func New() *Store {
	return &Store{data: newTables()}
}

func (s *Store) InTx(ctx context.Context, fn func(w storage.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&writer{t: work, failOn: s.FailOn}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) LoadCursor(ctx context.Context, name string) (model.Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.cursors[name]
	return c, ok, nil
}

func (s *Store) ListTickStates(ctx context.Context, pairID int64) ([]model.TickState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TickState
	for _, st := range s.data.tickStates {
		if st.Key.PairID == pairID {
			out = append(out, st)
		}
	}
	sortTickStates(out)
	return out, nil
}

func (s *Store) LookupPair(ctx context.Context, token0, token1 string) (model.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t0, ok0 := s.data.tokenIDs[token0]
	t1, ok1 := s.data.tokenIDs[token1]
	if !ok0 || !ok1 {
		return model.Pair{}, storage.ErrNotFound
	}
	id, ok := s.data.pairIDs[pairKey{t0, t1}]
	if !ok {
		return model.Pair{}, storage.ErrNotFound
	}
	return model.Pair{ID: id, Token0ID: t0, Token1ID: t1, Token0: token0, Token1: token1}, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Writes returns the committed write log, one "op:key" entry per write in order.
func (s *Store) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.data.writes...)
}

// Tokens returns token rows ordered by id.
func (s *Store) Tokens() []model.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Token, 0, len(s.data.tokenDenoms))
	for id, denom := range s.data.tokenDenoms {
		out = append(out, model.Token{ID: id, Denom: denom})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pairs returns pair rows ordered by id.
func (s *Store) Pairs() []model.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Pair, 0, len(s.data.pairTokens))
	for id, k := range s.data.pairTokens {
		out = append(out, model.Pair{
			ID:       id,
			Token0ID: k.token0,
			Token1ID: k.token1,
			Token0:   s.data.tokenDenoms[k.token0],
			Token1:   s.data.tokenDenoms[k.token1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Blocks returns block rows ordered by height.
func (s *Store) Blocks() []model.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Block, 0, len(s.data.blocks))
	for _, b := range s.data.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// Txs returns tx rows ordered by (height, index).
func (s *Store) Txs() []model.Tx {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Tx, 0, len(s.data.txs))
	for _, tx := range s.data.txs {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Height != out[j].Height {
			return out[i].Height < out[j].Height
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// TxMsgs returns message rows ordered by id.
func (s *Store) TxMsgs() map[int64]model.TxMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]model.TxMsg, len(s.data.msgs))
	copyMap(out, s.data.msgs)
	return out
}

// TxEvents returns event rows in chain order.
func (s *Store) TxEvents() []model.TxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByEventKey(s.data.events)
}

func (s *Store) DepositLPs() []model.DepositLP {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByEventKey(s.data.deposits)
}

func (s *Store) WithdrawLPs() []model.WithdrawLP {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByEventKey(s.data.withdrawals)
}

func (s *Store) PlaceLimitOrders() []model.PlaceLimitOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByEventKey(s.data.orders)
}

func (s *Store) TickUpdates() []model.TickUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByEventKey(s.data.tickUpdates)
}

// TickStates returns every tick state row.
func (s *Store) TickStates() []model.TickState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TickState, 0, len(s.data.tickStates))
	for _, st := range s.data.tickStates {
		out = append(out, st)
	}
	sortTickStates(out)
	return out
}

func sortedByEventKey[V any](m map[model.EventKey]V) []V {
	keys := make([]model.EventKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func sortTickStates(states []model.TickState) {
	sort.Slice(states, func(i, j int) bool {
		a, b := states[i].Key, states[j].Key
		if a.PairID != b.PairID {
			return a.PairID < b.PairID
		}
		if a.TokenID != b.TokenID {
			return a.TokenID < b.TokenID
		}
		return a.TickIndex < b.TickIndex
	})
}

type writer struct {
	t      *tables
	failOn func(op string) error
}

func (w *writer) check(op, key string) error {
	if w.failOn != nil {
		if err := w.failOn(op); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	w.t.writes = append(w.t.writes, op+":"+key)
	return nil
}

func (w *writer) newID() int64 {
	w.t.nextID++
	return w.t.nextID
}

func (w *writer) UpsertToken(ctx context.Context, denom string) (int64, error) {
	if denom == "" {
		return 0, errors.New("denom required")
	}
	if err := w.check("token", denom); err != nil {
		return 0, err
	}
	if id, ok := w.t.tokenIDs[denom]; ok {
		return id, nil
	}
	id := w.newID()
	w.t.tokenIDs[denom] = id
	w.t.tokenDenoms[id] = denom
	return id, nil
}

func (w *writer) UpsertPair(ctx context.Context, token0ID, token1ID int64) (int64, error) {
	if _, ok := w.t.tokenDenoms[token0ID]; !ok {
		return 0, fmt.Errorf("pair token0 %d: %w", token0ID, storage.ErrNotFound)
	}
	if _, ok := w.t.tokenDenoms[token1ID]; !ok {
		return 0, fmt.Errorf("pair token1 %d: %w", token1ID, storage.ErrNotFound)
	}
	if err := w.check("pair", fmt.Sprintf("%d/%d", token0ID, token1ID)); err != nil {
		return 0, err
	}
	k := pairKey{token0ID, token1ID}
	if id, ok := w.t.pairIDs[k]; ok {
		return id, nil
	}
	id := w.newID()
	w.t.pairIDs[k] = id
	w.t.pairTokens[id] = k
	return id, nil
}

func (w *writer) InsertBlock(ctx context.Context, block model.Block) error {
	if err := w.check("block", fmt.Sprint(block.Height)); err != nil {
		return err
	}
	if _, ok := w.t.blocks[block.Height]; !ok {
		w.t.blocks[block.Height] = block
	}
	return nil
}

func (w *writer) UpsertTx(ctx context.Context, tx model.Tx) (int64, error) {
	if err := w.check("tx", fmt.Sprintf("%d/%d", tx.Height, tx.Index)); err != nil {
		return 0, err
	}
	k := txKey{tx.Height, tx.Index}
	id, ok := w.t.txIDs[k]
	if !ok {
		id = w.newID()
		w.t.txIDs[k] = id
	}
	w.t.txs[id] = tx
	return id, nil
}

func (w *writer) UpsertTxMsg(ctx context.Context, msg model.TxMsg) (int64, error) {
	if _, ok := w.t.txs[msg.TxID]; !ok {
		return 0, fmt.Errorf("msg tx %d: %w", msg.TxID, storage.ErrNotFound)
	}
	if err := w.check("tx_msg", fmt.Sprintf("%d/%d", msg.TxID, msg.EventIndex)); err != nil {
		return 0, err
	}
	k := msgKey{msg.TxID, msg.EventIndex}
	id, ok := w.t.msgIDs[k]
	if !ok {
		id = w.newID()
		w.t.msgIDs[k] = id
	}
	w.t.msgs[id] = msg
	return id, nil
}

func (w *writer) UpsertTxEvent(ctx context.Context, event model.TxEvent) error {
	if _, ok := w.t.txs[event.TxID]; !ok {
		return fmt.Errorf("event tx %d: %w", event.TxID, storage.ErrNotFound)
	}
	if err := w.check("tx_event", fmt.Sprintf("%d/%d/%d", event.Height, event.TxIndex, event.EventIndex)); err != nil {
		return err
	}
	w.t.events[model.EventKey{Height: event.Height, TxIndex: event.TxIndex, EventIndex: event.EventIndex}] = event
	return nil
}

func (w *writer) requirePair(id int64) error {
	if _, ok := w.t.pairTokens[id]; !ok {
		return fmt.Errorf("pair %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (w *writer) UpsertDepositLP(ctx context.Context, row model.DepositLP) error {
	if err := w.requirePair(row.PairID); err != nil {
		return err
	}
	if err := w.check("deposit_lp", eventKeyString(row.EventKey)); err != nil {
		return err
	}
	w.t.deposits[row.EventKey] = row
	return nil
}

func (w *writer) UpsertWithdrawLP(ctx context.Context, row model.WithdrawLP) error {
	if err := w.requirePair(row.PairID); err != nil {
		return err
	}
	if err := w.check("withdraw_lp", eventKeyString(row.EventKey)); err != nil {
		return err
	}
	w.t.withdrawals[row.EventKey] = row
	return nil
}

func (w *writer) UpsertPlaceLimitOrder(ctx context.Context, row model.PlaceLimitOrder) error {
	if err := w.requirePair(row.PairID); err != nil {
		return err
	}
	if err := w.check("place_limit_order", eventKeyString(row.EventKey)); err != nil {
		return err
	}
	w.t.orders[row.EventKey] = row
	return nil
}

func (w *writer) UpsertTickUpdate(ctx context.Context, row model.TickUpdate) error {
	if err := w.requirePair(row.PairID); err != nil {
		return err
	}
	if err := w.check("tick_update", eventKeyString(row.EventKey)); err != nil {
		return err
	}
	w.t.tickUpdates[row.EventKey] = row
	return nil
}

func (w *writer) GetTickState(ctx context.Context, key model.TickKey) (model.TickState, error) {
	st, ok := w.t.tickStates[key]
	if !ok {
		return model.TickState{}, storage.ErrNotFound
	}
	return st, nil
}

func (w *writer) UpsertTickState(ctx context.Context, state model.TickState) error {
	if err := w.requirePair(state.Key.PairID); err != nil {
		return err
	}
	if err := w.check("tick_state", fmt.Sprintf("%d/%d/%d", state.Key.PairID, state.Key.TokenID, state.Key.TickIndex)); err != nil {
		return err
	}
	if current, ok := w.t.tickStates[state.Key]; ok && !current.LastEvent.Less(state.LastEvent) {
		return nil
	}
	w.t.tickStates[state.Key] = state
	return nil
}

func (w *writer) SaveCursor(ctx context.Context, name string, cursor model.Cursor) error {
	if name == "" {
		return errors.New("cursor name required")
	}
	if err := w.check("cursor", name); err != nil {
		return err
	}
	w.t.cursors[name] = cursor
	return nil
}

func eventKeyString(k model.EventKey) string {
	return fmt.Sprintf("%d/%d/%d", k.Height, k.TxIndex, k.EventIndex)
}
