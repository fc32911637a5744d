package model

import "time"

// Token is a reference row for a chain denom.
type Token struct {
	ID    int64  `json:"id"`
	Denom string `json:"denom"`
}

// Pair is a reference row for an ordered token pair.
type Pair struct {
	ID       int64  `json:"id"`
	Token0ID int64  `json:"token0_id"`
	Token1ID int64  `json:"token1_id"`
	Token0   string `json:"token0"`
	Token1   string `json:"token1"`
}

// Block is a block row; one per distinct height.
type Block struct {
	Height    int64     `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

// Tx is the canonical transaction row keyed by (Height, Index).
type Tx struct {
	Height    int64  `json:"height"`
	Index     int    `json:"index"`
	TxHash    string `json:"txhash"`
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace"`
	Info      string `json:"info"`
	Log       string `json:"log"`
	GasWanted int64  `json:"gas_wanted"`
	GasUsed   int64  `json:"gas_used"`
}

// TxMsg is a message row introduced by a "message" event.
type TxMsg struct {
	TxID       int64  `json:"tx_id"`
	EventIndex int    `json:"event_index"`
	Action     string `json:"action"`
	Module     string `json:"module"`
	Sender     string `json:"sender"`
}

// TxEvent is the generic row written for every decoded event.
type TxEvent struct {
	TxID       int64       `json:"tx_id"`
	Height     int64       `json:"height"`
	TxIndex    int         `json:"tx_index"`
	EventIndex int         `json:"event_index"`
	MsgID      *int64      `json:"msg_id,omitempty"`
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// DepositLP is a liquidity deposit action row.
type DepositLP struct {
	EventKey
	PairID          int64  `json:"pair_id"`
	Creator         string `json:"creator"`
	Receiver        string `json:"receiver"`
	TickIndex       int64  `json:"tick_index"`
	Fee             int64  `json:"fee"`
	Reserves0Amount string `json:"reserves0_deposited"`
	Reserves1Amount string `json:"reserves1_deposited"`
	SharesMinted    string `json:"shares_minted"`
}

// WithdrawLP is a liquidity withdrawal action row.
type WithdrawLP struct {
	EventKey
	PairID          int64  `json:"pair_id"`
	Creator         string `json:"creator"`
	Receiver        string `json:"receiver"`
	TickIndex       int64  `json:"tick_index"`
	Fee             int64  `json:"fee"`
	Reserves0Amount string `json:"reserves0_withdrawn"`
	Reserves1Amount string `json:"reserves1_withdrawn"`
	SharesRemoved   string `json:"shares_removed"`
}

// PlaceLimitOrder is a limit order placement row.
type PlaceLimitOrder struct {
	EventKey
	PairID     int64  `json:"pair_id"`
	TokenInID  int64  `json:"token_in_id"`
	Creator    string `json:"creator"`
	Receiver   string `json:"receiver"`
	AmountIn   string `json:"amount_in"`
	LimitTick  int64  `json:"limit_tick"`
	OrderType  string `json:"order_type"`
	Shares     string `json:"shares"`
	TrancheKey string `json:"tranche_key"`
}

// TickUpdate is the history row of a tick update event.
type TickUpdate struct {
	EventKey
	PairID     int64  `json:"pair_id"`
	TokenID    int64  `json:"token_id"`
	TickIndex  int64  `json:"tick_index"`
	Reserves   string `json:"reserves"`
	Fee        *int64 `json:"fee,omitempty"`
	TrancheKey string `json:"tranche_key,omitempty"`
}

// TickKey returns the tick state key the update targets.
func (u TickUpdate) TickKey() TickKey {
	return TickKey{PairID: u.PairID, TokenID: u.TokenID, TickIndex: u.TickIndex}
}
