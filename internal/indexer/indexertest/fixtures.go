// Package indexertest builds chain transaction results for ingestion tests.
package indexertest

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"tickScope/internal/model"
)

// Timestamp is the block time every fixture tx carries.
const Timestamp = "2024-03-01T10:00:00Z"

// Event builds a raw event from alternating key/value pairs.
func Event(typ string, kv ...string) model.RawEvent {
	if len(kv)%2 != 0 {
		panic("indexertest: odd key/value count")
	}
	ev := model.RawEvent{Type: typ}
	for i := 0; i < len(kv); i += 2 {
		ev.Attributes = append(ev.Attributes, model.RawAttribute{Key: kv[i], Value: kv[i+1]})
	}
	return ev
}

// Encoded returns ev with every attribute base64 encoded.
func Encoded(ev model.RawEvent) model.RawEvent {
	out := model.RawEvent{Type: ev.Type}
	for _, attr := range ev.Attributes {
		out.Attributes = append(out.Attributes, model.RawAttribute{
			Key:     base64.StdEncoding.EncodeToString([]byte(attr.Key)),
			Value:   base64.StdEncoding.EncodeToString([]byte(attr.Value)),
			Encoded: true,
		})
	}
	return out
}

// Tx builds a transaction result at height.
func Tx(height int64, hash string, code uint32, events ...model.RawEvent) model.TransactionResult {
	return model.TransactionResult{
		Height:    strconv.FormatInt(height, 10),
		TxHash:    hash,
		Timestamp: Timestamp,
		Code:      code,
		GasWanted: 200000,
		GasUsed:   100000,
		Events:    events,
	}
}

// Hash returns a deterministic tx hash for (height, n).
func Hash(height int64, n int) string {
	return fmt.Sprintf("%08X%04X", height, n)
}

// Message is the message event a chain emits for a submitted msg.
func Message(action, sender string) model.RawEvent {
	return Event("message", "action", action, "sender", sender, "module", "bank")
}

// PlaceLimitOrder is a dex limit order event.
func PlaceLimitOrder(token0, token1, tokenIn, amountIn string, limitTick int64) model.RawEvent {
	return Event("message",
		"module", "dex",
		"action", "PlaceLimitOrder",
		"Creator", "creator1",
		"Receiver", "creator1",
		"TokenZero", token0,
		"TokenOne", token1,
		"TokenIn", tokenIn,
		"AmountIn", amountIn,
		"LimitTick", strconv.FormatInt(limitTick, 10),
		"OrderType", "GOOD_TIL_CANCELLED",
		"Shares", amountIn,
		"TrancheKey", "tranche1",
	)
}

// TickUpdate is a dex tick update event carrying the tick's post-update reserves.
func TickUpdate(token0, token1, tokenIn string, tick int64, reserves string) model.RawEvent {
	return Event("message",
		"module", "dex",
		"action", "TickUpdate",
		"TokenZero", token0,
		"TokenOne", token1,
		"TokenIn", tokenIn,
		"TickIndex", strconv.FormatInt(tick, 10),
		"Reserves", reserves,
	)
}

// DepositLP is a dex liquidity deposit event.
func DepositLP(token0, token1 string, tick, fee int64, reserves0, reserves1, shares string) model.RawEvent {
	return Event("message",
		"module", "dex",
		"action", "DepositLP",
		"Creator", "creator1",
		"Receiver", "creator1",
		"TokenZero", token0,
		"TokenOne", token1,
		"TickIndex", strconv.FormatInt(tick, 10),
		"Fee", strconv.FormatInt(fee, 10),
		"ReservesZeroDeposit", reserves0,
		"ReservesOneDeposit", reserves1,
		"SharesMinted", shares,
	)
}

// WithdrawLP is a dex liquidity withdrawal event.
func WithdrawLP(token0, token1 string, tick, fee int64, reserves0, reserves1, shares string) model.RawEvent {
	return Event("message",
		"module", "dex",
		"action", "WithdrawLP",
		"Creator", "creator1",
		"Receiver", "creator1",
		"TokenZero", token0,
		"TokenOne", token1,
		"TickIndex", strconv.FormatInt(tick, 10),
		"Fee", strconv.FormatInt(fee, 10),
		"ReservesZeroWithdrawn", reserves0,
		"ReservesOneWithdrawn", reserves1,
		"SharesRemoved", shares,
	)
}

// Transfer is a bank transfer event.
func Transfer(recipient, amount string) model.RawEvent {
	return Event("transfer", "recipient", recipient, "sender", "creator1", "amount", amount)
}

// LimitOrderTx is a successful tx placing a limit order of amountIn tokenA at tick, with the
// resulting tick update.
func LimitOrderTx(height int64, hash string, tick int64, amountIn string) model.TransactionResult {
	return Tx(height, hash, 0,
		Message("/dex.MsgPlaceLimitOrder", "creator1"),
		Transfer("dex_module", amountIn+"tokenA"),
		PlaceLimitOrder("tokenA", "tokenB", "tokenA", amountIn, tick),
		TickUpdate("tokenA", "tokenB", "tokenA", tick, amountIn),
	)
}
