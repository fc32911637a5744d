package dex

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tickScope/internal/model"
)

// MaxTickIndex bounds tick indices accepted from chain events; the dex module never emits
// ticks outside [-MaxTickIndex, MaxTickIndex].
const MaxTickIndex = 559680

var (
	// ErrIncompletePair is returned when a dex event names only one side of a pair.
	ErrIncompletePair = errors.New("incomplete pair reference")
	// ErrTickOutOfRange is returned for a tick index outside [-MaxTickIndex, MaxTickIndex].
	ErrTickOutOfRange = errors.New("tick index out of range")
)

// PairRef names the two denoms of a pair as emitted on chain.
type PairRef struct {
	Token0 string
	Token1 string
}

func (p PairRef) String() string {
	return p.Token0 + "<>" + p.Token1
}

// ReferencedTokens returns the distinct denoms a dex event references, in attribute order.
// Events outside the dex module reference nothing.
func ReferencedTokens(event model.DecodedEvent) []string {
	if !IsDexEvent(event) {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(denom string) {
		denom = strings.TrimSpace(denom)
		if denom == "" {
			return
		}
		if _, ok := seen[denom]; ok {
			return
		}
		seen[denom] = struct{}{}
		out = append(out, denom)
	}

	for _, attr := range event.Attributes {
		switch attr.Key {
		case AttrTokenZero, AttrToken0, AttrTokenOne, AttrToken1, AttrTokenIn, AttrTokenOut:
			add(attr.Value)
		}
	}
	return out
}

// ReferencedPair returns the pair a dex event references. ok is false when the event names
// no pair at all; an event naming only one side returns ErrIncompletePair.
func ReferencedPair(event model.DecodedEvent) (PairRef, bool, error) {
	if !IsDexEvent(event) {
		return PairRef{}, false, nil
	}
	token0, has0 := event.First(token0Keys...)
	token1, has1 := event.First(token1Keys...)
	switch {
	case has0 && has1:
		return PairRef{Token0: token0, Token1: token1}, true, nil
	case !has0 && !has1:
		if Classify(event) != model.ActionNone {
			return PairRef{}, false, fmt.Errorf("%s event: %w", Classify(event), ErrIncompletePair)
		}
		return PairRef{}, false, nil
	default:
		return PairRef{}, false, fmt.Errorf("token0=%q token1=%q: %w", token0, token1, ErrIncompletePair)
	}
}

// DepositLPFields is a deposit event with denoms still unresolved.
type DepositLPFields struct {
	Row  model.DepositLP
	Pair PairRef
}

// WithdrawLPFields is a withdrawal event with denoms still unresolved.
type WithdrawLPFields struct {
	Row  model.WithdrawLP
	Pair PairRef
}

// PlaceLimitOrderFields is a limit order event with denoms still unresolved.
type PlaceLimitOrderFields struct {
	Row     model.PlaceLimitOrder
	Pair    PairRef
	TokenIn string
}

// TickUpdateFields is a tick update event with denoms still unresolved.
type TickUpdateFields struct {
	Row     model.TickUpdate
	Pair    PairRef
	TokenIn string
}

// ParseDepositLP extracts the DepositLP fields of an event.
func ParseDepositLP(event model.DecodedEvent, key model.EventKey) (DepositLPFields, error) {
	pair, err := requirePair(event)
	if err != nil {
		return DepositLPFields{}, err
	}
	tick, err := parseTick(event, AttrTickIndex, true)
	if err != nil {
		return DepositLPFields{}, err
	}
	fee, err := parseInt(event, AttrFee, false)
	if err != nil {
		return DepositLPFields{}, err
	}
	res0, err := NormalizeAmount(event.Value(AttrReservesZeroDeposit))
	if err != nil {
		return DepositLPFields{}, fmt.Errorf("%s: %w", AttrReservesZeroDeposit, err)
	}
	res1, err := NormalizeAmount(event.Value(AttrReservesOneDeposit))
	if err != nil {
		return DepositLPFields{}, fmt.Errorf("%s: %w", AttrReservesOneDeposit, err)
	}
	shares, err := NormalizeAmount(event.Value(AttrSharesMinted))
	if err != nil {
		return DepositLPFields{}, fmt.Errorf("%s: %w", AttrSharesMinted, err)
	}

	return DepositLPFields{
		Pair: pair,
		Row: model.DepositLP{
			EventKey:        key,
			Creator:         event.Value(AttrCreator),
			Receiver:        event.Value(AttrReceiver),
			TickIndex:       tick,
			Fee:             fee,
			Reserves0Amount: res0,
			Reserves1Amount: res1,
			SharesMinted:    shares,
		},
	}, nil
}

// ParseWithdrawLP extracts the WithdrawLP fields of an event.
func ParseWithdrawLP(event model.DecodedEvent, key model.EventKey) (WithdrawLPFields, error) {
	pair, err := requirePair(event)
	if err != nil {
		return WithdrawLPFields{}, err
	}
	tick, err := parseTick(event, AttrTickIndex, true)
	if err != nil {
		return WithdrawLPFields{}, err
	}
	fee, err := parseInt(event, AttrFee, false)
	if err != nil {
		return WithdrawLPFields{}, err
	}
	res0, err := NormalizeAmount(event.Value(AttrReservesZeroWithdrawn))
	if err != nil {
		return WithdrawLPFields{}, fmt.Errorf("%s: %w", AttrReservesZeroWithdrawn, err)
	}
	res1, err := NormalizeAmount(event.Value(AttrReservesOneWithdrawn))
	if err != nil {
		return WithdrawLPFields{}, fmt.Errorf("%s: %w", AttrReservesOneWithdrawn, err)
	}
	shares, err := NormalizeAmount(event.Value(AttrSharesRemoved))
	if err != nil {
		return WithdrawLPFields{}, fmt.Errorf("%s: %w", AttrSharesRemoved, err)
	}

	return WithdrawLPFields{
		Pair: pair,
		Row: model.WithdrawLP{
			EventKey:        key,
			Creator:         event.Value(AttrCreator),
			Receiver:        event.Value(AttrReceiver),
			TickIndex:       tick,
			Fee:             fee,
			Reserves0Amount: res0,
			Reserves1Amount: res1,
			SharesRemoved:   shares,
		},
	}, nil
}

// ParsePlaceLimitOrder extracts the PlaceLimitOrder fields of an event.
func ParsePlaceLimitOrder(event model.DecodedEvent, key model.EventKey) (PlaceLimitOrderFields, error) {
	pair, err := requirePair(event)
	if err != nil {
		return PlaceLimitOrderFields{}, err
	}
	tokenIn, ok := event.Get(AttrTokenIn)
	if !ok || tokenIn == "" {
		return PlaceLimitOrderFields{}, fmt.Errorf("missing %s", AttrTokenIn)
	}
	limitTick, err := parseTick(event, AttrLimitTick, false)
	if err != nil {
		return PlaceLimitOrderFields{}, err
	}
	amountIn, err := NormalizeAmount(event.Value(AttrAmountIn))
	if err != nil {
		return PlaceLimitOrderFields{}, fmt.Errorf("%s: %w", AttrAmountIn, err)
	}
	shares, err := NormalizeAmount(event.Value(AttrShares))
	if err != nil {
		return PlaceLimitOrderFields{}, fmt.Errorf("%s: %w", AttrShares, err)
	}

	return PlaceLimitOrderFields{
		Pair:    pair,
		TokenIn: tokenIn,
		Row: model.PlaceLimitOrder{
			EventKey:   key,
			Creator:    event.Value(AttrCreator),
			Receiver:   event.Value(AttrReceiver),
			AmountIn:   amountIn,
			LimitTick:  limitTick,
			OrderType:  event.Value(AttrOrderType),
			Shares:     shares,
			TrancheKey: event.Value(AttrTrancheKey),
		},
	}, nil
}

// ParseTickUpdate extracts the TickUpdate fields of an event. Reserves are the tick's
// reserves after the update, not a delta.
func ParseTickUpdate(event model.DecodedEvent, key model.EventKey) (TickUpdateFields, error) {
	pair, err := requirePair(event)
	if err != nil {
		return TickUpdateFields{}, err
	}
	tokenIn, ok := event.Get(AttrTokenIn)
	if !ok || tokenIn == "" {
		return TickUpdateFields{}, fmt.Errorf("missing %s", AttrTokenIn)
	}
	tick, err := parseTick(event, AttrTickIndex, true)
	if err != nil {
		return TickUpdateFields{}, err
	}
	reserves, err := NormalizeAmount(event.Value(AttrReserves))
	if err != nil {
		return TickUpdateFields{}, fmt.Errorf("%s: %w", AttrReserves, err)
	}

	var fee *int64
	if raw, ok := event.Get(AttrFee); ok && strings.TrimSpace(raw) != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return TickUpdateFields{}, fmt.Errorf("invalid %s %q", AttrFee, raw)
		}
		fee = &parsed
	}

	return TickUpdateFields{
		Pair:    pair,
		TokenIn: tokenIn,
		Row: model.TickUpdate{
			EventKey:   key,
			TickIndex:  tick,
			Reserves:   reserves,
			Fee:        fee,
			TrancheKey: event.Value(AttrTrancheKey),
		},
	}, nil
}

// NormalizeAmount parses an on-chain amount and returns its canonical decimal form.
// An empty amount is zero.
func NormalizeAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0", nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", raw)
	}
	return d.String(), nil
}

// TickPrice returns 1.0001^tick. Ticks are clamped to [-MaxTickIndex, MaxTickIndex].
func TickPrice(tick int64) string {
	switch {
	case tick > MaxTickIndex:
		tick = MaxTickIndex
	case tick < -MaxTickIndex:
		tick = -MaxTickIndex
	}
	return decimal.NewFromFloat(math.Pow(1.0001, float64(tick))).Round(18).String()
}

func requirePair(event model.DecodedEvent) (PairRef, error) {
	pair, ok, err := ReferencedPair(event)
	if err != nil {
		return PairRef{}, err
	}
	if !ok {
		return PairRef{}, ErrIncompletePair
	}
	return pair, nil
}

func parseInt(event model.DecodedEvent, key string, required bool) (int64, error) {
	raw, ok := event.Get(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		if required {
			return 0, fmt.Errorf("missing %s", key)
		}
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func parseTick(event model.DecodedEvent, key string, required bool) (int64, error) {
	tick, err := parseInt(event, key, required)
	if err != nil {
		return 0, err
	}
	if tick > MaxTickIndex || tick < -MaxTickIndex {
		return 0, fmt.Errorf("%s %d: %w", key, tick, ErrTickOutOfRange)
	}
	return tick, nil
}
