package model

// ActionKind is the closed set of DEX actions that receive specialized processing.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionDepositLP
	ActionWithdrawLP
	ActionPlaceLimitOrder
	ActionTickUpdate
)

func (k ActionKind) String() string {
	switch k {
	case ActionDepositLP:
		return "DepositLP"
	case ActionWithdrawLP:
		return "WithdrawLP"
	case ActionPlaceLimitOrder:
		return "PlaceLimitOrder"
	case ActionTickUpdate:
		return "TickUpdate"
	default:
		return "none"
	}
}
