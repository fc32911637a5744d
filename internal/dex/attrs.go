package dex

// Event types and attribute names emitted by the dex module.
const (
	EventTypeMessage = "message"
	ModuleDex        = "dex"

	AttrModule = "module"
	AttrAction = "action"
	AttrSender = "sender"

	AttrCreator    = "Creator"
	AttrReceiver   = "Receiver"
	AttrTokenZero  = "TokenZero"
	AttrTokenOne   = "TokenOne"
	AttrToken0     = "Token0"
	AttrToken1     = "Token1"
	AttrTokenIn    = "TokenIn"
	AttrTokenOut   = "TokenOut"
	AttrTickIndex  = "TickIndex"
	AttrFee        = "Fee"
	AttrReserves   = "Reserves"
	AttrTrancheKey = "TrancheKey"

	AttrReservesZeroDeposit   = "ReservesZeroDeposit"
	AttrReservesOneDeposit    = "ReservesOneDeposit"
	AttrSharesMinted          = "SharesMinted"
	AttrReservesZeroWithdrawn = "ReservesZeroWithdrawn"
	AttrReservesOneWithdrawn  = "ReservesOneWithdrawn"
	AttrSharesRemoved         = "SharesRemoved"

	AttrAmountIn  = "AmountIn"
	AttrLimitTick = "LimitTick"
	AttrOrderType = "OrderType"
	AttrShares    = "Shares"
)

var (
	token0Keys = []string{AttrTokenZero, AttrToken0}
	token1Keys = []string{AttrTokenOne, AttrToken1}
)
