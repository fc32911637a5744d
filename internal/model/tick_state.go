package model

// EventKey identifies an event by its chain position.
type EventKey struct {
	Height     int64 `json:"height"`
	TxIndex    int   `json:"tx_index"`
	EventIndex int   `json:"event_index"`
}

// Less orders event keys by chain position.
func (k EventKey) Less(other EventKey) bool {
	if k.Height != other.Height {
		return k.Height < other.Height
	}
	if k.TxIndex != other.TxIndex {
		return k.TxIndex < other.TxIndex
	}
	return k.EventIndex < other.EventIndex
}

// TickKey identifies a tick state row; TokenID is the side the reserves are held in.
type TickKey struct {
	PairID    int64 `json:"pair_id"`
	TokenID   int64 `json:"token_id"`
	TickIndex int64 `json:"tick_index"`
}

// TickState is the materialized liquidity at one tick as of LastEvent.
type TickState struct {
	Key       TickKey  `json:"key"`
	Reserves  string   `json:"reserves"`
	Fee       *int64   `json:"fee,omitempty"`
	Price     string   `json:"price"`
	LastEvent EventKey `json:"last_event"`
}
