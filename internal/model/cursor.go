package model

import "time"

// Cursor is the per-height transaction sequence position of the last fully ingested tx.
// A zero Cursor means nothing has been ingested yet.
type Cursor struct {
	Height    int64     `json:"height"`
	Index     int       `json:"index"`
	TxHash    string    `json:"tx_hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsZero reports whether the cursor has never advanced.
func (c Cursor) IsZero() bool {
	return c.Height == 0
}

// NextIndex returns the index the next transaction at height receives.
func (c Cursor) NextIndex(height int64) int {
	if c.Height != height {
		return 0
	}
	return c.Index + 1
}

// Advance returns the cursor positioned on the given transaction.
func (c Cursor) Advance(height int64, index int, txHash string) Cursor {
	return Cursor{
		Height:    height,
		Index:     index,
		TxHash:    txHash,
		UpdatedAt: time.Now().UTC(),
	}
}
