package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TransactionResult is one chain transaction outcome as delivered by the tx source.
type TransactionResult struct {
	Height    string     `json:"height"`
	TxHash    string     `json:"txhash"`
	Timestamp string     `json:"timestamp"`
	Code      uint32     `json:"code"`
	Codespace string     `json:"codespace,omitempty"`
	Log       string     `json:"log,omitempty"`
	Info      string     `json:"info,omitempty"`
	GasWanted Gas        `json:"gas_wanted,omitempty"`
	GasUsed   Gas        `json:"gas_used,omitempty"`
	Events    []RawEvent `json:"events"`
}

// Gas is a gas amount. Nodes send it as a quoted string; hand-written files often use a
// plain number, so both decode.
type Gas int64

func (g Gas) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(g), 10))
}

func (g *Gas) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	raw = bytes.TrimSpace(bytes.Trim(raw, `"`))
	if len(raw) == 0 {
		*g = 0
		return nil
	}
	v, err := json.Number(raw).Int64()
	if err != nil {
		return fmt.Errorf("invalid gas %s: %w", data, err)
	}
	*g = Gas(v)
	return nil
}

// RawEvent is an undecoded chain event.
type RawEvent struct {
	Type       string         `json:"type"`
	Attributes []RawAttribute `json:"attributes"`
}

// RawAttribute is a single event attribute; Encoded marks base64 key/value pairs.
type RawAttribute struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Encoded bool   `json:"encoded,omitempty"`
}

// Succeeded reports whether the transaction result code is OK.
func (r TransactionResult) Succeeded() bool {
	return r.Code == 0
}

// ParseHeight returns the block height as an integer.
func (r TransactionResult) ParseHeight() (int64, error) {
	h, err := strconv.ParseInt(strings.TrimSpace(r.Height), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", r.Height, err)
	}
	if h <= 0 {
		return 0, fmt.Errorf("invalid height %q", r.Height)
	}
	return h, nil
}
