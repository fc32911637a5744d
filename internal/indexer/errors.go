package indexer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfOrder is returned when a batch's heights are unparsable or decrease.
	ErrOutOfOrder = errors.New("transaction results out of order")
	// ErrCursorMismatch is returned when the tx at the resume position is not the one the
	// cursor recorded.
	ErrCursorMismatch = errors.New("cursor does not match transaction source")
	// ErrUnhandledAction is returned by dispatch for an action kind without a handler.
	ErrUnhandledAction = errors.New("unhandled dex action")
)

// MissingReferenceError reports a reference row that a dependent row needs but could not get.
type MissingReferenceError struct {
	Kind   string
	Denoms []string
	Err    error
}

func (e *MissingReferenceError) Error() string {
	msg := fmt.Sprintf("missing %s reference [%s]", e.Kind, strings.Join(e.Denoms, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingReferenceError) Unwrap() error { return e.Err }

// IngestError locates a fatal ingestion failure so the batch can be replayed from it.
// EventIndex is -1 for failures outside a specific event.
type IngestError struct {
	Height     int64
	TxHash     string
	TxIndex    int
	EventIndex int
	Stage      string
	Err        error
}

func (e *IngestError) Error() string {
	if e.EventIndex >= 0 {
		return fmt.Sprintf("ingest height=%d tx=%s index=%d event=%d stage=%s: %v",
			e.Height, e.TxHash, e.TxIndex, e.EventIndex, e.Stage, e.Err)
	}
	return fmt.Sprintf("ingest height=%d tx=%s index=%d stage=%s: %v",
		e.Height, e.TxHash, e.TxIndex, e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }
