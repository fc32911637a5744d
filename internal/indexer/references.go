package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"tickScope/internal/dex"
	"tickScope/internal/model"
	"tickScope/internal/storage"
)

// ReferenceResolver makes sure token and pair rows exist before dependent rows are written.
// Resolved ids are cached across transactions once their transaction commits.
type ReferenceResolver struct {
	logger *zap.Logger

	mu     sync.RWMutex
	tokens map[string]int64
	pairs  map[dex.PairRef]int64
}

func NewReferenceResolver(logger *zap.Logger) *ReferenceResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceResolver{
		logger: logger,
		tokens: make(map[string]int64),
		pairs:  make(map[dex.PairRef]int64),
	}
}

// Refs holds the reference ids of one transaction.
type Refs struct {
	tokens map[string]int64
	pairs  map[dex.PairRef]int64
	fresh  bool
}

// TokenID returns the id of a resolved denom.
func (r *Refs) TokenID(denom string) (int64, error) {
	id, ok := r.tokens[denom]
	if !ok {
		return 0, &MissingReferenceError{Kind: "token", Denoms: []string{denom}}
	}
	return id, nil
}

// PairID returns the id of a resolved pair.
func (r *Refs) PairID(pair dex.PairRef) (int64, error) {
	id, ok := r.pairs[pair]
	if !ok {
		return 0, &MissingReferenceError{Kind: "pair", Denoms: []string{pair.Token0, pair.Token1}}
	}
	return id, nil
}

// Tokens resolves every denom the events reference. It must run before Pairs.
func (rr *ReferenceResolver) Tokens(ctx context.Context, w storage.Writer, events []model.DecodedEvent) (*Refs, error) {
	refs := &Refs{
		tokens: make(map[string]int64),
		pairs:  make(map[dex.PairRef]int64),
	}
	for _, ev := range events {
		for _, denom := range dex.ReferencedTokens(ev) {
			if _, ok := refs.tokens[denom]; ok {
				continue
			}
			if id, ok := rr.cachedToken(denom); ok {
				refs.tokens[denom] = id
				continue
			}
			id, err := w.UpsertToken(ctx, denom)
			if err != nil {
				return nil, fmt.Errorf("upsert token %s: %w", denom, err)
			}
			refs.tokens[denom] = id
			refs.fresh = true
		}
	}
	return refs, nil
}

// Pairs resolves every pair the events reference. A classified action naming an incomplete
// pair is fatal; other events naming one are logged and skipped.
func (rr *ReferenceResolver) Pairs(ctx context.Context, w storage.Writer, events []model.DecodedEvent, refs *Refs) error {
	for i, ev := range events {
		pair, ok, err := dex.ReferencedPair(ev)
		if err != nil {
			if dex.Classify(ev) != model.ActionNone {
				return &MissingReferenceError{Kind: "pair", Denoms: dex.ReferencedTokens(ev), Err: err}
			}
			rr.logger.Warn("incomplete pair on dex event", zap.Int("event_index", i), zap.String("type", ev.Type), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if _, ok := refs.pairs[pair]; ok {
			continue
		}
		if id, ok := rr.cachedPair(pair); ok {
			refs.pairs[pair] = id
			continue
		}

		token0, err := refs.TokenID(pair.Token0)
		if err != nil {
			return err
		}
		token1, err := refs.TokenID(pair.Token1)
		if err != nil {
			return err
		}
		id, err := w.UpsertPair(ctx, token0, token1)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return &MissingReferenceError{Kind: "pair", Denoms: []string{pair.Token0, pair.Token1}, Err: err}
			}
			return fmt.Errorf("upsert pair %s: %w", pair, err)
		}
		refs.pairs[pair] = id
		refs.fresh = true
	}
	return nil
}

// Commit caches the ids of a committed transaction.
func (rr *ReferenceResolver) Commit(refs *Refs) {
	if refs == nil || !refs.fresh {
		return
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	for denom, id := range refs.tokens {
		rr.tokens[denom] = id
	}
	for pair, id := range refs.pairs {
		rr.pairs[pair] = id
	}
}

func (rr *ReferenceResolver) cachedToken(denom string) (int64, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	id, ok := rr.tokens[denom]
	return id, ok
}

func (rr *ReferenceResolver) cachedPair(pair dex.PairRef) (int64, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	id, ok := rr.pairs[pair]
	return id, ok
}
