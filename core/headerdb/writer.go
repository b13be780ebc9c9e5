package headerdb

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/ethergate/headerdb/core/types"
)

// ChainWriter is the reorg engine (spec.md §4.E): it validates contiguity,
// accumulates scores, and decides and performs canonical head switches.
// It is the only component that maintains the invariants of spec.md §3 —
// HeaderStore and CanonicalIndex expose no consistency guarantees on
// their own.
//
// ChainWriter is not safe for concurrent use: the scheduling model
// (spec.md §5) is single-writer, multi-reader, and the core does not
// serialize concurrent PersistChain calls itself. Use AsyncChainWriter
// (writer_async.go) when multiple goroutines may submit headers.
type ChainWriter struct {
	store *HeaderStore
	canon *CanonicalIndex
}

// NewChainWriter builds a chain writer over the given header store and
// canonical index. Both must be backed by the same database.
func NewChainWriter(store *HeaderStore, canon *CanonicalIndex) *ChainWriter {
	return &ChainWriter{store: store, canon: canon}
}

// Persist is the single-header convenience form of PersistChain.
func (w *ChainWriter) Persist(header *types.Header) (newCanonical, oldCanonical []*types.Header, err error) {
	return w.PersistChain([]*types.Header{header})
}

// Store exposes the underlying header store for read-only callers, e.g.
// the query API, that need direct hash lookups without going through the
// reorg engine.
func (w *ChainWriter) Store() *HeaderStore {
	return w.store
}

// Canon exposes the underlying canonical index for read-only callers.
func (w *ChainWriter) Canon() *CanonicalIndex {
	return w.canon
}

// PersistChain inserts headers, a parent-to-child ordered sequence, and
// returns the headers that became newly canonical and the headers they
// displaced, both in ascending block-number order (spec.md §4.E).
//
// Phases 1-3 (structural validation, parent anchoring, score seeding) run
// without side effects; if any of them fails, the backend is untouched.
// Phase 4 onward writes incrementally and is not transactional across
// backend calls (spec.md §4.E "Failure semantics"): a crash partway
// through can leave headers and scores persisted without a canonical
// switch having happened, which spec.md's invariants tolerate as harmless
// orphans. What must never happen, and does not here, is writing the
// canonical index or head pointer before every header and score in the
// batch has been committed.
func (w *ChainWriter) PersistChain(headers []*types.Header) (newCanonical, oldCanonical []*types.Header, err error) {
	if len(headers) == 0 {
		return nil, nil, nil
	}

	// Phase 1 — structural validation.
	for i, h := range headers {
		if types.EmptyDifficulty(h.Difficulty) {
			return nil, nil, validationErrorf("header %d (#%d) has non-positive difficulty", i, h.Number)
		}
		if i == 0 {
			continue
		}
		parent, child := headers[i-1], h
		if child.ParentHash != parent.Hash() {
			return nil, nil, validationErrorf(
				"non-contiguous chain: item %d (#%d %x) is not the parent of item %d (#%d %x)",
				i-1, parent.Number, parent.Hash(), i, child.Number, child.Hash(),
			)
		}
		if child.Number != parent.Number+1 {
			return nil, nil, validationErrorf(
				"non-contiguous chain: item %d is #%d, item %d is #%d", i-1, parent.Number, i, child.Number,
			)
		}
	}

	// Phase 2 — parent anchoring.
	first := headers[0]
	isGenesis := first.IsGenesis()
	if !isGenesis && !w.store.HeaderExists(first.ParentHash) {
		return nil, nil, parentNotFoundf(first.Hash(), first.ParentHash)
	}

	// Phase 3 — score seed.
	runningScore := uint256.NewInt(0)
	if !isGenesis {
		parentScore, err := w.store.GetScore(first.ParentHash)
		if err != nil {
			return nil, nil, err
		}
		runningScore = parentScore
	}

	// Phase 4 — write.
	for _, h := range headers {
		if err := w.store.PutHeader(h); err != nil {
			return nil, nil, err
		}
		runningScore = new(uint256.Int).Add(runningScore, h.Difficulty)
		if err := w.store.PutScore(h.Hash(), runningScore); err != nil {
			return nil, nil, err
		}
	}
	tip := headers[len(headers)-1]
	tipScore := runningScore

	// Phase 5 — head decision.
	head, ok := w.canon.TryGetCanonicalHead()
	if !ok {
		return w.setAsCanonicalChainHead(tip.Hash())
	}
	headScore, err := w.store.GetScore(head.Hash())
	if err != nil {
		return nil, nil, corruptionf("canonical head %x has no recorded score: %v", head.Hash(), err)
	}
	if tipScore.Cmp(headScore) <= 0 {
		// Tie policy: first-writer-wins. An equal-weight competing branch
		// never displaces the incumbent, and a strictly lighter branch
		// obviously doesn't either.
		return nil, nil, nil
	}
	return w.setAsCanonicalChainHead(tip.Hash())
}

// setAsCanonicalChainHead installs the header named by hash as the new
// canonical head, discovering the fork point, enumerating the headers it
// displaces, and rewriting the canonical index (spec.md §4.E Phase 6).
func (w *ChainWriter) setAsCanonicalChainHead(hash common.Hash) (newCanonical, oldCanonical []*types.Header, err error) {
	tip, err := w.store.GetHeaderByHash(hash)
	if err != nil {
		// Reaching here with an unknown hash means internal corruption,
		// not a caller lookup miss: every caller of this method just
		// wrote the header in Phase 4. Distinct error kind on purpose
		// (spec.md §4.E "Error semantics for Phase 6 edge cases").
		return nil, nil, corruptionf("set-canonical-head target %x has no stored header", hash)
	}

	newCanonical, err = w.findNewAncestors(tip)
	if err != nil {
		return nil, nil, err
	}

	oldCanonical = make([]*types.Header, 0, len(newCanonical))
	for _, h := range newCanonical {
		oldHash, err := w.canon.GetCanonicalHash(h.Number)
		if errors.Is(err, ErrHeaderNotFound) {
			// The old canonical chain didn't extend this far; no more
			// displaced headers are possible.
			break
		}
		if err != nil {
			return nil, nil, err
		}
		oldHeader, err := w.store.GetHeaderByHash(oldHash)
		if err != nil {
			return nil, nil, corruptionf("old canonical hash %x at #%d has no stored header", oldHash, h.Number)
		}
		oldCanonical = append(oldCanonical, oldHeader)
	}

	// Delete stale canonical entries above the new tip. The reference
	// algorithm in spec.md §9 leaves these as harmless orphans; this
	// implementation instead restores invariant 3 exactly, the way
	// go-abey's WriteHeader and go-ethereum-derived HeaderChain.Reorg
	// both do ("delete any canonical number assignments above the new
	// head") — see DESIGN.md for the open-question rationale.
	for n := tip.Number + 1; ; n++ {
		if _, err := w.canon.GetCanonicalHash(n); errors.Is(err, ErrHeaderNotFound) {
			break
		}
		if err := w.canon.DeleteCanonicalAt(n); err != nil {
			return nil, nil, err
		}
	}

	for _, h := range newCanonical {
		if err := w.canon.SetCanonicalAt(h.Number, h.Hash()); err != nil {
			return nil, nil, err
		}
	}
	if err := w.canon.SetHead(tip.Hash()); err != nil {
		return nil, nil, err
	}
	log.Debug("Set canonical chain head", "number", tip.Number, "hash", tip.Hash(), "new", len(newCanonical), "old", len(oldCanonical))
	return newCanonical, oldCanonical, nil
}

// findNewAncestors walks parent pointers from tip until it rejoins the
// existing canonical chain (or reaches genesis), returning the walked
// headers in ascending block-number order (spec.md §4.E Phase 6.1).
//
// The reference algorithm models this as a lazy generator terminated by
// either condition (spec.md §9's design note); there's no need for a
// custom iterator type in Go, so this collects eagerly, descending from
// tip, and reverses once at the end.
func (w *ChainWriter) findNewAncestors(tip *types.Header) ([]*types.Header, error) {
	var descending []*types.Header
	h := tip
	for {
		orig, err := w.canon.GetCanonicalHeaderByNumber(h.Number)
		switch {
		case err == nil && orig.Hash() == h.Hash():
			// Found the common ancestor: stop without including it.
			return reverseHeaders(descending), nil
		case err != nil && !errors.Is(err, ErrHeaderNotFound):
			return nil, err
		}

		descending = append(descending, h)

		if h.IsGenesis() {
			return reverseHeaders(descending), nil
		}
		parent, err := w.store.GetHeaderByHash(h.ParentHash)
		if err != nil {
			return nil, corruptionf("ancestor walk: missing parent %x of #%d %x", h.ParentHash, h.Number, h.Hash())
		}
		h = parent
	}
}

func reverseHeaders(in []*types.Header) []*types.Header {
	out := make([]*types.Header, len(in))
	for i, h := range in {
		out[len(in)-1-i] = h
	}
	return out
}
