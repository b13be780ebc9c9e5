package headerdb

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ethergate/headerdb/core/rawdb"
	"github.com/ethergate/headerdb/core/types"
)

// CanonicalIndex is the mapping from block number to canonical hash, plus
// the head pointer (spec.md §4.D). It exposes no consistency guarantees
// of its own: ChainWriter is the only caller expected to maintain the
// invariants of spec.md §3.
type CanonicalIndex struct {
	db    rawdb.KeyValueStore
	store *HeaderStore
}

// NewCanonicalIndex builds a canonical index over db, resolving headers
// it names through store.
func NewCanonicalIndex(db rawdb.KeyValueStore, store *HeaderStore) *CanonicalIndex {
	return &CanonicalIndex{db: db, store: store}
}

// GetCanonicalHash returns the hash recorded as canonical at number.
// Returns ErrHeaderNotFound if no mapping exists.
func (c *CanonicalIndex) GetCanonicalHash(number uint64) (common.Hash, error) {
	hash := rawdb.ReadCanonicalHash(c.db, number)
	if hash == (common.Hash{}) {
		return common.Hash{}, canonicalNotFoundf(number)
	}
	return hash, nil
}

// GetCanonicalHeaderByNumber composes GetCanonicalHash with the header
// store.
func (c *CanonicalIndex) GetCanonicalHeaderByNumber(number uint64) (*types.Header, error) {
	hash, err := c.GetCanonicalHash(number)
	if err != nil {
		return nil, err
	}
	return c.store.GetHeaderByHash(hash)
}

// GetCanonicalHead returns the header of the current canonical head.
// Returns ErrCanonicalHeadNotFound if the head pointer is unset (an empty
// database), and ErrCorruption if it names a header the store cannot
// return.
func (c *CanonicalIndex) GetCanonicalHead() (*types.Header, error) {
	hash := rawdb.ReadHeadHash(c.db)
	if hash == (common.Hash{}) {
		return nil, ErrCanonicalHeadNotFound
	}
	head, err := c.store.GetHeaderByHash(hash)
	if err != nil {
		return nil, corruptionf("canonical head %x has no stored header: %v", hash, err)
	}
	return head, nil
}

// TryGetCanonicalHead is the non-error-returning probe the chain writer
// uses to detect "empty database" (spec.md §9's redesign note: prefer an
// explicit optional-returning probe over catching ErrCanonicalHeadNotFound
// as control flow). The boolean is false when no head has been set, and
// also when the head names a header the store cannot return.
func (c *CanonicalIndex) TryGetCanonicalHead() (*types.Header, bool) {
	hash := rawdb.ReadHeadHash(c.db)
	if hash == (common.Hash{}) {
		return nil, false
	}
	header, err := c.store.GetHeaderByHash(hash)
	if err != nil {
		// The head pointer names a hash the store doesn't have: that's
		// not "no head set", it's backend corruption. Callers that need
		// to distinguish the two should call GetCanonicalHead instead.
		return nil, false
	}
	return header, true
}

// SetCanonicalAt records hash as canonical at number, silently
// overwriting any previous mapping.
func (c *CanonicalIndex) SetCanonicalAt(number uint64, hash common.Hash) error {
	return rawdb.WriteCanonicalHash(c.db, number, hash)
}

// DeleteCanonicalAt removes the canonical mapping at number, if any.
func (c *CanonicalIndex) DeleteCanonicalAt(number uint64) error {
	return rawdb.DeleteCanonicalHash(c.db, number)
}

// SetHead sets the canonical head pointer to hash.
func (c *CanonicalIndex) SetHead(hash common.Hash) error {
	return rawdb.WriteHeadHash(c.db, hash)
}
