// Package rawdb implements the low-level, schema-aware encoding of the
// header database's persisted keyspace (spec.md §4.A) and the typed
// accessors built on top of it (spec.md §4.C backend plumbing).
//
// Keys are opaque outside this package; every other package reaches the
// backend only through the functions here.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Key namespace prefixes. Chosen the way go-ethereum's own core/rawdb
// schema chooses them: short ASCII tags that can't collide with a 32-byte
// hash (headerKey uses the raw hash with no prefix at all, so every other
// prefix must be a byte sequence no valid hash prefix could produce by
// coincidence over enough samples to matter in practice — the same
// assumption go-ethereum's schema makes for its own "h"/"H" prefixes).
var (
	scorePrefix     = []byte("score:")
	canonicalPrefix = []byte("block-number-to-hash:")
	headKey         = []byte("canonical-head-hash")
)

// headerKey derives the backend key for a header, keyed directly by its
// content hash (spec.md §4.A: "content-addressed lookup").
func headerKey(hash common.Hash) []byte {
	return hash.Bytes()
}

// scoreKey derives the backend key for a header's cumulative difficulty.
func scoreKey(hash common.Hash) []byte {
	return append(append([]byte{}, scorePrefix...), hash.Bytes()...)
}

// canonicalKey derives the backend key for the canonical hash at a block
// number, as a fixed-width 8-byte big-endian integer so ordering on the
// backend (if it preserves key order) matches block-number order.
func canonicalKey(number uint64) []byte {
	key := make([]byte, len(canonicalPrefix)+8)
	copy(key, canonicalPrefix)
	binary.BigEndian.PutUint64(key[len(canonicalPrefix):], number)
	return key
}

// headKeyConst derives the fixed backend key for the canonical head
// pointer.
func headKeyConst() []byte {
	return headKey
}
