package headerdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ethergate/headerdb/core/rawdb"
	"github.com/ethergate/headerdb/core/types"
)

// HeaderStore is a typed, cached wrapper over the backend's header and
// score keyspace (spec.md §4.C). It performs no ordering or linkage
// checks of its own; that's the chain writer's job. It owns the codec
// cache, so two HeaderStores over the same backend do not share
// memoization — callers construct exactly one per open database.
type HeaderStore struct {
	db    rawdb.KeyValueStore
	cache *rawdb.DecodeCache
}

// NewHeaderStore wraps db with a codec cache of the given size. A
// non-positive size falls back to rawdb.DecodeCacheLimit.
func NewHeaderStore(db rawdb.KeyValueStore, cacheSize int) *HeaderStore {
	return &HeaderStore{db: db, cache: rawdb.NewDecodeCache(cacheSize)}
}

// GetHeaderByHash returns the header stored under hash, decoding (through
// the codec cache) if necessary. Returns ErrHeaderNotFound if absent.
func (s *HeaderStore) GetHeaderByHash(hash common.Hash) (*types.Header, error) {
	if header, ok := s.cache.Get(hash); ok {
		return header, nil
	}
	enc := rawdb.ReadHeaderRLP(s.db, hash)
	if enc == nil {
		return nil, headerNotFoundf(hash)
	}
	header, err := rawdb.DecodeHeader(enc)
	if err != nil {
		return nil, corruptionf("undecodable header %x: %v", hash, err)
	}
	s.cache.Add(hash, header)
	return header, nil
}

// HeaderExists reports whether a header is present in the backend.
func (s *HeaderStore) HeaderExists(hash common.Hash) bool {
	if s.cache.Contains(hash) {
		return true
	}
	return rawdb.HasHeader(s.db, hash)
}

// GetScore returns the cumulative difficulty recorded for hash. Returns
// ErrHeaderNotFound if absent — score presence implies header presence,
// so the same error kind is reused deliberately (spec.md §4.C).
func (s *HeaderStore) GetScore(hash common.Hash) (*uint256.Int, error) {
	enc := rawdb.ReadScoreRLP(s.db, hash)
	if enc == nil {
		return nil, headerNotFoundf(hash)
	}
	score, err := rawdb.DecodeScore(enc)
	if err != nil {
		return nil, corruptionf("undecodable score for %x: %v", hash, err)
	}
	return score, nil
}

// PutHeader writes header to the backend, keyed by its hash. Idempotent.
func (s *HeaderStore) PutHeader(header *types.Header) error {
	enc, err := rawdb.EncodeHeader(header)
	if err != nil {
		return err
	}
	hash := header.Hash()
	if err := rawdb.WriteHeaderRLP(s.db, hash, enc); err != nil {
		return err
	}
	s.cache.Add(hash, header)
	return nil
}

// PutScore records score for the header identified by hash. Idempotent.
func (s *HeaderStore) PutScore(hash common.Hash, score *uint256.Int) error {
	return rawdb.WriteScore(s.db, hash, score)
}
