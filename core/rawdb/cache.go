package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"

	"github.com/ethergate/headerdb/core/types"
)

// DecodeCacheLimit is the default number of decoded headers the codec
// cache holds onto. Header decoding recurs constantly during sync and
// during the chain writer's ancestor walks, which repeatedly re-fetch the
// same handful of recent ancestors; decoded headers are immutable, so
// memoizing them is free to do and cheap to bound. 128 is carried over
// from the original implementation's @functools.lru_cache(128) on its
// module-level decode function (spec.md §4.B, §9).
const DecodeCacheLimit = 128

// DecodeCache is a bounded, process-local memoization of header decoding
// keyed by content hash. It owns no backend state and is never persisted;
// it exists purely to avoid re-running RLP decoding for headers that were
// already decoded once. Safe for concurrent use.
type DecodeCache struct {
	headers *lru.Cache[common.Hash, *types.Header]
}

// NewDecodeCache builds a codec cache holding at most limit entries.
func NewDecodeCache(limit int) *DecodeCache {
	if limit <= 0 {
		limit = DecodeCacheLimit
	}
	return &DecodeCache{headers: lru.NewCache[common.Hash, *types.Header](limit)}
}

// Get returns the cached header for hash, if present.
func (c *DecodeCache) Get(hash common.Hash) (*types.Header, bool) {
	return c.headers.Get(hash)
}

// Add memoizes header under hash, evicting the least recently used entry
// if the cache is at capacity.
func (c *DecodeCache) Add(hash common.Hash, header *types.Header) {
	c.headers.Add(hash, header)
}

// Contains reports whether hash is currently memoized, without affecting
// recency order.
func (c *DecodeCache) Contains(hash common.Hash) bool {
	return c.headers.Contains(hash)
}

// Len reports the number of headers currently memoized.
func (c *DecodeCache) Len() int {
	return c.headers.Len()
}

// Purge evicts every entry. Used when the caller wants a cold cache, e.g.
// after a SetHead-style rewind invalidates a large swath of headers.
func (c *DecodeCache) Purge() {
	c.headers.Purge()
}
