package rawdb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/ethergate/headerdb/core/types"
)

// KeyValueStore is the minimal backend contract the header database core
// requires (spec.md §6): a byte-keyed, byte-valued map supporting get,
// set, contains and delete. Every go-ethereum ethdb.KeyValueStore
// (including ethdb/memorydb and ethdb/leveldb) already implements this
// interface structurally; nothing in this package needs to know which
// concrete backend it's talking to.
type KeyValueStore interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Has(key []byte) (bool, error)
	Delete(key []byte) error
}

// ReadHeaderRLP returns the raw RLP encoding of the header with the given
// hash, or nil if it isn't present.
func ReadHeaderRLP(db KeyValueStore, hash common.Hash) rlp.RawValue {
	data, err := db.Get(headerKey(hash))
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

// HasHeader reports whether a header with the given hash is present.
func HasHeader(db KeyValueStore, hash common.Hash) bool {
	ok, err := db.Has(headerKey(hash))
	return err == nil && ok
}

// WriteHeaderRLP stores the raw RLP encoding of a header under its hash.
// Idempotent: writing the same header twice is a no-op the second time.
func WriteHeaderRLP(db KeyValueStore, hash common.Hash, encoded rlp.RawValue) error {
	return db.Put(headerKey(hash), encoded)
}

// ReadScoreRLP returns the raw big-endian-integer RLP encoding of the
// cumulative difficulty ("score") recorded for hash, or nil if absent.
func ReadScoreRLP(db KeyValueStore, hash common.Hash) rlp.RawValue {
	data, err := db.Get(scoreKey(hash))
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

// WriteScore stores the cumulative difficulty for hash.
func WriteScore(db KeyValueStore, hash common.Hash, score *uint256.Int) error {
	enc, err := rlp.EncodeToBytes(score)
	if err != nil {
		log.Crit("Failed to RLP encode score", "err", err)
	}
	return db.Put(scoreKey(hash), enc)
}

// ReadCanonicalHash returns the canonical hash recorded at block number,
// or the zero hash if none is recorded.
func ReadCanonicalHash(db KeyValueStore, number uint64) common.Hash {
	data, err := db.Get(canonicalKey(number))
	if err != nil || len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteCanonicalHash records hash as canonical at block number, silently
// overwriting any previous mapping.
func WriteCanonicalHash(db KeyValueStore, number uint64, hash common.Hash) error {
	return db.Put(canonicalKey(number), hash.Bytes())
}

// DeleteCanonicalHash removes the canonical mapping at block number, if
// any. Used by the optional stale-entry cleanup in the chain writer
// (spec.md §9 open question, resolved in DESIGN.md to delete rather than
// orphan).
func DeleteCanonicalHash(db KeyValueStore, number uint64) error {
	return db.Delete(canonicalKey(number))
}

// ReadHeadHash returns the hash of the current canonical head, or the
// zero hash if no head has ever been set (empty database).
func ReadHeadHash(db KeyValueStore) common.Hash {
	data, err := db.Get(headKeyConst())
	if err != nil || len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadHash sets the canonical head pointer to hash.
func WriteHeadHash(db KeyValueStore, hash common.Hash) error {
	return db.Put(headKeyConst(), hash.Bytes())
}

// DecodeScore decodes the minimal big-endian-integer RLP encoding used for
// scores back into a *uint256.Int. An empty encoding decodes to zero, per
// spec.md §6's "zero encodes as empty byte string".
func DecodeScore(enc rlp.RawValue) (*uint256.Int, error) {
	var bi big.Int
	if err := rlp.DecodeBytes(enc, &bi); err != nil {
		return nil, err
	}
	score, overflow := uint256.FromBig(&bi)
	if overflow {
		return nil, errScoreOverflow
	}
	return score, nil
}

// DecodeHeader decodes the RLP encoding of a header. It does not consult
// or populate the codec cache; callers that want memoization go through
// HeaderStore instead, which wraps this function with a *DecodeCache.
func DecodeHeader(enc rlp.RawValue) (*types.Header, error) {
	header := new(types.Header)
	if err := rlp.DecodeBytes(enc, header); err != nil {
		return nil, err
	}
	return header, nil
}

// EncodeHeader returns the canonical RLP encoding of header.
func EncodeHeader(header *types.Header) (rlp.RawValue, error) {
	return rlp.EncodeToBytes(header)
}
