// Package types defines the consensus header record persisted by the
// header database core.
package types

import (
	"io"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// GenesisParentHash is the conventional parent hash of the genesis header:
// 32 zero bytes. A header whose ParentHash equals this value is treated as
// genesis by the chain writer, regardless of its block number.
var GenesisParentHash common.Hash

// Bloom is a 2048-bit log bloom filter, carried unchanged from block to
// block the way go-ethereum's consensus header does; the header database
// core never inspects its contents.
type Bloom [256]byte

// BlockNonce is the 64-bit consensus nonce.
type BlockNonce [8]byte

// Header is an immutable consensus header. Headers are never mutated after
// they are handed to the header store; copy a Header with CopyHeader before
// changing any field.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"       gencodec:"required"`
	UncleHash   common.Hash    `json:"sha3Uncles"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Bloom       Bloom          `json:"logsBloom"`
	Difficulty  *uint256.Int   `json:"difficulty"       gencodec:"required"`
	Number      uint64         `json:"number"           gencodec:"required"`
	GasLimit    uint64         `json:"gasLimit"`
	GasUsed     uint64         `json:"gasUsed"`
	Time        uint64         `json:"timestamp"        gencodec:"required"`
	Extra       []byte         `json:"extraData"`
	MixDigest   common.Hash    `json:"mixHash"`
	Nonce       BlockNonce     `json:"nonce"`
}

// rlpHash is the canonical identity function of the core: a header's hash
// is the Keccak-256 digest of its RLP encoding. Keccak-256 itself is an
// external collaborator (spec.md §1); the header database core only ever
// calls into it through this one seam.
func rlpHash(x interface{}) (h common.Hash) {
	hw := crypto.NewKeccakState()
	rlp.Encode(hw, x)
	hw.Read(h[:])
	return h
}

// Hash returns the Keccak-256 hash of the header's RLP encoding. It is a
// pure function of the header's fields: the core treats a *Header as an
// immutable value once constructed, so repeated calls are cheap to make
// and never need a mutable cache field on the struct itself. Memoization
// of the (more expensive) decode-then-hash round trip lives one layer up,
// in the codec cache (core/rawdb/cache.go) that HeaderStore consults.
func (h *Header) Hash() common.Hash {
	return rlpHash(h)
}

// IsGenesis reports whether h declares itself the root of the chain by
// pointing at the conventional all-zero parent hash.
func (h *Header) IsGenesis() bool {
	return h.ParentHash == GenesisParentHash
}

// EmptyDifficulty reports whether d is nil or zero. A header must carry a
// strictly positive difficulty; this helper centralizes the nil-safe check
// since *uint256.Int has no usable zero value semantics of its own.
func EmptyDifficulty(d *uint256.Int) bool {
	return d == nil || d.IsZero()
}

// CopyHeader creates a deep copy of a header so that the caller can freely
// modify the result without racing or corrupting the original, immutable
// instance (e.g. one still referenced by the codec cache).
func CopyHeader(h *Header) *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(uint256.Int).Set(h.Difficulty)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}

var headerSize = common.StorageSize(reflect.TypeOf(Header{}).Size())

// Size returns the approximate in-memory size of the header: the struct
// itself plus its extra data and difficulty bytes.
func (h *Header) Size() common.StorageSize {
	var extra int
	if h.Difficulty != nil {
		extra += (h.Difficulty.BitLen() + 7) / 8
	}
	return headerSize + common.StorageSize(len(h.Extra)+extra)
}

// EncodeRLP implements rlp.Encoder, delegating to the default struct
// encoding. It exists only so other packages can depend on
// rlp.Encoder being satisfied explicitly without relying on reflection
// defaults at every call site.
func (h *Header) EncodeRLP(w io.Writer) error {
	type rlpHeader Header
	return rlp.Encode(w, (*rlpHeader)(h))
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	type rlpHeader Header
	var dec rlpHeader
	if err := s.Decode(&dec); err != nil {
		return err
	}
	*h = Header(dec)
	return nil
}
