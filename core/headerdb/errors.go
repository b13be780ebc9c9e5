// Package headerdb implements the header persistence, score accumulation,
// canonical-chain bookkeeping, and reorg engine described in spec.md
// §§3-8: the "header database core" of an Ethereum-compatible node.
package headerdb

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Error kinds (spec.md §7). These are sentinel-wrapped so callers can test
// with errors.Is while still getting a descriptive message.

// ErrValidation reports a violated precondition on an input: a header
// with a nil or zero difficulty, or a non-contiguous header chain (parent
// hash or block number out of sequence). It is always returned before any
// side effect.
var ErrValidation = errors.New("headerdb: validation error")

// ErrHeaderNotFound reports that a requested header, or its score
// (score presence implies header presence, so the kind is reused), is
// absent from the backend. Expected control flow; callers may handle it.
var ErrHeaderNotFound = errors.New("headerdb: header not found")

// ErrCanonicalHeadNotFound reports that the head pointer is unset, i.e.
// the database is empty. The chain writer catches this internally to
// bootstrap (via TryGetCanonicalHead); it is only surfaced to external
// callers that call GetCanonicalHead directly.
var ErrCanonicalHeadNotFound = errors.New("headerdb: canonical head not found")

// ErrParentNotFound reports that persistence was attempted against an
// unknown non-genesis parent. The caller must back off and fetch the
// parent first.
var ErrParentNotFound = errors.New("headerdb: parent not found")

// ErrCorruption reports that an internal invariant was violated, e.g. the
// canonical head names a hash with no stored header. Unlike
// ErrHeaderNotFound this is never expected control flow: it signals the
// backend itself is inconsistent.
var ErrCorruption = errors.New("headerdb: internal corruption")

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func headerNotFoundf(hash common.Hash) error {
	return fmt.Errorf("%w: %x", ErrHeaderNotFound, hash)
}

func canonicalNotFoundf(number uint64) error {
	return fmt.Errorf("%w: no canonical header at number %d", ErrHeaderNotFound, number)
}

func parentNotFoundf(header, parent common.Hash) error {
	return fmt.Errorf("%w: header %x references parent %x", ErrParentNotFound, header, parent)
}

func corruptionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorruption, fmt.Sprintf(format, args...))
}
