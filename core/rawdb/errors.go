package rawdb

import "errors"

// errScoreOverflow is returned when a persisted score decodes to a value
// that no longer fits in 256 bits. It should never occur against a
// database this core itself wrote, since every write goes through
// WriteScore with a *uint256.Int; it can only happen against a corrupted
// or foreign database.
var errScoreOverflow = errors.New("rawdb: decoded score overflows 256 bits")
