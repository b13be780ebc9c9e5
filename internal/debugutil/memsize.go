// Package debugutil backs the `headerdb memsize` command with a live
// report of how much heap the running process's caches hold, the same
// diagnostic go-ethereum's internal/debug package exposes for its tries
// and trie caches.
package debugutil

import (
	"github.com/fjl/memsize"
)

// Reportable is anything the memsize command can measure: HeaderStore's
// codec cache and CanonicalIndex's in-process state both qualify, since
// memsize.Scan walks arbitrary pointer graphs.
type Reportable interface{}

// Report walks the given roots and returns a human-readable breakdown of
// retained heap, in the same shape `memsize.Scan(...).Report()` produces
// for go-ethereum's own debug.MemStats endpoint. memsize.Scan takes one
// root, which must be a non-nil pointer, and walks every pointer it can
// reach from it, so multiple roots are passed in as a pointer to a single
// slice.
func Report(roots ...Reportable) string {
	sizes := memsize.Scan(&roots)
	return sizes.Report()
}
