// Package query implements the boolean filter expressions the
// `headerdb query` command runs over a range of canonical headers, e.g.
// "difficulty > 1000 and gas_used == 0".
package query

import (
	"github.com/hashicorp/go-bexpr"

	"github.com/ethergate/headerdb/core/types"
)

// filterView is the flattened, bexpr-taggable projection of the header
// fields a query expression is allowed to reference. Hashes are exposed
// as hex strings since bexpr has no byte-array selector syntax.
type filterView struct {
	Number     uint64 `bexpr:"number"`
	Difficulty uint64 `bexpr:"difficulty"`
	GasLimit   uint64 `bexpr:"gas_limit"`
	GasUsed    uint64 `bexpr:"gas_used"`
	Time       uint64 `bexpr:"time"`
	ParentHash string `bexpr:"parent_hash"`
}

// Filter holds an expression compiled once; Match tests each header
// against it. Compiling once and reusing the
// evaluator across a whole number range is the same shape bexpr's own
// CreateEvaluator is designed for: the parse cost is paid once, not once
// per header.
type Filter struct {
	evaluator *bexpr.Evaluator
}

// NewFilter compiles a bexpr expression over header fields.
// Difficulty is truncated to a uint64 for comparison purposes; headers
// whose difficulty doesn't fit are evaluated using its low 64 bits, which
// is an accepted approximation for ad-hoc querying, not consensus logic.
func NewFilter(expression string) (*Filter, error) {
	evaluator, err := bexpr.CreateEvaluator(expression)
	if err != nil {
		return nil, err
	}
	return &Filter{evaluator: evaluator}, nil
}

// Match reports whether h satisfies the compiled expression.
func (f *Filter) Match(h *types.Header) (bool, error) {
	view := filterView{
		Number:     h.Number,
		GasLimit:   h.GasLimit,
		GasUsed:    h.GasUsed,
		Time:       h.Time,
		ParentHash: h.ParentHash.Hex(),
	}
	if h.Difficulty != nil {
		view.Difficulty = h.Difficulty.Uint64()
	}
	return f.evaluator.Evaluate(view)
}
