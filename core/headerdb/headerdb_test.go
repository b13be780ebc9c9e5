package headerdb

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"

	"github.com/ethergate/headerdb/core/types"
)

// newTestChain wires a fresh in-memory backend the way cmd/headerdb wires
// a real one: one HeaderStore, one CanonicalIndex, one ChainWriter, all
// sharing the same database.
func newTestChain() *ChainWriter {
	db := memorydb.New()
	store := NewHeaderStore(db, 0)
	canon := NewCanonicalIndex(db, store)
	return NewChainWriter(store, canon)
}

// header builds a header with the given parent, number and difficulty,
// leaving every other consensus field at its zero value — irrelevant to
// the header database core, which never inspects them.
func header(parent common.Hash, number, difficulty uint64) *types.Header {
	return &types.Header{
		ParentHash: parent,
		Number:     number,
		Difficulty: uint256.NewInt(difficulty),
		Time:       number, // monotonic, arbitrary, just for readability in failures
	}
}

func genesisHeader(difficulty uint64) *types.Header {
	return header(types.GenesisParentHash, 0, difficulty)
}

func assertHashes(t *testing.T, label string, got []*types.Header, want []*types.Header) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d headers, want %d", label, len(got), len(want))
	}
	for i := range got {
		if got[i].Hash() != want[i].Hash() {
			t.Errorf("%s[%d]: got hash %x, want %x", label, i, got[i].Hash(), want[i].Hash())
		}
	}
}

func mustScore(t *testing.T, w *ChainWriter, hash common.Hash) *uint256.Int {
	t.Helper()
	score, err := w.store.GetScore(hash)
	if err != nil {
		t.Fatalf("GetScore(%x): %v", hash, err)
	}
	return score
}

// TestBootstrap covers spec.md §8 scenario 1: a lone genesis header on an
// empty database installs the head unconditionally.
func TestBootstrap(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(17)

	newC, oldC, err := w.Persist(g)
	if err != nil {
		t.Fatalf("Persist(genesis): %v", err)
	}
	assertHashes(t, "new", newC, []*types.Header{g})
	assertHashes(t, "old", oldC, nil)

	head, err := w.canon.GetCanonicalHead()
	if err != nil {
		t.Fatalf("GetCanonicalHead: %v", err)
	}
	if head.Hash() != g.Hash() {
		t.Fatalf("head = %x, want genesis %x", head.Hash(), g.Hash())
	}
	if score := mustScore(t, w, g.Hash()); score.Uint64() != 17 {
		t.Fatalf("score(genesis) = %v, want 17", score)
	}
}

// TestLinearExtension covers spec.md §8 scenario 2.
func TestLinearExtension(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(17)
	mustPersist(t, w, g)

	a := header(g.Hash(), 1, 20)
	b := header(a.Hash(), 2, 21)

	newC, oldC, err := w.PersistChain([]*types.Header{a, b})
	if err != nil {
		t.Fatalf("PersistChain: %v", err)
	}
	assertHashes(t, "new", newC, []*types.Header{a, b})
	assertHashes(t, "old", oldC, nil)

	if score := mustScore(t, w, b.Hash()); score.Uint64() != 58 {
		t.Fatalf("score(B) = %v, want 58", score)
	}
	head, _ := w.canon.GetCanonicalHead()
	if head.Hash() != b.Hash() {
		t.Fatalf("head = %x, want B %x", head.Hash(), b.Hash())
	}
}

// TestLosingForkThenWinningReorg covers spec.md §8 scenarios 3 and 4.
func TestLosingForkThenWinningReorg(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(17)
	mustPersist(t, w, g)
	a := header(g.Hash(), 1, 20)
	b := header(a.Hash(), 2, 21)
	mustPersistChain(t, w, a, b) // head score 58

	aPrime := header(g.Hash(), 1, 10)
	bPrime := header(aPrime.Hash(), 2, 10)

	// Scenario 3: losing fork, no reorg.
	newC, oldC, err := w.PersistChain([]*types.Header{aPrime, bPrime})
	if err != nil {
		t.Fatalf("PersistChain(losing fork): %v", err)
	}
	assertHashes(t, "new", newC, nil)
	assertHashes(t, "old", oldC, nil)

	head, _ := w.canon.GetCanonicalHead()
	if head.Hash() != b.Hash() {
		t.Fatalf("head after losing fork = %x, want B %x", head.Hash(), b.Hash())
	}
	// A' and B' remain individually readable with their own scores.
	if score := mustScore(t, w, bPrime.Hash()); score.Uint64() != 37 {
		t.Fatalf("score(B') = %v, want 37", score)
	}
	if _, err := w.store.GetHeaderByHash(aPrime.Hash()); err != nil {
		t.Fatalf("A' should remain addressable by hash: %v", err)
	}

	// Scenario 4: winning reorg.
	cPrime := header(bPrime.Hash(), 3, 100)
	newC, oldC, err = w.Persist(cPrime)
	if err != nil {
		t.Fatalf("Persist(C'): %v", err)
	}
	assertHashes(t, "new", newC, []*types.Header{aPrime, bPrime, cPrime})
	assertHashes(t, "old", oldC, []*types.Header{a, b})

	head, _ = w.canon.GetCanonicalHead()
	if head.Hash() != cPrime.Hash() {
		t.Fatalf("head after reorg = %x, want C' %x", head.Hash(), cPrime.Hash())
	}
	wantCanon := map[uint64]*types.Header{1: aPrime, 2: bPrime, 3: cPrime}
	for number, want := range wantCanon {
		got, err := w.canon.GetCanonicalHash(number)
		if err != nil {
			t.Fatalf("GetCanonicalHash(%d): %v", number, err)
		}
		if got != want.Hash() {
			t.Fatalf("canonical(%d) = %x, want %x", number, got, want.Hash())
		}
	}
}

// TestNonContiguousRejected covers spec.md §8 scenario 5.
func TestNonContiguousRejected(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(17)
	mustPersist(t, w, g)

	x := header(g.Hash(), 1, 10)
	z := header(common.Hash{1, 2, 3}, 2, 10) // wrong parent hash

	_, _, err := w.PersistChain([]*types.Header{x, z})
	if err == nil {
		t.Fatal("expected ValidationError for non-contiguous chain")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if w.store.HeaderExists(z.Hash()) {
		t.Fatal("database must be unchanged after a rejected chain")
	}
}

// TestUnknownParentRejected covers spec.md §8 scenario 6.
func TestUnknownParentRejected(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(17)
	mustPersist(t, w, g)

	y := header(common.Hash{9, 9, 9}, 1, 10)
	_, _, err := w.Persist(y)
	if err == nil {
		t.Fatal("expected ParentNotFound")
	}
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("got %v, want ErrParentNotFound", err)
	}
	if w.store.HeaderExists(y.Hash()) {
		t.Fatal("database must be unchanged after a rejected chain")
	}
}

// TestEmptyChainIsNoop covers the "empty input" boundary case.
func TestEmptyChainIsNoop(t *testing.T) {
	w := newTestChain()
	newC, oldC, err := w.PersistChain(nil)
	if err != nil || newC != nil || oldC != nil {
		t.Fatalf("PersistChain(nil) = (%v, %v, %v), want (nil, nil, nil)", newC, oldC, err)
	}
}

// TestTieScoreDoesNotReorg exercises the documented tie policy: a
// competing branch of exactly equal score never displaces the incumbent.
func TestTieScoreDoesNotReorg(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(10)
	mustPersist(t, w, g)
	a := header(g.Hash(), 1, 5)
	mustPersist(t, w, a) // score 15

	aPrime := header(g.Hash(), 1, 5) // identical score; the helper gives it A's Time, so override Time for a different hash
	aPrime.Time = 999

	newC, oldC, err := w.Persist(aPrime)
	if err != nil {
		t.Fatalf("Persist(A'): %v", err)
	}
	assertHashes(t, "new", newC, nil)
	assertHashes(t, "old", oldC, nil)

	head, _ := w.canon.GetCanonicalHead()
	if head.Hash() != a.Hash() {
		t.Fatalf("head after tie = %x, want original A %x", head.Hash(), a.Hash())
	}
}

// TestStaleCanonicalEntriesAreDeleted documents the open-question
// decision recorded in DESIGN.md: reorging to a shorter but heavier chain
// deletes canonical/<n> entries above the new head rather than orphaning
// them.
func TestStaleCanonicalEntriesAreDeleted(t *testing.T) {
	w := newTestChain()
	g := genesisHeader(1)
	mustPersist(t, w, g)
	a := header(g.Hash(), 1, 1)
	b := header(a.Hash(), 2, 1)
	c := header(b.Hash(), 3, 1)
	mustPersistChain(t, w, a, b, c) // head at #3, score 4

	// A heavier, shorter branch off genesis.
	aPrime := header(g.Hash(), 1, 10)
	mustPersist(t, w, aPrime) // score 11 > 4

	if _, err := w.canon.GetCanonicalHash(2); !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("canonical(2) should be deleted after reorg, got err=%v", err)
	}
	if _, err := w.canon.GetCanonicalHash(3); !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("canonical(3) should be deleted after reorg, got err=%v", err)
	}
}

func mustPersist(t *testing.T, w *ChainWriter, h *types.Header) {
	t.Helper()
	if _, _, err := w.Persist(h); err != nil {
		t.Fatalf("Persist(#%d): %v", h.Number, err)
	}
}

func mustPersistChain(t *testing.T, w *ChainWriter, headers ...*types.Header) {
	t.Helper()
	if _, _, err := w.PersistChain(headers); err != nil {
		t.Fatalf("PersistChain: %v", err)
	}
}
