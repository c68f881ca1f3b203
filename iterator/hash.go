package iterator

import (
	"encoding/hex"
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

// Hash wraps the primitive store's hash index (spec.md §4.1 "hash",
// §6.1 hash_iterator). Besides its live pdb.IDIterator it keeps the
// store handle, so Check and Clone can open an
// independent probe against the store without disturbing this
// iterator's own position — the store's iterator_find_nonstep
// contract (spec.md §6.1) is what lets Check seek without charging
// real iteration work beyond the constant op charge.
type Hash struct {
	kind  pdb.Kind
	bytes []byte
	low   graphd.ID
	high  graphd.ID
	dir   graphd.Direction
	store pdb.HashIndex
	orig  *original

	live   pdb.IDIterator
	sawAny bool
	lastID graphd.ID
}

func NewHash(store pdb.HashIndex, kind pdb.Kind, bytes []byte, low, high graphd.ID, dir graphd.Direction) (*Hash, error) {
	h := &Hash{kind: kind, bytes: append([]byte(nil), bytes...), low: low, high: high, dir: dir, store: store, orig: newOriginal(), lastID: graphd.NoID}
	it, err := store.HashIterator(kind, h.bytes, low, high, dir)
	if err != nil {
		return nil, err
	}
	h.live = it
	return h, nil
}

func (h *Hash) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	id, ok := h.live.Next()
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	h.lastID, h.sawAny = id, true
	return id, nil
}

func (h *Hash) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	id, ok := h.live.FindNonstep(inID)
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	h.lastID, h.sawAny = id, true
	return id, nil
}

func (h *Hash) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	probe, err := h.store.HashIterator(h.kind, h.bytes, h.low, h.high, h.dir)
	if err != nil {
		return fmt.Errorf("hash check: %w", err)
	}
	defer probe.Close()
	if got, ok := probe.FindNonstep(id); ok && got == id {
		return nil
	}
	return graphd.ErrNo
}

func (h *Hash) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := h.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	// Hash lookups are exact-match; without a store-side count we
	// estimate cardinality by draining a probe iterator, bounded by
	// the budget already charged above (a single flat stats charge -
	// good enough for the planner's tie-break, per spec.md §9's note
	// that estimates need not be exact).
	probe, err := h.store.HashIterator(h.kind, h.bytes, h.low, h.high, h.dir)
	if err != nil {
		return Stats{}, err
	}
	defer probe.Close()
	var n int64
	for {
		if _, ok := probe.Next(); !ok {
			break
		}
		n++
	}
	s := Stats{N: n, CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true}
	h.orig.cacheStats(s)
	return s, nil
}

func (h *Hash) Reset() {
	h.live.Close()
	it, _ := h.store.HashIterator(h.kind, h.bytes, h.low, h.high, h.dir)
	h.live = it
	h.sawAny = false
	h.lastID = graphd.NoID
}

func (h *Hash) Clone() Iterator {
	h.orig.retain()
	it, _ := h.store.HashIterator(h.kind, h.bytes, h.low, h.high, h.dir)
	return &Hash{kind: h.kind, bytes: h.bytes, low: h.low, high: h.high, dir: h.dir, store: h.store, orig: h.orig, live: it, lastID: graphd.NoID}
}

func (h *Hash) Freeze(flags FreezeFlags) (string, error) {
	out := fmt.Sprintf("hash(%d,%s,%d,%d,%s)", h.kind, hex.EncodeToString(h.bytes), h.low, h.high, h.dir)
	if flags.Has(FreezePosition) {
		if h.sawAny {
			out += fmt.Sprintf("/%d", h.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (h *Hash) Beyond(string) (bool, error) { return false, nil }
func (h *Hash) PrimitiveSummary() Summary {
	return Summary{FixedValue: string(h.bytes)}
}
func (h *Hash) Low() graphd.ID              { return h.low }
func (h *Hash) High() graphd.ID             { return h.high }
func (h *Hash) Direction() graphd.Direction { return h.dir }
func (h *Hash) TypeTag() string             { return "hash" }
