package eval

import (
	"container/heap"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/comparator"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// sortItem is one candidate held in the bounded top-K heap, a
// multi-key sort comparison generalized from the single merge-key
// shape an ordered cursor heap typically uses.
type sortItem struct {
	id   graphd.ID
	keys []string // one rendered comparator key per SortKey, in order
}

// sortHeap is a max-heap over the *worst* element under keys/descs so
// the bounded top-K window can evict it in O(log k) once capacity is
// exceeded, via the standard container/heap.Interface shape.
type sortHeap struct {
	items []*sortItem
	keys  []constraint.SortKey
}

func (h *sortHeap) Len() int { return len(h.items) }

// Less reports whether items[i] ranks worse (later in final order)
// than items[j], so heap.Pop always evicts the current worst — the
// one bumped out first as better candidates arrive, keeping root at
// index 0 the worst surviving candidate.
func (h *sortHeap) Less(i, j int) bool {
	return effectiveCompare(h.items[i].keys, h.items[j].keys, h.keys) > 0
}
func (h *sortHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *sortHeap) Push(x any)    { h.items = append(h.items, x.(*sortItem)) }
func (h *sortHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// effectiveCompare compares a against b lexicographically over keys in
// order, honoring each SortKey's own comparator and Descending flag.
// Negative means a ranks before b in final emission order.
func effectiveCompare(a, b []string, keys []constraint.SortKey) int {
	for i, k := range keys {
		cmp := k.Comparator
		if cmp == nil {
			cmp = comparator.Default{}
		}
		c := cmp.SortCompare(a[i], b[i])
		if k.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// SortWrap applies spec.md §4.4 step 5: if keys is non-empty, drain
// producer into a bounded top-(limit) heap ordered by keys, then
// return a Sorted iterator over the final order. A producer already
// statistics-reported Sorted/Ordered compatibly with keys can be
// returned unchanged by the caller without ever calling SortWrap; this
// function always performs the full sort, since eval does not track a
// separate "already compatible" fast path for arbitrary multi-key
// sorts.
func SortWrap(producer iterator.Iterator, keys []constraint.SortKey, limit int, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if len(keys) == 0 {
		return producer, nil
	}
	if limit <= 0 {
		limit = 1
	}
	h := &sortHeap{keys: keys}
	heap.Init(h)
	for {
		id, err := producer.Next(budget)
		if err == graphd.ErrNo {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := deps.Reader.ReadID(id)
		if err != nil {
			return nil, err
		}
		item := &sortItem{id: id, keys: keyStrings(keys, p)}
		if h.Len() < limit {
			heap.Push(h, item)
		} else if effectiveCompare(item.keys, h.items[0].keys, keys) < 0 {
			// item ranks before the current worst survivor: it displaces it.
			h.items[0] = item
			heap.Fix(h, 0)
		}
	}
	// Popping a worst-first heap yields worst-to-best; reverse into
	// final best-to-worst emission order.
	ids := make([]graphd.ID, h.Len())
	for i := len(ids) - 1; i >= 0; i-- {
		ids[i] = heap.Pop(h).(*sortItem).id
	}
	return iterator.NewSorted(ids), nil
}

func keyStrings(keys []constraint.SortKey, p *pdb.Primitive) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		v, _ := stringField(p, k.Field)
		out[i] = v
	}
	return out
}
