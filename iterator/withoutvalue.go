package iterator

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

// WithoutValue is the complement of "has any non-empty value"
// (spec.md §4.1). It scans the dense ID range and filters via the
// store reader, since no index exists for "no value" (the default
// comparator's vrange driver enumerates the no-value bucket as a bin
// instead; WithoutValue is the unindexed fallback used whenever that
// capability is absent).
type WithoutValue struct {
	reader pdb.Reader
	low    graphd.ID
	high   graphd.ID
	dir    graphd.Direction
	orig   *original
	cur    graphd.ID
	has    bool

	sawAny bool
	lastID graphd.ID
}

func NewWithoutValue(reader pdb.Reader, low, high graphd.ID, dir graphd.Direction) *WithoutValue {
	w := &WithoutValue{reader: reader, low: low, high: high, dir: dir, orig: newOriginal()}
	w.Reset()
	return w
}

func (w *WithoutValue) Reset() {
	if w.dir == graphd.Forward {
		w.cur, w.has = w.low, w.low < w.high
	} else {
		w.cur, w.has = w.high-1, w.low < w.high
	}
}

func (w *WithoutValue) step() {
	if w.dir == graphd.Forward {
		w.cur++
		w.has = w.cur < w.high
	} else if w.cur == w.low {
		w.has = false
	} else {
		w.cur--
	}
}

func (w *WithoutValue) qualifies(id graphd.ID) (bool, error) {
	p, err := w.reader.ReadID(id)
	if err != nil {
		return false, err
	}
	return !p.HasValue(), nil
}

func (w *WithoutValue) Next(budget *graphd.Budget) (graphd.ID, error) {
	for {
		if err := budget.Charge(CostNext); err != nil {
			return graphd.NoID, err
		}
		if !w.has {
			return graphd.NoID, graphd.ErrNo
		}
		id := w.cur
		w.step()
		ok, err := w.qualifies(id)
		if err != nil {
			return graphd.NoID, err
		}
		if ok {
			w.sawAny = true
			w.lastID = id
			return id, nil
		}
	}
}

func (w *WithoutValue) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if w.dir == graphd.Forward && inID > w.cur {
		w.cur = inID
	} else if w.dir == graphd.Backward && inID < w.cur {
		w.cur = inID
	}
	w.has = inRange(w.cur, w.low, w.high)
	return w.Next(budget)
}

func (w *WithoutValue) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	if !inRange(id, w.low, w.high) {
		return graphd.ErrNo
	}
	ok, err := w.qualifies(id)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return graphd.ErrNo
}

func (w *WithoutValue) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := w.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	// Without a store-side count of valueless primitives, estimate
	// half the range qualifies (spec.md §9's case_vrange_statistics
	// note: planner tie-breaks only need to stay deterministic, not
	// the estimate exact).
	s := Stats{N: int64(w.high-w.low) / 2, CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true}
	w.orig.cacheStats(s)
	return s, nil
}

func (w *WithoutValue) Clone() Iterator {
	w.orig.retain()
	c := &WithoutValue{reader: w.reader, low: w.low, high: w.high, dir: w.dir, orig: w.orig,
		cur: w.cur, has: w.has, sawAny: w.sawAny, lastID: w.lastID}
	return c
}

func (w *WithoutValue) Freeze(flags FreezeFlags) (string, error) {
	out := fmt.Sprintf("withoutvalue(%d,%d,%s)", w.low, w.high, w.dir)
	if flags.Has(FreezePosition) {
		if w.sawAny {
			out += fmt.Sprintf("/%d", w.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (w *WithoutValue) Beyond(string) (bool, error) { return false, nil }
func (w *WithoutValue) PrimitiveSummary() Summary   { return Summary{HasValue: false} }
func (w *WithoutValue) Low() graphd.ID              { return w.low }
func (w *WithoutValue) High() graphd.ID             { return w.high }
func (w *WithoutValue) Direction() graphd.Direction { return w.dir }
func (w *WithoutValue) TypeTag() string             { return "withoutvalue" }
