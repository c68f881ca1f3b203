package iterator

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
)

// All emits every integer in [low, high) densely, in dir order
// (spec.md §4.1). It is the fallback producer when no index
// restriction applies (spec.md §4.4 step 4).
type All struct {
	low, high graphd.ID
	dir       graphd.Direction
	orig      *original
	cur       graphd.ID
	has       bool

	sawAny bool
	lastID graphd.ID
}

func NewAll(low, high graphd.ID, dir graphd.Direction) *All {
	a := &All{low: low, high: high, dir: dir, orig: newOriginal()}
	a.resetPosition()
	return a
}

func (a *All) resetPosition() {
	if a.dir == graphd.Forward {
		a.cur, a.has = a.low, a.low < a.high
	} else {
		a.cur, a.has = a.high-1, a.low < a.high
	}
	a.sawAny = false
}

func (a *All) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	if !a.has {
		return graphd.NoID, graphd.ErrNo
	}
	id := a.cur
	if a.dir == graphd.Forward {
		a.cur++
		a.has = a.cur < a.high
	} else {
		if a.cur == a.low {
			a.has = false
		} else {
			a.cur--
		}
	}
	a.sawAny = true
	a.lastID = id
	return id, nil
}

func (a *All) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	if a.dir == graphd.Forward {
		if inID > a.cur {
			a.cur = inID
		}
	} else {
		if inID < a.cur {
			a.cur = inID
		}
	}
	a.has = inRange(a.cur, a.low, a.high)
	if !a.has {
		return graphd.NoID, graphd.ErrNo
	}
	id := a.cur
	if a.dir == graphd.Forward {
		a.cur++
	} else if a.cur == a.low {
		a.has = false
	} else {
		a.cur--
	}
	a.sawAny = true
	a.lastID = id
	return id, nil
}

func (a *All) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	if inRange(id, a.low, a.high) {
		return nil
	}
	return graphd.ErrNo
}

func (a *All) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := a.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	s := Stats{N: int64(a.high - a.low), CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true, Ordered: false}
	a.orig.cacheStats(s)
	return s, nil
}

func (a *All) Reset() { a.resetPosition() }

func (a *All) Clone() Iterator {
	a.orig.retain()
	c := &All{low: a.low, high: a.high, dir: a.dir, orig: a.orig, cur: a.cur, has: a.has, sawAny: a.sawAny, lastID: a.lastID}
	return c
}

func (a *All) Freeze(flags FreezeFlags) (string, error) {
	s := fmt.Sprintf("all(%d,%d,%s)", a.low, a.high, a.dir)
	if flags.Has(FreezePosition) {
		if a.sawAny {
			s += fmt.Sprintf("/%d", a.lastID)
		} else {
			s += "/^"
		}
	}
	return s, nil
}

func (a *All) Beyond(string) (bool, error) { return false, nil }
func (a *All) PrimitiveSummary() Summary   { return Summary{} }
func (a *All) Low() graphd.ID              { return a.low }
func (a *All) High() graphd.ID             { return a.high }
func (a *All) Direction() graphd.Direction { return a.dir }
func (a *All) TypeTag() string             { return "all" }
