package iterator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ledgerwatch/graphd"
)

// Sorted wraps an explicit, already-ordered id list (spec.md §4.4 step
// 5's heap-backed sorter): unlike every other producer, its emission
// order is a sort key's order, not ascending/descending id order, so
// it cannot reuse Fixed's roaring-bitmap storage (which is always
// walked in id order). Find recovers position by exact-match lookup
// rather than an inequality seek, since "the next element after this
// one" has no relationship to id comparison here.
type Sorted struct {
	heavy *sortedHeavy
	orig  *original
	idx   int

	sawAny bool
	lastID graphd.ID
}

type sortedHeavy struct {
	ids []graphd.ID
}

// NewSorted wraps ids (already in final emission order) as an
// Iterator. Direction always reports Forward, since ids's own order is
// authoritative; Low/High span the ids present.
func NewSorted(ids []graphd.ID) *Sorted {
	s := &Sorted{heavy: &sortedHeavy{ids: ids}, orig: newOriginal()}
	return s
}

func (s *Sorted) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	if s.idx >= len(s.heavy.ids) {
		return graphd.NoID, graphd.ErrNo
	}
	id := s.heavy.ids[s.idx]
	s.idx++
	s.sawAny = true
	s.lastID = id
	return id, nil
}

// Find recovers position by locating the exact id most recently
// emitted (spec.md §4.7's position-recovery contract), then resuming
// just after it. If the id is no longer present (the underlying
// result set changed between freeze and thaw), recovery conservatively
// reports exhaustion rather than guessing a position.
func (s *Sorted) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	for i, id := range s.heavy.ids {
		if id == inID {
			s.idx = i + 1
			s.sawAny = true
			s.lastID = id
			return id, nil
		}
	}
	s.idx = len(s.heavy.ids)
	return graphd.NoID, graphd.ErrNo
}

func (s *Sorted) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	for _, x := range s.heavy.ids {
		if x == id {
			return nil
		}
	}
	return graphd.ErrNo
}

func (s *Sorted) Statistics(budget *graphd.Budget) (Stats, error) {
	if st, ok := s.orig.cachedStats(); ok {
		return st, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	st := Stats{N: int64(len(s.heavy.ids)), CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: false}
	s.orig.cacheStats(st)
	return st, nil
}

func (s *Sorted) Reset() { s.idx = 0; s.sawAny = false }

func (s *Sorted) Clone() Iterator {
	s.orig.retain()
	c := &Sorted{heavy: s.heavy, orig: s.orig, idx: s.idx, sawAny: s.sawAny, lastID: s.lastID}
	return c
}

func (s *Sorted) Freeze(flags FreezeFlags) (string, error) {
	var b strings.Builder
	b.WriteString("sorted(")
	if flags.Has(FreezeSet) {
		for i, id := range s.heavy.ids {
			if i > 0 {
				b.WriteByte(':')
			}
			b.WriteString(strconv.FormatUint(uint64(id), 10))
		}
	}
	b.WriteByte(')')
	if flags.Has(FreezePosition) {
		if s.sawAny {
			fmt.Fprintf(&b, "/%d", s.lastID)
		} else {
			b.WriteString("/^")
		}
	}
	return b.String(), nil
}

func (s *Sorted) Beyond(string) (bool, error) { return false, nil }
func (s *Sorted) PrimitiveSummary() Summary   { return Summary{} }
func (s *Sorted) Low() graphd.ID {
	if len(s.heavy.ids) == 0 {
		return 0
	}
	low := s.heavy.ids[0]
	for _, id := range s.heavy.ids {
		if id < low {
			low = id
		}
	}
	return low
}
func (s *Sorted) High() graphd.ID {
	if len(s.heavy.ids) == 0 {
		return 0
	}
	high := s.heavy.ids[0]
	for _, id := range s.heavy.ids {
		if id > high {
			high = id
		}
	}
	return high + 1
}
func (s *Sorted) Direction() graphd.Direction { return graphd.Forward }
func (s *Sorted) TypeTag() string             { return "sorted" }
