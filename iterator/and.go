package iterator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerwatch/graphd"
)

// andPlan is cached on the original so every clone of an And shares
// the same producer/checker assignment instead of re-planning
// (spec.md §4.1 "Join planning inside and").
type andPlan struct {
	producer      int
	checkerOrder  []int
	ready         bool
}

// And is the sorted intersection over k sub-iterators (spec.md
// §4.1). It defers to each sub's Statistics to pick the cheapest
// next-cost sub as producer and checks the rest in ascending
// check-cost order, short-circuiting on ErrNo — grounded on the
// teacher's findMergeRange cheapest-first tie-break.
type And struct {
	subs   []Iterator
	dir    graphd.Direction
	low    graphd.ID
	high   graphd.ID
	orig   *original
	plan   *andPlan
	lastID graphd.ID
	sawAny bool
}

// NewAnd builds an And over subs, which must all share dir. low/high
// is the intersection of the sub ranges.
func NewAnd(subs []Iterator, dir graphd.Direction) *And {
	low, high := graphd.ID(0), ^graphd.ID(0)
	for _, s := range subs {
		if s.Low() > low {
			low = s.Low()
		}
		if s.High() < high {
			high = s.High()
		}
	}
	if high < low {
		high = low
	}
	return &And{subs: subs, dir: dir, low: low, high: high, orig: newOriginal(), plan: &andPlan{}, lastID: graphd.NoID}
}

func (a *And) ensurePlanned(budget *graphd.Budget) error {
	if a.plan.ready {
		return nil
	}
	type cost struct {
		idx       int
		nextCost  int64
		checkCost int64
	}
	costs := make([]cost, len(a.subs))
	for i, s := range a.subs {
		st, err := s.Statistics(budget)
		if err != nil {
			return err
		}
		costs[i] = cost{idx: i, nextCost: st.NextCost, checkCost: st.CheckCost}
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i].nextCost < costs[j].nextCost })
	producer := costs[0].idx
	var checkerOrder []int
	rest := costs[1:]
	sort.Slice(rest, func(i, j int) bool { return rest[i].checkCost < rest[j].checkCost })
	for _, c := range rest {
		checkerOrder = append(checkerOrder, c.idx)
	}
	a.plan.producer, a.plan.checkerOrder, a.plan.ready = producer, checkerOrder, true
	return nil
}

func (a *And) satisfies(id graphd.ID, budget *graphd.Budget) (bool, error) {
	for _, idx := range a.plan.checkerOrder {
		if err := a.subs[idx].Check(id, budget); err != nil {
			if err == graphd.ErrNo {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

func (a *And) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := a.ensurePlanned(budget); err != nil {
		return graphd.NoID, err
	}
	producer := a.subs[a.plan.producer]
	for {
		id, err := producer.Next(budget)
		if err != nil {
			return graphd.NoID, err
		}
		ok, err := a.satisfies(id, budget)
		if err != nil {
			return graphd.NoID, err
		}
		if ok {
			a.lastID, a.sawAny = id, true
			return id, nil
		}
	}
}

func (a *And) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := a.ensurePlanned(budget); err != nil {
		return graphd.NoID, err
	}
	producer := a.subs[a.plan.producer]
	id, err := producer.Find(inID, budget)
	if err != nil {
		return graphd.NoID, err
	}
	for {
		ok, err := a.satisfies(id, budget)
		if err != nil {
			return graphd.NoID, err
		}
		if ok {
			a.lastID, a.sawAny = id, true
			return id, nil
		}
		id, err = producer.Next(budget)
		if err != nil {
			return graphd.NoID, err
		}
	}
}

func (a *And) Check(id graphd.ID, budget *graphd.Budget) error {
	for _, s := range a.subs {
		if err := s.Check(id, budget); err != nil {
			return err
		}
	}
	return nil
}

func (a *And) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := a.orig.cachedStats(); ok {
		return s, nil
	}
	if err := a.ensurePlanned(budget); err != nil {
		return Stats{}, err
	}
	min := int64(-1)
	for _, s := range a.subs {
		st, err := s.Statistics(budget)
		if err != nil {
			return Stats{}, err
		}
		if min == -1 || st.N < min {
			min = st.N
		}
	}
	producerStats, err := a.subs[a.plan.producer].Statistics(budget)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{N: min, Sorted: true, NextCost: producerStats.NextCost, CheckCost: producerStats.CheckCost, FindCost: producerStats.FindCost}
	a.orig.cacheStats(s)
	return s, nil
}

func (a *And) Reset() {
	for _, s := range a.subs {
		s.Reset()
	}
	a.sawAny = false
	a.lastID = graphd.NoID
}

func (a *And) Clone() Iterator {
	a.orig.retain()
	clones := make([]Iterator, len(a.subs))
	for i, s := range a.subs {
		clones[i] = s.Clone()
	}
	return &And{subs: clones, dir: a.dir, low: a.low, high: a.high, orig: a.orig, plan: a.plan, lastID: graphd.NoID}
}

func (a *And) Freeze(flags FreezeFlags) (string, error) {
	var parts []string
	for _, s := range a.subs {
		p, err := s.Freeze(flags &^ FreezePosition &^ FreezeState)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	out := fmt.Sprintf("and(%s)", strings.Join(parts, ":"))
	if flags.Has(FreezePosition) {
		if a.sawAny {
			out += fmt.Sprintf("/%d", a.lastID)
		} else {
			out += "/^"
		}
	}
	if flags.Has(FreezeState) && a.plan.ready {
		out += fmt.Sprintf(":state(%d)", a.plan.producer)
	}
	return out, nil
}

func (a *And) Beyond(sortKey string) (bool, error) {
	if len(a.subs) == 0 {
		return true, nil
	}
	return a.subs[0].Beyond(sortKey)
}

func (a *And) PrimitiveSummary() Summary {
	merged := Summary{FixedLinkage: map[graphd.Linkage]graphd.GUID{}}
	for _, s := range a.subs {
		sum := s.PrimitiveSummary()
		for k, v := range sum.FixedLinkage {
			merged.FixedLinkage[k] = v
		}
		if sum.FixedValue != "" {
			merged.FixedValue = sum.FixedValue
		}
	}
	return merged
}

func (a *And) Low() graphd.ID              { return a.low }
func (a *And) High() graphd.ID             { return a.high }
func (a *And) Direction() graphd.Direction { return a.dir }
func (a *And) TypeTag() string             { return "and" }
