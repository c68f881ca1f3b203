package iterator

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/ledgerwatch/graphd"
)

// orHead is one sub-iterator's pulled-ahead lookahead value. filled
// means a pull was attempted (has tells whether it produced a value);
// leaving filled false lets Next resume a partial pull across an
// ErrMore without losing already-filled heads.
type orHead struct {
	id     graphd.ID
	has    bool
	filled bool
}

// Or is the sorted union over k sub-iterators (spec.md §4.1). When
// every sub is sorted it does a lazy k-way merge; the moment any sub
// is unsorted, Or becomes unsorted itself and deduplicates by
// draining everything into a roaring.Bitmap, the canonical "set of
// ids" type used throughout this package.
type Or struct {
	subs []Iterator
	dir  graphd.Direction
	low  graphd.ID
	high graphd.ID
	orig *original

	planned  bool
	unsorted bool

	heads []orHead

	seen       *roaring.Bitmap
	drained    []bool
	allDrained bool
	emitIt     roaring.IntPeekable

	lastID graphd.ID
	sawAny bool
}

func NewOr(subs []Iterator, dir graphd.Direction) *Or {
	low, high := ^graphd.ID(0), graphd.ID(0)
	for _, s := range subs {
		if s.Low() < low {
			low = s.Low()
		}
		if s.High() > high {
			high = s.High()
		}
	}
	if high < low {
		low, high = 0, 0
	}
	return &Or{subs: subs, dir: dir, low: low, high: high, orig: newOriginal(), lastID: graphd.NoID}
}

func (o *Or) ensurePlanned(budget *graphd.Budget) error {
	if o.planned {
		return nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return err
	}
	for _, s := range o.subs {
		st, err := s.Statistics(budget)
		if err != nil {
			return err
		}
		if !st.Sorted {
			o.unsorted = true
		}
	}
	o.heads = make([]orHead, len(o.subs))
	o.drained = make([]bool, len(o.subs))
	if o.unsorted {
		o.seen = roaring.New()
	}
	o.planned = true
	return nil
}

func (o *Or) fillHead(i int, budget *graphd.Budget) error {
	if o.heads[i].filled {
		return nil
	}
	id, err := o.subs[i].Next(budget)
	if err != nil {
		if err == graphd.ErrNo {
			o.heads[i] = orHead{filled: true, has: false}
			return nil
		}
		return err
	}
	o.heads[i] = orHead{id: id, has: true, filled: true}
	return nil
}

func (o *Or) nextSorted(budget *graphd.Budget) (graphd.ID, error) {
	for i := range o.subs {
		if err := o.fillHead(i, budget); err != nil {
			return graphd.NoID, err
		}
	}
	best := graphd.NoID
	bestSet := false
	for _, h := range o.heads {
		if !h.has {
			continue
		}
		if !bestSet {
			best, bestSet = h.id, true
			continue
		}
		if o.dir == graphd.Forward && h.id < best {
			best = h.id
		} else if o.dir == graphd.Backward && h.id > best {
			best = h.id
		}
	}
	if !bestSet {
		return graphd.NoID, graphd.ErrNo
	}
	for i, h := range o.heads {
		if h.has && h.id == best {
			o.heads[i] = orHead{}
		}
	}
	o.lastID, o.sawAny = best, true
	return best, nil
}

func (o *Or) drainAll(budget *graphd.Budget) error {
	for i := range o.subs {
		if o.drained[i] {
			continue
		}
		for {
			id, err := o.subs[i].Next(budget)
			if err != nil {
				if err == graphd.ErrNo {
					o.drained[i] = true
					break
				}
				return err
			}
			o.seen.Add(uint32(id))
		}
	}
	o.allDrained = true
	return nil
}

func (o *Or) nextUnsorted(budget *graphd.Budget) (graphd.ID, error) {
	if !o.allDrained {
		if err := o.drainAll(budget); err != nil {
			return graphd.NoID, err
		}
		if o.dir == graphd.Forward {
			o.emitIt = o.seen.Iterator()
		} else {
			o.emitIt = o.seen.ReverseIterator()
		}
	}
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	if !o.emitIt.HasNext() {
		return graphd.NoID, graphd.ErrNo
	}
	id := graphd.ID(o.emitIt.Next())
	o.lastID, o.sawAny = id, true
	return id, nil
}

func (o *Or) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := o.ensurePlanned(budget); err != nil {
		return graphd.NoID, err
	}
	if o.unsorted {
		return o.nextUnsorted(budget)
	}
	return o.nextSorted(budget)
}

// Find is only defined for the sorted case (spec.md §4.1); when Or has
// gone unsorted, callers must drain via Next instead.
func (o *Or) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := o.ensurePlanned(budget); err != nil {
		return graphd.NoID, err
	}
	if o.unsorted {
		return graphd.NoID, ErrNotSorted
	}
	for i := range o.subs {
		if o.heads[i].filled && o.heads[i].has {
			if (o.dir == graphd.Forward && o.heads[i].id < inID) || (o.dir == graphd.Backward && o.heads[i].id > inID) {
				o.heads[i] = orHead{}
			}
		}
		if !o.heads[i].filled {
			id, err := o.subs[i].Find(inID, budget)
			if err != nil {
				if err == graphd.ErrNo {
					o.heads[i] = orHead{filled: true, has: false}
					continue
				}
				return graphd.NoID, err
			}
			o.heads[i] = orHead{id: id, has: true, filled: true}
		}
	}
	return o.nextSorted(budget)
}

func (o *Or) Check(id graphd.ID, budget *graphd.Budget) error {
	for _, s := range o.subs {
		if err := s.Check(id, budget); err == nil {
			return nil
		} else if err != graphd.ErrNo {
			return err
		}
	}
	return graphd.ErrNo
}

func (o *Or) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := o.orig.cachedStats(); ok {
		return s, nil
	}
	if err := o.ensurePlanned(budget); err != nil {
		return Stats{}, err
	}
	var total int64
	for _, s := range o.subs {
		st, err := s.Statistics(budget)
		if err != nil {
			return Stats{}, err
		}
		total += st.N
	}
	s := Stats{N: total, Sorted: !o.unsorted, NextCost: CostNext, CheckCost: CostCheck, FindCost: CostFind}
	o.orig.cacheStats(s)
	return s, nil
}

func (o *Or) Reset() {
	for _, s := range o.subs {
		s.Reset()
	}
	o.heads = make([]orHead, len(o.subs))
	o.drained = make([]bool, len(o.subs))
	o.allDrained = false
	if o.unsorted {
		o.seen = roaring.New()
	}
	o.sawAny = false
	o.lastID = graphd.NoID
}

func (o *Or) Clone() Iterator {
	o.orig.retain()
	clones := make([]Iterator, len(o.subs))
	for i, s := range o.subs {
		clones[i] = s.Clone()
	}
	c := &Or{subs: clones, dir: o.dir, low: o.low, high: o.high, orig: o.orig, lastID: graphd.NoID}
	return c
}

func (o *Or) Freeze(flags FreezeFlags) (string, error) {
	var parts []string
	for _, s := range o.subs {
		p, err := s.Freeze(flags &^ FreezePosition &^ FreezeState)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	out := fmt.Sprintf("or(%s)", strings.Join(parts, ":"))
	if flags.Has(FreezePosition) {
		if o.sawAny {
			out += fmt.Sprintf("/%d", o.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (o *Or) Beyond(sortKey string) (bool, error) {
	for _, s := range o.subs {
		beyond, err := s.Beyond(sortKey)
		if err != nil {
			return false, err
		}
		if !beyond {
			return false, nil
		}
	}
	return true, nil
}

func (o *Or) PrimitiveSummary() Summary { return Summary{} }
func (o *Or) Low() graphd.ID              { return o.low }
func (o *Or) High() graphd.ID             { return o.high }
func (o *Or) Direction() graphd.Direction { return o.dir }
func (o *Or) TypeTag() string             { return "or" }
