package iterator

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/ledgerwatch/graphd"
)

// IDSet wraps an externally supplied ordered bitmap (spec.md §4.1
// "idset"). Unlike Fixed, it does not own the bitmap; heavy state is
// just a reference, and thaw can recover lazily from a position alone
// (spec.md §4.7) because the bitmap is assumed to be rebuildable by
// the caller from the same external source.
type IDSet struct {
	bitmap *roaring.Bitmap
	low    graphd.ID
	high   graphd.ID
	dir    graphd.Direction
	orig   *original
	it     roaring.IntPeekable
	has    bool
	cur    graphd.ID
	lastID graphd.ID
	sawAny bool
}

// NewIDSet wraps bitmap (not copied: the caller retains ownership,
// matching "wraps an externally supplied ordered idset").
func NewIDSet(bitmap *roaring.Bitmap, low, high graphd.ID, dir graphd.Direction) *IDSet {
	s := &IDSet{bitmap: bitmap, low: low, high: high, dir: dir, orig: newOriginal(), lastID: graphd.NoID}
	s.Reset()
	return s
}

func (s *IDSet) Reset() {
	rng := roaring.New()
	rng.AddRange(uint64(s.low), uint64(s.high))
	view := roaring.And(s.bitmap, rng)
	if s.dir == graphd.Forward {
		s.it = view.Iterator()
	} else {
		s.it = view.ReverseIterator()
	}
	s.advance()
}

func (s *IDSet) advance() {
	s.has = s.it.HasNext()
	if s.has {
		s.cur = graphd.ID(s.it.Next())
	}
}

func (s *IDSet) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	if !s.has {
		return graphd.NoID, graphd.ErrNo
	}
	id := s.cur
	s.lastID, s.sawAny = id, true
	s.advance()
	return id, nil
}

func (s *IDSet) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	for s.has {
		if s.dir == graphd.Forward && s.cur >= inID {
			break
		}
		if s.dir == graphd.Backward && s.cur <= inID {
			break
		}
		s.advance()
	}
	if !s.has {
		return graphd.NoID, graphd.ErrNo
	}
	id := s.cur
	s.lastID, s.sawAny = id, true
	s.advance()
	return id, nil
}

func (s *IDSet) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	if inRange(id, s.low, s.high) && s.bitmap.Contains(uint32(id)) {
		return nil
	}
	return graphd.ErrNo
}

func (s *IDSet) Statistics(budget *graphd.Budget) (Stats, error) {
	if st, ok := s.orig.cachedStats(); ok {
		return st, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	st := Stats{N: int64(s.bitmap.GetCardinality()), CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true}
	s.orig.cacheStats(st)
	return st, nil
}

func (s *IDSet) Clone() Iterator {
	s.orig.retain()
	c := &IDSet{bitmap: s.bitmap, low: s.low, high: s.high, dir: s.dir, orig: s.orig, lastID: graphd.NoID}
	c.Reset()
	return c
}

// Freeze writes low, high and direction as SET and the last-emitted id
// as POSITION; the member bitmap itself is not serialized. Thaw of an
// idset therefore takes the bitmap from the caller-supplied
// cursor.Deps.IDSetBitmap (an empty bitmap when none is given), then
// seeks past the frozen POSITION.
func (s *IDSet) Freeze(flags FreezeFlags) (string, error) {
	out := fmt.Sprintf("idset(%d,%d,%s)", s.low, s.high, s.dir)
	if flags.Has(FreezePosition) {
		if s.sawAny {
			out += fmt.Sprintf("/%d", s.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (s *IDSet) Beyond(string) (bool, error) { return false, nil }
func (s *IDSet) PrimitiveSummary() Summary   { return Summary{} }
func (s *IDSet) Low() graphd.ID              { return s.low }
func (s *IDSet) High() graphd.ID             { return s.high }
func (s *IDSet) Direction() graphd.Direction { return s.dir }
func (s *IDSet) TypeTag() string             { return "idset" }
