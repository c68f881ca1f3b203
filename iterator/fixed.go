package iterator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/ledgerwatch/graphd"
)

// fixedHeavy is the heavy state shared by every clone of a Fixed
// iterator: the sorted, deduplicated bitmap of member IDs, backed by
// github.com/RoaringBitmap/roaring.
type fixedHeavy struct {
	bitmap *roaring.Bitmap
	low    graphd.ID
	high   graphd.ID
}

// Fixed is a sorted, deduplicated array iterator (spec.md §4.1).
type Fixed struct {
	heavy *fixedHeavy
	orig  *original
	dir   graphd.Direction
	it    roaring.IntPeekable
	has   bool
	cur   graphd.ID

	sawAny bool
	lastID graphd.ID
}

// NewFixed builds a Fixed iterator over exactly the ids supplied,
// clamped to [low, high).
func NewFixed(ids []graphd.ID, low, high graphd.ID, dir graphd.Direction) *Fixed {
	bm := roaring.New()
	for _, id := range ids {
		if inRange(id, low, high) {
			bm.Add(uint32(id))
		}
	}
	f := &Fixed{heavy: &fixedHeavy{bitmap: bm, low: low, high: high}, orig: newOriginal(), dir: dir}
	f.Reset()
	return f
}

func (f *Fixed) Reset() {
	if f.dir == graphd.Forward {
		f.it = f.heavy.bitmap.Iterator()
	} else {
		f.it = f.heavy.bitmap.ReverseIterator()
	}
	f.sawAny = false
	f.advance()
}

func (f *Fixed) advance() {
	f.has = f.it.HasNext()
	if f.has {
		f.cur = graphd.ID(f.it.Next())
	}
}

func (f *Fixed) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	if !f.has {
		return graphd.NoID, graphd.ErrNo
	}
	id := f.cur
	f.advance()
	f.sawAny = true
	f.lastID = id
	return id, nil
}

func (f *Fixed) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	for f.has {
		if f.dir == graphd.Forward && f.cur >= inID {
			break
		}
		if f.dir == graphd.Backward && f.cur <= inID {
			break
		}
		f.advance()
	}
	if !f.has {
		return graphd.NoID, graphd.ErrNo
	}
	id := f.cur
	f.advance()
	f.sawAny = true
	f.lastID = id
	return id, nil
}

func (f *Fixed) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	if f.heavy.bitmap.Contains(uint32(id)) {
		return nil
	}
	return graphd.ErrNo
}

func (f *Fixed) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := f.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	s := Stats{N: int64(f.heavy.bitmap.GetCardinality()), CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true}
	f.orig.cacheStats(s)
	return s, nil
}

func (f *Fixed) Clone() Iterator {
	f.orig.retain()
	c := &Fixed{heavy: f.heavy, orig: f.orig, dir: f.dir}
	c.Reset()
	for c.has && (!f.has || c.cur != f.cur) {
		c.advance()
	}
	c.sawAny, c.lastID = f.sawAny, f.lastID
	return c
}

func (f *Fixed) Freeze(flags FreezeFlags) (string, error) {
	var b strings.Builder
	b.WriteString("fixed(")
	if flags.Has(FreezeSet) {
		fmt.Fprintf(&b, "%d,%d,%s", f.heavy.low, f.heavy.high, f.dir)
		it := f.heavy.bitmap.Iterator()
		for it.HasNext() {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(it.Next()), 10))
		}
	}
	b.WriteByte(')')
	if flags.Has(FreezePosition) {
		if f.sawAny {
			fmt.Fprintf(&b, "/%d", f.lastID)
		} else {
			b.WriteString("/^")
		}
	}
	return b.String(), nil
}

func (f *Fixed) Beyond(string) (bool, error) { return false, nil }
func (f *Fixed) PrimitiveSummary() Summary   { return Summary{} }
func (f *Fixed) Low() graphd.ID              { return f.heavy.low }
func (f *Fixed) High() graphd.ID             { return f.heavy.high }
func (f *Fixed) Direction() graphd.Direction { return f.dir }
func (f *Fixed) TypeTag() string             { return "fixed" }
