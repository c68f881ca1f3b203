package comparator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/btree"
	"go.uber.org/atomic"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// boundaryEntry caches one bin's representative value, keyed by bin
// index, so repeated Beyond/ValueInRange/Seek calls don't round-trip
// to the store for bins already visited.
type boundaryEntry struct {
	bin   int
	value []byte
}

func boundaryLess(a, b boundaryEntry) bool { return a.bin < b.bin }

// vrangeHeavy is the state shared by every clone of a VRange: the bin
// range, the comparator, the store handles, and the boundary cache.
// Grounded on DomainCommitted's commTree *btree.BTreeG[*CommitmentItem]
// ordered index, generalized from a commitment-key cache to a
// bin-boundary cache.
type vrangeHeavy struct {
	cmp    RangeCapable
	binIdx pdb.BinIndex
	reader pdb.Reader
	binSet pdb.BinSet

	low, high graphd.ID
	dir       graphd.Direction

	loBin, hiBin int // [loBin, hiBin), hiBin one past the last included bin

	cache *btree.BTreeG[boundaryEntry]
	refs  atomic.Int32
}

func (h *vrangeHeavy) boundaryValue(bin int) ([]byte, error) {
	if item, ok := h.cache.Get(boundaryEntry{bin: bin}); ok {
		return item.value, nil
	}
	val, err := h.binIdx.BinValue(h.binSet, bin)
	if err != nil {
		return nil, err
	}
	h.cache.ReplaceOrInsert(boundaryEntry{bin: bin, value: val})
	return val, nil
}

// VRange is the value-range driver (component D, spec.md §4.3): it
// enumerates bins in [loBin, hiBin) in direction order, emitting each
// bin's ID iterator (optionally intersected with a sorted filter)
// until exhausted. It implements iterator.Iterator directly so it can
// be composed under and/or like any other producer.
type VRange struct {
	heavy *vrangeHeavy

	internalAndTemplate iterator.Iterator // nil if no filter to intersect each bin with

	curBin int
	curIt  iterator.Iterator
	done   bool

	lastID    graphd.ID
	lastValue string
	sawAny    bool
}

// NewVRange starts the driver for the value range [lowValue, highValue)
// under cmp's order, restricted to ids in [low, high). internalAnd, if
// non-nil, is intersected with every bin's iterator (typically a
// linkage-constrained set, spec.md §4.3).
func NewVRange(cmp RangeCapable, binIdx pdb.BinIndex, reader pdb.Reader, lowValue, highValue string, low, high graphd.ID, dir graphd.Direction, internalAnd iterator.Iterator) (*VRange, error) {
	heavy := &vrangeHeavy{
		cmp: cmp, binIdx: binIdx, reader: reader, binSet: cmp.BinSet(),
		low: low, high: high, dir: dir,
		cache: btree.NewG[boundaryEntry](32, boundaryLess),
	}
	heavy.refs.Store(1)

	var loBin int
	if lowValue == cmp.LowestString() {
		loBin = 0
	} else {
		b, err := binIdx.BinLookup(heavy.binSet, []byte(lowValue))
		if err != nil {
			return nil, err
		}
		loBin = b
	}
	// highValue is treated as the exclusive upper bound, matching
	// "value < highValue" semantics: its own bin is not included
	// unless highValue is the comparator's unbounded sentinel.
	var hiBin int
	if highValue == cmp.HighestString() {
		end, err := binIdx.BinEnd(heavy.binSet)
		if err != nil {
			return nil, err
		}
		hiBin = end
	} else {
		b, err := binIdx.BinLookup(heavy.binSet, []byte(highValue))
		if err != nil {
			return nil, err
		}
		hiBin = b
	}
	heavy.loBin, heavy.hiBin = loBin, hiBin

	v := &VRange{heavy: heavy, internalAndTemplate: internalAnd, lastID: graphd.NoID}
	v.resetPosition()
	return v, nil
}

// NewVRangeFromBins rebuilds a VRange directly from an already-known
// bin range [loBin, hiBin), bypassing the lowValue/highValue ->
// BinLookup step NewVRange performs. Used by the cursor freeze/thaw
// codec (spec.md §4.7), whose frozen SET carries bin indices rather
// than the original endpoint value strings.
func NewVRangeFromBins(cmp RangeCapable, binIdx pdb.BinIndex, reader pdb.Reader, loBin, hiBin int, low, high graphd.ID, dir graphd.Direction, internalAnd iterator.Iterator) (*VRange, error) {
	heavy := &vrangeHeavy{
		cmp: cmp, binIdx: binIdx, reader: reader, binSet: cmp.BinSet(),
		low: low, high: high, dir: dir,
		loBin: loBin, hiBin: hiBin,
		cache: btree.NewG[boundaryEntry](32, boundaryLess),
	}
	heavy.refs.Store(1)
	v := &VRange{heavy: heavy, internalAndTemplate: internalAnd, lastID: graphd.NoID}
	v.resetPosition()
	return v, nil
}

func (v *VRange) resetPosition() {
	h := v.heavy
	if h.loBin >= h.hiBin {
		v.done = true
		return
	}
	v.done = false
	if h.dir == graphd.Forward {
		v.curBin = h.loBin
	} else {
		v.curBin = h.hiBin - 1
	}
	v.curIt = nil
}

func (v *VRange) buildBinIterator() (iterator.Iterator, error) {
	h := v.heavy
	it, err := h.binIdx.BinToIterator(h.binSet, v.curBin, h.low, h.high, h.dir, false)
	if err != nil {
		return nil, err
	}
	// warm the boundary cache for this bin so a later Seek/ValueInRange
	// against it doesn't need a fresh store round trip.
	_, _ = h.boundaryValue(v.curBin)
	wrapped := wrapIDIterator(it, h.low, h.high, h.dir)
	if v.internalAndTemplate == nil {
		return wrapped, nil
	}
	filter := v.internalAndTemplate.Clone()
	filter.Reset()
	return iterator.NewAnd([]iterator.Iterator{wrapped, filter}, h.dir), nil
}

func (v *VRange) advanceBin() {
	h := v.heavy
	if h.dir == graphd.Forward {
		v.curBin++
		if v.curBin >= h.hiBin {
			v.done = true
		}
	} else {
		v.curBin--
		if v.curBin < h.loBin {
			v.done = true
		}
	}
	v.curIt = nil
}

func (v *VRange) recordEmitted(id graphd.ID) {
	v.lastID, v.sawAny = id, true
	if v.heavy.reader != nil {
		if p, err := v.heavy.reader.ReadID(id); err == nil {
			v.lastValue = p.Value
		}
	}
}

func (v *VRange) Next(budget *graphd.Budget) (graphd.ID, error) {
	for {
		if v.done {
			return graphd.NoID, graphd.ErrNo
		}
		if v.curIt == nil {
			it, err := v.buildBinIterator()
			if err != nil {
				return graphd.NoID, err
			}
			v.curIt = it
		}
		id, err := v.curIt.Next(budget)
		if err == nil {
			v.recordEmitted(id)
			return id, nil
		}
		if err != graphd.ErrNo {
			return graphd.NoID, err
		}
		v.advanceBin()
	}
}

// Find is the linear-scan implementation the iterator.Iterator
// contract calls for, and the one cursor position recovery uses; Seek
// below is the value-aware positional jump of spec.md §4.3, which no
// caller in this repository invokes.
func (v *VRange) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	for {
		id, err := v.Next(budget)
		if err != nil {
			return graphd.NoID, err
		}
		if (v.heavy.dir == graphd.Forward && id >= inID) || (v.heavy.dir == graphd.Backward && id <= inID) {
			return id, nil
		}
	}
}

// Seek sets curBin to the bin containing value, opens that bin's
// iterator and Finds id in it, so a following Next continues from
// there within the same bin (spec.md §4.3 "Seek(value, id)").
func (v *VRange) Seek(value string, id graphd.ID, budget *graphd.Budget) error {
	h := v.heavy
	bin, err := h.binIdx.BinLookup(h.binSet, []byte(value))
	if err != nil {
		return err
	}
	v.curBin = bin
	v.done = bin < h.loBin || bin >= h.hiBin
	it, err := v.buildBinIterator()
	if err != nil {
		return err
	}
	v.curIt = it
	if _, err := v.curIt.Find(id, budget); err != nil && err != graphd.ErrNo {
		return err
	}
	return nil
}

// ValueInRange reports whether value lies past this driver's current
// position in its direction (spec.md §4.3, used by Beyond).
func (v *VRange) ValueInRange(value string) bool {
	if !v.sawAny {
		return true
	}
	cmp := v.heavy.cmp.SortCompare(value, v.lastValue)
	if v.heavy.dir == graphd.Forward {
		return cmp > 0
	}
	return cmp < 0
}

func (v *VRange) Beyond(sortKey string) (bool, error) { return v.ValueInRange(sortKey), nil }

func (v *VRange) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(iterator.CostCheck); err != nil {
		return err
	}
	h := v.heavy
	for bin := h.loBin; bin < h.hiBin; bin++ {
		it, err := h.binIdx.BinToIterator(h.binSet, bin, h.low, h.high, h.dir, false)
		if err != nil {
			return err
		}
		got, ok := it.FindNonstep(id)
		it.Close()
		if ok && got == id {
			return nil
		}
	}
	return graphd.ErrNo
}

func (v *VRange) Statistics(budget *graphd.Budget) (iterator.Stats, error) {
	if err := budget.Charge(iterator.CostStats); err != nil {
		return iterator.Stats{}, err
	}
	h := v.heavy
	binCount, err := h.binIdx.BinEnd(h.binSet)
	if err != nil || binCount == 0 {
		binCount = 1
	}
	nPrimitives := int64(h.high - h.low)
	total := int64(float64(h.hiBin-h.loBin) * (1 + float64(nPrimitives)/(float64(binCount)*2)))
	nextCost := iterator.CostNext
	if v.internalAndTemplate != nil {
		if sub, err := v.internalAndTemplate.Statistics(budget); err == nil && sub.N > 0 {
			nextCost += int64(math.Log(float64(sub.N)))
		}
	}
	return iterator.Stats{N: total, CheckCost: iterator.CostCheck, NextCost: nextCost, FindCost: iterator.CostFind, Sorted: true, Ordered: true, Ordering: iterator.Ordering("value")}, nil
}

func (v *VRange) Reset() {
	v.resetPosition()
	v.lastID = graphd.NoID
	v.sawAny = false
	v.lastValue = ""
}

func (v *VRange) Clone() iterator.Iterator { return v.clone() }

func (v *VRange) clone() *VRange {
	v.heavy.refs.Inc()
	var filterClone iterator.Iterator
	if v.internalAndTemplate != nil {
		filterClone = v.internalAndTemplate.Clone()
	}
	c := &VRange{heavy: v.heavy, internalAndTemplate: filterClone, lastID: graphd.NoID}
	c.resetPosition()
	return c
}

func (v *VRange) Freeze(flags iterator.FreezeFlags) (string, error) {
	h := v.heavy
	var b strings.Builder
	fmt.Fprintf(&b, "vrange(%s,%s,%d,%d,%d,%d,%s)", h.cmp.Name(), h.binSet, h.loBin, h.hiBin, h.low, h.high, h.dir)
	if flags.Has(iterator.FreezePosition) {
		if v.sawAny {
			fmt.Fprintf(&b, "/%d", v.lastID)
		} else {
			b.WriteString("/^")
		}
	}
	if flags.Has(iterator.FreezeState) {
		fmt.Fprintf(&b, ":state(%d)", v.curBin)
	}
	return b.String(), nil
}

// Thaw parses a Freeze-produced STATE section's cur_bin field and
// validates spec.md §4.3's tolerance: lo_bin-1 <= cur_bin <= hi_bin+1.
// Any other value is a lexical error triggering position recovery.
func (v *VRange) Thaw(curBinField string) error {
	h := v.heavy
	n, err := strconv.Atoi(curBinField)
	if err != nil {
		return fmt.Errorf("vrange thaw: %w", graphd.ErrLexical)
	}
	if n < h.loBin-1 || n > h.hiBin+1 {
		return fmt.Errorf("vrange thaw: cur_bin %d out of [%d,%d]: %w", n, h.loBin-1, h.hiBin+1, graphd.ErrLexical)
	}
	v.curBin = n
	v.curIt = nil
	v.done = n < h.loBin || n >= h.hiBin
	return nil
}

func (v *VRange) PrimitiveSummary() iterator.Summary { return iterator.Summary{} }
func (v *VRange) Low() graphd.ID                     { return v.heavy.low }
func (v *VRange) High() graphd.ID                    { return v.heavy.high }
func (v *VRange) Direction() graphd.Direction        { return v.heavy.dir }
func (v *VRange) TypeTag() string                    { return "vrange" }

// idIteratorAdapter exposes a raw pdb.IDIterator (unbudgeted, no
// Statistics/Freeze) as an iterator.Iterator with constant per-op
// charges, matching the shape Hash/Word/Prefix build around a store
// index iterator. Used for a single bin's worth of ids.
type idIteratorAdapter struct {
	it        pdb.IDIterator
	low, high graphd.ID
	dir       graphd.Direction
}

func wrapIDIterator(it pdb.IDIterator, low, high graphd.ID, dir graphd.Direction) iterator.Iterator {
	return &idIteratorAdapter{it: it, low: low, high: high, dir: dir}
}

func (a *idIteratorAdapter) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(iterator.CostNext); err != nil {
		return graphd.NoID, err
	}
	id, ok := a.it.Next()
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	return id, nil
}

func (a *idIteratorAdapter) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(iterator.CostFind); err != nil {
		return graphd.NoID, err
	}
	id, ok := a.it.FindNonstep(inID)
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	return id, nil
}

func (a *idIteratorAdapter) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(iterator.CostCheck); err != nil {
		return err
	}
	if got, ok := a.it.FindNonstep(id); ok && got == id {
		return nil
	}
	return graphd.ErrNo
}

func (a *idIteratorAdapter) Statistics(budget *graphd.Budget) (iterator.Stats, error) {
	return iterator.Stats{NextCost: iterator.CostNext, CheckCost: iterator.CostCheck, FindCost: iterator.CostFind, Sorted: true}, nil
}
func (a *idIteratorAdapter) Reset()          {}
func (a *idIteratorAdapter) Clone() iterator.Iterator { return a }
func (a *idIteratorAdapter) Freeze(iterator.FreezeFlags) (string, error) {
	return fmt.Sprintf("bin(%d,%d,%s)", a.low, a.high, a.dir), nil
}
func (a *idIteratorAdapter) Beyond(string) (bool, error)      { return false, nil }
func (a *idIteratorAdapter) PrimitiveSummary() iterator.Summary { return iterator.Summary{} }
func (a *idIteratorAdapter) Low() graphd.ID                   { return a.low }
func (a *idIteratorAdapter) High() graphd.ID                  { return a.high }
func (a *idIteratorAdapter) Direction() graphd.Direction      { return a.dir }
func (a *idIteratorAdapter) TypeTag() string                  { return "bin" }
