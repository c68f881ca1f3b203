// Package iterator implements the iterator algebra (component B,
// spec.md §4.1): a uniform, budgeted, resumable producer of IDs, with
// variants null/all/fixed/hash/word/prefix/and/or/idset/without-value.
// The value-range variant (vrange, component D) lives in package
// comparator because it is inseparable from a comparator's bin
// capability, but it implements this package's Iterator interface.
package iterator

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
)

// Constant per-operation charges. The exact values are not specified
// by spec.md beyond "decrements it by an implementation-defined
// constant-cost charge"; these are picked so that a producer op always
// costs more than a check, matching the planner's cheapest-next-cost
// tie-break in §4.4.
const (
	CostNext  int64 = 4
	CostFind  int64 = 3
	CostCheck int64 = 1
	CostStats int64 = 8
)

// FreezeFlags selects which parts of an iterator's state Freeze
// serializes (spec.md §4.1, §4.7).
type FreezeFlags uint8

const (
	FreezeSet FreezeFlags = 1 << iota
	FreezePosition
	FreezeState
)

func (f FreezeFlags) Has(bit FreezeFlags) bool { return f&bit != 0 }

// Ordering names a sort key an ordered iterator emits IDs consistent
// with (e.g. "value", "name"); empty means no particular ordering
// beyond ID order.
type Ordering string

// Stats is the on-demand, cache-once-computed cost/shape estimate
// spec.md §3 "Iterator" and §4.1 "statistics" describe.
type Stats struct {
	N         int64
	CheckCost int64
	NextCost  int64
	FindCost  int64
	Sorted    bool
	Ordered   bool
	Ordering  Ordering
}

// Summary is the compact filter description an iterator reports to
// let enclosing joins prune (spec.md §4.1 primitive_summary).
type Summary struct {
	FixedLinkage map[graphd.Linkage]graphd.GUID
	FixedValue   string
	HasValue     bool
}

// Iterator is the uniform contract every variant in spec.md §4.1
// implements.
type Iterator interface {
	// Next emits the next ID in this iterator's direction within
	// [Low, High). Returns graphd.ErrNo at end, graphd.ErrMore on
	// budget exhaustion (state preserved).
	Next(budget *graphd.Budget) (graphd.ID, error)
	// Find positions at or past inID (in this iterator's direction)
	// and emits the next element. Only defined when Sorted.
	Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error)
	// Check decides membership of id without disturbing position.
	Check(id graphd.ID, budget *graphd.Budget) error
	// Statistics fills in and caches N/CheckCost/NextCost/FindCost/
	// Sorted/Ordering. Idempotent after first success.
	Statistics(budget *graphd.Budget) (Stats, error)
	// Reset rewinds to the first element in the current direction.
	Reset()
	// Clone produces an independent positioned copy sharing the
	// original's heavy state.
	Clone() Iterator
	// Freeze serializes the requested subset of state to text.
	Freeze(flags FreezeFlags) (string, error)
	// Beyond answers whether the last emitted ID has already passed
	// sortKey under this iterator's ordering. Only meaningful when
	// Stats.Ordered.
	Beyond(sortKey string) (bool, error)
	// PrimitiveSummary reports a compact filter description.
	PrimitiveSummary() Summary

	// Low, High, Direction and TypeTag are needed by the planner and
	// the freeze/thaw codec to describe this iterator without a type
	// switch.
	Low() graphd.ID
	High() graphd.ID
	Direction() graphd.Direction
	TypeTag() string
}

// ErrNotSorted is returned by Find when called on an unsorted
// iterator, for which Find is undefined per spec.md §4.1.
var ErrNotSorted = fmt.Errorf("iterator: find on unsorted iterator: %w", graphd.ErrSemantics)

// inRange reports whether id lies within [low, high).
func inRange(id, low, high graphd.ID) bool { return id >= low && id < high }
