// Package comparator implements the comparator capability set (component
// C, spec.md §4.2) and the value-range driver built on top of it
// (component D, spec.md §4.3). A comparator tells the rest of the
// engine how to order, index, and fuzzy-match a primitive's value;
// the driver turns a value range into bin-indexed ID iteration.
package comparator

import (
	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// Comparator is the capability set spec.md §4.2 describes. Not every
// comparator implements every optional piece: Glob is only meaningful
// when Syntax accepts graphd.OpMatch, and the value-range capability
// set is a separate, optional interface (RangeCapable below).
type Comparator interface {
	Name() string
	Aliases() []string
	Locale() string

	// Syntax rejects operators this comparator does not support (e.g.
	// case-insensitive rejects ~=).
	Syntax(op graphd.Op) bool

	// SortCompare gives the total order two values are compared under.
	SortCompare(a, b string) int

	// EqIterator builds an index iterator for = or ~=; a nil iterator
	// (with nil error) means "no useful index restriction, fall back
	// to range scan" (spec.md §4.2).
	EqIterator(op graphd.Op, value string, idx pdb.WordIndex, low, high graphd.ID, dir graphd.Direction) (iterator.Iterator, error)

	// Glob implements ~= fuzzy match for post-filter checking. Comparators
	// that reject OpMatch in Syntax may implement this as a no-op.
	Glob(pattern, s string) bool

	// LowestString and HighestString are this comparator's sentinels
	// for unbounded range endpoints (spec.md §4.2).
	LowestString() string
	HighestString() string
}

// RangeCapable is the optional vrange capability set (§4.3). A
// comparator lacking it forces `<`/`>` queries to fall back to a full
// scan (spec.md §4.2's "a comparator without all of these falls back
// to full scan for `<`/`>` queries").
type RangeCapable interface {
	Comparator
	// BinSet names the bin-partitioned index family this comparator's
	// values are partitioned into.
	BinSet() pdb.BinSet
}
