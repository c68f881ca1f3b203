// Package pdb declares the contract this repository consumes from the
// primitive store (component A, spec.md §6.1). The store itself —
// durability, on-disk format, replication — is out of scope per
// spec.md §1; only the read-side shape the query-evaluation engine
// depends on lives here, following the small composable interface
// style of kv.Getter/kv.RoDB rather than one monolithic handle.
package pdb

import (
	"github.com/ledgerwatch/graphd"
)

// Datatype mirrors a primitive's value encoding; the engine only needs
// to distinguish "has a value" from "has none" plus numeric vs string
// ordering, so this stays small.
type Datatype uint8

const (
	DatatypeNone Datatype = iota
	DatatypeString
	DatatypeNumber
	DatatypeTimestamp
	DatatypeGUID
)

// Primitive is the immutable record spec.md §3 defines. It is
// read-only: the store is never mutated by the evaluator.
type Primitive struct {
	GUID     graphd.GUID
	ID       graphd.ID
	TypeGUID graphd.GUID
	Name     string
	Value    string
	Datatype Datatype
	Scope    graphd.GUID
	Live     bool
	Archival bool
	Timestamp int64
	Left      graphd.GUID
	Right     graphd.GUID
	Previous  graphd.GUID
}

// HasValue reports whether the primitive carries any value at all,
// backing the without-value iterator (spec.md §4.1).
func (p *Primitive) HasValue() bool { return p.Datatype != DatatypeNone && p.Value != "" }

// Kind selects which of a primitive's indexed fields a hash lookup
// targets.
type Kind uint8

const (
	KindValue Kind = iota
	KindName
	KindTypeguid
)

// BinSet names a bin-partitioned index family. Only STRINGS is
// required by spec.md §4.3; the type exists so a store can expose
// more than one comparator's bin space without the engine caring.
type BinSet string

const BinSetStrings BinSet = "strings"

// Reader gives the evaluator read access to primitives by ID or GUID.
// It is the synchronous, O(1)-or-ERR_MORE collaborator of spec.md §5.
type Reader interface {
	// ReadID returns the primitive at a dense ID.
	ReadID(id graphd.ID) (*Primitive, error)
	// ReadGUID resolves a GUID to its currently live primitive, if
	// any; ok is false if the GUID has no live primitive.
	ReadGUID(guid graphd.GUID) (p *Primitive, ok bool, err error)
	// Range reports the store's current dense ID range [0, high).
	Range() (high graphd.ID)
}

// HashIndex backs the `hash` iterator variant: exact and fuzzy-prefix
// lookups keyed by the hash of a field's bytes.
type HashIndex interface {
	// HashIterator builds an iterator over IDs whose Kind field hashes
	// to bytes, restricted to ids in [low, high) and walked in dir.
	HashIterator(kind Kind, bytes []byte, low, high graphd.ID, dir graphd.Direction) (IDIterator, error)
}

// WordIndex backs the `word` iterator variant used by `~=` and prefix
// completion.
type WordIndex interface {
	WordIterator(word string, low, high graphd.ID, dir graphd.Direction) (IDIterator, error)
	// PrefixIterator backs the `prefix` iterator variant (spec.md
	// §4.1): every id containing an indexed word beginning with
	// prefix, in dir order within [low, high).
	PrefixIterator(prefix string, low, high graphd.ID, dir graphd.Direction) (IDIterator, error)
}

// BinIndex backs the value-range driver (component D, spec.md §4.3):
// translating a value-range query into ID-range iteration by walking
// the comparator's string bins.
type BinIndex interface {
	// BinLookup returns the index of the bin containing bytes under
	// binSet's ordering.
	BinLookup(binSet BinSet, bytes []byte) (bin int, err error)
	// BinToIterator builds an ID iterator over everything in bin,
	// within [low, high), walked in dir. If errorIfNull, a bin with no
	// ids is reported as an error instead of an empty iterator; every
	// caller in this repository, VRange.Seek included, passes false.
	BinToIterator(binSet BinSet, bin int, low, high graphd.ID, dir graphd.Direction, errorIfNull bool) (IDIterator, error)
	// BinValue returns the representative bytes for a bin (its lower
	// boundary under the comparator's order).
	BinValue(binSet BinSet, bin int) ([]byte, error)
	// BinEnd returns one past the last valid bin index.
	BinEnd(binSet BinSet) (int, error)
}

// Generations exposes the generation-chain navigation spec.md §3
// requires for root-normalization and generation-window expansion.
type Generations interface {
	// Nth returns the guid `offset` generations from the oldest (if
	// oldest is true) or newest end of guid's lineage.
	Nth(guid graphd.GUID, oldest bool, offset int) (graphd.GUID, error)
	// LastN returns the newest id in guid's lineage and its distance
	// from the oldest generation.
	LastN(guid graphd.GUID) (last graphd.ID, n int, err error)
}

// IDIterator is the minimal, positional, budget-free iteration shape
// the store hands back for an index lookup; the iterator package
// wraps these into the full budgeted Iterator contract (spec.md
// §4.1) and adds find/check/freeze/thaw/statistics on top.
type IDIterator interface {
	// Next advances and returns the next id; ok is false at the end.
	Next() (id graphd.ID, ok bool)
	// FindNonstep positions the iterator at or past id without
	// charging a budget (spec.md §6.1 iterator_find_nonstep) and
	// returns the element there, if any.
	FindNonstep(id graphd.ID) (graphd.ID, bool)
	Close()
}

// Store bundles every capability the evaluator needs from the
// primitive store. A concrete store need not implement all of
// HashIndex/WordIndex/BinIndex — comparators fall back to a full scan
// when a capability is missing (spec.md §4.2).
type Store interface {
	Reader
	Generations
}
