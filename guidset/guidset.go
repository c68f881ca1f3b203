// Package guidset implements the guid-set algebra (component F,
// spec.md §4.6): small arrays of GUIDs with explicit null-element
// semantics, owned by the constraint that contains them.
package guidset

import (
	"sort"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
	"golang.org/x/crypto/sha3"
)

// Set is a guid-set: a small array plus an explicit "contains the
// null element" flag. ContainsNull is the sole source of truth for
// null membership — a structurally empty Set with ContainsNull false
// is the true empty set (no members at all, not even null), and
// New's freshly-allocated Set is the one case that starts out
// {null} until a concrete member is added.
type Set struct {
	GUIDs        []graphd.GUID
	ContainsNull bool
}

// New returns an empty guid-set, which is semantically {null} until
// anything concrete is added.
func New() *Set { return &Set{ContainsNull: true} }

// Add inserts guid, keeping GUIDs sorted and deduplicated. The null
// guid is tracked via ContainsNull instead of being stored in the
// array.
func (s *Set) Add(guid graphd.GUID) {
	if guid.IsNull() {
		s.ContainsNull = true
		return
	}
	i := sort.Search(len(s.GUIDs), func(i int) bool { return !less(s.GUIDs[i], guid) })
	if i < len(s.GUIDs) && s.GUIDs[i] == guid {
		return
	}
	s.GUIDs = append(s.GUIDs, graphd.GUID{})
	copy(s.GUIDs[i+1:], s.GUIDs[i:])
	s.GUIDs[i] = guid
}

// Delete removes guid from s, if present.
func (s *Set) Delete(guid graphd.GUID) {
	if guid.IsNull() {
		s.ContainsNull = false
		return
	}
	i := sort.Search(len(s.GUIDs), func(i int) bool { return !less(s.GUIDs[i], guid) })
	if i < len(s.GUIDs) && s.GUIDs[i] == guid {
		s.GUIDs = append(s.GUIDs[:i], s.GUIDs[i+1:]...)
	}
}

// Find reports whether guid is a member of s.
func (s *Set) Find(guid graphd.GUID) bool {
	if guid.IsNull() {
		return s.ContainsNull
	}
	i := sort.Search(len(s.GUIDs), func(i int) bool { return !less(s.GUIDs[i], guid) })
	return i < len(s.GUIDs) && s.GUIDs[i] == guid
}

// Match is Find under the name spec.md §4.6 uses for membership tests
// driven by a constraint clause.
func (s *Set) Match(guid graphd.GUID) bool { return s.Find(guid) }

func less(a, b graphd.GUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Intersect returns a ∩ b. Null membership follows ordinary set
// intersection on ContainsNull: intersecting a set that excludes null
// with one that includes it yields a set that excludes null, same as
// for any other member.
func Intersect(a, b *Set) *Set {
	out := &Set{ContainsNull: a.ContainsNull && b.ContainsNull}
	ai, bi := 0, 0
	for ai < len(a.GUIDs) && bi < len(b.GUIDs) {
		switch {
		case less(a.GUIDs[ai], b.GUIDs[bi]):
			ai++
		case less(b.GUIDs[bi], a.GUIDs[ai]):
			bi++
		default:
			out.GUIDs = append(out.GUIDs, a.GUIDs[ai])
			ai++
			bi++
		}
	}
	return out
}

// Union returns a ∪ b.
func Union(a, b *Set) *Set {
	out := &Set{ContainsNull: a.ContainsNull || b.ContainsNull}
	ai, bi := 0, 0
	for ai < len(a.GUIDs) && bi < len(b.GUIDs) {
		switch {
		case less(a.GUIDs[ai], b.GUIDs[bi]):
			out.GUIDs = append(out.GUIDs, a.GUIDs[ai])
			ai++
		case less(b.GUIDs[bi], a.GUIDs[ai]):
			out.GUIDs = append(out.GUIDs, b.GUIDs[bi])
			bi++
		default:
			out.GUIDs = append(out.GUIDs, a.GUIDs[ai])
			ai++
			bi++
		}
	}
	out.GUIDs = append(out.GUIDs, a.GUIDs[ai:]...)
	out.GUIDs = append(out.GUIDs, b.GUIDs[bi:]...)
	return out
}

// Subtract returns a \ b.
func Subtract(a, b *Set) *Set {
	out := &Set{ContainsNull: a.ContainsNull && !b.ContainsNull}
	ai, bi := 0, 0
	for ai < len(a.GUIDs) {
		if bi < len(b.GUIDs) && a.GUIDs[ai] == b.GUIDs[bi] {
			ai++
			bi++
			continue
		}
		if bi < len(b.GUIDs) && less(b.GUIDs[bi], a.GUIDs[ai]) {
			bi++
			continue
		}
		out.GUIDs = append(out.GUIDs, a.GUIDs[ai])
		ai++
	}
	return out
}

// FilterMatch keeps only the members of s for which match returns
// true, respecting null-membership the same way.
func FilterMatch(s *Set, match func(graphd.GUID) bool) *Set {
	out := &Set{}
	if s.ContainsNull && match(graphd.NullGUID) {
		out.ContainsNull = true
	}
	for _, g := range s.GUIDs {
		if match(g) {
			out.GUIDs = append(out.GUIDs, g)
		}
	}
	return out
}

// NormalizeMatch root-ancestor-normalizes every member so that two
// `~=` sets become directly intersectable (spec.md §4.6).
func NormalizeMatch(s *Set, gens pdb.Generations) (*Set, error) {
	out := &Set{ContainsNull: s.ContainsNull}
	seen := map[graphd.GUID]bool{}
	for _, g := range s.GUIDs {
		root, err := gens.Nth(g, true, 0)
		if err != nil {
			return nil, err
		}
		if !seen[root] {
			seen[root] = true
			out.GUIDs = append(out.GUIDs, root)
		}
	}
	sort.Slice(out.GUIDs, func(i, j int) bool { return less(out.GUIDs[i], out.GUIDs[j]) })
	return out, nil
}

// ConvertGenerations replaces every GUID in s with the GUIDs expand
// returns for it, then sorts and deduplicates the result; null
// membership is carried over unchanged. The caller resolves the
// active generation window inside expand, so guidset stays
// independent of the constraint package.
func ConvertGenerations(s *Set, expand func(graphd.GUID) ([]graphd.GUID, error)) (*Set, error) {
	out := &Set{ContainsNull: s.ContainsNull}
	for _, g := range s.GUIDs {
		expanded, err := expand(g)
		if err != nil {
			return nil, err
		}
		out.GUIDs = append(out.GUIDs, expanded...)
	}
	sort.Slice(out.GUIDs, func(i, j int) bool { return less(out.GUIDs[i], out.GUIDs[j]) })
	out.GUIDs = dedupSorted(out.GUIDs)
	return out, nil
}

func dedupSorted(gs []graphd.GUID) []graphd.GUID {
	if len(gs) < 2 {
		return gs
	}
	w := 1
	for r := 1; r < len(gs); r++ {
		if gs[r] != gs[w-1] {
			gs[w] = gs[r]
			w++
		}
	}
	return gs[:w]
}

// Equal reports structural equality: same members, same
// null-membership.
func Equal(a, b *Set) bool {
	if a.ContainsNull != b.ContainsNull {
		return false
	}
	if len(a.GUIDs) != len(b.GUIDs) {
		return false
	}
	for i := range a.GUIDs {
		if a.GUIDs[i] != b.GUIDs[i] {
			return false
		}
	}
	return true
}

// Hash produces a deterministic fingerprint of s, used to feed a
// constraint's structural fingerprint (spec.md §4.6): sets computed in
// different orders hash identically if and only if they are Equal,
// because GUIDs are kept sorted and deduplicated by construction.
func Hash(s *Set) [32]byte {
	h := sha3.NewLegacyKeccak256()
	if s.ContainsNull {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	for _, g := range s.GUIDs {
		h.Write(g[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
