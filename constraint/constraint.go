// Package constraint implements the constraint tree (component E,
// spec.md §3, §4.4's input): the per-request arena of Node values the
// parser builds and the planner (not this package) compiles into an
// iterator (component B). It follows guidset's precedent of a plain
// arena-owned struct, grounded directly on spec.md §3's "Constraint
// node" and §6.2's parser-facing allocation API.
package constraint

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/comparator"
	"github.com/ledgerwatch/graphd/guidset"
)

// Field names one of the clause-bearing fields a constraint can test,
// spanning both the string clauses (name/type/value) and the GUID
// clauses (guid/next/prev/left/right/scope/typeguid) of spec.md §3.
type Field uint8

const (
	FieldNone Field = iota
	FieldName
	FieldType
	FieldValue
	FieldGUID
	FieldNext
	FieldPrev
	FieldLeft
	FieldRight
	FieldScope
	FieldTypeguid
)

// Meta is the syntactic-sugar linkage spec.md §3 describes, resolved
// to an explicit left/right graphd.Linkage at normalization time
// (spec.md §4.4 step 1).
type Meta uint8

const (
	MetaNone Meta = iota
	MetaFrom
	MetaTo
	MetaUnspecified
)

// ResolveLinkage turns meta sugar into an explicit linkage. unspecified
// resolves to whichever of left/right the caller's context prefers;
// callers that have no preference pass left for unspecified, matching
// the from/left correspondence spec.md's glossary draws.
func (m Meta) ResolveLinkage() graphd.Linkage {
	switch m {
	case MetaFrom:
		return graphd.LinkageLeft
	case MetaTo:
		return graphd.LinkageRight
	case MetaUnspecified:
		return graphd.LinkageLeft
	default:
		return graphd.LinkageNone
	}
}

// StringClause is a string-valued test on Field with Op and an
// optional Comparator (nil means the field's process-wide default).
// Values holds one entry for a write constraint, any number for a
// read constraint (spec.md §3 invariant iii).
type StringClause struct {
	Field      Field
	Op         graphd.Op
	Values     []string
	Comparator comparator.Comparator
}

// GUIDClause is a GUID-valued test on Field against a guid-set.
type GUIDClause struct {
	Field Field
	Op    graphd.Op
	Set   *guidset.Set
}

// Generational carries the newest/oldest generation-window bounds
// spec.md §3 lists. An unset bound (Bounded false) means unbounded in
// that direction.
type Generational struct {
	NewestBounded bool
	NewestOffset  int
	OldestBounded bool
	OldestOffset  int
}

// Pagination carries the result-windowing fields of spec.md §3.
type Pagination struct {
	PageSize       int
	CountLimit     int
	ResultPageSize int
	Start          int
	Cursor         string
}

// SortKey is one entry of the ordered sort-comparator list spec.md §3
// invariant (iv) describes.
type SortKey struct {
	Field      Field
	Comparator comparator.Comparator
	Descending bool
}

// Node is a constraint node (component E, spec.md §3). Every
// non-root node carries a Linkage describing how it attaches to
// Parent; the root carries LinkageNone. Or-cluster siblings are
// threaded through OrHead/OrTail per spec.md §3's "or_head/or_tail
// siblings, or_prototype parent", with a dense OrIndex assigned by
// AssignOrIndex.
type Node struct {
	Parent  *Node
	Linkage graphd.Linkage
	Meta    Meta

	StringClauses []StringClause
	GUIDClauses   []GUIDClause
	Generational  Generational
	Pagination    Pagination

	ResultPattern *Pattern
	SortKeys      []SortKey

	False  bool
	Anchor bool

	Children []*Node

	OrHead      *Node
	OrTail      *Node
	OrPrototype *Node
	OrIndex     int

	arena *Arena
}

// Arena owns every Node and Pattern allocated for one request's
// lifetime (spec.md §3 "Lifecycles": constraints are owned by a
// per-request arena). It has no free list: the whole arena is
// released together when the request ends.
type Arena struct {
	nodes    []*Node
	patterns []*Pattern
}

// NewArena returns an empty per-request arena.
func NewArena() *Arena { return &Arena{} }

// NewNode allocates a Node owned by a. parent may be nil for the
// constraint tree's root.
func (a *Arena) NewNode(parent *Node) *Node {
	n := &Node{Parent: parent, arena: a}
	a.nodes = append(a.nodes, n)
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	return n
}

// AppendChild attaches child under n with the given linkage, mirroring
// constraint_clause_append's role for clauses but at node-tree level.
func (n *Node) AppendChild(child *Node, linkage graphd.Linkage) {
	child.Parent = n
	child.Linkage = linkage
	n.Children = append(n.Children, child)
}

// ClauseKind selects which half of a parsed clause constraint_clause_alloc
// is building (spec.md §6.2).
type ClauseKind uint8

const (
	ClauseString ClauseKind = iota
	ClauseGUID
)

// Clause is the parser-facing allocation unit for constraint_clause_alloc
// / constraint_clause_append (spec.md §6.2); it is a small tagged union
// over StringClause/GUIDClause so the parser can build one without
// knowing which field of Node it will land in until ClauseAppend.
type Clause struct {
	Kind   ClauseKind
	String StringClause
	GUID   GUIDClause
}

// ClauseAlloc allocates an empty clause of kind, for the parser to
// fill in before calling ClauseAppend (spec.md §6.2
// constraint_clause_alloc).
func ClauseAlloc(kind ClauseKind) *Clause { return &Clause{Kind: kind} }

// ClauseAppend attaches cc to n (spec.md §6.2 constraint_clause_append).
func (n *Node) ClauseAppend(cc *Clause) {
	switch cc.Kind {
	case ClauseString:
		n.StringClauses = append(n.StringClauses, cc.String)
	case ClauseGUID:
		n.GUIDClauses = append(n.GUIDClauses, cc.GUID)
	}
}

// GUIDSetNew and GUIDSetAdd mirror spec.md §6.2's guid_set_new /
// guid_set_add for parser convenience; they are thin wrappers over
// package guidset so the parser never needs to import it directly.
func GUIDSetNew() *guidset.Set { return guidset.New() }

func GUIDSetAdd(s *guidset.Set, g graphd.GUID) { s.Add(g) }

// AssignOrIndex walks the or-cluster chain starting at head (the
// cluster root) via OrTail and assigns a dense OrIndex in [0, N)
// (spec.md §3 invariant ii).
func AssignOrIndex(head *Node) {
	i := 0
	for n := head; n != nil; n = n.OrTail {
		n.OrIndex = i
		i++
	}
}

// Validate checks the structural invariants of spec.md §3 that are
// cheap to verify independent of the primitive store: (i) every
// non-root node carries a linkage, (ii) or-cluster indices are dense,
// (iii) write constraints admit at most one value per string clause.
// isWrite selects invariant (iii)'s write-mode check.
func (n *Node) Validate(isWrite bool) error {
	if n.Parent != nil && n.Linkage == graphd.LinkageNone {
		return fmt.Errorf("constraint: non-root node has no linkage: %w", graphd.ErrSemantics)
	}
	if isWrite {
		for _, sc := range n.StringClauses {
			if len(sc.Values) > 1 {
				return fmt.Errorf("constraint: write constraint admits at most one value per string clause: %w", graphd.ErrSemantics)
			}
		}
	}
	if err := validateOrChain(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.Validate(isWrite); err != nil {
			return err
		}
	}
	return nil
}

// validateOrChain checks that n's or-siblings (if any) share a
// common parent and that OrIndex is dense across the chain.
func validateOrChain(n *Node) error {
	if n.OrHead == nil {
		return nil
	}
	seen := map[int]bool{}
	count := 0
	for s := n.OrHead; s != nil; s = s.OrTail {
		if s.Parent != n.OrHead.Parent {
			return fmt.Errorf("constraint: or-siblings do not share a parent: %w", graphd.ErrSemantics)
		}
		if seen[s.OrIndex] {
			return fmt.Errorf("constraint: duplicate or_index %d: %w", s.OrIndex, graphd.ErrSemantics)
		}
		seen[s.OrIndex] = true
		count++
	}
	for i := 0; i < count; i++ {
		if !seen[i] {
			return fmt.Errorf("constraint: or_index space is not dense in [0,%d): %w", count, graphd.ErrSemantics)
		}
	}
	return nil
}

// IsRoot reports whether n has no linkage-bearing parent.
func (n *Node) IsRoot() bool { return n.Parent == nil }
