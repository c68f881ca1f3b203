package constraint

// PatternKind names the shape of a result or sort pattern node
// (spec.md §3 "Result patterns and sort patterns (see H)"; the S-expression
// forms the reply writer ultimately emits are spec.md §6.3's
// atom/"string"/N/T/G-G-G/(…)/{…}/null).
type PatternKind uint8

const (
	PatternAtom PatternKind = iota
	PatternField
	PatternList     // (…): ordered sequence of sibling patterns
	PatternSequence // {…}: per-match repeated sequence
	PatternNull
)

// Pattern is one node of a result or sort pattern tree, allocated
// from the request arena by PatternAlloc (spec.md §6.2 pattern_alloc).
// A sort pattern is a degenerate Pattern tree read by the compiler as
// an ordered list of fields, matching invariant (iv)'s "sort
// comparators form an ordered list".
type Pattern struct {
	Kind     PatternKind
	Field    Field
	Parent   *Pattern
	Children []*Pattern
}

// PatternAlloc allocates a Pattern node owned by a and linked under
// parent (spec.md §6.2 pattern_alloc(kind, parent)). parent may be
// nil for a pattern tree's root.
func (a *Arena) PatternAlloc(kind PatternKind, parent *Pattern) *Pattern {
	p := &Pattern{Kind: kind, Parent: parent}
	a.patterns = append(a.patterns, p)
	if parent != nil {
		parent.Children = append(parent.Children, p)
	}
	return p
}
