package eval

import (
	"fmt"
	"time"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/comparator"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/guidset"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// Range is the dense ID window a compiled iterator is bounded to; the
// request's own low/high (the store's current Range()) unless an
// enclosing linkage join narrows it further.
type Range struct {
	Low, High graphd.ID
	Dir       graphd.Direction
}

// Compile turns n into an iterator per spec.md §4.4's recipe. It
// applies n's own index selection (step 2) first, then recurses into
// n's children for the linkage-join step (step 3), since each join
// needs a child's materialized result set, and falls back to `all`
// (step 4). Sorting (step 5) is not done here: the drain path wraps
// the producer with SortWrap afterwards.
func Compile(n *constraint.Node, deps Deps, rng Range, budget *graphd.Budget) (iterator.Iterator, error) {
	start := time.Now()
	defer func() { compileDuration.Update(time.Since(start).Seconds()) }()
	return compile(n, deps, rng, budget)
}

func compile(n *constraint.Node, deps Deps, rng Range, budget *graphd.Budget) (iterator.Iterator, error) {
	if err := normalize(n, deps); err != nil {
		return nil, err
	}
	if n.False {
		return iterator.NewNull(rng.Dir), nil
	}

	var producers []iterator.Iterator

	// Step 2: index selection over n's own clauses.
	for _, sc := range n.StringClauses {
		it, err := stringClauseIterator(sc, deps, rng)
		if err != nil {
			return nil, err
		}
		if it != nil {
			producers = append(producers, it)
		}
	}
	for _, gc := range n.GUIDClauses {
		it, err := guidClauseIterator(gc, deps, rng)
		if err != nil {
			return nil, err
		}
		if it != nil {
			producers = append(producers, it)
		}
	}

	// Step 3: linkage join against each child's materialized result.
	// Or-cluster siblings (sharing an OrHead) are alternative
	// sub-constraint sets joined by the same linkage field, so their
	// individually-compiled iterators are unioned before the join
	// rather than each becoming its own AND'd producer.
	joined := map[*constraint.Node]bool{}
	for _, child := range n.Children {
		if child.Linkage == graphd.LinkageNone || joined[child] {
			continue
		}
		branches := []*constraint.Node{child}
		if child.OrHead != nil {
			branches = branches[:0]
			for b := child.OrHead; b != nil; b = b.OrTail {
				branches = append(branches, b)
			}
		}
		var branchIts []iterator.Iterator
		for _, b := range branches {
			joined[b] = true
			it, err := compile(b, deps, rng, budget)
			if err != nil {
				return nil, err
			}
			branchIts = append(branchIts, it)
		}
		var childIt iterator.Iterator
		if len(branchIts) == 1 {
			childIt = branchIts[0]
		} else {
			childIt = iterator.NewOr(branchIts, rng.Dir)
		}
		members, err := materializeGUIDs(childIt, deps, rng, budget)
		if err != nil {
			return nil, err
		}
		producers = append(producers, iterator.NewLinkJoin(deps.Reader, child.Linkage, members, rng.Low, rng.High, rng.Dir))
	}

	// Step 4: fallback.
	if len(producers) == 0 {
		return iterator.NewAll(rng.Low, rng.High, rng.Dir), nil
	}
	if len(producers) == 1 {
		return producers[0], nil
	}
	return iterator.NewAnd(producers, rng.Dir), nil
}

// normalize resolves each GUID clause's generation window (spec.md
// §4.4 step 1): `~=` root-normalizes so two fuzzy sets are directly
// intersectable; `=` enumerates the requested newest/oldest window.
// An empty, null-less result marks n.False per spec.md §4.6.
func normalize(n *constraint.Node, deps Deps) error {
	for i := range n.GUIDClauses {
		gc := &n.GUIDClauses[i]
		if gc.Op == graphd.OpMatch {
			normalized, err := guidset.NormalizeMatch(gc.Set, deps.Generations)
			if err != nil {
				return err
			}
			gc.Set = normalized
		}
		if n.Generational.NewestBounded || n.Generational.OldestBounded {
			expanded, err := guidset.ConvertGenerations(gc.Set, func(g graphd.GUID) ([]graphd.GUID, error) {
				return expandGenerationWindow(g, n.Generational, deps.Generations)
			})
			if err != nil {
				return err
			}
			gc.Set = expanded
		}
		if len(gc.Set.GUIDs) == 0 && !gc.Set.ContainsNull {
			n.False = true
		}
	}
	return nil
}

// expandGenerationWindow resolves guid's lineage to the one or two
// generations the node's newest/oldest offsets name.
func expandGenerationWindow(guid graphd.GUID, gw constraint.Generational, gens pdb.Generations) ([]graphd.GUID, error) {
	if gens == nil {
		return []graphd.GUID{guid}, nil
	}
	var out []graphd.GUID
	if gw.NewestBounded {
		g, err := gens.Nth(guid, false, gw.NewestOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if gw.OldestBounded {
		g, err := gens.Nth(guid, true, gw.OldestOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if len(out) == 0 {
		out = append(out, guid)
	}
	return out, nil
}

// stringClauseIterator builds the most restrictive indexed iterator
// for sc, or nil if no useful restriction exists (the clause is left
// to checkNode's residual filtering).
func stringClauseIterator(sc constraint.StringClause, deps Deps, rng Range) (iterator.Iterator, error) {
	cmp := sc.Comparator
	if cmp == nil {
		cmp = comparator.Default{}
	}
	if !cmp.Syntax(sc.Op) {
		return nil, fmt.Errorf("eval: comparator %s rejects operator %s: %w", cmp.Name(), sc.Op, graphd.ErrSemantics)
	}
	switch sc.Op {
	case graphd.OpEQ, graphd.OpMatch:
		if len(sc.Values) == 0 {
			return nil, nil
		}
		var subs []iterator.Iterator
		for _, v := range sc.Values {
			it, err := cmp.EqIterator(sc.Op, v, deps.WordIndex, rng.Low, rng.High, rng.Dir)
			if err != nil {
				return nil, err
			}
			if it != nil {
				subs = append(subs, it)
			}
		}
		if len(subs) == 0 {
			return nil, nil
		}
		if len(subs) == 1 {
			return subs[0], nil
		}
		return iterator.NewOr(subs, rng.Dir), nil
	case graphd.OpLT, graphd.OpLE, graphd.OpGT, graphd.OpGE:
		rc, ok := cmp.(comparator.RangeCapable)
		if !ok || deps.BinIndex == nil || len(sc.Values) == 0 {
			return nil, nil
		}
		low, high := rangeBounds(rc, sc.Op, sc.Values[0])
		return comparator.NewVRange(rc, deps.BinIndex, deps.Reader, low, high, rng.Low, rng.High, rng.Dir, nil)
	default:
		return nil, nil
	}
}

// rangeBounds turns a single-sided op/value pair into the [low, high)
// value-string range VRange expects, per spec.md §4.3's half-open
// convention.
func rangeBounds(cmp comparator.RangeCapable, op graphd.Op, value string) (low, high string) {
	switch op {
	case graphd.OpLT:
		return cmp.LowestString(), value
	case graphd.OpLE:
		return cmp.LowestString(), value + "\x00"
	case graphd.OpGT:
		return value + "\x00", cmp.HighestString()
	case graphd.OpGE:
		return value, cmp.HighestString()
	default:
		return cmp.LowestString(), cmp.HighestString()
	}
}

// guidClauseIterator builds an indexed iterator for a GUID clause
// where one exists: typeguid has a direct hash-index path; a bare
// guid clause resolves each member to its dense id via ReadGUID. The
// remaining linkage-only fields (left/right/scope as tested against
// this node itself, rather than joined from a child) have no store
// hash kind and are left to checkNode.
func guidClauseIterator(gc constraint.GUIDClause, deps Deps, rng Range) (iterator.Iterator, error) {
	switch gc.Field {
	case constraint.FieldTypeguid:
		if deps.HashIndex == nil {
			return nil, nil
		}
		var subs []iterator.Iterator
		for _, g := range gc.Set.GUIDs {
			it, err := iterator.NewHash(deps.HashIndex, pdb.KindTypeguid, g[:], rng.Low, rng.High, rng.Dir)
			if err != nil {
				return nil, err
			}
			subs = append(subs, it)
		}
		if len(subs) == 0 {
			return nil, nil
		}
		if len(subs) == 1 {
			return subs[0], nil
		}
		return iterator.NewOr(subs, rng.Dir), nil
	case constraint.FieldGUID:
		if deps.Reader == nil {
			return nil, nil
		}
		var ids []graphd.ID
		for _, g := range gc.Set.GUIDs {
			p, ok, err := deps.Reader.ReadGUID(g)
			if err != nil {
				return nil, err
			}
			if ok {
				ids = append(ids, p.ID)
			}
		}
		return iterator.NewFixed(ids, rng.Low, rng.High, rng.Dir), nil
	default:
		return nil, nil
	}
}

// materializeGUIDs drains it to completion, collecting each emitted
// id's own GUID into a set for the parent's linkage join. This is the
// one place compile() fully drains a sub-iterator rather than
// composing it lazily, since the join step needs the child's whole
// answer before it can test membership (spec.md §4.4 step 3).
func materializeGUIDs(it iterator.Iterator, deps Deps, rng Range, budget *graphd.Budget) (*guidset.Set, error) {
	set := guidset.New()
	set.ContainsNull = false
	for {
		id, err := it.Next(budget)
		if err == graphd.ErrNo {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := deps.Reader.ReadID(id)
		if err != nil {
			return nil, err
		}
		set.Add(p.GUID)
	}
	return set, nil
}
