package eval

import (
	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/comparator"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/pdb"
)

// stringField reads the primitive field Field addresses, reporting ok
// false for fields with no string representation (e.g. the GUID-only
// fields).
func stringField(p *pdb.Primitive, field constraint.Field) (string, bool) {
	switch field {
	case constraint.FieldName:
		return p.Name, true
	case constraint.FieldValue:
		if !p.HasValue() {
			return "", false
		}
		return p.Value, true
	default:
		return "", false
	}
}

// guidField reads the GUID p carries at field, reporting ok false for
// a field this primitive has no value for (spec.md's null-GUID
// convention: an absent left/right/scope/typeguid reads as the
// reserved null GUID, which guidset.Set.Match already treats
// specially via ContainsNull).
func guidField(p *pdb.Primitive, field constraint.Field, gens pdb.Generations) (graphd.GUID, bool, error) {
	switch field {
	case constraint.FieldGUID:
		return p.GUID, true, nil
	case constraint.FieldLeft:
		return p.Left, true, nil
	case constraint.FieldRight:
		return p.Right, true, nil
	case constraint.FieldScope:
		return p.Scope, true, nil
	case constraint.FieldTypeguid:
		return p.TypeGUID, true, nil
	case constraint.FieldPrev:
		return p.Previous, true, nil
	case constraint.FieldNext:
		// No primitive stores its successor directly; it is derived
		// from the generation chain (spec.md §3's "next" is the
		// generation one newer than this one).
		if gens == nil {
			return graphd.NullGUID, false, nil
		}
		next, err := gens.Nth(p.GUID, false, -1)
		if err != nil {
			return graphd.NullGUID, false, nil
		}
		return next, true, nil
	default:
		return graphd.NullGUID, false, nil
	}
}

// checkStringClause reports whether p satisfies sc, following spec.md
// §3 invariant (iii): a read constraint's multiple Values are an
// implicit disjunction, so sc is satisfied if p's field value
// satisfies sc.Op against any one of them.
func checkStringClause(p *pdb.Primitive, sc constraint.StringClause) bool {
	val, ok := stringField(p, sc.Field)
	cmp := sc.Comparator
	if cmp == nil {
		cmp = comparator.Default{}
	}
	for _, want := range sc.Values {
		if matchOne(cmp, sc.Op, val, ok, want) {
			return true
		}
	}
	return len(sc.Values) == 0
}

func matchOne(cmp comparator.Comparator, op graphd.Op, val string, hasVal bool, want string) bool {
	switch op {
	case graphd.OpEQ:
		return hasVal && cmp.SortCompare(val, want) == 0
	case graphd.OpNE:
		return !hasVal || cmp.SortCompare(val, want) != 0
	case graphd.OpMatch:
		return hasVal && cmp.Glob(want, val)
	case graphd.OpLT:
		return hasVal && cmp.SortCompare(val, want) < 0
	case graphd.OpLE:
		return hasVal && cmp.SortCompare(val, want) <= 0
	case graphd.OpGT:
		return hasVal && cmp.SortCompare(val, want) > 0
	case graphd.OpGE:
		return hasVal && cmp.SortCompare(val, want) >= 0
	default:
		return false
	}
}

// checkGUIDClause reports whether p satisfies gc.
func checkGUIDClause(p *pdb.Primitive, gc constraint.GUIDClause, gens pdb.Generations) bool {
	g, ok, err := guidField(p, gc.Field, gens)
	if err != nil {
		return false
	}
	var matched bool
	if !ok {
		matched = gc.Set.Match(graphd.NullGUID)
	} else {
		matched = gc.Set.Match(g)
	}
	switch gc.Op {
	case graphd.OpEQ:
		return matched
	case graphd.OpNE:
		return !matched
	default:
		return matched
	}
}

// checkNode is the residual correctness gate (spec.md §4.4 step 1's
// normalization feeds into this, and drain.go calls it for every
// candidate id the compiled iterator produces): it tests every one of
// n's own string and GUID clauses against p, independent of whatever
// index restriction the compiler managed to apply. This is what lets
// compile() under-select (fall back to `all`) without ever producing
// a wrong answer — checkNode is always the final word.
func checkNode(n *constraint.Node, p *pdb.Primitive, gens pdb.Generations) bool {
	for _, sc := range n.StringClauses {
		if !checkStringClause(p, sc) {
			return false
		}
	}
	for _, gc := range n.GUIDClauses {
		if !checkGUIDClause(p, gc, gens) {
			return false
		}
	}
	if n.False {
		return false
	}
	return true
}

// linkGUID reads the GUID on p that links it to its parent per
// linkage, used by the linkage-join step (compile.go) to test
// membership against a child's materialized result set.
func linkGUID(p *pdb.Primitive, linkage graphd.Linkage) graphd.GUID {
	switch linkage {
	case graphd.LinkageLeft:
		return p.Left
	case graphd.LinkageRight:
		return p.Right
	case graphd.LinkageScope:
		return p.Scope
	case graphd.LinkageTypeguid:
		return p.TypeGUID
	default:
		return graphd.NullGUID
	}
}
