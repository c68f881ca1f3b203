package eval

import (
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/pdb"
	"github.com/ledgerwatch/graphd/token"
)

// RenderPattern builds the result-token tree (component H, spec.md
// §3/§6.3) pat describes for p. A nil pat renders the whole primitive
// using the default dump shape: (guid name value typeguid).
func RenderPattern(pat *constraint.Pattern, p *pdb.Primitive, gens pdb.Generations) *token.Token {
	if pat == nil {
		return defaultDump(p)
	}
	switch pat.Kind {
	case constraint.PatternNull:
		return token.Null()
	case constraint.PatternField:
		return renderField(pat.Field, p, gens)
	case constraint.PatternList:
		return token.List(renderChildren(pat.Children, p, gens)...)
	case constraint.PatternSequence:
		// A single primitive contributes exactly one repetition; the
		// per-match fan-out spec.md's {…} sequence notation implies
		// belongs to the caller iterating multiple result ids, not to
		// this per-primitive renderer.
		return token.Sequence(renderChildren(pat.Children, p, gens)...)
	case constraint.PatternAtom:
		// Pattern carries no literal text for an atom node (only
		// Field); there is nothing to render without one.
		return token.Unspecified()
	default:
		return token.Unspecified()
	}
}

func renderChildren(children []*constraint.Pattern, p *pdb.Primitive, gens pdb.Generations) []*token.Token {
	out := make([]*token.Token, 0, len(children))
	for _, c := range children {
		out = append(out, RenderPattern(c, p, gens))
	}
	return out
}

func renderField(field constraint.Field, p *pdb.Primitive, gens pdb.Generations) *token.Token {
	switch field {
	case constraint.FieldName:
		if p.Name == "" {
			return token.Null()
		}
		return token.String(p.Name, p)
	case constraint.FieldValue:
		if !p.HasValue() {
			return token.Null()
		}
		switch p.Datatype {
		case pdb.DatatypeNumber:
			return token.Number(p.Value)
		case pdb.DatatypeTimestamp:
			return token.Timestamp(p.Value)
		default:
			return token.String(p.Value, p)
		}
	case constraint.FieldGUID:
		return token.GUIDToken(p.GUID)
	case constraint.FieldTypeguid:
		if p.TypeGUID.IsNull() {
			return token.Null()
		}
		return token.GUIDToken(p.TypeGUID)
	case constraint.FieldLeft:
		if p.Left.IsNull() {
			return token.Null()
		}
		return token.GUIDToken(p.Left)
	case constraint.FieldRight:
		if p.Right.IsNull() {
			return token.Null()
		}
		return token.GUIDToken(p.Right)
	case constraint.FieldScope:
		if p.Scope.IsNull() {
			return token.Null()
		}
		return token.GUIDToken(p.Scope)
	case constraint.FieldPrev:
		if p.Previous.IsNull() {
			return token.Null()
		}
		return token.GUIDToken(p.Previous)
	case constraint.FieldNext:
		g, ok, err := guidField(p, constraint.FieldNext, gens)
		if err != nil || !ok || g.IsNull() {
			return token.Null()
		}
		return token.GUIDToken(g)
	default:
		// FieldType has no stored representation distinct from
		// FieldTypeguid (see checker.go); rendering it as null is the
		// same defensive no-op.
		return token.Null()
	}
}

func defaultDump(p *pdb.Primitive) *token.Token {
	return token.List(
		token.GUIDToken(p.GUID),
		renderField(constraint.FieldName, p, nil),
		renderField(constraint.FieldValue, p, nil),
		renderField(constraint.FieldTypeguid, p, nil),
	)
}
