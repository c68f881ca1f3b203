package eval

import (
	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/cursor"
)

// Verify re-runs Check (never Next) over a frozen cursor's SET against
// the current store snapshot (the additive `verify` verb SPEC_FULL.md
// adds alongside read/write/iterate): it reports whether ids still
// satisfy both the iterator's own membership test and n's residual
// clauses, without advancing or mutating anything. This lets a client
// validate a previously returned result set stays live without paying
// for a full re-evaluation.
func Verify(n *constraint.Node, frozenCursor string, ids []graphd.ID, deps Deps, budget *graphd.Budget) (map[graphd.ID]bool, error) {
	it, err := cursor.Thaw(frozenCursor, cursor.Deps{
		HashIndex: deps.HashIndex,
		WordIndex: deps.WordIndex,
		BinIndex:  deps.BinIndex,
		Reader:    deps.Reader,
	}, budget)
	if err != nil {
		return nil, err
	}
	cursorThawed.Inc()

	out := make(map[graphd.ID]bool, len(ids))
	for _, id := range ids {
		err := it.Check(id, budget)
		switch err {
		case nil:
			// Still a structural index member; the residual clauses
			// still decide correctness exactly as a fresh read would.
			p, rerr := deps.Reader.ReadID(id)
			if rerr != nil {
				return nil, rerr
			}
			alive := checkNode(n, p, deps.Generations)
			if !alive {
				verifyMismatches.Inc()
			}
			out[id] = alive
		case graphd.ErrNo:
			verifyMismatches.Inc()
			out[id] = false
		default:
			return nil, err
		}
	}
	return out, nil
}
