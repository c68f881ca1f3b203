package eval

import (
	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/cursor"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/ormap"
	"github.com/ledgerwatch/graphd/pdb"
	"github.com/ledgerwatch/graphd/token"
)

// Result is one page of a read's answer: the matched tokens plus a
// cursor for resuming (spec.md §8 scenario 4's paginated-cursor
// behavior). Cursor is empty at true end-of-result; Cursor is always
// non-empty when Budget ran out mid-drain or pagesize was reached
// before exhaustion.
type Result struct {
	Tokens []*token.Token
	Cursor string
	EOF    bool

	// OrMatches carries, for every matched primitive whose root node
	// heads an or-cluster, the resolved per-branch ormap.Map (spec.md
	// §4.5, §8 scenario 5: "the or-map recording TRUE on exactly one
	// branch"). A caller (or a test) can walk these to confirm that
	// invariant directly instead of trusting it blindly.
	OrMatches []OrMatch
}

// OrMatch pairs a matched primitive's GUID with the or-cluster state
// matchOrCluster computed for it.
type OrMatch struct {
	GUID graphd.GUID
	Map  *ormap.Map
}

// Read evaluates root against the store, producing up to
// root.Pagination.ResultPageSize tokens (falling back to PageSize),
// skipping root.Pagination.Start matches first. If root.Pagination.Cursor
// is set, evaluation resumes from the frozen iterator instead of
// recompiling root.
func Read(n *constraint.Node, deps Deps, budget *graphd.Budget) (Result, error) {
	it, err := resolveProducer(n, deps, budget)
	if err != nil {
		return Result{}, err
	}

	page := n.Pagination.ResultPageSize
	if page <= 0 {
		page = n.Pagination.PageSize
	}
	if page <= 0 {
		page = defaultPageSize
	}
	skip := n.Pagination.Start

	var tokens []*token.Token
	var orMatches []OrMatch
	for len(tokens) < page {
		id, err := it.Next(budget)
		if err == graphd.ErrNo {
			resultsEmitted.Add(len(tokens))
			return Result{Tokens: tokens, Cursor: "", EOF: true, OrMatches: orMatches}, nil
		}
		if err == graphd.ErrMore {
			budgetExhausted.Inc()
			frozen, ferr := it.Freeze(iterator.FreezeSet | iterator.FreezePosition | iterator.FreezeState)
			if ferr != nil {
				return Result{}, ferr
			}
			cursorFrozen.Inc()
			resultsEmitted.Add(len(tokens))
			return Result{Tokens: tokens, Cursor: frozen, OrMatches: orMatches}, nil
		}
		if err != nil {
			return Result{}, err
		}
		p, err := deps.Reader.ReadID(id)
		if err != nil {
			return Result{}, err
		}
		if !checkNode(n, p, deps.Generations) {
			checkerRejected.Inc()
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if m := matchOrCluster(n, p, deps); m != nil {
			orMatches = append(orMatches, OrMatch{GUID: p.GUID, Map: m})
		}
		tokens = append(tokens, RenderPattern(n.ResultPattern, p, deps.Generations))
	}
	frozen, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition | iterator.FreezeState)
	if err != nil {
		return Result{}, err
	}
	cursorFrozen.Inc()
	resultsEmitted.Add(len(tokens))
	return Result{Tokens: tokens, Cursor: frozen, OrMatches: orMatches}, nil
}

const defaultPageSize = 100

// resolveProducer either thaws n.Pagination.Cursor (continuing a prior
// page) or compiles n fresh, applying the sort wrap (spec.md §4.4 step
// 5) only on a fresh compile — a thawed iterator already carries
// whatever order its SET encodes.
func resolveProducer(n *constraint.Node, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if n.Pagination.Cursor != "" {
		cursorThawed.Inc()
		return cursor.Thaw(n.Pagination.Cursor, cursor.Deps{
			HashIndex: deps.HashIndex,
			WordIndex: deps.WordIndex,
			BinIndex:  deps.BinIndex,
			Reader:    deps.Reader,
		}, budget)
	}
	high := deps.Reader.Range()
	rng := Range{Low: 0, High: high, Dir: graphd.Forward}
	it, err := Compile(n, deps, rng, budget)
	if err != nil {
		return nil, err
	}
	limit := n.Pagination.CountLimit
	if limit <= 0 {
		limit = n.Pagination.Start + n.Pagination.PageSize
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return SortWrap(it, n.SortKeys, limit, deps, budget)
}

// matchOrCluster drives ormap.Map bookkeeping for n's or-cluster, if n
// is itself the head of one (spec.md §4.5, exercised per the
// end-to-end "or-map recording TRUE on exactly one branch" scenario),
// and returns the resulting Map so the caller can attach it to Result.
// It is advisory in the sense that the iterator algebra already
// determined id's membership correctly via compile()'s Or/LinkJoin
// composition, so a bookkeeping error here never affects which ids
// are returned — but the Map itself is no longer thrown away: it is
// the only place spec.md §4.5's per-branch state is observable.
func matchOrCluster(n *constraint.Node, p *pdb.Primitive, deps Deps) *ormap.Map {
	if n.OrHead == nil || n != n.OrHead {
		return nil
	}
	branches := orBranches(n)
	m := ormap.New(len(branches))
	for i, b := range branches {
		hasSub := len(b.Children) > 0
		if checkNode(b, p, deps.Generations) {
			_ = m.MatchIntrinsics(i, hasSub)
			if hasSub {
				_ = m.Satisfy(i)
			}
		} else {
			_ = m.Fail(i)
		}
	}
	return m
}

// orBranches collects an or-cluster's members in OrIndex order,
// starting at its head.
func orBranches(head *constraint.Node) []*constraint.Node {
	var out []*constraint.Node
	for b := head; b != nil; b = b.OrTail {
		out = append(out, b)
	}
	return out
}
