// Package ormap implements the or-map / read-or state tracking
// (component G, spec.md §4.5): a per-`or`-cluster vector of branch
// states, one slot per `or_index`, with the monotonic transition
// rules §4.5 and §8's "or-map monotonicity" invariant require. Atomic
// slots let a suspended evaluation frame re-read a branch's state
// safely across a budget-exhaustion yield, the same pattern a working
// atomic.Bool flag uses to stay readable across a goroutine boundary.
package ormap

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/ledgerwatch/graphd"
)

// State is one of the four per-branch states spec.md §4.5 defines.
// True and False are terminal: spec.md §8 requires a state never
// regress once it reaches one of them.
type State int32

const (
	Initial State = iota
	IntrinsicsMatch
	True
	False
)

func (s State) String() string {
	switch s {
	case Initial:
		return "INITIAL"
	case IntrinsicsMatch:
		return "INTRINSICS_MATCH"
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

func (s State) terminal() bool { return s == True || s == False }

// Map is the state vector for one `or`-cluster, indexed densely by
// `or_index` (constraint.AssignOrIndex assigns that index space).
type Map struct {
	slots []atomic.Int32
}

// New returns a Map with n branches, all INITIAL.
func New(n int) *Map {
	return &Map{slots: make([]atomic.Int32, n)}
}

// Len reports the number of branches in the cluster.
func (m *Map) Len() int { return len(m.slots) }

// Get reads branch i's current state.
func (m *Map) Get(i int) State { return State(m.slots[i].Load()) }

func legal(from, to State) bool {
	switch from {
	case Initial:
		return to == IntrinsicsMatch || to == True || to == False
	case IntrinsicsMatch:
		return to == True || to == False
	default:
		return false
	}
}

// transition CASes branch i from its current state to to, rejecting
// both illegal transitions and any attempt to leave a terminal state.
func (m *Map) transition(i int, to State) error {
	for {
		cur := State(m.slots[i].Load())
		if cur.terminal() {
			return fmt.Errorf("ormap: branch %d is terminal at %s, cannot move to %s: %w", i, cur, to, graphd.ErrSemantics)
		}
		if !legal(cur, to) {
			return fmt.Errorf("ormap: branch %d illegal transition %s -> %s: %w", i, cur, to, graphd.ErrSemantics)
		}
		if m.slots[i].CompareAndSwap(int32(cur), int32(to)) {
			return nil
		}
	}
}

// MatchIntrinsics records that branch i's own clauses matched
// (spec.md §4.5 "Match intrinsics"). hasSubconstraints selects
// INITIAL -> INTRINSICS_MATCH when more evaluation remains, or
// directly INITIAL -> TRUE when the branch has no subconstraints to
// wait on.
func (m *Map) MatchIntrinsics(i int, hasSubconstraints bool) error {
	if hasSubconstraints {
		return m.transition(i, IntrinsicsMatch)
	}
	return m.transition(i, True)
}

// Satisfy records that branch i's subconstraints are all satisfied
// (INTRINSICS_MATCH -> TRUE), then marks every not-yet-decided
// sibling FALSE per spec.md §4.5 ("siblings may be pruned").
func (m *Map) Satisfy(i int) error {
	if err := m.transition(i, True); err != nil {
		return err
	}
	for j := range m.slots {
		if j == i {
			continue
		}
		if cur := m.Get(j); cur == Initial || cur == IntrinsicsMatch {
			_ = m.transition(j, False)
		}
	}
	return nil
}

// Fail records that branch i is dead (spec.md §4.5 "Fail anywhere").
// Propagating failure into i's own subtree and escalating to an
// enclosing or-cluster when every sibling is FALSE is the compiler's
// job (it alone knows the constraint tree's nesting); Fail only
// updates this cluster's slot.
func (m *Map) Fail(i int) error {
	cur := m.Get(i)
	if cur == False {
		return nil
	}
	return m.transition(i, False)
}

// AllFalse reports whether every branch in the cluster is FALSE, the
// condition under which spec.md §4.5 says an enclosing prototype
// should itself be marked FALSE.
func (m *Map) AllFalse() bool {
	for i := range m.slots {
		if m.Get(i) != False {
			return false
		}
	}
	return true
}

// ClusterResult reports whether this cluster, as a whole, is TRUE:
// any branch TRUE and the enclosing context (the parent's or-cluster,
// reported by the caller as parentNotFalse) not FALSE (spec.md §4.5).
func (m *Map) ClusterResult(parentNotFalse bool) bool {
	if !parentNotFalse {
		return false
	}
	for i := range m.slots {
		if m.Get(i) == True {
			return true
		}
	}
	return false
}
