package ormap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
)

func TestMatchIntrinsicsWithSubconstraints(t *testing.T) {
	m := New(2)
	require.NoError(t, m.MatchIntrinsics(0, true))
	require.Equal(t, IntrinsicsMatch, m.Get(0))
}

func TestMatchIntrinsicsWithoutSubconstraintsGoesStraightToTrue(t *testing.T) {
	m := New(2)
	require.NoError(t, m.MatchIntrinsics(0, false))
	require.Equal(t, True, m.Get(0))
}

func TestSatisfyMarksUndecidedSiblingsFalse(t *testing.T) {
	m := New(3)
	require.NoError(t, m.MatchIntrinsics(0, true))
	require.NoError(t, m.MatchIntrinsics(1, true))
	// branch 2 never even matched intrinsics; still INITIAL.
	require.NoError(t, m.Satisfy(0))
	require.Equal(t, True, m.Get(0))
	require.Equal(t, False, m.Get(1))
	require.Equal(t, False, m.Get(2))
}

func TestSatisfyDoesNotDisturbAlreadyTrueSibling(t *testing.T) {
	m := New(2)
	require.NoError(t, m.MatchIntrinsics(0, false)) // -> TRUE
	require.NoError(t, m.MatchIntrinsics(1, true))
	require.NoError(t, m.Satisfy(1))
	require.Equal(t, True, m.Get(0))
	require.Equal(t, True, m.Get(1))
}

func TestFailIsIdempotent(t *testing.T) {
	m := New(1)
	require.NoError(t, m.Fail(0))
	require.NoError(t, m.Fail(0))
	require.Equal(t, False, m.Get(0))
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	m := New(1)
	require.NoError(t, m.MatchIntrinsics(0, false))
	require.ErrorIs(t, m.transition(0, IntrinsicsMatch), graphd.ErrSemantics)
	require.ErrorIs(t, m.Satisfy(0), graphd.ErrSemantics)
}

func TestIllegalTransitionRejected(t *testing.T) {
	m := New(1)
	require.NoError(t, m.MatchIntrinsics(0, true))
	require.ErrorIs(t, m.transition(0, IntrinsicsMatch), graphd.ErrSemantics)
}

func TestAllFalse(t *testing.T) {
	m := New(2)
	require.False(t, m.AllFalse())
	require.NoError(t, m.Fail(0))
	require.False(t, m.AllFalse())
	require.NoError(t, m.Fail(1))
	require.True(t, m.AllFalse())
}

func TestClusterResult(t *testing.T) {
	m := New(2)
	require.NoError(t, m.MatchIntrinsics(0, false))
	require.False(t, m.ClusterResult(false))
	require.True(t, m.ClusterResult(true))
}
