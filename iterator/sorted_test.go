package iterator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
)

func TestSortedEmitsInGivenOrder(t *testing.T) {
	s := NewSorted([]graphd.ID{3, 1, 2})
	require.Equal(t, []graphd.ID{3, 1, 2}, drain(t, s, graphd.NewBudget(1000)))
}

func TestSortedFindRecoversByExactMatch(t *testing.T) {
	s := NewSorted([]graphd.ID{3, 1, 2})
	budget := graphd.NewBudget(1000)
	id, err := s.Find(1, budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(1), id)
	// resumes just after the recovered element.
	id, err = s.Next(budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(2), id)
}

func TestSortedFindReportsExhaustionWhenIDGone(t *testing.T) {
	s := NewSorted([]graphd.ID{3, 1, 2})
	_, err := s.Find(99, graphd.NewBudget(1000))
	require.ErrorIs(t, err, graphd.ErrNo)
}

func TestSortedCheckIgnoresOrder(t *testing.T) {
	s := NewSorted([]graphd.ID{3, 1, 2})
	budget := graphd.NewBudget(1000)
	require.NoError(t, s.Check(1, budget))
	require.ErrorIs(t, s.Check(9, budget), graphd.ErrNo)
}

func TestSortedFreezeEncodesSetAndPosition(t *testing.T) {
	s := NewSorted([]graphd.ID{3, 1, 2})
	budget := graphd.NewBudget(1000)
	_, err := s.Next(budget)
	require.NoError(t, err)
	frozen, err := s.Freeze(FreezeSet | FreezePosition)
	require.NoError(t, err)
	require.Equal(t, "sorted(3:1:2)/3", frozen)
}
