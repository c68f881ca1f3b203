package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
)

func TestThawSortedRoundTripSet(t *testing.T) {
	it := iterator.NewSorted([]graphd.ID{5, 1, 3})
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{5, 1, 3}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawSortedRoundTripSetPositionResumesAfterLastID(t *testing.T) {
	it := iterator.NewSorted([]graphd.ID{5, 1, 3})
	budget := graphd.NewBudget(1000)
	_, err := it.Next(budget)
	require.NoError(t, err)

	text, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{1, 3}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawSortedEmptySet(t *testing.T) {
	it := iterator.NewSorted(nil)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)
	require.Equal(t, "sorted()", text)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Empty(t, drain(t, thawed, graphd.NewBudget(1000)))
}
