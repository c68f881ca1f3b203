package comparator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
)

func TestCaseInsensitiveRejectsMatch(t *testing.T) {
	ci := CaseInsensitive{}
	require.False(t, ci.Syntax(graphd.OpMatch))
	require.True(t, ci.Syntax(graphd.OpEQ))
}

func TestCaseInsensitiveSortCompareFolds(t *testing.T) {
	ci := CaseInsensitive{}
	require.Equal(t, 0, ci.SortCompare("Apple", "apple"))
	require.Less(t, ci.SortCompare("apple", "banana"), 0)
}

func TestCaseInsensitiveDistinctBinSetFromDefault(t *testing.T) {
	require.NotEqual(t, Default{}.BinSet(), CaseInsensitive{}.BinSet())
}
