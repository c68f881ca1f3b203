package guidset

import (
	"testing"

	"github.com/ledgerwatch/graphd"
	"github.com/stretchr/testify/require"
)

func guid(b byte) graphd.GUID {
	var g graphd.GUID
	g[15] = b
	return g
}

func TestSetAddFindDelete(t *testing.T) {
	require := require.New(t)
	s := New()
	require.True(s.Find(graphd.NullGUID), "empty set reads as {null}")

	s.Add(guid(1))
	s.Add(guid(2))
	require.True(s.Find(guid(1)))
	require.True(s.Find(guid(2)))
	require.False(s.Find(guid(3)))

	s.Delete(guid(1))
	require.False(s.Find(guid(1)))
}

func TestGuidSetLaws(t *testing.T) {
	require := require.New(t)

	a := New()
	a.Add(guid(1))
	a.Add(guid(2))
	b := New()
	b.Add(guid(2))
	b.Add(guid(3))

	t.Run("intersect is commutative", func(t *testing.T) {
		require.True(Equal(Intersect(a, b), Intersect(b, a)))
	})

	t.Run("union with empty adds null", func(t *testing.T) {
		empty := &Set{}
		u := Union(a, empty)
		require.True(u.ContainsNull)
		require.True(u.Find(guid(1)))
		require.True(u.Find(guid(2)))
	})

	t.Run("subtract self", func(t *testing.T) {
		withNull := New()
		withNull.Add(guid(1))
		require.True(Equal(Subtract(withNull, withNull), &Set{ContainsNull: false}))

		noNull := &Set{GUIDs: []graphd.GUID{guid(1)}}
		sub := Subtract(noNull, noNull)
		require.False(sub.ContainsNull)
		require.Empty(sub.GUIDs)
	})

	t.Run("structurally empty set with ContainsNull false excludes null", func(t *testing.T) {
		empty := &Set{ContainsNull: false}
		require.False(empty.Find(graphd.NullGUID), "ContainsNull is the sole source of truth, not len(GUIDs)==0")
		require.False(empty.Match(graphd.NullGUID))

		nonNull := New()
		nonNull.Add(guid(1))
		require.True(Equal(Intersect(nonNull, empty), &Set{ContainsNull: false}))
	})

	t.Run("filter match respects null", func(t *testing.T) {
		f := FilterMatch(a, func(g graphd.GUID) bool { return g == guid(1) || g.IsNull() })
		require.True(f.Find(guid(1)))
		require.False(f.Find(guid(2)))
	})
}

func TestHashDeterministicUnderOrder(t *testing.T) {
	require := require.New(t)
	a := &Set{GUIDs: []graphd.GUID{guid(1), guid(2), guid(3)}}
	b := &Set{GUIDs: []graphd.GUID{guid(3), guid(1), guid(2)}}

	var built Set
	for _, g := range []graphd.GUID{guid(3), guid(1), guid(2)} {
		built.Add(g)
	}

	require.Equal(Hash(a), Hash(&built))
	_ = b
}
