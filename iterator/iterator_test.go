package iterator

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

func drain(t *testing.T, it Iterator, budget *graphd.Budget) []graphd.ID {
	t.Helper()
	var out []graphd.ID
	for {
		id, err := it.Next(budget)
		if err == graphd.ErrNo {
			return out
		}
		require.NoError(t, err)
		out = append(out, id)
	}
}

func fixedBitmap(ids ...uint32) *roaring.Bitmap {
	bm := roaring.New()
	bm.AddMany(ids)
	return bm
}

// fakeReader is a minimal pdb.Reader over an in-memory map, used only
// to exercise WithoutValue's reader-filtered scan.
type fakeReader struct {
	values map[graphd.ID]bool // id -> HasValue
}

func (r *fakeReader) ReadID(id graphd.ID) (*pdb.Primitive, error) {
	p := &pdb.Primitive{ID: id}
	if r.values[id] {
		p.Datatype = pdb.DatatypeString
		p.Value = "x"
	}
	return p, nil
}

func (r *fakeReader) ReadGUID(graphd.GUID) (*pdb.Primitive, bool, error) { return nil, false, nil }
func (r *fakeReader) Range() graphd.ID                                  { return graphd.ID(len(r.values)) }

func TestNullIteratorIsEmpty(t *testing.T) {
	n := NewNull(graphd.Forward)
	ids := drain(t, n, graphd.NewBudget(1000))
	require.Empty(t, ids)
}

func TestAllIteratorForwardAndBackward(t *testing.T) {
	fwd := NewAll(0, 5, graphd.Forward)
	require.Equal(t, []graphd.ID{0, 1, 2, 3, 4}, drain(t, fwd, graphd.NewBudget(1000)))

	back := NewAll(0, 5, graphd.Backward)
	require.Equal(t, []graphd.ID{4, 3, 2, 1, 0}, drain(t, back, graphd.NewBudget(1000)))
}

func TestAllIteratorFind(t *testing.T) {
	it := NewAll(0, 10, graphd.Forward)
	budget := graphd.NewBudget(1000)
	id, err := it.Find(5, budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(5), id)
	id, err = it.Next(budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(6), id)
}

func TestAllIteratorBudgetExhaustion(t *testing.T) {
	it := NewAll(0, 100, graphd.Forward)
	budget := graphd.NewBudget(CostNext)
	_, err := it.Next(budget)
	require.NoError(t, err)
	_, err = it.Next(budget)
	require.ErrorIs(t, err, graphd.ErrMore)
}

func TestAllIteratorCloneIndependentPosition(t *testing.T) {
	it := NewAll(0, 5, graphd.Forward)
	budget := graphd.NewBudget(1000)
	_, err := it.Next(budget)
	require.NoError(t, err)
	clone := it.Clone()
	_, err = it.Next(budget)
	require.NoError(t, err)
	cloneID, err := clone.Next(budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(1), cloneID)
}

func TestAndIntersection(t *testing.T) {
	a := NewFixed([]graphd.ID{1, 2, 3, 4, 5}, 0, 100, graphd.Forward)
	b := NewFixed([]graphd.ID{2, 4, 6}, 0, 100, graphd.Forward)
	and := NewAnd([]Iterator{a, b}, graphd.Forward)
	require.Equal(t, []graphd.ID{2, 4}, drain(t, and, graphd.NewBudget(10000)))
}

func TestAndPlanCachedAcrossClones(t *testing.T) {
	a := NewFixed([]graphd.ID{1, 2, 3}, 0, 100, graphd.Forward)
	b := NewFixed([]graphd.ID{2, 3}, 0, 100, graphd.Forward)
	and := NewAnd([]Iterator{a, b}, graphd.Forward)
	budget := graphd.NewBudget(10000)
	_, err := and.Next(budget)
	require.NoError(t, err)
	clone := and.Clone().(*And)
	require.True(t, clone.plan.ready)
	require.Same(t, and.plan, clone.plan)
}

func TestOrSortedUnionDedups(t *testing.T) {
	a := NewFixed([]graphd.ID{1, 3, 5}, 0, 100, graphd.Forward)
	b := NewFixed([]graphd.ID{3, 4, 5, 6}, 0, 100, graphd.Forward)
	or := NewOr([]Iterator{a, b}, graphd.Forward)
	require.Equal(t, []graphd.ID{1, 3, 4, 5, 6}, drain(t, or, graphd.NewBudget(100000)))
}

func TestOrSortedUnionBackward(t *testing.T) {
	a := NewFixed([]graphd.ID{1, 3, 5}, 0, 100, graphd.Backward)
	b := NewFixed([]graphd.ID{3, 4}, 0, 100, graphd.Backward)
	or := NewOr([]Iterator{a, b}, graphd.Backward)
	require.Equal(t, []graphd.ID{5, 4, 3, 1}, drain(t, or, graphd.NewBudget(100000)))
}

func TestIDSetClipsToRange(t *testing.T) {
	bm := fixedBitmap(1, 2, 3, 10, 11)
	it := NewIDSet(bm, 0, 5, graphd.Forward)
	require.Equal(t, []graphd.ID{1, 2, 3}, drain(t, it, graphd.NewBudget(10000)))
}

func TestFixedFreezeAndClone(t *testing.T) {
	f := NewFixed([]graphd.ID{10, 20, 30}, 0, 100, graphd.Forward)
	budget := graphd.NewBudget(10000)
	_, err := f.Next(budget)
	require.NoError(t, err)
	frozen, err := f.Freeze(FreezeSet | FreezePosition)
	require.NoError(t, err)
	require.NotEmpty(t, frozen)

	clone := f.Clone()
	id, err := clone.Next(budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(20), id)
}

func TestWithoutValueFiltersReader(t *testing.T) {
	r := &fakeReader{values: map[graphd.ID]bool{0: true, 1: false, 2: true, 3: false}}
	it := NewWithoutValue(r, 0, 4, graphd.Forward)
	require.Equal(t, []graphd.ID{1, 3}, drain(t, it, graphd.NewBudget(10000)))
}
