package comparator

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// fakeBinIndex partitions a fixed set of (value, id) pairs into
// string-sorted bins, one value per bin, purely for exercising VRange.
type fakeBinIndex struct {
	values []string          // sorted distinct values, index == bin
	byBin  map[int][]graphd.ID
}

func newFakeBinIndex(pairs map[string]graphd.ID) *fakeBinIndex {
	idx := &fakeBinIndex{byBin: map[int][]graphd.ID{}}
	for v := range pairs {
		idx.values = append(idx.values, v)
	}
	sort.Strings(idx.values)
	for bin, v := range idx.values {
		idx.byBin[bin] = append(idx.byBin[bin], pairs[v])
	}
	return idx
}

func (f *fakeBinIndex) BinLookup(_ pdb.BinSet, bytes []byte) (int, error) {
	v := string(bytes)
	i := sort.SearchStrings(f.values, v)
	if i == len(f.values) {
		return len(f.values), nil
	}
	return i, nil
}

func (f *fakeBinIndex) BinToIterator(_ pdb.BinSet, bin int, low, high graphd.ID, dir graphd.Direction, errorIfNull bool) (pdb.IDIterator, error) {
	return &fakeIDIterator{ids: append([]graphd.ID(nil), f.byBin[bin]...)}, nil
}

func (f *fakeBinIndex) BinValue(_ pdb.BinSet, bin int) ([]byte, error) {
	if bin < 0 || bin >= len(f.values) {
		return nil, graphd.ErrNo
	}
	return []byte(f.values[bin]), nil
}

func (f *fakeBinIndex) BinEnd(pdb.BinSet) (int, error) { return len(f.values), nil }

type fakeIDIterator struct {
	ids []graphd.ID
	pos int
}

func (f *fakeIDIterator) Next() (graphd.ID, bool) {
	if f.pos >= len(f.ids) {
		return graphd.NoID, false
	}
	id := f.ids[f.pos]
	f.pos++
	return id, true
}

func (f *fakeIDIterator) FindNonstep(id graphd.ID) (graphd.ID, bool) {
	for _, v := range f.ids {
		if v == id {
			return v, true
		}
	}
	return graphd.NoID, false
}

func (f *fakeIDIterator) Close() {}

type fakeVRangeReader struct {
	valueByID map[graphd.ID]string
}

func (r *fakeVRangeReader) ReadID(id graphd.ID) (*pdb.Primitive, error) {
	return &pdb.Primitive{ID: id, Datatype: pdb.DatatypeString, Value: r.valueByID[id]}, nil
}
func (r *fakeVRangeReader) ReadGUID(graphd.GUID) (*pdb.Primitive, bool, error) { return nil, false, nil }
func (r *fakeVRangeReader) Range() graphd.ID                                  { return graphd.ID(len(r.valueByID)) }

func TestVRangeEnumeratesInValueOrder(t *testing.T) {
	pairs := map[string]graphd.ID{"apple": 1, "banana": 2, "cherry": 3, "date": 4}
	idx := newFakeBinIndex(pairs)
	reader := &fakeVRangeReader{valueByID: map[graphd.ID]string{1: "apple", 2: "banana", 3: "cherry", 4: "date"}}
	d := Default{}

	v, err := NewVRange(d, idx, reader, "banana", "date", 0, 100, graphd.Forward, nil)
	require.NoError(t, err)

	var got []graphd.ID
	budget := graphd.NewBudget(100000)
	for {
		id, err := v.Next(budget)
		if err == graphd.ErrNo {
			break
		}
		require.NoError(t, err)
		got = append(got, id)
	}
	require.Equal(t, []graphd.ID{2, 3}, got)
}

func TestVRangeHighestStringIncludesAllBins(t *testing.T) {
	pairs := map[string]graphd.ID{"apple": 1, "banana": 2}
	idx := newFakeBinIndex(pairs)
	reader := &fakeVRangeReader{valueByID: map[graphd.ID]string{1: "apple", 2: "banana"}}
	d := Default{}

	v, err := NewVRange(d, idx, reader, "apple", d.HighestString(), 0, 100, graphd.Forward, nil)
	require.NoError(t, err)
	budget := graphd.NewBudget(100000)
	var got []graphd.ID
	for {
		id, err := v.Next(budget)
		if err == graphd.ErrNo {
			break
		}
		require.NoError(t, err)
		got = append(got, id)
	}
	require.Equal(t, []graphd.ID{1, 2}, got)
}

func TestVRangeEmptyWhenLoAfterHi(t *testing.T) {
	pairs := map[string]graphd.ID{"apple": 1, "banana": 2}
	idx := newFakeBinIndex(pairs)
	reader := &fakeVRangeReader{valueByID: map[graphd.ID]string{1: "apple", 2: "banana"}}
	d := Default{}

	v, err := NewVRange(d, idx, reader, "banana", "apple", 0, 100, graphd.Forward, nil)
	require.NoError(t, err)
	_, err = v.Next(graphd.NewBudget(1000))
	require.ErrorIs(t, err, graphd.ErrNo)
}

func TestVRangeThawRejectsOutOfRange(t *testing.T) {
	pairs := map[string]graphd.ID{"apple": 1, "banana": 2, "cherry": 3}
	idx := newFakeBinIndex(pairs)
	reader := &fakeVRangeReader{valueByID: map[graphd.ID]string{1: "apple", 2: "banana", 3: "cherry"}}
	d := Default{}
	v, err := NewVRange(d, idx, reader, "apple", "cherry", 0, 100, graphd.Forward, nil)
	require.NoError(t, err)

	require.NoError(t, v.Thaw("1"))
	require.ErrorIs(t, v.Thaw("999"), graphd.ErrLexical)
}

func TestVRangeFreezeIncludesPosition(t *testing.T) {
	pairs := map[string]graphd.ID{"apple": 1, "banana": 2}
	idx := newFakeBinIndex(pairs)
	reader := &fakeVRangeReader{valueByID: map[graphd.ID]string{1: "apple", 2: "banana"}}
	d := Default{}
	v, err := NewVRange(d, idx, reader, d.LowestString(), d.HighestString(), 0, 100, graphd.Forward, nil)
	require.NoError(t, err)
	_, err = v.Next(graphd.NewBudget(1000))
	require.NoError(t, err)
	frozen, err := v.Freeze(iterator.FreezeSet | iterator.FreezePosition | iterator.FreezeState)
	require.NoError(t, err)
	require.Contains(t, frozen, "vrange(")
	require.Contains(t, frozen, "/1")
}
