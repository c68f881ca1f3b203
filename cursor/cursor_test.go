package cursor

import (
	"sort"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/comparator"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

func drain(t *testing.T, it iterator.Iterator, budget *graphd.Budget) []graphd.ID {
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

// fakeHashIndex and fakeWordIndex back the hash/word/prefix round trip
// tests; each wraps a tiny in-memory id list as a pdb.IDIterator,
// mirroring comparator/vrange_test.go's fakeBinIndex style.
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
		if v >= id {
			return v, true
		}
	}
	return graphd.NoID, false
}

func (f *fakeIDIterator) Close() {}

type fakeHashIndex struct {
	ids []graphd.ID
}

func (f *fakeHashIndex) HashIterator(kind pdb.Kind, bytes []byte, low, high graphd.ID, dir graphd.Direction) (pdb.IDIterator, error) {
	var out []graphd.ID
	for _, id := range f.ids {
		if id >= low && id < high {
			out = append(out, id)
		}
	}
	return &fakeIDIterator{ids: out}, nil
}

type fakeWordIndex struct {
	ids []graphd.ID
}

func (f *fakeWordIndex) WordIterator(word string, low, high graphd.ID, dir graphd.Direction) (pdb.IDIterator, error) {
	var out []graphd.ID
	for _, id := range f.ids {
		if id >= low && id < high {
			out = append(out, id)
		}
	}
	return &fakeIDIterator{ids: out}, nil
}

func (f *fakeWordIndex) PrefixIterator(prefix string, low, high graphd.ID, dir graphd.Direction) (pdb.IDIterator, error) {
	return f.WordIterator(prefix, low, high, dir)
}

type fakeBinIndex struct {
	values []string
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

type fakeReader struct{}

func (fakeReader) ReadID(id graphd.ID) (*pdb.Primitive, error) { return &pdb.Primitive{ID: id}, nil }
func (fakeReader) ReadGUID(graphd.GUID) (*pdb.Primitive, bool, error) {
	return nil, false, nil
}
func (fakeReader) Range() graphd.ID { return 0 }

func TestThawNullRoundTrip(t *testing.T) {
	it := iterator.NewNull(graphd.Forward)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)
	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Empty(t, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawAllRoundTripSet(t *testing.T) {
	it := iterator.NewAll(0, 5, graphd.Forward)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)
	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{0, 1, 2, 3, 4}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawAllRoundTripSetPositionRecoversAfterLastID(t *testing.T) {
	it := iterator.NewAll(0, 5, graphd.Forward)
	budget := graphd.NewBudget(1000)
	_, err := it.Next(budget)
	require.NoError(t, err)
	_, err = it.Next(budget)
	require.NoError(t, err)
	text, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{2, 3, 4}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawFixedRoundTrip(t *testing.T) {
	it := iterator.NewFixed([]graphd.ID{10, 20, 30}, 0, 100, graphd.Forward)
	budget := graphd.NewBudget(1000)
	_, err := it.Next(budget)
	require.NoError(t, err)
	text, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{20, 30}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawIDSetUsesSuppliedBitmap(t *testing.T) {
	it := iterator.NewIDSet(fixedBitmap(1, 2, 3, 10), 0, 5, graphd.Forward)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	deps := Deps{IDSetBitmap: fixedBitmap(1, 2, 3, 10)}
	thawed, err := Thaw(text, deps, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{1, 2, 3}, drain(t, thawed, graphd.NewBudget(1000)))
}

func fixedBitmap(ids ...uint32) *roaring.Bitmap {
	bm := roaring.New()
	bm.AddMany(ids)
	return bm
}

func TestThawHashRoundTrip(t *testing.T) {
	deps := Deps{HashIndex: &fakeHashIndex{ids: []graphd.ID{3, 7, 9}}}
	it, err := iterator.NewHash(deps.HashIndex, pdb.KindValue, []byte("x"), 0, 100, graphd.Forward)
	require.NoError(t, err)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, deps, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{3, 7, 9}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawWordRoundTrip(t *testing.T) {
	deps := Deps{WordIndex: &fakeWordIndex{ids: []graphd.ID{1, 2, 5}}}
	it, err := iterator.NewWord(deps.WordIndex, "hello", 0, 100, graphd.Forward)
	require.NoError(t, err)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, deps, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{1, 2, 5}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawPrefixRoundTrip(t *testing.T) {
	deps := Deps{WordIndex: &fakeWordIndex{ids: []graphd.ID{4, 6}}}
	it, err := iterator.NewPrefix(deps.WordIndex, "pre", 0, 100, graphd.Forward)
	require.NoError(t, err)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, deps, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{4, 6}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawAndRoundTrip(t *testing.T) {
	a := iterator.NewFixed([]graphd.ID{1, 2, 3, 4, 5}, 0, 100, graphd.Forward)
	b := iterator.NewFixed([]graphd.ID{2, 4, 6}, 0, 100, graphd.Forward)
	and := iterator.NewAnd([]iterator.Iterator{a, b}, graphd.Forward)
	text, err := and.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(10000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{2, 4}, drain(t, thawed, graphd.NewBudget(10000)))
}

func TestThawOrRoundTrip(t *testing.T) {
	a := iterator.NewFixed([]graphd.ID{1, 3, 5}, 0, 100, graphd.Forward)
	b := iterator.NewFixed([]graphd.ID{3, 4, 5, 6}, 0, 100, graphd.Forward)
	or := iterator.NewOr([]iterator.Iterator{a, b}, graphd.Forward)
	text, err := or.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{}, graphd.NewBudget(10000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{1, 3, 4, 5, 6}, drain(t, thawed, graphd.NewBudget(10000)))
}

func TestThawVRangeRoundTripWithState(t *testing.T) {
	binIdx := newFakeBinIndex(map[string]graphd.ID{
		"alpha": 1, "bravo": 2, "charlie": 3, "delta": 4,
	})
	deps := Deps{BinIndex: binIdx, Reader: fakeReader{}}
	cmp := comparator.Default{}
	it, err := comparator.NewVRange(cmp, binIdx, deps.Reader, cmp.LowestString(), cmp.HighestString(), 0, 100, graphd.Forward, nil)
	require.NoError(t, err)
	budget := graphd.NewBudget(100000)
	_, err = it.Next(budget)
	require.NoError(t, err)

	text, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition | iterator.FreezeState)
	require.NoError(t, err)

	thawed, err := Thaw(text, deps, graphd.NewBudget(100000))
	require.NoError(t, err)
	require.NotNil(t, thawed)
}

func TestThawUnknownTagIsLexicalError(t *testing.T) {
	_, err := Thaw("bogus(1,2,forward)", Deps{}, graphd.NewBudget(1000))
	require.ErrorIs(t, err, graphd.ErrLexical)
}

func TestThawMalformedStateDowngradesToPositionOnly(t *testing.T) {
	it := iterator.NewFixed([]graphd.ID{10, 20, 30}, 0, 100, graphd.Forward)
	budget := graphd.NewBudget(1000)
	_, err := it.Next(budget)
	require.NoError(t, err)
	text, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition)
	require.NoError(t, err)

	// fixed has no state() section; append a malformed one to exercise
	// the downgrade path spec.md §4.7 describes for an unparseable
	// extra trailing section, e.g. a future version's unknown state.
	corrupted := text + ":state(not-well-formed"
	thawed, err := Thaw(corrupted, Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{20, 30}, drain(t, thawed, graphd.NewBudget(1000)))
}
