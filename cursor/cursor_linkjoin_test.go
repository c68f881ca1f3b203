package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/guidset"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// scopedReader is a fakeReader variant carrying a Scope GUID per id, so
// the linkjoin round trip has something real to qualify against.
type scopedReader struct{ scope map[graphd.ID]graphd.GUID }

func (r scopedReader) ReadID(id graphd.ID) (*pdb.Primitive, error) {
	return &pdb.Primitive{ID: id, Scope: r.scope[id]}, nil
}
func (r scopedReader) ReadGUID(graphd.GUID) (*pdb.Primitive, bool, error) { return nil, false, nil }
func (r scopedReader) Range() graphd.ID                                  { return graphd.ID(len(r.scope)) }

func linkGuid(n byte) graphd.GUID {
	var g graphd.GUID
	g[15] = n
	return g
}

func TestThawLinkJoinRoundTripSet(t *testing.T) {
	reader := scopedReader{scope: map[graphd.ID]graphd.GUID{0: linkGuid(1), 1: linkGuid(2), 2: linkGuid(1)}}
	members := guidset.New()
	members.ContainsNull = false
	members.Add(linkGuid(1))

	it := iterator.NewLinkJoin(reader, graphd.LinkageScope, members, 0, 3, graphd.Forward)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{Reader: reader}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{0, 2}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawLinkJoinRoundTripSetPosition(t *testing.T) {
	reader := scopedReader{scope: map[graphd.ID]graphd.GUID{0: linkGuid(1), 1: linkGuid(1), 2: linkGuid(1)}}
	members := guidset.New()
	members.ContainsNull = false
	members.Add(linkGuid(1))

	it := iterator.NewLinkJoin(reader, graphd.LinkageScope, members, 0, 3, graphd.Forward)
	budget := graphd.NewBudget(1000)
	_, err := it.Next(budget)
	require.NoError(t, err)

	text, err := it.Freeze(iterator.FreezeSet | iterator.FreezePosition)
	require.NoError(t, err)

	thawed, err := Thaw(text, Deps{Reader: reader}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, []graphd.ID{1, 2}, drain(t, thawed, graphd.NewBudget(1000)))
}

func TestThawLinkJoinRequiresReader(t *testing.T) {
	members := guidset.New()
	it := iterator.NewLinkJoin(scopedReader{}, graphd.LinkageScope, members, 0, 1, graphd.Forward)
	text, err := it.Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	_, err = Thaw(text, Deps{}, graphd.NewBudget(1000))
	require.ErrorIs(t, err, graphd.ErrSystem)
}
