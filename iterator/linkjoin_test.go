package iterator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/guidset"
	"github.com/ledgerwatch/graphd/pdb"
)

// linkReader is a fakeReader variant carrying a Scope GUID per id, used
// only to exercise LinkJoin's qualify-via-reader scan.
type linkReader struct {
	scope map[graphd.ID]graphd.GUID
}

func (r *linkReader) ReadID(id graphd.ID) (*pdb.Primitive, error) {
	return &pdb.Primitive{ID: id, Scope: r.scope[id]}, nil
}
func (r *linkReader) ReadGUID(graphd.GUID) (*pdb.Primitive, bool, error) { return nil, false, nil }
func (r *linkReader) Range() graphd.ID                                  { return graphd.ID(len(r.scope)) }

func guidByte(n byte) graphd.GUID {
	var g graphd.GUID
	g[15] = n
	return g
}

func TestLinkJoinFiltersByMemberSet(t *testing.T) {
	reader := &linkReader{scope: map[graphd.ID]graphd.GUID{
		0: guidByte(1),
		1: guidByte(2),
		2: guidByte(1),
		3: guidByte(3),
	}}
	members := guidset.New()
	members.ContainsNull = false
	members.Add(guidByte(1))

	j := NewLinkJoin(reader, graphd.LinkageScope, members, 0, 4, graphd.Forward)
	ids := drain(t, j, graphd.NewBudget(1000))
	require.Equal(t, []graphd.ID{0, 2}, ids)
}

func TestLinkJoinCheck(t *testing.T) {
	reader := &linkReader{scope: map[graphd.ID]graphd.GUID{0: guidByte(1), 1: guidByte(2)}}
	members := guidset.New()
	members.ContainsNull = false
	members.Add(guidByte(1))
	j := NewLinkJoin(reader, graphd.LinkageScope, members, 0, 2, graphd.Forward)
	budget := graphd.NewBudget(1000)
	require.NoError(t, j.Check(0, budget))
	require.ErrorIs(t, j.Check(1, budget), graphd.ErrNo)
}

func TestLinkJoinFreezeEncodesSetAndPosition(t *testing.T) {
	reader := &linkReader{scope: map[graphd.ID]graphd.GUID{0: guidByte(1), 1: guidByte(2), 2: guidByte(1)}}
	members := guidset.New()
	members.ContainsNull = false
	members.Add(guidByte(1))
	j := NewLinkJoin(reader, graphd.LinkageScope, members, 0, 3, graphd.Forward)
	budget := graphd.NewBudget(1000)
	_, err := j.Next(budget)
	require.NoError(t, err)

	frozen, err := j.Freeze(FreezeSet | FreezePosition)
	require.NoError(t, err)
	require.Contains(t, frozen, "linkjoin(")
	require.Contains(t, frozen, "/0")
}

func TestLinkJoinCloneIsIndependentlyPositioned(t *testing.T) {
	reader := &linkReader{scope: map[graphd.ID]graphd.GUID{0: guidByte(1), 1: guidByte(1)}}
	members := guidset.New()
	members.ContainsNull = false
	members.Add(guidByte(1))
	j := NewLinkJoin(reader, graphd.LinkageScope, members, 0, 2, graphd.Forward)
	budget := graphd.NewBudget(1000)
	id, err := j.Next(budget)
	require.NoError(t, err)
	require.Equal(t, graphd.ID(0), id)

	clone := j.Clone()
	clone.Reset()
	require.Equal(t, []graphd.ID{0, 1}, drain(t, clone, graphd.NewBudget(1000)))
}
