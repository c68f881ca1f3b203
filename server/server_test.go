package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/eval"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// fakeReader is a minimal pdb.Reader fake, just enough for an
// empty-clause root node to fall back to iterator.All over its range
// (eval/compile.go step 4), in the same hand-rolled-fake style as
// eval_test.go's memStore.
type fakeReader struct{ prims []*pdb.Primitive }

func (f *fakeReader) ReadID(id graphd.ID) (*pdb.Primitive, error) {
	if int(id) >= len(f.prims) {
		return nil, graphd.ErrNo
	}
	return f.prims[id], nil
}
func (f *fakeReader) ReadGUID(graphd.GUID) (*pdb.Primitive, bool, error) { return nil, false, nil }
func (f *fakeReader) Range() graphd.ID                                  { return graphd.ID(len(f.prims)) }

func newRootNode() (*constraint.Node, eval.Deps) {
	arena := constraint.NewArena()
	root := arena.NewNode(nil)
	root.ResultPattern = &constraint.Pattern{Kind: constraint.PatternAtom}
	reader := &fakeReader{prims: []*pdb.Primitive{
		{ID: 0, Datatype: pdb.DatatypeString, Value: "a"},
		{ID: 1, Datatype: pdb.DatatypeString, Value: "b"},
	}}
	return root, eval.Deps{Reader: reader}
}

func TestDispatchReadRoutesToEvalRead(t *testing.T) {
	root, deps := newRootNode()
	d := NewDispatcher(0)
	resp, err := d.Dispatch(Request{Verb: VerbRead, Node: root}, deps, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Len(t, resp.Tokens, 2)
	require.True(t, resp.EOF)
}

func TestDispatchVerifyRoutesToEvalVerify(t *testing.T) {
	root, deps := newRootNode()
	d := NewDispatcher(0)

	frozen, err := iterator.NewAll(0, 2, graphd.Forward).Freeze(iterator.FreezeSet)
	require.NoError(t, err)

	resp, err := d.Dispatch(Request{Verb: VerbVerify, Node: root, FrozenCursor: frozen, IDs: []graphd.ID{0, 1}}, deps, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.True(t, resp.Verified[0])
	require.True(t, resp.Verified[1])
}

func TestDispatchUnknownVerbIsLexicalError(t *testing.T) {
	d := NewDispatcher(0)
	_, err := d.Dispatch(Request{Verb: "bogus"}, eval.Deps{}, graphd.NewBudget(1000))
	require.ErrorIs(t, err, graphd.ErrLexical)
}

func TestDispatchOutOfScopeVerbIsSystemErrorUntilRegistered(t *testing.T) {
	d := NewDispatcher(0)
	_, err := d.Dispatch(Request{Verb: VerbWrite}, eval.Deps{}, graphd.NewBudget(1000))
	require.ErrorIs(t, err, graphd.ErrSystem)

	d.Register(VerbWrite, func(Request, eval.Deps, *graphd.Budget) (Response, error) {
		return Response{Raw: "ok"}, nil
	})
	resp, err := d.Dispatch(Request{Verb: VerbWrite}, eval.Deps{}, graphd.NewBudget(1000))
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Raw)
}

func TestBackgroundRunnerSkipsReentrantRun(t *testing.T) {
	r := NewBackgroundRunner(2)
	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	blockTask := func(ctx context.Context) error {
		close(started)
		wg.Wait()
		return nil
	}

	require.True(t, r.Run(context.Background(), blockTask))
	<-started
	require.True(t, r.Working())
	require.False(t, r.Run(context.Background())) // re-entrant call rejected

	wg.Done()
	require.Eventually(t, func() bool { return !r.Working() }, time.Second, time.Millisecond)
}
