package token

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

func TestAtomRendersBareword(t *testing.T) {
	require.Equal(t, "alpha", Atom("alpha").SExpr())
}

func TestStringRendersQuotedAndEscaped(t *testing.T) {
	require.Equal(t, `"hello"`, String("hello", nil).SExpr())
	require.Equal(t, `"say \"hi\""`, String(`say "hi"`, nil).SExpr())
	require.Equal(t, `"back\\slash"`, String(`back\slash`, nil).SExpr())
}

func TestStringPinsPrimitiveRef(t *testing.T) {
	p := &pdb.Primitive{ID: 7, Value: "hello"}
	tok := String("hello", p)
	require.Same(t, p, tok.PrimitiveRef)
}

func TestNumberAndTimestampPassThroughText(t *testing.T) {
	require.Equal(t, "3.50", Number("3.50").SExpr())
	require.Equal(t, "42", NumberFromInt(42).SExpr())
	require.Equal(t, "2026-07-31T00:00:00Z", Timestamp("2026-07-31T00:00:00Z").SExpr())
}

func TestNullAndUnspecified(t *testing.T) {
	require.Equal(t, "null", Null().SExpr())
	require.Equal(t, "", Unspecified().SExpr())
	require.False(t, Unspecified().IsPresent())
	require.True(t, Null().IsPresent())
}

func TestGUIDRendersThreeHexGroups(t *testing.T) {
	var g graphd.GUID
	for i := range g {
		g[i] = byte(i)
	}
	require.Equal(t, "00010203-04050607-08090a0b0c0d0e0f", GUIDToken(g).SExpr())
}

func TestListRendersParenSeparatedChildren(t *testing.T) {
	l := List(Atom("a"), Number("1"), Null())
	require.Equal(t, "(a 1 null)", l.SExpr())
}

func TestSequenceRendersBraceSeparatedChildren(t *testing.T) {
	s := Sequence(Atom("a"), Atom("b"))
	require.Equal(t, "{a b}", s.SExpr())
}

func TestListOmitsUnspecifiedChildren(t *testing.T) {
	l := List(Atom("a"), Unspecified(), Atom("b"))
	require.Equal(t, "(a b)", l.SExpr())
}

func TestNilTokenRendersNull(t *testing.T) {
	var tok *Token
	require.Equal(t, "null", tok.SExpr())
}
