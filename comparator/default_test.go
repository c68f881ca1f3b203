package comparator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/graphd"
)

func TestDefaultGlobLiteral(t *testing.T) {
	d := Default{}
	require.True(t, d.Glob("hello", "hello world"))
	require.False(t, d.Glob("goodbye", "hello world"))
}

func TestDefaultGlobAnchors(t *testing.T) {
	d := Default{}
	require.True(t, d.Glob("^hello$", "hello"))
	require.False(t, d.Glob("^hello$", "hello world"))
	require.True(t, d.Glob("^hello", "hello world"))
}

func TestDefaultGlobWildcard(t *testing.T) {
	d := Default{}
	require.True(t, d.Glob("^foo*bar$", "foo123bar"))
	require.True(t, d.Glob("^foo*bar$", "foobar"))
	require.False(t, d.Glob("^foo*bar$", "foo bar"))
}

func TestDefaultGlobEscapedLiteral(t *testing.T) {
	d := Default{}
	require.True(t, d.Glob(`\*literal\*`, "*literal*"))
	require.False(t, d.Glob(`\*literal\*`, "xliteralx"))
}

func TestDefaultGlobNumericNormalization(t *testing.T) {
	d := Default{}
	require.True(t, d.Glob("^007$", "7"))
	require.True(t, d.Glob("^7$", "007"))
	require.False(t, d.Glob("^7$", "8"))
}

func TestDefaultGlobSeparatorOptional(t *testing.T) {
	d := Default{}
	require.True(t, d.Glob("foo bar", "foo  bar"))
	require.True(t, d.Glob("foo bar", "foobar"))
}

func TestDefaultSortCompareIsCaseSensitive(t *testing.T) {
	d := Default{}
	require.Less(t, d.SortCompare("Apple", "apple"), 0)
	require.Equal(t, 0, d.SortCompare("same", "same"))
}

func TestDefaultSyntaxAcceptsAllOps(t *testing.T) {
	d := Default{}
	require.True(t, d.Syntax(graphd.OpMatch))
	require.True(t, d.Syntax(graphd.OpLT))
}

func TestNormalizeNumber(t *testing.T) {
	require.Equal(t, "7", normalizeNumber("007"))
	require.Equal(t, "3.1", normalizeNumber("3.10"))
	require.Equal(t, "0", normalizeNumber("0"))
	require.Equal(t, "-5", normalizeNumber("-005"))
}

func TestExtractWords(t *testing.T) {
	require.Equal(t, []string{"foo", "bar", "123"}, extractWords("foo-bar_123!"))
}
