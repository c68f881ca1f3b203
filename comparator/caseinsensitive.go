package comparator

import (
	"strings"
	"unicode"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// binSetCaseInsensitive is a distinct bin family from the default
// comparator's (spec.md §4.2: "binary range via bin lookup"), so the
// two comparators' value orders never get partitioned together.
const binSetCaseInsensitive pdb.BinSet = "strings_ci"

// CaseInsensitive is the Unicode-aware strcasecmp comparator: no
// fuzzy matching, ordered by folded case, index lookups on the folded
// word (spec.md §4.2).
type CaseInsensitive struct{}

func (CaseInsensitive) Name() string      { return "case-insensitive" }
func (CaseInsensitive) Aliases() []string { return []string{"ci", "nocase"} }
func (CaseInsensitive) Locale() string    { return "" }

// Syntax rejects ~=: this comparator has no fuzzy-match capability.
func (CaseInsensitive) Syntax(op graphd.Op) bool { return op != graphd.OpMatch }

func (CaseInsensitive) SortCompare(a, b string) int {
	return strings.Compare(fold(a), fold(b))
}

func (CaseInsensitive) LowestString() string  { return "" }
func (CaseInsensitive) HighestString() string { return "\xff\xff\xff\xff" }

func (CaseInsensitive) BinSet() pdb.BinSet { return binSetCaseInsensitive }

func (CaseInsensitive) EqIterator(op graphd.Op, value string, idx pdb.WordIndex, low, high graphd.ID, dir graphd.Direction) (iterator.Iterator, error) {
	if op != graphd.OpEQ {
		return nil, nil
	}
	return iterator.NewWord(idx, fold(value), low, high, dir)
}

// Glob is unreachable in practice since Syntax rejects OpMatch; it is
// implemented as fold-then-equal so a caller that ignores Syntax still
// gets a sane answer instead of a panic.
func (CaseInsensitive) Glob(pattern, s string) bool { return fold(pattern) == fold(s) }

func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}
