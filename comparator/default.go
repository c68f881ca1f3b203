package comparator

import (
	"strings"
	"unicode"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// binSetDefault is the default comparator's bin-partitioned index
// family (pdb.BinSetStrings, shared with any other case-sensitive
// consumer of the same store).
const binSetDefault = pdb.BinSetStrings

// Default is the case-sensitive, word-aware fuzzy-matching comparator
// (spec.md §4.2, §4.2.1). It is the comparator used when a request
// names no locale.
type Default struct{}

func (Default) Name() string      { return "default" }
func (Default) Aliases() []string { return []string{"octet", "bytestring"} }
func (Default) Locale() string    { return "" }

func (Default) Syntax(graphd.Op) bool { return true }

func (Default) SortCompare(a, b string) int { return strings.Compare(a, b) }

func (Default) LowestString() string  { return "" }
func (Default) HighestString() string { return "\xff\xff\xff\xff" }

func (Default) BinSet() pdb.BinSet { return binSetDefault }

// EqIterator builds a word-index lookup for = and ~=. For ~=, only the
// pattern's fixed (non-wildcard) words can drive an index restriction;
// the remaining fuzzy check happens via Glob as a post-filter. A
// pattern with no fixed words returns a nil iterator so the caller
// falls back to a range scan.
func (Default) EqIterator(op graphd.Op, value string, idx pdb.WordIndex, low, high graphd.ID, dir graphd.Direction) (iterator.Iterator, error) {
	word := value
	if op == graphd.OpMatch {
		word = ""
		toks := parsePattern([]rune(value))
		for i, t := range toks {
			if t.kind != 'L' || (i > 0 && toks[i-1].kind == '*') || (i+1 < len(toks) && toks[i+1].kind == '*') {
				continue
			}
			word = t.text
			break
		}
	}
	if word == "" {
		return nil, nil
	}
	return iterator.NewWord(idx, word, low, high, dir)
}

// Glob implements the default fuzzy-match pattern language of spec.md
// §4.2.1: `^…$` anchors, unescaped `*` matches a run of word
// characters, whitespace/punctuation in the pattern are optional
// separators, escaped characters match literally and case-sensitively
// with adjacent escapes required to match adjacently, and numeric
// fragments compare after normalization.
func (Default) Glob(pattern, s string) bool {
	p := []rune(pattern)
	anchoredStart, anchoredEnd := false, false
	if len(p) > 0 && p[0] == '^' {
		anchoredStart = true
		p = p[1:]
	}
	if n := len(p); n > 0 && p[n-1] == '$' && !runeEscaped(p, n-1) {
		anchoredEnd = true
		p = p[:n-1]
	}
	toks := parsePattern(p)
	t := []rune(s)
	return matchFrom(toks, 0, t, 0, anchoredStart, anchoredEnd)
}

// patToken is one unit of a parsed fuzzy-match pattern.
type patToken struct {
	kind byte // 'L' literal word/number run, 'E' escaped literal run, '*' wildcard, 'S' optional separator
	text string
}

func runeEscaped(p []rune, i int) bool {
	// counts preceding backslashes; an odd count means p[i] is escaped.
	n := 0
	for j := i - 1; j >= 0 && p[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func parsePattern(p []rune) []patToken {
	var toks []patToken
	i := 0
	for i < len(p) {
		switch {
		case p[i] == '\\' && i+1 < len(p):
			// merge adjacent escaped runes into one literal run so that
			// "adjacent escaped chars must match adjacently".
			var b strings.Builder
			for i < len(p) && p[i] == '\\' && i+1 < len(p) {
				b.WriteRune(p[i+1])
				i += 2
			}
			toks = append(toks, patToken{kind: 'E', text: b.String()})
		case p[i] == '*':
			toks = append(toks, patToken{kind: '*'})
			i++
		case isWordRune(p[i]):
			j := i
			for j < len(p) && isWordRune(p[j]) {
				j++
			}
			toks = append(toks, patToken{kind: 'L', text: string(p[i:j])})
			i = j
		default:
			j := i
			for j < len(p) && !isWordRune(p[j]) && p[j] != '*' && p[j] != '\\' {
				j++
			}
			toks = append(toks, patToken{kind: 'S', text: string(p[i:j])})
			i = j
		}
	}
	return toks
}

// matchFrom is a small backtracking matcher over the parsed token
// sequence, grounded directly on spec.md §4.2.1's rule list rather
// than any library glob engine (see DESIGN.md's standard-library
// justification for this package).
func matchFrom(toks []patToken, ti int, t []rune, si int, anchoredStart, anchoredEnd bool) bool {
	if ti == len(toks) {
		if anchoredEnd {
			return si == len(t)
		}
		return true
	}
	tok := toks[ti]
	switch tok.kind {
	case 'E':
		return matchLiteral(toks, ti, t, si, anchoredStart, anchoredEnd, []rune(tok.text), false)
	case 'L':
		return matchLiteral(toks, ti, t, si, anchoredStart, anchoredEnd, []rune(tok.text), isNumeric(tok.text))
	case 'S':
		// optional separator: text may have zero or one run of
		// non-word characters here.
		j := si
		for j < len(t) && !isWordRune(t[j]) {
			j++
		}
		if matchFrom(toks, ti+1, t, j, anchoredStart, anchoredEnd) {
			return true
		}
		return matchFrom(toks, ti+1, t, si, anchoredStart, anchoredEnd)
	case '*':
		// greedy run of word characters, backtracking down to zero.
		j := si
		for j < len(t) && isWordRune(t[j]) {
			j++
		}
		for k := j; k >= si; k-- {
			if matchFrom(toks, ti+1, t, k, anchoredStart, anchoredEnd) {
				return true
			}
		}
		return false
	}
	return false
}

// matchLiteral matches one literal ('E' or 'L') token at position si.
// A numeric literal consumes the maximal digit run at si and compares
// after normalization, so "007" in the pattern matches "7" in the
// text and vice versa; any other literal is compared rune-for-rune,
// case-sensitively. Only the very first token of an unanchored
// pattern may retry at a later starting position — every later token
// must continue immediately where the previous one left off.
func matchLiteral(toks []patToken, ti int, t []rune, si int, anchoredStart, anchoredEnd bool, lit []rune, numeric bool) bool {
	tryAt := func(pos int) bool {
		if numeric {
			j := pos
			for j < len(t) && unicode.IsDigit(t[j]) {
				j++
			}
			if j == pos || normalizeNumber(string(t[pos:j])) != normalizeNumber(string(lit)) {
				return false
			}
			return matchFrom(toks, ti+1, t, j, anchoredStart, anchoredEnd)
		}
		if pos+len(lit) > len(t) {
			return false
		}
		for k, r := range lit {
			if t[pos+k] != r {
				return false
			}
		}
		return matchFrom(toks, ti+1, t, pos+len(lit), anchoredStart, anchoredEnd)
	}
	if tryAt(si) {
		return true
	}
	if ti == 0 && !anchoredStart {
		for pos := si + 1; pos < len(t); pos++ {
			if tryAt(pos) {
				return true
			}
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// extractWords implements the indexed-word rule of spec.md §4.2.1:
// maximal alphanumeric runs, plus whole numbers (which are already a
// subset of alphanumeric runs, so this is one pass).
func extractWords(s string) []string {
	var words []string
	r := []rune(s)
	i := 0
	for i < len(r) {
		if isWordRune(r[i]) {
			j := i
			for j < len(r) && isWordRune(r[j]) {
				j++
			}
			words = append(words, string(r[i:j]))
			i = j
		} else {
			i++
		}
	}
	return words
}

// normalizeNumber strips leading zeros, canonicalizes sign, and
// canonicalizes the decimal point so "007" and "7", or "3.10" and
// "3.1", compare equal (spec.md §4.2.1).
func normalizeNumber(s string) string {
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	intPart, fracPart, hasFrac := s, "", false
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart, hasFrac = s[:idx], s[idx+1:], true
	}
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac {
		fracPart = strings.TrimRight(fracPart, "0")
	}
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}
