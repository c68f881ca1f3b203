// Package token implements the result-token tree (component H,
// spec.md §3, §6.3): the tagged-variant value tree the evaluator
// builds per result pattern and the reply writer traverses into
// S-expression output. There is no teacher analogue for this tree —
// it is grounded directly on spec.md, the same precedent package
// constraint follows for spec-only components.
package token

import (
	"strconv"
	"strings"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

// Kind is the tag of a result token's variant (spec.md §3: atom |
// string | number | timestamp | guid | list | sequence | null |
// unspecified).
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindNull
	KindAtom
	KindString
	KindNumber
	KindTimestamp
	KindGUID
	KindList
	KindSequence
)

// Token is one node of a result-token tree. Only the fields relevant
// to Kind are populated; the zero value of the rest is ignored.
//
// spec.md §3 says a string token "carries a weak back-reference to
// the underlying primitive so its backing storage is not released
// while the token is live" — a concern the original's manual memory
// management needs and Go's garbage collector does not: holding
// PrimitiveRef directly is sufficient to keep the primitive (and the
// string data backing it) alive for exactly as long as the token is
// reachable, with no separate refcount to manage.
type Token struct {
	Kind Kind

	// Text backs Atom (bareword), String (quoted), Number and
	// Timestamp (both kept as their already-formatted text rather
	// than round-tripped through a numeric type, so the token never
	// loses precision the evaluator didn't introduce).
	Text string

	// PrimitiveRef pins the primitive a String token was read from.
	PrimitiveRef *pdb.Primitive

	GUID graphd.GUID

	// Children holds a List's or Sequence's ordered members.
	Children []*Token
}

// Atom returns an unquoted bareword token.
func Atom(text string) *Token { return &Token{Kind: KindAtom, Text: text} }

// String returns a string token, pinning ref per spec.md §3's
// back-reference requirement. ref may be nil for a synthesized string
// with no backing primitive.
func String(s string, ref *pdb.Primitive) *Token {
	return &Token{Kind: KindString, Text: s, PrimitiveRef: ref}
}

// Number returns a numeric token carrying its already-formatted text.
func Number(text string) *Token { return &Token{Kind: KindNumber, Text: text} }

// NumberFromInt formats n as a number token.
func NumberFromInt(n int64) *Token { return Number(strconv.FormatInt(n, 10)) }

// Timestamp returns a timestamp token carrying its already-formatted
// text (the evaluator is responsible for picking a textual format;
// this package only carries and renders it).
func Timestamp(text string) *Token { return &Token{Kind: KindTimestamp, Text: text} }

// GUIDToken returns a guid token.
func GUIDToken(g graphd.GUID) *Token { return &Token{Kind: KindGUID, GUID: g} }

// List returns an ordered `(…)` token over children.
func List(children ...*Token) *Token { return &Token{Kind: KindList, Children: children} }

// Sequence returns a per-match repeated `{…}` token over children.
func Sequence(children ...*Token) *Token { return &Token{Kind: KindSequence, Children: children} }

// Null returns the `null` token.
func Null() *Token { return &Token{Kind: KindNull} }

// Unspecified returns the token a result pattern position with no
// matching clause renders to. Unspecified has no S-expression form of
// its own (spec.md §6.3 lists none) — SExpr renders it as the empty
// string, and a List/Sequence parent is expected to omit it from its
// children before rendering when the pattern calls for suppression
// rather than an empty slot.
func Unspecified() *Token { return &Token{Kind: KindUnspecified} }

// IsPresent reports whether t carries an actual value, as opposed to
// Unspecified standing in for "no token here".
func (t *Token) IsPresent() bool { return t != nil && t.Kind != KindUnspecified }

// SExpr renders t per spec.md §6.3's traversal: atom, "string", N, T,
// G-G-G, (…), {…}, null.
func (t *Token) SExpr() string {
	if t == nil {
		return "null"
	}
	switch t.Kind {
	case KindNull:
		return "null"
	case KindUnspecified:
		return ""
	case KindAtom:
		return t.Text
	case KindString:
		return quoteString(t.Text)
	case KindNumber, KindTimestamp:
		return t.Text
	case KindGUID:
		return formatGUID(t.GUID)
	case KindList:
		return "(" + joinChildren(t.Children) + ")"
	case KindSequence:
		return "{" + joinChildren(t.Children) + "}"
	default:
		return ""
	}
}

func joinChildren(children []*Token) string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		if !c.IsPresent() {
			continue
		}
		parts = append(parts, c.SExpr())
	}
	return strings.Join(parts, " ")
}

// quoteString applies the S-expression string-quoting convention:
// backslash and double-quote are backslash-escaped.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// formatGUID renders a guid token in the `G-G-G` three-group form
// spec.md §6.3 names: the first 4 bytes, the next 4, and the final 8,
// each hex-encoded.
func formatGUID(g graphd.GUID) string {
	return hexGroup(g[0:4]) + "-" + hexGroup(g[4:8]) + "-" + hexGroup(g[8:16])
}

func hexGroup(b []byte) string {
	const hex = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hex[c>>4]
		out[i*2+1] = hex[c&0xf]
	}
	return string(out)
}
