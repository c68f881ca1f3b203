// Package cursor implements the freeze/thaw codec (component I,
// spec.md §4.7, §6.4): parsing the textual cursor every iterator
// variant's Freeze method already produces back into a live,
// positioned iterator. There is no teacher analogue for a textual
// cursor grammar; the parser below is a small hand-written recursive
// descent over the `tag(args)/position:state(...)` shape established
// by package iterator and package comparator's Freeze implementations,
// grounded directly on spec.md §4.7's SET/POSITION/STATE sectioning
// and §6.4's wire-format rules.
package cursor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledgerwatch/graphd"
)

// matchParen returns the index of the ')' matching the '(' at open.
func matchParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("cursor: unbalanced parens in %q: %w", s, graphd.ErrLexical)
}

// splitCall parses "tag(args)rest" into its three parts. tag is
// whatever precedes the first '(' unmodified; it is the caller's job
// to validate it as a known type tag.
func splitCall(s string) (tag, args, rest string, err error) {
	i := strings.IndexByte(s, '(')
	if i < 0 {
		return "", "", "", fmt.Errorf("cursor: expected '(' in %q: %w", s, graphd.ErrLexical)
	}
	close, err := matchParen(s, i)
	if err != nil {
		return "", "", "", err
	}
	return s[:i], s[i+1 : close], s[close+1:], nil
}

// splitTopLevel splits s on sep, ignoring any sep found inside nested
// parens, so "and(word(a,0,1,forward):hash(...))"'s inner ":"-joined
// sub-iterator list splits correctly even though hash's own args
// contain commas.
func splitTopLevel(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// splitPositionState parses the optional "/position" and
// ":state(...)" suffix spec.md §4.7 appends after a SET's closing
// paren. The suffix may be empty, a position alone, or a position
// followed by a state; a state without a position before it is a
// lexical error, as is a state section that isn't well-formed (callers
// downgrade to position-only recovery per spec.md §4.7's "if STATE
// fails to parse, the engine downgrades to position-only recovery").
func splitPositionState(rest string) (position string, hasPosition bool, state string, hasState bool, err error) {
	if rest == "" {
		return "", false, "", false, nil
	}
	if rest[0] != '/' {
		return "", false, "", false, fmt.Errorf("cursor: expected '/' before position in %q: %w", rest, graphd.ErrLexical)
	}
	rest = rest[1:]
	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return rest, true, "", false, nil
	}
	position = rest[:i]
	hasPosition = true
	tag, stateArgs, trailing, err := splitCall(rest[i+1:])
	if err != nil {
		return "", false, "", false, err
	}
	if tag != "state" {
		return "", false, "", false, fmt.Errorf("cursor: expected state(...), got %q(...): %w", tag, graphd.ErrLexical)
	}
	if trailing != "" {
		return "", false, "", false, fmt.Errorf("cursor: trailing text %q after state(): %w", trailing, graphd.ErrLexical)
	}
	return position, hasPosition, stateArgs, true, nil
}

// parsePosition decodes a position field. "^" means "no position
// yet"; every iterator variant's Freeze writes it, and "$" is accepted
// as a synonym with the same meaning.
func parsePosition(field string) (id graphd.ID, has bool, err error) {
	if field == "^" || field == "$" {
		return graphd.NoID, false, nil
	}
	n, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return graphd.NoID, false, fmt.Errorf("cursor: bad position %q: %w", field, graphd.ErrLexical)
	}
	return graphd.ID(n), true, nil
}

// parseDirection decodes graphd.Direction.String()'s output.
func parseDirection(field string) (graphd.Direction, error) {
	switch field {
	case "forward":
		return graphd.Forward, nil
	case "backward":
		return graphd.Backward, nil
	default:
		return 0, fmt.Errorf("cursor: bad direction %q: %w", field, graphd.ErrLexical)
	}
}

func parseID(field string) (graphd.ID, error) {
	n, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cursor: bad id %q: %w", field, graphd.ErrLexical)
	}
	return graphd.ID(n), nil
}

func parseInt(field string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("cursor: bad integer %q: %w", field, graphd.ErrLexical)
	}
	return n, nil
}

// encodeLiteral XX-encodes arbitrary bytes for a cursor literal
// segment (spec.md §6.4); decodeLiteral is its inverse.
func encodeLiteral(b []byte) string { return hex.EncodeToString(b) }

func decodeLiteral(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("cursor: bad XX-encoded literal %q: %w", s, graphd.ErrLexical)
	}
	return b, nil
}
