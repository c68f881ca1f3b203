package cursor

import (
	"fmt"
	"strconv"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
)

// thawAnd rebuilds an And from its colon-joined sub-iterator SET
// strings (spec.md §4.7's recursive SET encoding). state(), if
// present and well-formed, carries the cached producer index as a
// hint; and.go re-derives its own plan from sub statistics regardless
// (NewAnd/ensurePlanned), so a stale hint is harmless and ignored.
func thawAnd(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	subTexts := splitTopLevel(args, ':')
	subs := make([]iterator.Iterator, 0, len(subTexts))
	var dir graphd.Direction
	for i, t := range subTexts {
		sub, err := Thaw(t, deps, budget)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			dir = sub.Direction()
		}
		subs = append(subs, sub)
	}
	it := iterator.NewAnd(subs, dir)
	if hasState {
		// and.go always re-derives its plan from sub statistics
		// (ensurePlanned); the cached producer hint is read here only
		// so a malformed state() is visibly tolerated rather than
		// silently mattering.
		_, _ = parseAndState(state)
	}
	if hasPosition {
		lastID, has, perr := parsePosition(position)
		if perr != nil {
			return nil, perr
		}
		if err := recoverPosition(it, lastID, has, budget); err != nil {
			return nil, err
		}
	}
	return it, nil
}

func thawOr(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	subTexts := splitTopLevel(args, ':')
	subs := make([]iterator.Iterator, 0, len(subTexts))
	var dir graphd.Direction
	for i, t := range subTexts {
		sub, err := Thaw(t, deps, budget)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			dir = sub.Direction()
		}
		subs = append(subs, sub)
	}
	it := iterator.NewOr(subs, dir)
	if hasPosition {
		lastID, has, perr := parsePosition(position)
		if perr != nil {
			return nil, perr
		}
		if err := recoverPosition(it, lastID, has, budget); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// parseAndState reads the cached producer index out of an and's
// state(N) section, for callers that want to inspect rather than
// discard it (e.g. diagnostics); thawAnd itself does not need it.
func parseAndState(state string) (producer int, err error) {
	n, err := strconv.Atoi(state)
	if err != nil {
		return 0, fmt.Errorf("cursor: bad and state %q: %w", state, graphd.ErrLexical)
	}
	return n, nil
}
