package cursor

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/comparator"
	"github.com/ledgerwatch/graphd/iterator"
)

// comparators is the process-wide name -> instance table spec.md §9
// says comparators are ("compile-time constants"); it backs vrange's
// SET field, which names its comparator by Name() so a cursor can be
// thawed without re-parsing the original request's comparator clause.
var comparators = map[string]comparator.RangeCapable{
	comparator.Default{}.Name():         comparator.Default{},
	comparator.CaseInsensitive{}.Name(): comparator.CaseInsensitive{},
}

// thawVRange rebuilds a VRange from its SET fields (comparator name,
// bin set, bin range, id range, direction), then restores position
// per spec.md §4.7: with STATE present and valid, exact recovery via
// VRange.Thaw(cur_bin); otherwise the generic position-only fallback.
//
// vrange's SET encodes bin indices (lo_bin/hi_bin), not the original
// value strings, so thaw cannot call NewVRange (which takes value
// strings and re-derives bins via BinLookup) without the original
// endpoint values. Instead it reconstructs the driver directly from
// the frozen bin range via comparator.NewVRangeFromBins, the
// bin-indexed constructor grounded on the same heavy state NewVRange
// builds.
func thawVRange(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if deps.BinIndex == nil || deps.Reader == nil {
		return nil, fmt.Errorf("cursor: vrange thaw requires a BinIndex and Reader: %w", graphd.ErrSystem)
	}
	fields := splitTopLevel(args, ',')
	if len(fields) != 7 {
		return nil, fmt.Errorf("cursor: vrange() expects 7 fields, got %d: %w", len(fields), graphd.ErrLexical)
	}
	cmp, ok := comparators[fields[0]]
	if !ok {
		return nil, fmt.Errorf("cursor: unknown comparator %q: %w", fields[0], graphd.ErrLexical)
	}
	loBin, err := parseInt(fields[2])
	if err != nil {
		return nil, err
	}
	hiBin, err := parseInt(fields[3])
	if err != nil {
		return nil, err
	}
	low, err := parseID(fields[4])
	if err != nil {
		return nil, err
	}
	high, err := parseID(fields[5])
	if err != nil {
		return nil, err
	}
	dir, err := parseDirection(fields[6])
	if err != nil {
		return nil, err
	}
	it, err := comparator.NewVRangeFromBins(cmp, deps.BinIndex, deps.Reader, loBin, hiBin, low, high, dir, nil)
	if err != nil {
		return nil, err
	}

	if hasState {
		if serr := it.Thaw(state); serr == nil {
			return it, nil
		}
		// spec.md §4.7: a STATE that fails its own validation
		// downgrades to position-only recovery instead of failing
		// the whole thaw.
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
