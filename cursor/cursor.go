package cursor

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
	"github.com/ledgerwatch/graphd/pdb"
)

// Deps bundles the store collaborators a thaw needs to rebuild index
// iterators (spec.md §6.1's hash_iterator/word_iterator/bin_lookup
// family), mirroring the small composable interfaces package pdb
// already declares rather than one monolithic store handle.
type Deps struct {
	HashIndex pdb.HashIndex
	WordIndex pdb.WordIndex
	BinIndex  pdb.BinIndex
	Reader    pdb.Reader

	// IDSetBitmap supplies the externally-owned bitmap an `idset`
	// cursor wraps (spec.md §4.1: "wraps an externally supplied
	// ordered idset; supports lazy recovery"). The cursor text itself
	// only carries low/high/dir/position — the member set is the
	// caller's responsibility to supply fresh at thaw time, exactly as
	// it supplied it at the original NewIDSet call.
	IDSetBitmap *roaring.Bitmap
}

// Freeze is a thin pass-through to it.Freeze, provided so callers that
// only have a cursor.Deps/registry dependency don't also need to
// import package iterator just to call Freeze.
func Freeze(it iterator.Iterator, flags iterator.FreezeFlags) (string, error) {
	return it.Freeze(flags)
}

// thawFunc rebuilds one iterator variant from its SET args, then
// applies position/state recovery. budget funds whatever recovery
// work is needed; ErrMore propagates like any other suspension.
type thawFunc func(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error)

var registry = map[string]thawFunc{}

func register(tag string, f thawFunc) { registry[tag] = f }

// Thaw is the inverse of Freeze (spec.md §4.7): it parses text
// produced by some iterator's Freeze and rebuilds an equivalent,
// positioned iterator. deps supplies the store collaborators needed
// to rebuild index-backed variants; budget funds position recovery
// for the SET+POSITION case (see recoverPosition).
func Thaw(text string, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	tag, args, rest, err := splitCall(text)
	if err != nil {
		return nil, err
	}
	f, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("cursor: unknown iterator type tag %q: %w", tag, graphd.ErrLexical)
	}
	position, hasPosition, state, hasState, err := splitPositionState(rest)
	if err != nil {
		// spec.md §4.7: a STATE that fails to parse downgrades to
		// position-only recovery rather than failing the whole thaw.
		position, hasPosition, _, _, err2 := splitPositionState(stripAfterFirstColon(rest))
		if err2 != nil {
			return nil, err
		}
		return f(args, position, hasPosition, "", false, deps, budget)
	}
	return f(args, position, hasPosition, state, hasState, deps, budget)
}

// stripAfterFirstColon truncates rest at its first top-level ':', so
// a malformed state(...) section can be dropped and only "/position"
// re-parsed, per spec.md §4.7's downgrade rule.
func stripAfterFirstColon(rest string) string {
	parts := splitTopLevel(rest, ':')
	if len(parts) == 0 {
		return rest
	}
	return parts[0]
}

// recoverPosition is the generic SET+POSITION recovery spec.md §4.7
// describes for iterators with no type-specific STATE (or where STATE
// was absent/invalid). "^" (no last id recorded) covers both "nothing
// consumed yet" and "exhausted without ever emitting anything" — a
// freshly rebuilt iterator already reproduces both correctly without
// any recovery work, since re-deriving from the same index data is
// deterministic. With a last id, Find(lastID) positions at-or-past
// it, tolerating a re-emitted already-seen id, which spec.md §8 says
// the enclosing engine deduplicates via the recorded last id.
func recoverPosition(it iterator.Iterator, lastID graphd.ID, hasLastID bool, budget *graphd.Budget) error {
	if !hasLastID {
		return nil
	}
	_, err := it.Find(lastID, budget)
	if err != nil && err != graphd.ErrNo {
		return err
	}
	return nil
}

func init() {
	register("null", thawNull)
	register("all", thawAll)
	register("withoutvalue", thawWithoutValue)
	register("idset", thawIDSet)
	register("fixed", thawFixed)
	register("hash", thawHash)
	register("word", thawWord)
	register("prefix", thawPrefix)
	register("and", thawAnd)
	register("or", thawOr)
	register("vrange", thawVRange)
}

func thawNull(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	// null() carries no direction (it has no observable
	// direction-dependent behavior); forward is an arbitrary but
	// harmless default.
	return iterator.NewNull(graphd.Forward), nil
}

func thawAll(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	low, high, dir, err := parseLowHighDir(args)
	if err != nil {
		return nil, err
	}
	it := iterator.NewAll(low, high, dir)
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

func thawWithoutValue(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if deps.Reader == nil {
		return nil, fmt.Errorf("cursor: withoutvalue thaw requires a Reader: %w", graphd.ErrSystem)
	}
	low, high, dir, err := parseLowHighDir(args)
	if err != nil {
		return nil, err
	}
	it := iterator.NewWithoutValue(deps.Reader, low, high, dir)
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

func thawIDSet(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	low, high, dir, err := parseLowHighDir(args)
	if err != nil {
		return nil, err
	}
	bitmap := deps.IDSetBitmap
	if bitmap == nil {
		bitmap = roaring.New()
	}
	it := iterator.NewIDSet(bitmap, low, high, dir)
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

func thawFixed(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	fields := splitTopLevel(args, ':')
	if len(fields) == 0 || fields[0] == "" {
		return nil, fmt.Errorf("cursor: fixed() missing low,high,dir header: %w", graphd.ErrLexical)
	}
	low, high, dir, err := parseLowHighDir(fields[0])
	if err != nil {
		return nil, err
	}
	ids := make([]graphd.ID, 0, len(fields)-1)
	for _, f := range fields[1:] {
		id, err := parseID(f)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	it := iterator.NewFixed(ids, low, high, dir)
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

func thawHash(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if deps.HashIndex == nil {
		return nil, fmt.Errorf("cursor: hash thaw requires a HashIndex: %w", graphd.ErrSystem)
	}
	fields := splitTopLevel(args, ',')
	if len(fields) != 5 {
		return nil, fmt.Errorf("cursor: hash() expects 5 fields, got %d: %w", len(fields), graphd.ErrLexical)
	}
	kindN, err := parseInt(fields[0])
	if err != nil {
		return nil, err
	}
	bytes, err := decodeLiteral(fields[1])
	if err != nil {
		return nil, err
	}
	low, err := parseID(fields[2])
	if err != nil {
		return nil, err
	}
	high, err := parseID(fields[3])
	if err != nil {
		return nil, err
	}
	dir, err := parseDirection(fields[4])
	if err != nil {
		return nil, err
	}
	it, err := iterator.NewHash(deps.HashIndex, pdb.Kind(kindN), bytes, low, high, dir)
	if err != nil {
		return nil, err
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

func thawWord(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if deps.WordIndex == nil {
		return nil, fmt.Errorf("cursor: word thaw requires a WordIndex: %w", graphd.ErrSystem)
	}
	fields := splitTopLevel(args, ',')
	if len(fields) != 4 {
		return nil, fmt.Errorf("cursor: word() expects 4 fields, got %d: %w", len(fields), graphd.ErrLexical)
	}
	low, err := parseID(fields[1])
	if err != nil {
		return nil, err
	}
	high, err := parseID(fields[2])
	if err != nil {
		return nil, err
	}
	dir, err := parseDirection(fields[3])
	if err != nil {
		return nil, err
	}
	it, err := iterator.NewWord(deps.WordIndex, fields[0], low, high, dir)
	if err != nil {
		return nil, err
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

func thawPrefix(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if deps.WordIndex == nil {
		return nil, fmt.Errorf("cursor: prefix thaw requires a WordIndex: %w", graphd.ErrSystem)
	}
	fields := splitTopLevel(args, ',')
	if len(fields) != 4 {
		return nil, fmt.Errorf("cursor: prefix() expects 4 fields, got %d: %w", len(fields), graphd.ErrLexical)
	}
	low, err := parseID(fields[1])
	if err != nil {
		return nil, err
	}
	high, err := parseID(fields[2])
	if err != nil {
		return nil, err
	}
	dir, err := parseDirection(fields[3])
	if err != nil {
		return nil, err
	}
	it, err := iterator.NewPrefix(deps.WordIndex, fields[0], low, high, dir)
	if err != nil {
		return nil, err
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

// parseLowHighDir parses the common "low,high,dir" argument triple
// most simple variants freeze their SET as.
func parseLowHighDir(args string) (low, high graphd.ID, dir graphd.Direction, err error) {
	fields := splitTopLevel(args, ',')
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("cursor: expected low,high,dir, got %q: %w", args, graphd.ErrLexical)
	}
	low, err = parseID(fields[0])
	if err != nil {
		return 0, 0, 0, err
	}
	high, err = parseID(fields[1])
	if err != nil {
		return 0, 0, 0, err
	}
	dir, err = parseDirection(fields[2])
	if err != nil {
		return 0, 0, 0, err
	}
	return low, high, dir, nil
}
