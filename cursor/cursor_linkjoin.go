package cursor

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/guidset"
	"github.com/ledgerwatch/graphd/iterator"
)

func init() {
	register("linkjoin", thawLinkJoin)
}

// thawLinkJoin rebuilds a LinkJoin from its frozen header
// "low,high,dir,linkage" plus a ':'-joined member list of hex-encoded
// GUIDs (or the literal "null" marking contains_null), mirroring
// thawFixed's header+members shape.
func thawLinkJoin(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	if deps.Reader == nil {
		return nil, fmt.Errorf("cursor: linkjoin thaw requires a Reader: %w", graphd.ErrSystem)
	}
	fields := splitTopLevel(args, ':')
	if len(fields) == 0 || fields[0] == "" {
		return nil, fmt.Errorf("cursor: linkjoin() missing low,high,dir,linkage header: %w", graphd.ErrLexical)
	}
	header := splitTopLevel(fields[0], ',')
	if len(header) != 4 {
		return nil, fmt.Errorf("cursor: linkjoin() header expects 4 fields, got %d: %w", len(header), graphd.ErrLexical)
	}
	low, err := parseID(header[0])
	if err != nil {
		return nil, err
	}
	high, err := parseID(header[1])
	if err != nil {
		return nil, err
	}
	dir, err := parseDirection(header[2])
	if err != nil {
		return nil, err
	}
	linkageN, err := parseInt(header[3])
	if err != nil {
		return nil, err
	}
	members := guidset.New()
	members.ContainsNull = false
	for _, m := range fields[1:] {
		if m == "null" {
			members.ContainsNull = true
			continue
		}
		b, err := decodeLiteral(m)
		if err != nil {
			return nil, err
		}
		if len(b) != 16 {
			return nil, fmt.Errorf("cursor: linkjoin() member has %d bytes, want 16: %w", len(b), graphd.ErrLexical)
		}
		var g graphd.GUID
		copy(g[:], b)
		members.Add(g)
	}
	it := iterator.NewLinkJoin(deps.Reader, graphd.Linkage(linkageN), members, low, high, dir)
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
