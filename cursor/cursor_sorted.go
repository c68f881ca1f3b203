package cursor

import (
	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/iterator"
)

func init() {
	register("sorted", thawSorted)
}

// thawSorted rebuilds a Sorted iterator from its ':'-joined id list.
// Position recovery uses Sorted.Find's exact-match semantics via the
// shared recoverPosition helper.
func thawSorted(args string, position string, hasPosition bool, state string, hasState bool, deps Deps, budget *graphd.Budget) (iterator.Iterator, error) {
	var ids []graphd.ID
	for _, f := range splitTopLevel(args, ':') {
		if f == "" {
			continue
		}
		id, err := parseID(f)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	it := iterator.NewSorted(ids)
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
