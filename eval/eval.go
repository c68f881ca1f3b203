// Package eval implements the request-scoped evaluator: compiling a
// constraint tree (component E) into an iterator (component B), then
// draining it while tracking or-map state (G) and materializing
// result tokens (H). There is no teacher analogue for this package —
// it is the glue spec.md §4.4/§4.5/§6.3 describes directly — but its
// ambient shape (typed sentinel errors, metrics, structured logging
// hooks left to package internal/glog) follows the same conventions
// as every other package in this module.
package eval

import (
	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

// Deps bundles every store collaborator compile/drain need. It is the
// eval-level counterpart of cursor.Deps, with pdb.Generations added
// since only compile (never thaw) performs generation-window
// expansion.
type Deps struct {
	Reader      pdb.Reader
	HashIndex   pdb.HashIndex
	WordIndex   pdb.WordIndex
	BinIndex    pdb.BinIndex
	Generations pdb.Generations
}

// Error kinds (spec.md §7), aliased from package graphd so callers
// that only import eval don't also need graphd for error checking.
var (
	ErrNo             = graphd.ErrNo
	ErrMore           = graphd.ErrMore
	ErrLexical        = graphd.ErrLexical
	ErrSemantics      = graphd.ErrSemantics
	ErrTooManyMatches = graphd.ErrTooManyMatches
	ErrNotAReplica    = graphd.ErrNotAReplica
	ErrSystem         = graphd.ErrSystem
)
