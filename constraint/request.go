package constraint

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
)

// Verb is the top-level operation a request finalizes into (spec.md
// §6.2 request_become, §5's read/write/restore/replica verbs).
type Verb uint8

const (
	VerbUnspecified Verb = iota
	VerbRead
	VerbWrite
	VerbIterate
	VerbRestore
	VerbReplica
	VerbSync
	VerbSet
	VerbStatus
	VerbVerify
)

func (v Verb) String() string {
	switch v {
	case VerbRead:
		return "read"
	case VerbWrite:
		return "write"
	case VerbIterate:
		return "iterate"
	case VerbRestore:
		return "restore"
	case VerbReplica:
		return "replica"
	case VerbSync:
		return "sync"
	case VerbSet:
		return "set"
	case VerbStatus:
		return "status"
	case VerbVerify:
		return "verify"
	default:
		return "unspecified"
	}
}

// Request is the per-request owner of the constraint arena: the
// parser builds Root (and any auxiliary Patterns) against Arena, then
// calls Become to bind the verb once the request line is fully parsed
// (spec.md §6.2 request_become). The evaluator (component eval) reads
// Root and Verb once parsing completes; it does not mutate them.
type Request struct {
	Arena *Arena
	Root  *Node
	Verb  Verb
}

// NewRequest returns a Request with a fresh arena and no root yet.
func NewRequest() *Request {
	return &Request{Arena: NewArena()}
}

// Become finalizes the request's verb (spec.md §6.2 request_become).
// A request may only become one verb; calling it again with a
// different verb is a parse-time contradiction.
func (r *Request) Become(v Verb) error {
	if r.Verb != VerbUnspecified && r.Verb != v {
		return fmt.Errorf("constraint: request already bound to verb %s, cannot become %s: %w", r.Verb, v, graphd.ErrSemantics)
	}
	r.Verb = v
	return nil
}

// Validate runs Node.Validate over Root with the write-mode check
// selected by the bound verb (spec.md §3 invariant iii: write
// constraints admit at most one value per string clause).
func (r *Request) Validate() error {
	if r.Root == nil {
		return nil
	}
	return r.Root.Validate(r.Verb == VerbWrite)
}
