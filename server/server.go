// Package server provides the ambient verb-dispatch surface spec.md
// §1 names as component J: a line-protocol session accepts one parsed
// S-expression request per turn (lexing and parsing themselves are out
// of scope, spec.md §1/§6) and this package routes it to the read,
// write, iterate, restore, replica, sync, set, status, or verify
// handler. Only read and verify are implemented by this repository;
// the rest are external collaborators (§1) wired up to their real
// implementations by the process embedding this package. cmd/graphd
// wires none of them, and assembles no concrete pdb.Store or session
// loop.
package server

import (
	"fmt"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/constraint"
	"github.com/ledgerwatch/graphd/eval"
	"github.com/ledgerwatch/graphd/token"
)

// Verb names one of the nine request kinds spec.md §1 lists.
type Verb string

const (
	VerbRead    Verb = "read"
	VerbWrite   Verb = "write"
	VerbIterate Verb = "iterate"
	VerbRestore Verb = "restore"
	VerbReplica Verb = "replica"
	VerbSync    Verb = "sync"
	VerbSet     Verb = "set"
	VerbStatus  Verb = "status"
	VerbVerify  Verb = "verify"
)

// Request bundles a single dispatched call. Node is the constraint
// tree the (out-of-scope) parser produced; FrozenCursor is only
// consulted by VerbVerify, which re-checks a previously issued cursor
// rather than a fresh constraint tree.
type Request struct {
	Verb         Verb
	Node         *constraint.Node
	FrozenCursor string
	IDs          []graphd.ID
}

// Response is the union of every handler's result shape. A read fills
// Tokens/Cursor/EOF/OrMatches; a verify fills Verified; the remaining
// out-of-scope verbs return their own Handler-defined shape via Raw.
type Response struct {
	Tokens    []*token.Token
	Cursor    string
	EOF       bool
	OrMatches []eval.OrMatch
	Verified  map[graphd.ID]bool
	Raw       any
}

// Handler serves one verb against deps under budget.
type Handler func(req Request, deps eval.Deps, budget *graphd.Budget) (Response, error)

// Dispatcher routes a Request to its Handler and logs a warning for any
// overrun of cfg's soft deadline (internal/config.Config).
type Dispatcher struct {
	handlers     map[Verb]Handler
	softDeadline time.Duration
}

// NewDispatcher builds a Dispatcher with the two in-scope handlers
// (read, verify) wired to package eval, and every out-of-scope verb
// defaulting to unsupportedHandler. Call Register to wire a real
// implementation for an out-of-scope verb before serving traffic.
func NewDispatcher(softDeadline time.Duration) *Dispatcher {
	d := &Dispatcher{
		handlers:     make(map[Verb]Handler, 9),
		softDeadline: softDeadline,
	}
	d.handlers[VerbRead] = readHandler
	d.handlers[VerbVerify] = verifyHandler
	for _, v := range []Verb{VerbWrite, VerbIterate, VerbRestore, VerbReplica, VerbSync, VerbSet, VerbStatus} {
		d.handlers[v] = unsupportedHandler(v)
	}
	return d
}

// Register installs (or replaces) the handler for verb.
func (d *Dispatcher) Register(verb Verb, h Handler) {
	d.handlers[verb] = h
}

// Dispatch routes req to its registered handler and logs a warning when
// the call runs past the configured soft deadline. An unrecognized verb is
// ErrLexical, matching spec.md §7's handling of malformed requests.
func (d *Dispatcher) Dispatch(req Request, deps eval.Deps, budget *graphd.Budget) (Response, error) {
	h, ok := d.handlers[req.Verb]
	if !ok {
		return Response{}, fmt.Errorf("server: unknown verb %q: %w", req.Verb, graphd.ErrLexical)
	}

	start := time.Now()
	resp, err := h(req, deps, budget)
	if elapsed := time.Since(start); d.softDeadline > 0 && elapsed > d.softDeadline {
		log.Warn("[server] soft deadline exceeded", "verb", req.Verb, "took", elapsed, "budget", d.softDeadline)
	}
	return resp, err
}

func readHandler(req Request, deps eval.Deps, budget *graphd.Budget) (Response, error) {
	res, err := eval.Read(req.Node, deps, budget)
	if err != nil {
		return Response{}, err
	}
	return Response{Tokens: res.Tokens, Cursor: res.Cursor, EOF: res.EOF, OrMatches: res.OrMatches}, nil
}

func verifyHandler(req Request, deps eval.Deps, budget *graphd.Budget) (Response, error) {
	verified, err := eval.Verify(req.Node, req.FrozenCursor, req.IDs, deps, budget)
	if err != nil {
		return Response{}, err
	}
	return Response{Verified: verified}, nil
}

// unsupportedHandler reports that verb has no handler wired yet. It is
// not a permanent ErrSystem: embedding code is expected to call
// Register for every out-of-scope verb it actually serves (write,
// iterate, restore, replica, sync, set, status) before accepting
// traffic for it.
func unsupportedHandler(verb Verb) Handler {
	return func(Request, eval.Deps, *graphd.Budget) (Response, error) {
		return Response{}, fmt.Errorf("server: verb %q has no handler registered: %w", verb, graphd.ErrSystem)
	}
}
