package iterator

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

// Prefix is the composite iterator for prefix search (spec.md §4.1),
// structured like Word/Hash: the retained store handle lets Check/Clone
// open their own PrefixIterator and probe independently.
type Prefix struct {
	prefix string
	low    graphd.ID
	high   graphd.ID
	dir    graphd.Direction
	store  pdb.WordIndex
	orig   *original

	live   pdb.IDIterator
	sawAny bool
	lastID graphd.ID
}

func NewPrefix(store pdb.WordIndex, prefix string, low, high graphd.ID, dir graphd.Direction) (*Prefix, error) {
	p := &Prefix{prefix: prefix, low: low, high: high, dir: dir, store: store, orig: newOriginal(), lastID: graphd.NoID}
	it, err := store.PrefixIterator(prefix, low, high, dir)
	if err != nil {
		return nil, err
	}
	p.live = it
	return p, nil
}

func (p *Prefix) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	id, ok := p.live.Next()
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	p.lastID, p.sawAny = id, true
	return id, nil
}

func (p *Prefix) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	id, ok := p.live.FindNonstep(inID)
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	p.lastID, p.sawAny = id, true
	return id, nil
}

func (p *Prefix) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	probe, err := p.store.PrefixIterator(p.prefix, p.low, p.high, p.dir)
	if err != nil {
		return fmt.Errorf("prefix check: %w", err)
	}
	defer probe.Close()
	if got, ok := probe.FindNonstep(id); ok && got == id {
		return nil
	}
	return graphd.ErrNo
}

func (p *Prefix) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := p.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	probe, err := p.store.PrefixIterator(p.prefix, p.low, p.high, p.dir)
	if err != nil {
		return Stats{}, err
	}
	defer probe.Close()
	var n int64
	for {
		if _, ok := probe.Next(); !ok {
			break
		}
		n++
	}
	s := Stats{N: n, CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true}
	p.orig.cacheStats(s)
	return s, nil
}

func (p *Prefix) Reset() {
	p.live.Close()
	it, _ := p.store.PrefixIterator(p.prefix, p.low, p.high, p.dir)
	p.live = it
	p.sawAny = false
	p.lastID = graphd.NoID
}

func (p *Prefix) Clone() Iterator {
	p.orig.retain()
	it, _ := p.store.PrefixIterator(p.prefix, p.low, p.high, p.dir)
	return &Prefix{prefix: p.prefix, low: p.low, high: p.high, dir: p.dir, store: p.store, orig: p.orig, live: it, lastID: graphd.NoID}
}

func (p *Prefix) Freeze(flags FreezeFlags) (string, error) {
	out := fmt.Sprintf("prefix(%s,%d,%d,%s)", p.prefix, p.low, p.high, p.dir)
	if flags.Has(FreezePosition) {
		if p.sawAny {
			out += fmt.Sprintf("/%d", p.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (p *Prefix) Beyond(string) (bool, error) { return false, nil }
func (p *Prefix) PrimitiveSummary() Summary   { return Summary{} }
func (p *Prefix) Low() graphd.ID              { return p.low }
func (p *Prefix) High() graphd.ID             { return p.high }
func (p *Prefix) Direction() graphd.Direction { return p.dir }
func (p *Prefix) TypeTag() string             { return "prefix" }
