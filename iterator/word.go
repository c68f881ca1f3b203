package iterator

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/pdb"
)

// Word wraps the primitive store's word index (spec.md §4.1 "word",
// §6.1 word_iterator), used by `~=` and prefix completion. Structured
// exactly like Hash: the retained store handle lets Check/Clone probe
// independently of this iterator's live position.
type Word struct {
	word  string
	low   graphd.ID
	high  graphd.ID
	dir   graphd.Direction
	store pdb.WordIndex
	orig  *original

	live   pdb.IDIterator
	sawAny bool
	lastID graphd.ID
}

func NewWord(store pdb.WordIndex, word string, low, high graphd.ID, dir graphd.Direction) (*Word, error) {
	w := &Word{word: word, low: low, high: high, dir: dir, store: store, orig: newOriginal(), lastID: graphd.NoID}
	it, err := store.WordIterator(word, low, high, dir)
	if err != nil {
		return nil, err
	}
	w.live = it
	return w, nil
}

func (w *Word) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	id, ok := w.live.Next()
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	w.lastID, w.sawAny = id, true
	return id, nil
}

func (w *Word) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostFind); err != nil {
		return graphd.NoID, err
	}
	id, ok := w.live.FindNonstep(inID)
	if !ok {
		return graphd.NoID, graphd.ErrNo
	}
	w.lastID, w.sawAny = id, true
	return id, nil
}

func (w *Word) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	probe, err := w.store.WordIterator(w.word, w.low, w.high, w.dir)
	if err != nil {
		return fmt.Errorf("word check: %w", err)
	}
	defer probe.Close()
	if got, ok := probe.FindNonstep(id); ok && got == id {
		return nil
	}
	return graphd.ErrNo
}

func (w *Word) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := w.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	probe, err := w.store.WordIterator(w.word, w.low, w.high, w.dir)
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
	w.orig.cacheStats(s)
	return s, nil
}

func (w *Word) Reset() {
	w.live.Close()
	it, _ := w.store.WordIterator(w.word, w.low, w.high, w.dir)
	w.live = it
	w.sawAny = false
	w.lastID = graphd.NoID
}

func (w *Word) Clone() Iterator {
	w.orig.retain()
	it, _ := w.store.WordIterator(w.word, w.low, w.high, w.dir)
	return &Word{word: w.word, low: w.low, high: w.high, dir: w.dir, store: w.store, orig: w.orig, live: it, lastID: graphd.NoID}
}

func (w *Word) Freeze(flags FreezeFlags) (string, error) {
	out := fmt.Sprintf("word(%s,%d,%d,%s)", w.word, w.low, w.high, w.dir)
	if flags.Has(FreezePosition) {
		if w.sawAny {
			out += fmt.Sprintf("/%d", w.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (w *Word) Beyond(string) (bool, error)  { return false, nil }
func (w *Word) PrimitiveSummary() Summary    { return Summary{} }
func (w *Word) Low() graphd.ID               { return w.low }
func (w *Word) High() graphd.ID              { return w.high }
func (w *Word) Direction() graphd.Direction  { return w.dir }
func (w *Word) TypeTag() string              { return "word" }
