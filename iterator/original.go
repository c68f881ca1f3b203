package iterator

import "go.uber.org/atomic"

// original tracks the clone refcount and cached statistics shared by
// every clone of one iterator (spec.md §5 "Linkage (clone/original)").
// It holds only the count and the statistics; each variant shares its
// heavier state (bitmaps, id lists, store handles) among clones through
// its own fields. Built on go.uber.org/atomic's working-flag types,
// generalized to a refcount.
type original struct {
	refs      atomic.Int32
	statsOnce atomic.Bool
	stats     Stats
}

func newOriginal() *original {
	o := &original{}
	o.refs.Store(1)
	return o
}

// retain is called by Clone to register a new positioned view.
func (o *original) retain() { o.refs.Inc() }

// release decrements the count and returns the new value. Nothing in
// this repository calls it; clones are reclaimed by the garbage
// collector.
func (o *original) release() int32 { return o.refs.Dec() }

func (o *original) cachedStats() (Stats, bool) {
	if o.statsOnce.Load() {
		return o.stats, true
	}
	return Stats{}, false
}

func (o *original) cacheStats(s Stats) {
	o.stats = s
	o.statsOnce.Store(true)
}
