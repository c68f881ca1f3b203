package iterator

import (
	"fmt"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/guidset"
	"github.com/ledgerwatch/graphd/pdb"
)

// LinkJoin is the linkage-join step of constraint compilation (spec.md
// §4.4 step 3): it scans the dense ID range and admits only those
// primitives whose linkage-field GUID is a member of a child
// sub-constraint's already-materialized result set. It is the
// unindexed fallback used whenever the linkage field itself has no
// usable hash/word/vrange restriction at the parent's own level,
// following the qualify-via-reader shape of WithoutValue.
type LinkJoin struct {
	reader  pdb.Reader
	low     graphd.ID
	high    graphd.ID
	dir     graphd.Direction
	linkage graphd.Linkage
	members *guidset.Set
	orig    *original
	cur     graphd.ID
	has     bool

	sawAny bool
	lastID graphd.ID
}

// NewLinkJoin builds a LinkJoin admitting ids in [low, high) whose
// linkage field is a member of members.
func NewLinkJoin(reader pdb.Reader, linkage graphd.Linkage, members *guidset.Set, low, high graphd.ID, dir graphd.Direction) *LinkJoin {
	j := &LinkJoin{reader: reader, low: low, high: high, dir: dir, linkage: linkage, members: members, orig: newOriginal()}
	j.Reset()
	return j
}

func (j *LinkJoin) Reset() {
	if j.dir == graphd.Forward {
		j.cur, j.has = j.low, j.low < j.high
	} else {
		j.cur, j.has = j.high-1, j.low < j.high
	}
}

func (j *LinkJoin) step() {
	if j.dir == graphd.Forward {
		j.cur++
		j.has = j.cur < j.high
	} else if j.cur == j.low {
		j.has = false
	} else {
		j.cur--
	}
}

func (j *LinkJoin) linkGUID(p *pdb.Primitive) graphd.GUID {
	switch j.linkage {
	case graphd.LinkageLeft:
		return p.Left
	case graphd.LinkageRight:
		return p.Right
	case graphd.LinkageScope:
		return p.Scope
	case graphd.LinkageTypeguid:
		return p.TypeGUID
	default:
		return graphd.NullGUID
	}
}

func (j *LinkJoin) qualifies(id graphd.ID) (bool, error) {
	p, err := j.reader.ReadID(id)
	if err != nil {
		return false, err
	}
	return j.members.Match(j.linkGUID(p)), nil
}

func (j *LinkJoin) Next(budget *graphd.Budget) (graphd.ID, error) {
	for {
		if err := budget.Charge(CostNext); err != nil {
			return graphd.NoID, err
		}
		if !j.has {
			return graphd.NoID, graphd.ErrNo
		}
		id := j.cur
		j.step()
		ok, err := j.qualifies(id)
		if err != nil {
			return graphd.NoID, err
		}
		if ok {
			j.sawAny = true
			j.lastID = id
			return id, nil
		}
	}
}

func (j *LinkJoin) Find(inID graphd.ID, budget *graphd.Budget) (graphd.ID, error) {
	if j.dir == graphd.Forward && inID > j.cur {
		j.cur = inID
	} else if j.dir == graphd.Backward && inID < j.cur {
		j.cur = inID
	}
	j.has = inRange(j.cur, j.low, j.high)
	return j.Next(budget)
}

func (j *LinkJoin) Check(id graphd.ID, budget *graphd.Budget) error {
	if err := budget.Charge(CostCheck); err != nil {
		return err
	}
	if !inRange(id, j.low, j.high) {
		return graphd.ErrNo
	}
	ok, err := j.qualifies(id)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return graphd.ErrNo
}

func (j *LinkJoin) Statistics(budget *graphd.Budget) (Stats, error) {
	if s, ok := j.orig.cachedStats(); ok {
		return s, nil
	}
	if err := budget.Charge(CostStats); err != nil {
		return Stats{}, err
	}
	// Estimate that a quarter of the id range qualifies; the member
	// count is not consulted, and there is no store-side linkage
	// histogram to refine the guess.
	n := int64(j.high-j.low) / 4
	s := Stats{N: n, CheckCost: CostCheck, NextCost: CostNext, FindCost: CostFind, Sorted: true}
	j.orig.cacheStats(s)
	return s, nil
}

func (j *LinkJoin) Clone() Iterator {
	j.orig.retain()
	c := &LinkJoin{reader: j.reader, low: j.low, high: j.high, dir: j.dir, linkage: j.linkage, members: j.members, orig: j.orig,
		cur: j.cur, has: j.has, sawAny: j.sawAny, lastID: j.lastID}
	return c
}

func (j *LinkJoin) Freeze(flags FreezeFlags) (string, error) {
	out := "linkjoin("
	if flags.Has(FreezeSet) {
		out += fmt.Sprintf("%d,%d,%s,%d", j.low, j.high, j.dir, j.linkage)
		for _, g := range j.members.GUIDs {
			out += fmt.Sprintf(":%x", g[:])
		}
		if j.members.ContainsNull {
			out += ":null"
		}
	}
	out += ")"
	if flags.Has(FreezePosition) {
		if j.sawAny {
			out += fmt.Sprintf("/%d", j.lastID)
		} else {
			out += "/^"
		}
	}
	return out, nil
}

func (j *LinkJoin) Beyond(string) (bool, error) { return false, nil }
func (j *LinkJoin) PrimitiveSummary() Summary   { return Summary{} }
func (j *LinkJoin) Low() graphd.ID              { return j.low }
func (j *LinkJoin) High() graphd.ID             { return j.high }
func (j *LinkJoin) Direction() graphd.Direction { return j.dir }
func (j *LinkJoin) TypeTag() string             { return "linkjoin" }
