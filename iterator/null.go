package iterator

import "github.com/ledgerwatch/graphd"

// Null is the empty stream (spec.md §4.1).
type Null struct {
	dir graphd.Direction
}

func NewNull(dir graphd.Direction) *Null { return &Null{dir: dir} }

func (n *Null) Next(budget *graphd.Budget) (graphd.ID, error) {
	if err := budget.Charge(CostNext); err != nil {
		return graphd.NoID, err
	}
	return graphd.NoID, graphd.ErrNo
}

func (n *Null) Find(graphd.ID, *graphd.Budget) (graphd.ID, error) { return graphd.NoID, graphd.ErrNo }
func (n *Null) Check(graphd.ID, *graphd.Budget) error             { return graphd.ErrNo }
func (n *Null) Statistics(*graphd.Budget) (Stats, error) {
	return Stats{Sorted: true, Ordered: true}, nil
}
func (n *Null) Reset()            {}
func (n *Null) Clone() Iterator   { return &Null{dir: n.dir} }
func (n *Null) Freeze(FreezeFlags) (string, error) { return "null()", nil }
func (n *Null) Beyond(string) (bool, error)        { return true, nil }
func (n *Null) PrimitiveSummary() Summary          { return Summary{} }
func (n *Null) Low() graphd.ID                     { return 0 }
func (n *Null) High() graphd.ID                    { return 0 }
func (n *Null) Direction() graphd.Direction        { return n.dir }
func (n *Null) TypeTag() string                    { return "null" }
