package aggregate

import (
	"github.com/dingodb/coprocessor/internal/coprocessor/program"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// groupEntry is one group's key tuple plus its parallel vector of
// accumulators, one per AggSpec in the plan.
type groupEntry struct {
	key  []scalar.Value
	accs []*Accumulator
}

func newGroupEntry(key []scalar.Value, specs []program.AggSpec) *groupEntry {
	accs := make([]*Accumulator, len(specs))
	for i, spec := range specs {
		accs[i] = NewAccumulator(spec)
	}
	return &groupEntry{key: key, accs: accs}
}

func (e *groupEntry) accumulate(inputs []scalar.Value) error {
	for i, acc := range e.accs {
		if err := acc.Accumulate(inputs[i]); err != nil {
			return err
		}
	}
	return nil
}

// row returns the group's output row: group key values followed by each
// aggregate's result, in AggSpec order — the §4.3 "group_key_values ++
// aggregate_outputs" shape.
func (e *groupEntry) row() []scalar.Value {
	out := make([]scalar.Value, 0, len(e.key)+len(e.accs))
	out = append(out, e.key...)
	for _, acc := range e.accs {
		out = append(out, acc.Result())
	}
	return out
}

// Table is the coprocessor's hash aggregation table: one groupEntry per
// distinct group key tuple, addressed by scalar.HashTuple with an explicit
// equality check to resolve collisions. Grounded on the teacher's
// GroupByMerger (internal/query/aggregator/groupby.go), generalized from a
// string-joined group key to the scalar package's typed hash so NULLs and
// distinct types never collide by string-formatting accident.
//
// Insertion order is preserved so a single drain produces a stable row
// order even though no particular order is promised across different runs
// (§5's "unspecified but stable across a single drain").
type Table struct {
	specs   []program.AggSpec
	buckets map[uint64][]*groupEntry
	order   []*groupEntry
	cursor  int // PopFront position into order
}

// NewTable returns an empty aggregation table for the given aggregate
// specs, shared by every group the table ever creates.
func NewTable(specs []program.AggSpec) *Table {
	return &Table{specs: specs, buckets: make(map[uint64][]*groupEntry)}
}

// Accumulate folds one row into the group identified by key, creating the
// group on first sight. inputs holds one value per AggSpec, already
// resolved by the caller (the original column's value, a NULL placeholder
// for a missing/whole-row spec, or anything at all for a ForcedNull spec).
func (t *Table) Accumulate(key []scalar.Value, inputs []scalar.Value) error {
	h := scalar.HashTuple(key)
	bucket := t.buckets[h]
	for _, e := range bucket {
		if tupleEqual(e.key, key) {
			return e.accumulate(inputs)
		}
	}
	e := newGroupEntry(key, t.specs)
	if err := e.accumulate(inputs); err != nil {
		return err
	}
	t.buckets[h] = append(bucket, e)
	t.order = append(t.order, e)
	return nil
}

// Len returns the number of groups not yet drained by PopFront.
func (t *Table) Len() int {
	return len(t.order) - t.cursor
}

// PopFront removes and returns the oldest undrained group's output row.
// Draining is destructive and one-directional, matching Execute's
// residue-across-calls model (§4.4c): once popped, a row is never
// revisited.
func (t *Table) PopFront() ([]scalar.Value, bool) {
	if t.cursor >= len(t.order) {
		return nil, false
	}
	e := t.order[t.cursor]
	t.cursor++
	return e.row(), true
}

// tupleEqual compares two group key tuples component-wise using the total
// order scalar.Compare defines, rather than Value.Equal, so that two NaN
// floating columns sharing a group (both treated as the same "greatest"
// value under that order) are never hashed into the same bucket yet sorted
// into two never-matching entries.
func tupleEqual(a, b []scalar.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Typ != b[i].Typ || scalar.Compare(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}
