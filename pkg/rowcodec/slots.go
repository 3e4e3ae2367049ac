package rowcodec

import (
	"github.com/dingodb/coprocessor/internal/copstatus"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// slotPlan precomputes, from a Schema, the schema-list positions of its key
// columns and value columns in slot order (schema list order, independent
// of each column's logical Index). It is computed once per Schema and
// reused across every row the schema ever encodes or decodes.
type slotPlan struct {
	keySlots   []int // schema-list positions of key columns, in slot order
	valueSlots []int // schema-list positions of non-key columns, in slot order
}

func buildSlotPlan(s Schema) slotPlan {
	plan := slotPlan{
		keySlots:   make([]int, 0, s.KeyColumnCount()),
		valueSlots: make([]int, 0, s.ValueColumnCount()),
	}
	for pos, col := range s.Columns {
		if col.IsKey {
			plan.keySlots = append(plan.keySlots, pos)
		} else {
			plan.valueSlots = append(plan.valueSlots, pos)
		}
	}
	return plan
}

// Row is a caller-presented tuple addressed by logical column index —
// Row[i] is the value for the column whose ColumnDescriptor.Index == i,
// regardless of that column's position in the Schema's Columns list. This
// is the representation scenario 6 of the codec's disordered-index test
// exercises: a schema list order that differs from logical index order.
type Row []scalar.Value

// valueFor looks up the row value belonging to the column at schema-list
// position pos, using that column's logical Index to address into row.
func valueFor(s Schema, row Row, pos int) (scalar.Value, error) {
	idx := s.Columns[pos].Index
	if idx < 0 || int(idx) >= len(row) {
		return scalar.Value{}, copstatus.Newf("RecordEncoder.Encode", copstatus.BadArity,
			"column index %d out of range for row of length %d", idx, len(row))
	}
	return row[idx], nil
}
