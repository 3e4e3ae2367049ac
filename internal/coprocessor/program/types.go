// Package program holds the coprocessor's wire-shape request types, the
// Open-time validator that turns a request into an immutable ExecutionPlan,
// and the projection/reordering logic the plan encodes.
package program

import (
	"github.com/dingodb/coprocessor/pkg/rowcodec"
)

// AggFunc identifies one of the six aggregate kernels §4.5 defines.
type AggFunc string

const (
	SUM           AggFunc = "SUM"
	SUM0          AggFunc = "SUM0"
	COUNT         AggFunc = "COUNT"
	COUNTWITHNULL AggFunc = "COUNTWITHNULL"
	MAX           AggFunc = "MAX"
	MIN           AggFunc = "MIN"
)

// AggOp is one aggregate operator in a Program: a kernel plus the logical
// column index it reads. ColumnIndex may be -1 (whole-row, meaningful only
// for COUNT/COUNTWITHNULL) or out of range for original_schema (a
// missing-column reference, which contributes NULL inputs at runtime
// rather than failing at Open).
type AggOp struct {
	Func        AggFunc
	ColumnIndex int32
}

// Expression is a placeholder for the deferred filter-expression slot the
// source program carries (spec §9's "filter expression slot" design
// note). No evaluator is implemented; Open rejects any Program whose
// Expression is non-nil with BadRequest rather than silently ignoring it,
// so a caller that depends on filtering gets a clear signal instead of an
// unfiltered result set.
type Expression interface {
	// Describe returns a short human-readable description, used only in
	// the BadRequest error Open raises when an Expression is present.
	Describe() string
}

// Program is the compiled query fragment pushed down to the coprocessor,
// mirroring the wire shape of §6.
type Program struct {
	SchemaVersion        uint32
	OriginalSchema       rowcodec.Schema
	SelectionColumns     []int32 // optional; empty means "all columns, in schema order"
	ResultSchema         rowcodec.Schema
	GroupByColumns       []int32 // optional
	AggregationOperators []AggOp // optional
	Expression           Expression
}

// Mode is the two ways a validated Program can execute.
type Mode int

const (
	// Passthrough projects each input row to exactly one output row.
	Passthrough Mode = iota
	// Aggregate groups input rows and emits one output row per group
	// after the cursor is exhausted.
	Aggregate
)

func (m Mode) String() string {
	if m == Aggregate {
		return "Aggregate"
	}
	return "Passthrough"
}
