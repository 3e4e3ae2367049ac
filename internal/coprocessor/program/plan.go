package program

import (
	"github.com/dingodb/coprocessor/pkg/rowcodec"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// AggSpec is one resolved aggregate slot of an ExecutionPlan: the kernel,
// the logical input column it reads (if any), and how that input
// classifies against original_schema.
//
//   - WholeRow is set when ColumnIndex == -1; only COUNT/COUNTWITHNULL give
//     this a defined meaning (the row itself, never NULL).
//   - Found is set when ColumnIndex resolved to an actual original_schema
//     column (meaningless when WholeRow).
//   - ForcedNull is set when the spec requires this aggregate to emit NULL
//     for every group regardless of input: an out-of-range column feeding
//     anything but COUNTWITHNULL, or -1 feeding anything but
//     COUNT/COUNTWITHNULL (§4.3 point 5, §8 "missing-column aggregate").
//   - CountsEveryRow is set when this aggregate must count every row
//     unconditionally: COUNTWITHNULL always, and COUNT/COUNTWITHNULL when
//     WholeRow (the row itself is never NULL).
type AggSpec struct {
	Func           AggFunc
	ColumnIndex    int32
	WholeRow       bool
	Found          bool
	InputType      scalar.Type
	OutputType     scalar.Type
	ForcedNull     bool
	CountsEveryRow bool
}

// ExecutionPlan is the immutable result of validating a Program at Open.
// Nothing past this point re-reads the Program; Execute drives only the
// plan.
type ExecutionPlan struct {
	Mode Mode

	DecodeSchema rowcodec.Schema
	EncodeSchema rowcodec.Schema

	// ProjectIndices holds the logical column indices forming the
	// projected tuple, in projection order. In Aggregate mode it is nil;
	// GroupIndices and AggSpecs take its place.
	ProjectIndices []int32

	// GroupIndices holds the logical column indices grouped on, in
	// group-key order. Empty means the single implicit group.
	GroupIndices []int32
	AggSpecs     []AggSpec

	// KeyOnlySafe is true when every column this plan reads (projection,
	// group keys, and aggregate inputs) is a key column of DecodeSchema,
	// so the plan can run against key_only scans without error. This is
	// computed once at Open rather than re-derived on every Execute call.
	KeyOnlySafe bool
}
