package program

import (
	"github.com/dingodb/coprocessor/internal/copstatus"
	"github.com/dingodb/coprocessor/pkg/rowcodec"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

const opOpen = "Open"

// Validate checks p against the rules of §4.3 and, if it passes, returns
// the immutable ExecutionPlan Execute will drive. No part of p is
// consulted again afterward.
func Validate(p Program) (ExecutionPlan, error) {
	if p.Expression != nil {
		return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.BadRequest,
			"filter expression %q is not supported by this coprocessor build", p.Expression.Describe())
	}

	if err := checkScalarConsistency(p); err != nil {
		return ExecutionPlan{}, err
	}
	if err := checkIndexRanges(p); err != nil {
		return ExecutionPlan{}, err
	}

	if len(p.GroupByColumns) == 0 && len(p.AggregationOperators) == 0 {
		return buildPassthroughPlan(p)
	}
	return buildAggregatePlan(p)
}

// checkScalarConsistency enforces point 1: common_id and schema_version
// must agree everywhere they're declared.
func checkScalarConsistency(p Program) error {
	if p.OriginalSchema.CommonID != p.ResultSchema.CommonID {
		return copstatus.Newf(opOpen, copstatus.BadSchema,
			"original_schema.common_id (%d) != result_schema.common_id (%d)",
			p.OriginalSchema.CommonID, p.ResultSchema.CommonID)
	}
	if p.OriginalSchema.SchemaVersion != p.SchemaVersion {
		return copstatus.Newf(opOpen, copstatus.BadSchema,
			"original_schema.schema_version (%d) != program.schema_version (%d)",
			p.OriginalSchema.SchemaVersion, p.SchemaVersion)
	}
	if p.ResultSchema.SchemaVersion != p.SchemaVersion {
		return copstatus.Newf(opOpen, copstatus.BadSchema,
			"result_schema.schema_version (%d) != program.schema_version (%d)",
			p.ResultSchema.SchemaVersion, p.SchemaVersion)
	}
	return nil
}

// checkIndexRanges enforces the rest of point 1: selection_columns and
// group_by_columns indices must not exceed original_schema's length.
// Aggregation_operators indices are exempt — §4.3 point 5 explicitly
// defers those to a runtime missing-column flag instead of rejecting them
// here.
func checkIndexRanges(p Program) error {
	n := int32(len(p.OriginalSchema.Columns))
	for _, idx := range p.SelectionColumns {
		if idx < 0 || idx >= n {
			return copstatus.Newf(opOpen, copstatus.BadSchema,
				"selection_columns index %d exceeds original_schema length %d", idx, n)
		}
	}
	for _, idx := range p.GroupByColumns {
		if idx < 0 || idx >= n {
			return copstatus.Newf(opOpen, copstatus.BadSchema,
				"group_by_columns index %d exceeds original_schema length %d", idx, n)
		}
	}
	return nil
}

// buildPassthroughPlan implements points 2-3: the projected tuple is
// selection_columns applied to original_schema (or original_schema as-is
// when selection_columns is empty), and result_schema must type-match it
// element-wise.
func buildPassthroughPlan(p Program) (ExecutionPlan, error) {
	projected := projectedIndices(p)

	if len(p.ResultSchema.Columns) != len(projected) {
		return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.BadArity,
			"result_schema has %d columns but the projected tuple has %d", len(p.ResultSchema.Columns), len(projected))
	}
	for slot, idx := range projected {
		col, ok := p.OriginalSchema.ColumnByIndex(idx)
		if !ok {
			return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.BadSchema,
				"selection_columns references index %d, not present in original_schema", idx)
		}
		want := p.ResultSchema.Columns[slot].Type
		if want != col.Type {
			return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.TypeMismatch,
				"result_schema slot %d declares %s but projected column %d is %s", slot, want, idx, col.Type)
		}
	}

	plan := ExecutionPlan{
		Mode:           Passthrough,
		DecodeSchema:   p.OriginalSchema,
		EncodeSchema:   p.ResultSchema,
		ProjectIndices: projected,
	}
	plan.KeyOnlySafe = passthroughKeyOnlySafe(p.OriginalSchema, projected)
	return plan, nil
}

func projectedIndices(p Program) []int32 {
	if len(p.SelectionColumns) > 0 {
		out := make([]int32, len(p.SelectionColumns))
		copy(out, p.SelectionColumns)
		return out
	}
	out := make([]int32, len(p.OriginalSchema.Columns))
	for i, col := range p.OriginalSchema.Columns {
		out[i] = col.Index
	}
	return out
}

func passthroughKeyOnlySafe(schema rowcodec.Schema, indices []int32) bool {
	for _, idx := range indices {
		col, ok := schema.ColumnByIndex(idx)
		if !ok || !col.IsKey {
			return false
		}
	}
	return true
}

// buildAggregatePlan implements points 4-6: the result row is
// group_key_values ++ aggregate_outputs, result_schema arity and per-slot
// types must match, and every aggregate operator is resolved into an
// AggSpec describing its missing-column/whole-row classification.
func buildAggregatePlan(p Program) (ExecutionPlan, error) {
	wantArity := len(p.GroupByColumns) + len(p.AggregationOperators)
	if len(p.ResultSchema.Columns) != wantArity {
		return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.BadArity,
			"result_schema has %d columns but group_by+aggregates need %d", len(p.ResultSchema.Columns), wantArity)
	}

	for slot, idx := range p.GroupByColumns {
		col, ok := p.OriginalSchema.ColumnByIndex(idx)
		if !ok {
			return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.BadSchema,
				"group_by_columns references index %d, not present in original_schema", idx)
		}
		want := p.ResultSchema.Columns[slot].Type
		if want != col.Type {
			return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.TypeMismatch,
				"result_schema slot %d declares %s but group column %d is %s", slot, want, idx, col.Type)
		}
	}

	specs := make([]AggSpec, len(p.AggregationOperators))
	for i, op := range p.AggregationOperators {
		spec, err := resolveAggSpec(p, op)
		if err != nil {
			return ExecutionPlan{}, err
		}
		slot := len(p.GroupByColumns) + i
		want := p.ResultSchema.Columns[slot].Type
		if !spec.ForcedNull && want != spec.OutputType {
			return ExecutionPlan{}, copstatus.Newf(opOpen, copstatus.TypeMismatch,
				"result_schema slot %d declares %s but aggregate %s produces %s", slot, want, op.Func, spec.OutputType)
		}
		if spec.ForcedNull {
			// No input to derive a type from; trust the declared slot
			// type, since the runtime output is always NULL regardless.
			spec.OutputType = want
		}
		specs[i] = spec
	}

	plan := ExecutionPlan{
		Mode:         Aggregate,
		DecodeSchema: p.OriginalSchema,
		EncodeSchema: p.ResultSchema,
		GroupIndices: append([]int32(nil), p.GroupByColumns...),
		AggSpecs:     specs,
	}
	plan.KeyOnlySafe = aggregateKeyOnlySafe(p.OriginalSchema, plan.GroupIndices, specs)
	return plan, nil
}

func resolveAggSpec(p Program, op AggOp) (AggSpec, error) {
	countLike := op.Func == COUNT || op.Func == COUNTWITHNULL
	spec := AggSpec{Func: op.Func, ColumnIndex: op.ColumnIndex}

	if op.ColumnIndex == -1 {
		spec.WholeRow = true
		if countLike {
			spec.CountsEveryRow = true
			spec.OutputType = scalar.LONG
		} else {
			spec.ForcedNull = true
		}
		return spec, nil
	}

	col, found := p.OriginalSchema.ColumnByIndex(op.ColumnIndex)
	spec.Found = found
	if !found {
		if op.Func == COUNTWITHNULL {
			spec.CountsEveryRow = true
			spec.OutputType = scalar.LONG
		} else {
			// §8 "missing-column aggregate": every other aggregate on a
			// bad index returns NULL for every group, including COUNT —
			// not the 0 the ordinary NULL-input accumulator rule would
			// give it, since every input here is NULL.
			spec.ForcedNull = true
		}
		return spec, nil
	}

	spec.InputType = col.Type
	switch op.Func {
	case COUNT, COUNTWITHNULL:
		spec.OutputType = scalar.LONG
		spec.CountsEveryRow = op.Func == COUNTWITHNULL
	case SUM, SUM0:
		if !col.Type.IsNumeric() {
			return AggSpec{}, copstatus.Newf(opOpen, copstatus.TypeMismatch,
				"%s on column %d requires a numeric type, got %s", op.Func, op.ColumnIndex, col.Type)
		}
		if col.Type == scalar.INTEGER || col.Type == scalar.LONG {
			spec.OutputType = scalar.LONG
		} else {
			spec.OutputType = scalar.DOUBLE
		}
	case MAX, MIN:
		spec.OutputType = col.Type
	default:
		return AggSpec{}, copstatus.Newf(opOpen, copstatus.BadSchema, "unknown aggregate operator %q", op.Func)
	}
	return spec, nil
}

func aggregateKeyOnlySafe(schema rowcodec.Schema, groupIndices []int32, specs []AggSpec) bool {
	for _, idx := range groupIndices {
		col, ok := schema.ColumnByIndex(idx)
		if !ok || !col.IsKey {
			return false
		}
	}
	for _, spec := range specs {
		if spec.WholeRow || spec.ForcedNull || !spec.Found {
			continue
		}
		col, ok := schema.ColumnByIndex(spec.ColumnIndex)
		if !ok || !col.IsKey {
			return false
		}
	}
	return true
}
