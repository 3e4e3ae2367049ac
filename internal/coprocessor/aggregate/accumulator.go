// Package aggregate implements the hash aggregation table and the six
// aggregate kernels: SUM, SUM0, COUNT, COUNTWITHNULL, MAX, MIN.
package aggregate

import (
	"math"

	"github.com/dingodb/coprocessor/internal/copstatus"
	"github.com/dingodb/coprocessor/internal/coprocessor/program"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// Accumulator holds the running state of one aggregate slot for one group,
// per the update rules of the accumulator table. Grounded on the teacher's
// PartialAggregate, generalized from its float64-only running sum to a
// widened int64/float64 pair (spec §4.5 requires integer accumulators stay
// exact and detect overflow, which a float64 running sum cannot do).
type Accumulator struct {
	spec program.AggSpec

	count int64

	sumInt      int64
	sumFloat    float64
	sumHasValue bool // SUM only: false until the first non-NULL input arrives

	extreme    scalar.Value
	hasExtreme bool
}

// NewAccumulator returns a zero-valued Accumulator for spec, ready to
// accumulate inputs in row order.
func NewAccumulator(spec program.AggSpec) *Accumulator {
	return &Accumulator{spec: spec}
}

// Accumulate folds one row's input value into the accumulator. v is the
// original column's value at this row (NULL if the row's column is NULL),
// or any NULL placeholder when the spec has no real input column
// (ForcedNull, or a missing/whole-row column that only COUNT-family
// operators can make sense of).
func (a *Accumulator) Accumulate(v scalar.Value) error {
	if a.spec.ForcedNull {
		return nil
	}
	switch a.spec.Func {
	case program.COUNT:
		if a.spec.CountsEveryRow || !v.Null {
			a.count++
		}
	case program.COUNTWITHNULL:
		a.count++
	case program.SUM, program.SUM0:
		return a.accumulateSum(v)
	case program.MAX, program.MIN:
		a.accumulateExtreme(v)
	}
	return nil
}

func (a *Accumulator) accumulateSum(v scalar.Value) error {
	if v.Null {
		return nil // SUM: NULL ignored. SUM0: v ?? 0 contributes nothing either.
	}
	switch a.spec.InputType {
	case scalar.INTEGER, scalar.LONG:
		delta := int64(v.Int32())
		if a.spec.InputType == scalar.LONG {
			delta = v.Int64()
		}
		next, ok := addInt64Checked(a.sumInt, delta)
		if !ok {
			return copstatus.Newf("Aggregator.Accumulate", copstatus.ArithmeticOverflow,
				"SUM overflowed 64-bit accumulator adding %d to %d", delta, a.sumInt)
		}
		a.sumInt = next
	default: // FLOAT, DOUBLE
		delta := float64(v.Float32())
		if a.spec.InputType == scalar.DOUBLE {
			delta = v.Float64()
		}
		a.sumFloat += delta
	}
	a.sumHasValue = true
	return nil
}

func (a *Accumulator) accumulateExtreme(v scalar.Value) {
	if v.Null || isNaNValue(v) {
		return // NaN is treated as if NULL for MAX/MIN, per §4.5.
	}
	if !a.hasExtreme {
		a.extreme = v
		a.hasExtreme = true
		return
	}
	cmp := scalar.Compare(v, a.extreme)
	if (a.spec.Func == program.MAX && cmp > 0) || (a.spec.Func == program.MIN && cmp < 0) {
		a.extreme = v
	}
}

// Result returns the accumulator's final value for its group, per the
// initial-value rules of §4.5: SUM starts NULL, SUM0/COUNT/COUNTWITHNULL
// start 0, MAX/MIN start NULL.
func (a *Accumulator) Result() scalar.Value {
	if a.spec.ForcedNull {
		return scalar.NullValue(a.spec.OutputType)
	}
	switch a.spec.Func {
	case program.COUNT, program.COUNTWITHNULL:
		return scalar.LongValue(a.count)
	case program.SUM:
		if !a.sumHasValue {
			return scalar.NullValue(a.spec.OutputType)
		}
		return a.sumResult()
	case program.SUM0:
		return a.sumResult()
	case program.MAX, program.MIN:
		if !a.hasExtreme {
			return scalar.NullValue(a.spec.OutputType)
		}
		return a.extreme
	default:
		return scalar.NullValue(a.spec.OutputType)
	}
}

func (a *Accumulator) sumResult() scalar.Value {
	if a.spec.OutputType == scalar.LONG {
		return scalar.LongValue(a.sumInt)
	}
	return scalar.DoubleValue(a.sumFloat)
}

func isNaNValue(v scalar.Value) bool {
	switch v.Typ {
	case scalar.FLOAT:
		return math.IsNaN(float64(v.Float32()))
	case scalar.DOUBLE:
		return math.IsNaN(v.Float64())
	default:
		return false
	}
}

func addInt64Checked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
