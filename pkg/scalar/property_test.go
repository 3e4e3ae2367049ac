package scalar

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genValue builds a gopter generator producing a random Value of the given
// type, occasionally NULL, matching the style of the teacher's
// pkg/types/ulid_property_test.go (gopter.DefaultTestParameters +
// prop.ForAll over a handful of typed generators). NULL is mixed in via
// gen.OneGenOf so roughly one in ten generated values is NULL, without
// hand-rolling a GenResult.
func genValue(typ Type) gopter.Gen {
	var present gopter.Gen
	switch typ {
	case BOOL:
		present = gen.Bool().Map(func(b bool) Value { return BoolValue(b) })
	case INTEGER:
		present = gen.Int32().Map(func(v int32) Value { return IntValue(v) })
	case LONG:
		present = gen.Int64().Map(func(v int64) Value { return LongValue(v) })
	case FLOAT:
		present = gen.Float32().Map(func(v float32) Value { return FloatValue(v) })
	case DOUBLE:
		present = gen.Float64().Map(func(v float64) Value { return DoubleValue(v) })
	case STRING:
		present = gen.AnyString().Map(func(v string) Value { return StringValue(v) })
	default:
		panic("unreachable")
	}
	null := gen.Const(NullValue(typ))
	return gen.OneGenOf(null, present, present, present, present, present, present, present, present, present)
}

var allTypes = []Type{BOOL, INTEGER, LONG, FLOAT, DOUBLE, STRING}

// TestProperty_KeyOrderPreservation validates spec §8's "Key order
// preservation" invariant: for 10,000 random pairs across all six types
// (with NULLs), the byte-lexicographic order of the key-form encoding
// matches the logical order of the values (NaN treated as greatest,
// per §9).
func TestProperty_KeyOrderPreservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10000
	properties := gopter.NewProperties(parameters)

	for _, typ := range allTypes {
		typ := typ
		properties.Property("key form preserves order for "+typ.String(), prop.ForAll(
			func(a, b Value) bool {
				ka, kb := EncodeKey(nil, a), EncodeKey(nil, b)
				byteCmp := compareBytes(ka, kb)
				logicalCmp := Compare(a, b)
				if byteCmp == 0 {
					return logicalCmp == 0 && a.Equal(b)
				}
				if byteCmp < 0 {
					return logicalCmp < 0
				}
				return logicalCmp > 0
			},
			genValue(typ),
			genValue(typ),
		))
	}

	properties.TestingRun(t)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// TestProperty_KeyRoundTrip validates that every generated value survives
// an encode/decode cycle unchanged, with NaN normalized to the canonical
// NaN bit pattern (spec §9 makes all NaNs compare and sort identically).
func TestProperty_KeyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 2000
	properties := gopter.NewProperties(parameters)

	for _, typ := range allTypes {
		typ := typ
		properties.Property("key round trip for "+typ.String(), prop.ForAll(
			func(v Value) bool {
				b := EncodeKey(nil, v)
				got, rest, err := DecodeKey(typ, b)
				if err != nil || len(rest) != 0 {
					return false
				}
				if v.Null {
					return got.Null
				}
				if typ == FLOAT && math.IsNaN(float64(v.Float32())) {
					return !got.Null && math.IsNaN(float64(got.Float32()))
				}
				if typ == DOUBLE && math.IsNaN(v.Float64()) {
					return !got.Null && math.IsNaN(got.Float64())
				}
				return got.Equal(v)
			},
			genValue(typ),
		))
	}

	properties.TestingRun(t)
}
