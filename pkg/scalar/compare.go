package scalar

import "math"

// Compare returns -1, 0, or 1 as a compares less than, equal to, or
// greater than b. a and b must be the same Type. This defines the same
// total order as the key-form byte encoding: NULL sorts before every
// non-NULL value, and NaN (FLOAT/DOUBLE) sorts after every non-NaN value,
// matching spec §9's "NaN is greater than all non-NaN" decision.
//
// MIN/MAX aggregate kernels do not call Compare directly on NaN inputs —
// they skip NaN before ever comparing, per the SQL convention spec §4.5
// calls out — but Compare itself still needs a defined answer for the key
// order preservation property test, which exercises the full domain.
func Compare(a, b Value) int {
	if a.Null && b.Null {
		return 0
	}
	if a.Null {
		return -1
	}
	if b.Null {
		return 1
	}
	switch a.Typ {
	case BOOL:
		return compareBool(a.Bool(), b.Bool())
	case INTEGER:
		return compareOrdered(a.Int32(), b.Int32())
	case LONG:
		return compareOrdered(a.Int64(), b.Int64())
	case FLOAT:
		return compareFloat(float64(a.Float32()), float64(b.Float32()))
	case DOUBLE:
		return compareFloat(a.Float64(), b.Float64())
	case STRING:
		return compareOrdered(a.RawString(), b.RawString())
	}
	return 0
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

type ordered interface {
	~int32 | ~int64 | ~string
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFloat treats NaN as greatest, matching the key-form encoding
// (the key form canonicalizes NaN to a pattern that sorts above +Inf).
func compareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
