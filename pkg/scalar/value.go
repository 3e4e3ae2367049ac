package scalar

import "fmt"

// Value is a tagged union over the six scalar types, any of which may be
// NULL. It is the in-memory representation used by the record codec, the
// projection plan, and the aggregator — the same shape flows through all
// three rather than each defining its own.
type Value struct {
	Typ  Type
	Null bool

	b   bool
	i32 int32
	i64 int64
	f32 float32
	f64 float64
	str string
}

// NullValue returns a NULL value of the given type.
func NullValue(t Type) Value {
	return Value{Typ: t, Null: true}
}

// BoolValue returns a non-NULL BOOL value.
func BoolValue(v bool) Value { return Value{Typ: BOOL, b: v} }

// IntValue returns a non-NULL INTEGER (32-bit) value.
func IntValue(v int32) Value { return Value{Typ: INTEGER, i32: v} }

// LongValue returns a non-NULL LONG (64-bit) value.
func LongValue(v int64) Value { return Value{Typ: LONG, i64: v} }

// FloatValue returns a non-NULL FLOAT (32-bit) value.
func FloatValue(v float32) Value { return Value{Typ: FLOAT, f32: v} }

// DoubleValue returns a non-NULL DOUBLE (64-bit) value.
func DoubleValue(v float64) Value { return Value{Typ: DOUBLE, f64: v} }

// StringValue returns a non-NULL STRING value.
func StringValue(v string) Value { return Value{Typ: STRING, str: v} }

// Bool returns the underlying bool. Only meaningful when Typ == BOOL and
// !Null.
func (v Value) Bool() bool { return v.b }

// Int32 returns the underlying int32. Only meaningful when Typ == INTEGER
// and !Null.
func (v Value) Int32() int32 { return v.i32 }

// Int64 returns the underlying int64. Only meaningful when Typ == LONG and
// !Null.
func (v Value) Int64() int64 { return v.i64 }

// Float32 returns the underlying float32. Only meaningful when Typ == FLOAT
// and !Null.
func (v Value) Float32() float32 { return v.f32 }

// Float64 returns the underlying float64. Only meaningful when Typ == DOUBLE
// and !Null.
func (v Value) Float64() float64 { return v.f64 }

// String implements fmt.Stringer for debugging/logging: NULL formats as
// TYPE(NULL), any other value as its plain text. Use RawString for the
// STRING payload itself.
func (v Value) String() string {
	if v.Null {
		return fmt.Sprintf("%s(NULL)", v.Typ)
	}
	switch v.Typ {
	case BOOL:
		return fmt.Sprintf("%v", v.b)
	case INTEGER:
		return fmt.Sprintf("%d", v.i32)
	case LONG:
		return fmt.Sprintf("%d", v.i64)
	case FLOAT:
		return fmt.Sprintf("%v", v.f32)
	case DOUBLE:
		return fmt.Sprintf("%v", v.f64)
	case STRING:
		return v.str
	default:
		return "<invalid>"
	}
}

// RawString returns the underlying string payload without the NULL
// formatting that String() applies — used by codecs that need the raw
// bytes regardless of the NULL flag.
func (v Value) RawString() string { return v.str }

// Equal reports whether two values of the same type are equal, with NULL
// equal only to NULL.
func (v Value) Equal(o Value) bool {
	if v.Typ != o.Typ {
		return false
	}
	if v.Null || o.Null {
		return v.Null == o.Null
	}
	switch v.Typ {
	case BOOL:
		return v.b == o.b
	case INTEGER:
		return v.i32 == o.i32
	case LONG:
		return v.i64 == o.i64
	case FLOAT:
		return v.f32 == o.f32
	case DOUBLE:
		return v.f64 == o.f64
	case STRING:
		return v.str == o.str
	}
	return false
}
