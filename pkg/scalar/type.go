// Package scalar implements the six logical column types the coprocessor
// understands, and their two byte representations: a compact value form
// and an order-preserving key form.
package scalar

// Type identifies one of the six scalar column types a schema column can
// declare. There are no others — the coprocessor does not support nested,
// repeated, or user-defined types.
type Type uint8

const (
	BOOL Type = iota
	INTEGER
	LONG
	FLOAT
	DOUBLE
	STRING
)

// String returns the canonical name of the type, matching the wire shape
// of ColDesc.Type in the program.
func (t Type) String() string {
	switch t {
	case BOOL:
		return "BOOL"
	case INTEGER:
		return "INTEGER"
	case LONG:
		return "LONG"
	case FLOAT:
		return "FLOAT"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric reports whether the type participates in numeric aggregates
// (SUM/SUM0) directly.
func (t Type) IsNumeric() bool {
	switch t {
	case INTEGER, LONG, FLOAT, DOUBLE:
		return true
	default:
		return false
	}
}

// IsOrdered reports whether values of this type have a total order usable
// by MIN/MAX. All six types do; STRING is ordered byte-lexicographically.
func (t Type) IsOrdered() bool {
	return true
}
