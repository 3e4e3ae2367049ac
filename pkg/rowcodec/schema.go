// Package rowcodec composes the scalar codecs over a schema, splitting a
// row's bytes between a key half (the columns the storage engine sorts by)
// and a value half (everything else).
package rowcodec

import "github.com/dingodb/coprocessor/pkg/scalar"

// ColumnDescriptor describes one column of a Schema. Index is the column's
// logical position as the query layer names it, which is not necessarily
// its position in Columns — reorderings are legal and must be honored when
// a caller presents row data out of schema order.
type ColumnDescriptor struct {
	Type       scalar.Type
	IsKey      bool
	IsNullable bool
	Index      int32
}

// Schema is an ordered list of column descriptors plus the table/region
// identifier and version stamped into every encoded row.
type Schema struct {
	CommonID      int64
	SchemaVersion uint32
	Columns       []ColumnDescriptor
}

// KeyColumnCount returns the number of columns with IsKey set.
func (s Schema) KeyColumnCount() int {
	n := 0
	for _, c := range s.Columns {
		if c.IsKey {
			n++
		}
	}
	return n
}

// ValueColumnCount returns the number of columns with IsKey unset.
func (s Schema) ValueColumnCount() int {
	return len(s.Columns) - s.KeyColumnCount()
}

// ColumnByIndex looks up the column descriptor whose logical Index equals
// idx, independent of its position in Columns. Callers use this to resolve
// a program's column_index references against original_schema.
func (s Schema) ColumnByIndex(idx int32) (ColumnDescriptor, bool) {
	for _, c := range s.Columns {
		if c.Index == idx {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}
