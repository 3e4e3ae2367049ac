package rowcodec

import (
	"github.com/dingodb/coprocessor/internal/copstatus"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// tablePrefixMagic is the fixed first byte of every key, ahead of the
// big-endian common_id, per the wire layout's table_prefix := 0x72 ||
// be64(common_id).
const tablePrefixMagic byte = 0x72

const tablePrefixLen = 9

// KV is one encoded row: the key bytes (table-prefix + key-form columns)
// and the value bytes (version + NULL bitmap + value-form columns).
type KV struct {
	Key   []byte
	Value []byte
}

// RecordEncoder composes the scalar codecs over one Schema, caching the
// key/value slot partitioning so repeated Encode calls don't recompute it
// per row.
type RecordEncoder struct {
	schema Schema
	plan   slotPlan
}

// NewRecordEncoder builds a RecordEncoder for s.
func NewRecordEncoder(s Schema) *RecordEncoder {
	return &RecordEncoder{schema: s, plan: buildSlotPlan(s)}
}

// Encode packs row — addressed by logical column Index, not schema-list
// position — into a KV. Column count mismatches and out-of-range indices
// surface as BadArity; values outside a column's declared nullability
// surface as TypeMismatch.
func (e *RecordEncoder) Encode(row Row) (KV, error) {
	if err := e.checkArity(row); err != nil {
		return KV{}, err
	}

	key := make([]byte, tablePrefixLen, tablePrefixLen+64)
	key[0] = tablePrefixMagic
	putBE64(key[1:9], uint64(e.schema.CommonID))
	for _, pos := range e.plan.keySlots {
		v, err := valueFor(e.schema, row, pos)
		if err != nil {
			return KV{}, err
		}
		if err := e.checkNullability(pos, v); err != nil {
			return KV{}, err
		}
		key = scalar.EncodeKey(key, v)
	}

	values := make([]scalar.Value, len(e.plan.valueSlots))
	for slotIdx, pos := range e.plan.valueSlots {
		v, err := valueFor(e.schema, row, pos)
		if err != nil {
			return KV{}, err
		}
		if err := e.checkNullability(pos, v); err != nil {
			return KV{}, err
		}
		values[slotIdx] = v
	}

	nullBitmapLen := (len(e.plan.valueSlots) + 7) / 8
	value := make([]byte, 4, 4+nullBitmapLen+64)
	putBE32(value[:4], e.schema.SchemaVersion)
	bitmap := make([]byte, nullBitmapLen)
	for slotIdx, v := range values {
		if v.Null {
			bitmap[slotIdx/8] |= 1 << uint(slotIdx%8)
		}
	}
	value = append(value, bitmap...)
	for _, v := range values {
		if v.Null {
			continue
		}
		value = scalar.EncodeValue(value, v)
	}

	return KV{Key: key, Value: value}, nil
}

func (e *RecordEncoder) checkArity(row Row) error {
	if len(row) != len(e.schema.Columns) {
		return copstatus.Newf("RecordEncoder.Encode", copstatus.BadArity,
			"row has %d fields but schema has %d columns", len(row), len(e.schema.Columns))
	}
	for _, col := range e.schema.Columns {
		if col.Index < 0 || int(col.Index) >= len(row) {
			return copstatus.Newf("RecordEncoder.Encode", copstatus.BadArity,
				"schema column index %d has no matching field in a row of length %d", col.Index, len(row))
		}
	}
	return nil
}

func (e *RecordEncoder) checkNullability(pos int, v scalar.Value) error {
	col := e.schema.Columns[pos]
	if v.Null && !col.IsNullable {
		return copstatus.Newf("RecordEncoder.Encode", copstatus.TypeMismatch,
			"column at slot %d is not nullable but row supplied NULL", pos)
	}
	if v.Typ != col.Type {
		return copstatus.Newf("RecordEncoder.Encode", copstatus.TypeMismatch,
			"column at slot %d declares type %s but row supplied %s", pos, col.Type, v.Typ)
	}
	return nil
}

func putBE64(dst []byte, v uint64) {
	dst[0] = byte(v >> 56)
	dst[1] = byte(v >> 48)
	dst[2] = byte(v >> 40)
	dst[3] = byte(v >> 32)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

func putBE32(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}
