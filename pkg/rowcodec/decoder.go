package rowcodec

import (
	"github.com/dingodb/coprocessor/internal/copstatus"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// RecordDecoder mirrors RecordEncoder, consuming a KV's bytes slot by slot
// back into a Row addressed by logical column Index.
type RecordDecoder struct {
	schema Schema
	plan   slotPlan
}

// NewRecordDecoder builds a RecordDecoder for s.
func NewRecordDecoder(s Schema) *RecordDecoder {
	return &RecordDecoder{schema: s, plan: buildSlotPlan(s)}
}

// Decode reconstructs the full row — key and value columns — from key and
// value bytes produced by the matching RecordEncoder.
func (d *RecordDecoder) Decode(key, value []byte) (Row, error) {
	row := make(Row, len(d.schema.Columns))

	rest, err := d.decodeKeyInto(key, row)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, copstatus.New("RecordDecoder.Decode", copstatus.Corrupt, "trailing bytes after key columns")
	}

	if err := d.decodeValueInto(value, row); err != nil {
		return nil, err
	}
	return row, nil
}

// DecodeKeyOnly reconstructs only the key columns of the row, leaving
// every value column zero-valued (its BOOL-typed zero Value). This backs
// Execute's key_only mode (spec §4.4), which never touches the value half.
func (d *RecordDecoder) DecodeKeyOnly(key []byte) (Row, error) {
	row := make(Row, len(d.schema.Columns))
	rest, err := d.decodeKeyInto(key, row)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, copstatus.New("RecordDecoder.DecodeKeyOnly", copstatus.Corrupt, "trailing bytes after key columns")
	}
	return row, nil
}

func (d *RecordDecoder) decodeKeyInto(key []byte, row Row) ([]byte, error) {
	if len(key) < tablePrefixLen {
		return nil, copstatus.New("RecordDecoder.Decode", copstatus.Corrupt, "key shorter than table prefix")
	}
	if key[0] != tablePrefixMagic {
		return nil, copstatus.Newf("RecordDecoder.Decode", copstatus.Corrupt, "unexpected table prefix magic 0x%02x", key[0])
	}
	commonID := int64(getBE64(key[1:9]))
	if commonID != d.schema.CommonID {
		return nil, copstatus.Newf("RecordDecoder.Decode", copstatus.Corrupt,
			"key common_id %d does not match schema common_id %d", commonID, d.schema.CommonID)
	}
	rest := key[tablePrefixLen:]

	for _, pos := range d.plan.keySlots {
		col := d.schema.Columns[pos]
		v, tail, err := scalar.DecodeKey(col.Type, rest)
		if err != nil {
			return nil, copstatus.Wrap("RecordDecoder.Decode", copstatus.Corrupt, "decoding key column", err)
		}
		row[col.Index] = v
		rest = tail
	}
	return rest, nil
}

func (d *RecordDecoder) decodeValueInto(value []byte, row Row) error {
	if len(value) < 4 {
		return copstatus.New("RecordDecoder.Decode", copstatus.Corrupt, "value shorter than version header")
	}
	version := getBE32(value[:4])
	if version != d.schema.SchemaVersion {
		return copstatus.Newf("RecordDecoder.Decode", copstatus.VersionSkew,
			"value schema_version %d does not match schema_version %d", version, d.schema.SchemaVersion)
	}
	rest := value[4:]

	nullBitmapLen := (len(d.plan.valueSlots) + 7) / 8
	if len(rest) < nullBitmapLen {
		return copstatus.New("RecordDecoder.Decode", copstatus.Corrupt, "value shorter than NULL bitmap")
	}
	bitmap := rest[:nullBitmapLen]
	rest = rest[nullBitmapLen:]

	for slotIdx, pos := range d.plan.valueSlots {
		col := d.schema.Columns[pos]
		if bitmap[slotIdx/8]&(1<<uint(slotIdx%8)) != 0 {
			row[col.Index] = scalar.NullValue(col.Type)
			continue
		}
		v, tail, err := scalar.DecodeValue(col.Type, rest)
		if err != nil {
			return copstatus.Wrap("RecordDecoder.Decode", copstatus.Corrupt, "decoding value column", err)
		}
		row[col.Index] = v
		rest = tail
	}
	if len(rest) != 0 {
		return copstatus.New("RecordDecoder.Decode", copstatus.Corrupt, "trailing bytes after value columns")
	}
	return nil
}

func getBE64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

func getBE32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
