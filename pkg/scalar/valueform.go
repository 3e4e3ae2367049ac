package scalar

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeValue appends the compact value-form encoding of a non-NULL value
// to dst. Callers are responsible for tracking NULL-ness separately (the
// record codec's NULL bitmap) — value form never encodes NULL itself, so
// v must not be NULL.
func EncodeValue(dst []byte, v Value) []byte {
	if v.Null {
		panic("scalar: EncodeValue called on NULL value")
	}
	switch v.Typ {
	case BOOL:
		if v.Bool() {
			return append(dst, 1)
		}
		return append(dst, 0)
	case INTEGER:
		u := uint32(v.Int32())
		return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	case LONG:
		u := uint64(v.Int64())
		return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24),
			byte(u>>32), byte(u>>40), byte(u>>48), byte(u>>56))
	case FLOAT:
		u := math.Float32bits(v.Float32())
		return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	case DOUBLE:
		u := math.Float64bits(v.Float64())
		return append(dst, byte(u), byte(u>>8), byte(u>>16), byte(u>>24),
			byte(u>>32), byte(u>>40), byte(u>>48), byte(u>>56))
	case STRING:
		return encodeStringValue(dst, v.RawString())
	default:
		panic(fmt.Sprintf("scalar: unknown type %d", v.Typ))
	}
}

// stringCompressionThreshold is the payload size at or above which the
// STRING value form is Snappy-compressed, when compression makes it
// shorter (one flag byte, 0 = raw, 1 = compressed,
// precedes the varint length of the stored — possibly compressed —
// payload). Short strings aren't worth the framing overhead.
const stringCompressionThreshold = 256

func encodeStringValue(dst []byte, s string) []byte {
	payload := []byte(s)
	flag, stored := compressStringPayload(payload)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(stored)))
	dst = append(dst, flag)
	dst = append(dst, lenBuf[:n]...)
	return append(dst, stored...)
}

// ValueByteLen returns the number of value-form bytes v would occupy
// (0 for NULL). For STRING it runs the same compression step EncodeValue
// does to size the stored payload.
func ValueByteLen(v Value) int {
	if v.Null {
		return 0
	}
	switch v.Typ {
	case BOOL:
		return 1
	case INTEGER, FLOAT:
		return 4
	case LONG, DOUBLE:
		return 8
	case STRING:
		payload := []byte(v.RawString())
		_, stored := compressStringPayload(payload)
		return 1 + uvarintLen(uint64(len(stored))) + len(stored)
	default:
		return 0
	}
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeValue consumes the value-form encoding of one non-NULL value of
// type t from the front of b and returns the decoded value along with the
// unconsumed remainder.
func DecodeValue(t Type, b []byte) (Value, []byte, error) {
	switch t {
	case BOOL:
		if len(b) < 1 {
			return Value{}, b, fmt.Errorf("scalar: short BOOL value")
		}
		return BoolValue(b[0] != 0), b[1:], nil
	case INTEGER:
		if len(b) < 4 {
			return Value{}, b, fmt.Errorf("scalar: short INTEGER value")
		}
		u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		return IntValue(int32(u)), b[4:], nil
	case LONG:
		if len(b) < 8 {
			return Value{}, b, fmt.Errorf("scalar: short LONG value")
		}
		var u uint64
		for i := 7; i >= 0; i-- {
			u = u<<8 | uint64(b[i])
		}
		return LongValue(int64(u)), b[8:], nil
	case FLOAT:
		if len(b) < 4 {
			return Value{}, b, fmt.Errorf("scalar: short FLOAT value")
		}
		u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		return FloatValue(math.Float32frombits(u)), b[4:], nil
	case DOUBLE:
		if len(b) < 8 {
			return Value{}, b, fmt.Errorf("scalar: short DOUBLE value")
		}
		var u uint64
		for i := 7; i >= 0; i-- {
			u = u<<8 | uint64(b[i])
		}
		return DoubleValue(math.Float64frombits(u)), b[8:], nil
	case STRING:
		return decodeStringValue(b)
	default:
		return Value{}, b, fmt.Errorf("scalar: unknown type %d", t)
	}
}

func decodeStringValue(b []byte) (Value, []byte, error) {
	if len(b) < 2 {
		return Value{}, b, fmt.Errorf("scalar: short STRING value header")
	}
	flag := b[0]
	n, sz := binary.Uvarint(b[1:])
	if sz <= 0 {
		return Value{}, b, fmt.Errorf("scalar: corrupt STRING value length")
	}
	start := 1 + sz
	end := start + int(n)
	if end > len(b) {
		return Value{}, b, fmt.Errorf("scalar: truncated STRING value payload")
	}
	stored := b[start:end]
	payload, err := decompressStringPayload(flag, stored)
	if err != nil {
		return Value{}, b, fmt.Errorf("scalar: %w", err)
	}
	return StringValue(string(payload)), b[end:], nil
}
