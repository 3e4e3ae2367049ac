package scalar

import (
	"math"

	"github.com/spaolacci/murmur3"
)

// HashValue returns a deterministic hash of v over (type tag, value bytes
// in value form), as required by the aggregator's group-key hashing
// (spec §4.5). NULL values hash to a sentinel distinct per type rather
// than sharing one bucket across all NULL columns, so a GROUP BY over
// e.g. (NULL_bool, 3) and (NULL_int, 3) does not collide by accident.
// STRING hashes its raw bytes rather than its flagged, length-prefixed
// value form.
//
// Grounded on the teacher's bloom filter, which hashes arbitrary byte
// strings with murmur3's 128-bit variant (internal/bloom.hash128); we use
// the simpler 64-bit sum since we only need one hash per value, not a
// bank of independent hash functions for a filter.
func HashValue(v Value) uint64 {
	var buf [16]byte
	buf[0] = byte(v.Typ)
	if v.Null {
		buf[1] = 0xFF // never a prefix produced by a present value below
		return murmur3.Sum64(buf[:2])
	}
	buf[1] = 0x01
	n := 2
	switch v.Typ {
	case BOOL:
		if v.Bool() {
			buf[n] = 1
		}
		n++
	case INTEGER:
		u := uint32(v.Int32())
		buf[n], buf[n+1], buf[n+2], buf[n+3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
		n += 4
	case LONG:
		u := uint64(v.Int64())
		for i := 0; i < 8; i++ {
			buf[n+i] = byte(u >> (8 * i))
		}
		n += 8
	case FLOAT:
		bits := math.Float32bits(v.Float32())
		buf[n], buf[n+1], buf[n+2], buf[n+3] = byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24)
		n += 4
	case DOUBLE:
		bits := math.Float64bits(v.Float64())
		for i := 0; i < 8; i++ {
			buf[n+i] = byte(bits >> (8 * i))
		}
		n += 8
	case STRING:
		h := murmur3.New64()
		h.Write(buf[:2])
		h.Write([]byte(v.RawString()))
		return h.Sum64()
	}
	return murmur3.Sum64(buf[:n])
}

// HashTuple combines the hashes of a group-key tuple into one hash,
// order-sensitive so that (a, b) and (b, a) never collide by symmetry.
func HashTuple(vs []Value) uint64 {
	h := murmur3.New64()
	var buf [8]byte
	for _, v := range vs {
		hv := HashValue(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(hv >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}
