package scalar

import (
	"fmt"

	"github.com/golang/snappy"
)

// String value-form compression flags. Grounded on the teacher's payload
// compression in internal/query/executor.processRowValues, which snappy
// compresses large column values before they're written and decompresses
// them on read.
const (
	stringFlagRaw        byte = 0
	stringFlagCompressed byte = 1
)

// compressStringPayload snappy-compresses payload when it is large enough
// that compression is likely to pay for its own framing, returning the
// flag byte to store alongside it and the bytes to actually write.
func compressStringPayload(payload []byte) (flag byte, stored []byte) {
	if len(payload) < stringCompressionThreshold {
		return stringFlagRaw, payload
	}
	compressed := snappy.Encode(nil, payload)
	if len(compressed) >= len(payload) {
		return stringFlagRaw, payload
	}
	return stringFlagCompressed, compressed
}

// decompressStringPayload reverses compressStringPayload.
func decompressStringPayload(flag byte, stored []byte) ([]byte, error) {
	switch flag {
	case stringFlagRaw:
		return stored, nil
	case stringFlagCompressed:
		payload, err := snappy.Decode(nil, stored)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unknown string value flag 0x%02x", flag)
	}
}
