// Package exec drives the coprocessor's state machine and its budget
// constrained scan-decode-project-(aggregate)-encode loop.
package exec

import "github.com/dingodb/coprocessor/pkg/rowcodec"

// Iterator is the ordered KV engine's scan cursor (§6's "Collaborator:
// Ordered KV engine"). The coprocessor never closes it — the caller Seeks
// it before the first Execute call and owns its lifetime end to end.
type Iterator interface {
	Seek(key []byte)
	Valid() bool
	Key() []byte
	Value() []byte
	Next()
	// Err reports a non-nil error when the cursor terminated abnormally —
	// most notably when the caller closed it out from under an in-flight
	// scan to enforce a timeout. Execute surfaces this as Cancelled.
	Err() error
}

// TableWriter is the ordered KV engine's write path (§6's "Collaborator:
// Table writer"). The coprocessor itself never calls this; it exists so
// tests and callers can set up scan fixtures against the same collaborator
// contract Execute is specified against.
type TableWriter interface {
	KvPut(cf string, kv rowcodec.KV) error
	KvDeleteRange(cf string, start, end []byte) error
}
