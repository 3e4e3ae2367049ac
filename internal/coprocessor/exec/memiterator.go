package exec

import (
	"sort"

	"github.com/dingodb/coprocessor/pkg/rowcodec"
)

// memRow is one entry of a MemIterator's fixed dataset.
type memRow struct {
	key   []byte
	value []byte
}

// MemIterator is an in-memory Iterator over a byte-sorted slice of KV
// pairs, built fresh per test scenario rather than shared mutable fixture
// state (spec §9 flags "mutable process-wide test state" as an
// anti-pattern to avoid reintroducing). Every scenario constructs its own
// MemIterator from its own rows, so no test can observe another test's
// leftover state.
type MemIterator struct {
	rows []memRow
	pos  int
	err  error
}

// NewMemIterator sorts kvs by key (as the real storage engine's
// byte-lexicographic ordering would) and returns a cursor over them,
// positioned before the first row.
func NewMemIterator(kvs []rowcodec.KV) *MemIterator {
	rows := make([]memRow, len(kvs))
	for i, kv := range kvs {
		rows[i] = memRow{key: kv.Key, value: kv.Value}
	}
	sort.Slice(rows, func(i, j int) bool { return lexLess(rows[i].key, rows[j].key) })
	return &MemIterator{rows: rows, pos: -1}
}

// Seek positions the cursor at the first row whose key is >= key.
func (m *MemIterator) Seek(key []byte) {
	m.pos = sort.Search(len(m.rows), func(i int) bool { return !lexLess(m.rows[i].key, key) })
}

func (m *MemIterator) Valid() bool {
	return m.err == nil && m.pos >= 0 && m.pos < len(m.rows)
}

func (m *MemIterator) Key() []byte {
	return m.rows[m.pos].key
}

func (m *MemIterator) Value() []byte {
	return m.rows[m.pos].value
}

func (m *MemIterator) Next() {
	m.pos++
}

func (m *MemIterator) Err() error {
	return m.err
}

// Close simulates the caller enforcing a cancellation: subsequent Valid()
// calls report false and Err() reports a non-nil cause, which Execute
// surfaces as Cancelled.
func (m *MemIterator) Close(cause error) {
	m.err = cause
}

func lexLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
