package exec

import (
	"testing"

	"github.com/dingodb/coprocessor/internal/coprocessor/program"
	"github.com/dingodb/coprocessor/pkg/rowcodec"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

func col(typ scalar.Type, isKey, nullable bool, idx int32) rowcodec.ColumnDescriptor {
	return rowcodec.ColumnDescriptor{Type: typ, IsKey: isKey, IsNullable: nullable, Index: idx}
}

func encodeRows(t *testing.T, schema rowcodec.Schema, rows []rowcodec.Row) []rowcodec.KV {
	t.Helper()
	enc := rowcodec.NewRecordEncoder(schema)
	kvs := make([]rowcodec.KV, len(rows))
	for i, row := range rows {
		kv, err := enc.Encode(row)
		if err != nil {
			t.Fatalf("Encode row %d: %v", i, err)
		}
		kvs[i] = kv
	}
	return kvs
}

// TestScalarSumScenario grounds §8 scenario 1.
func TestScalarSumScenario(t *testing.T) {
	original := rowcodec.Schema{CommonID: 1, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.INTEGER, true, false, 0)}}
	result := rowcodec.Schema{CommonID: 1, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.LONG, false, false, 0)}}

	rows := []rowcodec.Row{
		{scalar.IntValue(1)}, {scalar.IntValue(2)}, {scalar.IntValue(3)}, {scalar.IntValue(4)}, {scalar.IntValue(5)},
	}
	kvs := encodeRows(t, original, rows)
	iter := NewMemIterator(kvs)
	iter.Seek(nil)

	cp := New()
	if err := cp.Open(program.Program{
		SchemaVersion:        1,
		OriginalSchema:       original,
		ResultSchema:         result,
		AggregationOperators: []program.AggOp{{Func: program.SUM, ColumnIndex: 0}},
	}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	out, hasMore, err := cp.Execute(iter, false, 1000, 1<<30)
	if err != nil {
		t.Fatalf("Execute (scan): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output rows during the scan call, got %d", len(out))
	}
	if !hasMore {
		t.Fatal("expected has_more after scan since aggregate residue remains")
	}

	out, hasMore, err = cp.Execute(iter, false, 1000, 1<<30)
	if err != nil {
		t.Fatalf("Execute (drain): %v", err)
	}
	if hasMore {
		t.Fatal("expected has_more=false after draining the single group")
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly 1 output row, got %d", len(out))
	}

	dec := rowcodec.NewRecordDecoder(result)
	got, err := dec.Decode(out[0].Key, out[0].Value)
	if err != nil {
		t.Fatalf("Decode result: %v", err)
	}
	if got[0].Int64() != 15 {
		t.Fatalf("SUM = %v, want 15", got[0])
	}
}

// TestGroupCountScenario grounds §8 scenario 2.
func TestGroupCountScenario(t *testing.T) {
	original := rowcodec.Schema{
		CommonID: 2, SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			col(scalar.BOOL, true, false, 0),
			col(scalar.INTEGER, false, true, 1),
		},
	}
	result := rowcodec.Schema{
		CommonID: 2, SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			col(scalar.BOOL, false, false, 0),
			col(scalar.LONG, false, false, 1),
			col(scalar.LONG, false, false, 2),
		},
	}
	rows := []rowcodec.Row{
		{scalar.BoolValue(true), scalar.IntValue(1)},
		{scalar.BoolValue(false), scalar.IntValue(2)},
		{scalar.BoolValue(true), scalar.IntValue(3)},
		{scalar.BoolValue(false), scalar.IntValue(4)},
		{scalar.BoolValue(true), scalar.NullValue(scalar.INTEGER)},
	}
	kvs := encodeRows(t, original, rows)
	iter := NewMemIterator(kvs)
	iter.Seek(nil)

	cp := New()
	if err := cp.Open(program.Program{
		SchemaVersion:  1,
		OriginalSchema: original,
		ResultSchema:   result,
		GroupByColumns: []int32{0},
		AggregationOperators: []program.AggOp{
			{Func: program.COUNT, ColumnIndex: 1},
			{Func: program.COUNTWITHNULL, ColumnIndex: 1},
		},
	}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, _, err := cp.Execute(iter, false, 1000, 1<<30); err != nil {
		t.Fatalf("Execute (scan): %v", err)
	}
	out, hasMore, err := cp.Execute(iter, false, 1000, 1<<30)
	if err != nil {
		t.Fatalf("Execute (drain): %v", err)
	}
	if hasMore || len(out) != 2 {
		t.Fatalf("expected 2 rows and has_more=false, got %d rows hasMore=%v", len(out), hasMore)
	}

	dec := rowcodec.NewRecordDecoder(result)
	seen := map[bool][2]int64{}
	for _, kv := range out {
		row, err := dec.Decode(kv.Key, kv.Value)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		seen[row[0].Bool()] = [2]int64{row[1].Int64(), row[2].Int64()}
	}
	if seen[true] != [2]int64{2, 3} {
		t.Errorf("group true = %v, want (2,3)", seen[true])
	}
	if seen[false] != [2]int64{2, 2} {
		t.Errorf("group false = %v, want (2,2)", seen[false])
	}
}

// TestPassthroughReorderScenario grounds §8 scenario 3.
func TestPassthroughReorderScenario(t *testing.T) {
	original := rowcodec.Schema{
		CommonID: 3, SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			col(scalar.BOOL, true, false, 0),
			col(scalar.INTEGER, true, false, 1),
			col(scalar.FLOAT, false, true, 2),
			col(scalar.LONG, false, true, 3),
			col(scalar.DOUBLE, false, true, 4),
			col(scalar.STRING, false, true, 5),
		},
	}
	result := rowcodec.Schema{
		CommonID: 3, SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			col(scalar.STRING, false, true, 0),
			col(scalar.BOOL, false, false, 1),
			col(scalar.LONG, false, true, 2),
		},
	}
	rows := []rowcodec.Row{
		{scalar.BoolValue(true), scalar.IntValue(1), scalar.FloatValue(1.0), scalar.LongValue(100), scalar.DoubleValue(1.1), scalar.StringValue("a")},
		{scalar.BoolValue(false), scalar.IntValue(2), scalar.FloatValue(2.0), scalar.LongValue(200), scalar.DoubleValue(2.2), scalar.StringValue("b")},
	}
	kvs := encodeRows(t, original, rows)
	iter := NewMemIterator(kvs)
	iter.Seek(nil)

	cp := New()
	if err := cp.Open(program.Program{
		SchemaVersion:    1,
		OriginalSchema:   original,
		ResultSchema:     result,
		SelectionColumns: []int32{5, 0, 3},
	}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	out, hasMore, err := cp.Execute(iter, false, 1000, 1<<30)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if hasMore || len(out) != len(rows) {
		t.Fatalf("expected %d rows and has_more=false, got %d rows hasMore=%v", len(rows), len(out), hasMore)
	}

	// Output follows the cursor's key order: the BOOL key encodes false
	// (0x01) below true (0x02), so rows[1] is scanned before rows[0].
	wantOrder := []int{1, 0}
	dec := rowcodec.NewRecordDecoder(result)
	for i, kv := range out {
		got, err := dec.Decode(kv.Key, kv.Value)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		want := rows[wantOrder[i]]
		if got[0].RawString() != want[5].RawString() || got[1].Bool() != want[0].Bool() || got[2].Int64() != want[3].Int64() {
			t.Errorf("row %d: got %v", i, got)
		}
	}
}

// TestMinMaxWithNullsScenario grounds §8 scenario 4.
func TestMinMaxWithNullsScenario(t *testing.T) {
	original := rowcodec.Schema{CommonID: 4, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.DOUBLE, true, true, 0)}}
	result := rowcodec.Schema{CommonID: 4, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.DOUBLE, false, true, 0), col(scalar.DOUBLE, false, true, 1)}}

	values := []scalar.Value{
		scalar.NullValue(scalar.DOUBLE), scalar.DoubleValue(1.5), scalar.NullValue(scalar.DOUBLE),
		scalar.DoubleValue(-2.0), scalar.DoubleValue(3.0),
	}
	var rows []rowcodec.Row
	for _, v := range values {
		rows = append(rows, rowcodec.Row{v})
	}
	kvs := encodeRows(t, original, rows)
	iter := NewMemIterator(kvs)
	iter.Seek(nil)

	cp := New()
	if err := cp.Open(program.Program{
		SchemaVersion:  1,
		OriginalSchema: original,
		ResultSchema:   result,
		AggregationOperators: []program.AggOp{
			{Func: program.MIN, ColumnIndex: 0},
			{Func: program.MAX, ColumnIndex: 0},
		},
	}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	cp.Execute(iter, false, 1000, 1<<30)
	out, _, err := cp.Execute(iter, false, 1000, 1<<30)
	if err != nil {
		t.Fatalf("Execute (drain): %v", err)
	}
	dec := rowcodec.NewRecordDecoder(result)
	got, err := dec.Decode(out[0].Key, out[0].Value)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got[0].Float64() != -2.0 || got[1].Float64() != 3.0 {
		t.Fatalf("got MIN=%v MAX=%v, want MIN=-2.0 MAX=3.0", got[0], got[1])
	}
}

// TestByteBudgetChunkingScenario grounds §8 scenario 5: 1000 rows,
// max_fetch_cnt=2, iterating Execute until has_more=false yields exactly
// 500 calls each returning 2 rows plus one terminal call returning 0.
func TestByteBudgetChunkingScenario(t *testing.T) {
	original := rowcodec.Schema{CommonID: 5, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.INTEGER, true, false, 0)}}
	result := original

	var rows []rowcodec.Row
	for i := 0; i < 1000; i++ {
		rows = append(rows, rowcodec.Row{scalar.IntValue(int32(i))})
	}
	kvs := encodeRows(t, original, rows)
	iter := NewMemIterator(kvs)
	iter.Seek(nil)

	cp := New()
	if err := cp.Open(program.Program{SchemaVersion: 1, OriginalSchema: original, ResultSchema: result}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	calls := 0
	terminalCalls := 0
	for {
		out, hasMore, err := cp.Execute(iter, false, 2, 1<<30)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		calls++
		if len(out) == 0 {
			terminalCalls++
		} else if len(out) != 2 {
			t.Fatalf("call %d returned %d rows, want 0 or 2", calls, len(out))
		}
		if !hasMore {
			break
		}
	}
	if calls != 501 {
		t.Fatalf("expected 501 calls (500 x 2 rows + 1 terminal), got %d", calls)
	}
	if terminalCalls != 1 {
		t.Fatalf("expected exactly 1 terminal call, got %d", terminalCalls)
	}
}

// TestDisorderedSchemaKeyOrderScenario grounds §8 scenario 6.
func TestDisorderedSchemaKeyOrderScenario(t *testing.T) {
	schema := rowcodec.Schema{
		CommonID: 6, SchemaVersion: 1,
		Columns: []rowcodec.ColumnDescriptor{
			col(scalar.STRING, true, true, 5),
			col(scalar.DOUBLE, true, true, 4),
			col(scalar.LONG, false, true, 3),
			col(scalar.FLOAT, false, true, 2),
			col(scalar.INTEGER, false, false, 1),
			col(scalar.BOOL, false, true, 0),
		},
	}
	row := rowcodec.Row{
		scalar.BoolValue(true), scalar.IntValue(1), scalar.FloatValue(1.5),
		scalar.LongValue(-1), scalar.DoubleValue(9.0), scalar.StringValue("hi"),
	}
	enc := rowcodec.NewRecordEncoder(schema)
	kv, err := enc.Encode(row)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec := rowcodec.NewRecordDecoder(schema)
	got, err := dec.Decode(kv.Key, kv.Value)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range row {
		if !got[i].Equal(row[i]) {
			t.Errorf("logical column %d: got %v, want %v", i, got[i], row[i])
		}
	}
}

func TestOpenAfterCloseRestarts(t *testing.T) {
	original := rowcodec.Schema{CommonID: 1, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.INTEGER, true, false, 0)}}
	p := program.Program{SchemaVersion: 1, OriginalSchema: original, ResultSchema: original}

	cp := New()
	if err := cp.Open(p); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	cp.Close()
	if cp.State() != Unconfigured {
		t.Fatalf("expected Unconfigured after Close, got %s", cp.State())
	}
	if err := cp.Open(p); err != nil {
		t.Fatalf("second Open after Close: %v", err)
	}
}

func TestCancelledCursorFaults(t *testing.T) {
	original := rowcodec.Schema{CommonID: 1, SchemaVersion: 1, Columns: []rowcodec.ColumnDescriptor{col(scalar.INTEGER, true, false, 0)}}
	rows := []rowcodec.Row{{scalar.IntValue(1)}, {scalar.IntValue(2)}}
	kvs := encodeRows(t, original, rows)
	iter := NewMemIterator(kvs)
	iter.Seek(nil)
	iter.Close(errCancelledForTest)

	cp := New()
	if err := cp.Open(program.Program{SchemaVersion: 1, OriginalSchema: original, ResultSchema: original}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, err := cp.Execute(iter, false, 1000, 1<<30); err == nil {
		t.Fatal("expected Cancelled error from a closed cursor")
	}
	if cp.State() != Faulted {
		t.Fatalf("expected Faulted state after a cursor error, got %s", cp.State())
	}
}

var errCancelledForTest = &testError{"cursor closed by caller"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
