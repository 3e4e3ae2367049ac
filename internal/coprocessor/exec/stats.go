package exec

import "time"

// ExecutionStats accumulates per-instance metrics across every Execute
// call between Open and Close. Grounded on the teacher's ExecutionStats
// (internal/query/executor.ExecutionStats), narrowed to the counters an
// in-process pushdown coprocessor can actually observe about itself —
// no partition/download metrics, since those describe collaborators this
// component never touches.
type ExecutionStats struct {
	CallCount     int64
	RowsScanned   int64
	GroupsFlushed int64
	Elapsed       time.Duration
}
