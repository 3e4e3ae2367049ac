package exec

import (
	"time"

	"github.com/dingodb/coprocessor/internal/copstatus"
	"github.com/dingodb/coprocessor/internal/coprocessor/aggregate"
	"github.com/dingodb/coprocessor/internal/coprocessor/program"
	"github.com/dingodb/coprocessor/pkg/rowcodec"
	"github.com/dingodb/coprocessor/pkg/scalar"
)

// State is one node of the lifecycle §4.6 defines: Unconfigured -> Open ->
// Ready -> Execute* -> Draining -> Execute* -> Exhausted -> Close ->
// Unconfigured, with any error moving to Faulted.
type State int

const (
	Unconfigured State = iota
	Ready
	Draining
	Exhausted
	Faulted
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "Unconfigured"
	case Ready:
		return "Ready"
	case Draining:
		return "Draining"
	case Exhausted:
		return "Exhausted"
	case Faulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// Coprocessor drives one program's lifecycle end to end: Open validates
// and compiles it into an ExecutionPlan, Execute streams rows from a
// caller-owned cursor through that plan under row/byte budgets, and Close
// releases the aggregate table. A Coprocessor is single-consumer between
// Open and Close, matching §5's no-internal-locks contract.
type Coprocessor struct {
	state State
	plan  program.ExecutionPlan

	decoder *rowcodec.RecordDecoder
	encoder *rowcodec.RecordEncoder
	table   *aggregate.Table

	stats ExecutionStats
}

// New returns a Coprocessor in the Unconfigured state.
func New() *Coprocessor {
	return &Coprocessor{state: Unconfigured}
}

// State reports the instance's current lifecycle state.
func (c *Coprocessor) State() State {
	return c.state
}

// Stats returns a snapshot of the instance's cumulative execution metrics.
func (c *Coprocessor) Stats() ExecutionStats {
	return c.stats
}

// Open validates p and, on success, transitions Unconfigured -> Ready.
// Open-time errors leave the instance Unconfigured (§7's propagation
// rule) rather than Faulted, since nothing has been configured yet for a
// caller to need to unwind.
func (c *Coprocessor) Open(p program.Program) error {
	if c.state != Unconfigured {
		return copstatus.Newf("Open", copstatus.BadRequest, "Open called from state %s, expected Unconfigured", c.state)
	}
	plan, err := program.Validate(p)
	if err != nil {
		return err
	}
	c.plan = plan
	c.decoder = rowcodec.NewRecordDecoder(plan.DecodeSchema)
	c.encoder = rowcodec.NewRecordEncoder(plan.EncodeSchema)
	if plan.Mode == program.Aggregate {
		c.table = aggregate.NewTable(plan.AggSpecs)
	}
	c.stats = ExecutionStats{}
	c.state = Ready
	return nil
}

// Close releases the instance's resources and returns it to Unconfigured,
// legal from every state including Faulted.
func (c *Coprocessor) Close() {
	c.plan = program.ExecutionPlan{}
	c.decoder = nil
	c.encoder = nil
	c.table = nil
	c.stats = ExecutionStats{}
	c.state = Unconfigured
}

// Execute drives iter under the row-count and byte budgets of §4.4,
// returning the emitted KV pairs and whether more output remains. Fatal
// decoding or accumulation errors abort the call, move the instance to
// Faulted, and are returned verbatim — the partially filled result must
// not be consumed by the caller.
func (c *Coprocessor) Execute(iter Iterator, keyOnly bool, maxFetchCnt uint64, maxBytesRPC int64) (outKVs []rowcodec.KV, hasMore bool, err error) {
	start := time.Now()
	defer func() {
		c.stats.CallCount++
		c.stats.Elapsed += time.Since(start)
	}()

	if c.state != Ready && c.state != Draining {
		return nil, false, copstatus.Newf("Execute", copstatus.BadRequest, "Execute called from state %s, expected Ready or Draining", c.state)
	}
	if keyOnly && !c.plan.KeyOnlySafe {
		err := copstatus.Newf("Execute", copstatus.BadRequest,
			"key_only requested but plan reads a value-half column (mode=%s)", c.plan.Mode)
		c.state = Faulted
		return nil, false, err
	}

	if c.state == Ready {
		outKVs, hasMore, err = c.executeScan(iter, keyOnly, maxFetchCnt, maxBytesRPC)
		if err != nil {
			c.state = Faulted
			return nil, false, err
		}
		if !hasMore && c.state == Ready {
			// Passthrough with no aggregate residue to drain: the cursor
			// exhausting is the whole story, so skip Draining entirely.
			c.state = Exhausted
		}
		return outKVs, hasMore, nil
	}

	outKVs, hasMore = c.drainAggregate(maxFetchCnt, maxBytesRPC)
	if !hasMore {
		c.state = Exhausted
	}
	return outKVs, hasMore, nil
}

func (c *Coprocessor) executeScan(iter Iterator, keyOnly bool, maxFetchCnt uint64, maxBytesRPC int64) ([]rowcodec.KV, bool, error) {
	var out []rowcodec.KV
	var bytesUsed int64
	budgetHit := false

	for iter.Valid() {
		if err := iter.Err(); err != nil {
			return nil, false, copstatus.Wrap("Execute", copstatus.Cancelled, "cursor terminated", err)
		}

		if c.plan.Mode == program.Passthrough {
			if uint64(len(out)) >= maxFetchCnt || (maxBytesRPC > 0 && bytesUsed >= maxBytesRPC) {
				budgetHit = true
				break // budget exhausted; leave the cursor positioned here for the next call
			}
		}

		row, err := c.decodeRow(iter, keyOnly)
		if err != nil {
			return nil, false, err
		}
		c.stats.RowsScanned++

		if c.plan.Mode == program.Passthrough {
			kv, err := c.encodeProjected(row)
			if err != nil {
				return nil, false, err
			}
			out = append(out, kv)
			bytesUsed += int64(len(kv.Key) + len(kv.Value))
		} else {
			if err := c.accumulateRow(row); err != nil {
				return nil, false, err
			}
		}
		iter.Next()
	}

	if err := iter.Err(); err != nil {
		return nil, false, copstatus.Wrap("Execute", copstatus.Cancelled, "cursor terminated", err)
	}

	if c.plan.Mode == program.Passthrough && len(out) > 0 &&
		(uint64(len(out)) >= maxFetchCnt || (maxBytesRPC > 0 && bytesUsed >= maxBytesRPC)) {
		budgetHit = true // the budget filled up on the very row that exhausted the cursor
	}

	if c.plan.Mode == program.Aggregate {
		if !iter.Valid() {
			// The scan side is done; residue draining (§4.4c) starts on
			// the next Execute call from Draining, never mixed into this
			// one so a caller always sees the scan/drain boundary.
			c.state = Draining
			return out, c.table.Len() > 0, nil
		}
		return out, true, nil
	}

	// Passthrough: has_more is true whenever this call stopped because a
	// budget tripped, even if the cursor happens to be exhausted at
	// exactly that same boundary. Peeking past the budget to settle that
	// ambiguity here would mean the budget isn't really a budget; instead
	// the terminal zero-row, has_more=false call is always deferred to
	// the next Execute call (spec §8 scenario 5).
	return out, budgetHit, nil
}

func (c *Coprocessor) drainAggregate(maxFetchCnt uint64, maxBytesRPC int64) ([]rowcodec.KV, bool) {
	var out []rowcodec.KV
	var bytesUsed int64
	for uint64(len(out)) < maxFetchCnt && (maxBytesRPC <= 0 || bytesUsed < maxBytesRPC) {
		values, ok := c.table.PopFront()
		if !ok {
			break
		}
		row := buildOutputRow(c.plan.EncodeSchema, values)
		kv, err := c.encoder.Encode(row)
		if err != nil {
			// The plan already validated result_schema against the
			// derived output types at Open, so this can only mean an
			// internal inconsistency, not a caller error.
			panic(err)
		}
		out = append(out, kv)
		bytesUsed += int64(len(kv.Key) + len(kv.Value))
		c.stats.GroupsFlushed++
	}
	return out, c.table.Len() > 0
}

func (c *Coprocessor) decodeRow(iter Iterator, keyOnly bool) (rowcodec.Row, error) {
	if keyOnly {
		return c.decoder.DecodeKeyOnly(iter.Key())
	}
	return c.decoder.Decode(iter.Key(), iter.Value())
}

func (c *Coprocessor) encodeProjected(row rowcodec.Row) (rowcodec.KV, error) {
	values := make([]scalar.Value, len(c.plan.ProjectIndices))
	for i, idx := range c.plan.ProjectIndices {
		values[i] = row[idx]
	}
	out := buildOutputRow(c.plan.EncodeSchema, values)
	return c.encoder.Encode(out)
}

func (c *Coprocessor) accumulateRow(row rowcodec.Row) error {
	key := make([]scalar.Value, len(c.plan.GroupIndices))
	for i, idx := range c.plan.GroupIndices {
		key[i] = row[idx]
	}
	inputs := make([]scalar.Value, len(c.plan.AggSpecs))
	for i, spec := range c.plan.AggSpecs {
		switch {
		case spec.WholeRow, spec.ForcedNull, !spec.Found:
			inputs[i] = scalar.NullValue(scalar.BOOL) // ignored by the accumulator in every one of these cases
		default:
			inputs[i] = row[spec.ColumnIndex]
		}
	}
	return c.table.Accumulate(key, inputs)
}

// buildOutputRow re-addresses a result row from result-schema list order
// (the order group_key_values ++ aggregate_outputs, or the projected
// tuple, is naturally produced in) into the logical-index addressing
// RecordEncoder.Encode requires.
func buildOutputRow(schema rowcodec.Schema, valuesInListOrder []scalar.Value) rowcodec.Row {
	row := make(rowcodec.Row, len(schema.Columns))
	for pos, col := range schema.Columns {
		row[col.Index] = valuesInListOrder[pos]
	}
	return row
}
