package bench

import (
	"time"

	"github.com/onflow/evm-bench/evm/types"
)

// OutcomeCounts counts transaction outcomes by status
type OutcomeCounts struct {
	Successful int
	Failed     int
	Invalid    int
}

// Add counts one outcome with the given status
func (c *OutcomeCounts) Add(status types.Status) {
	switch status {
	case types.StatusSuccessful:
		c.Successful++
	case types.StatusFailed:
		c.Failed++
	default:
		c.Invalid++
	}
}

// Merge adds the counts of other
func (c *OutcomeCounts) Merge(other OutcomeCounts) {
	c.Successful += other.Successful
	c.Failed += other.Failed
	c.Invalid += other.Invalid
}

// Total returns the number of counted outcomes
func (c OutcomeCounts) Total() int {
	return c.Successful + c.Failed + c.Invalid
}

// BlockResult is the measurement of one block
type BlockResult struct {
	Number uint64
	// worker count the block was run with
	Threads            int
	TxCount            int
	DeterministicCount int
	// wall clock span of each partition
	DeterministicTime    time.Duration
	NonDeterministicTime time.Duration
	Outcomes             OutcomeCounts
}

// NonDeterministicCount returns the number of non deterministic transactions
func (r *BlockResult) NonDeterministicCount() int {
	return r.TxCount - r.DeterministicCount
}

// ExecutionTime returns the time spent executing the block, the sum of both partition spans
func (r *BlockResult) ExecutionTime() time.Duration {
	return r.DeterministicTime + r.NonDeterministicTime
}
