package report

import (
	"time"

	"github.com/onflow/evm-bench/model/bench"
)

// RunReport aggregates the block results of a run with one worker count
type RunReport struct {
	Threads int
	// block results in execution order
	Blocks []bench.BlockResult

	TotalBlocks                  int
	TotalTransactions            int
	DeterministicTransactions    int
	NonDeterministicTransactions int

	// sum of the block execution times
	TotalTime            time.Duration
	DeterministicTime    time.Duration
	NonDeterministicTime time.Duration

	Outcomes bench.OutcomeCounts

	// wall clock time of the whole run, loading and decoding included
	Wallclock time.Duration
}

// Aggregate sums the block results of a run
func Aggregate(threads int, results []bench.BlockResult, wallclock time.Duration) *RunReport {
	r := &RunReport{
		Threads:   threads,
		Blocks:    results,
		Wallclock: wallclock,
	}
	for i := range results {
		res := &results[i]
		r.TotalBlocks++
		r.TotalTransactions += res.TxCount
		r.DeterministicTransactions += res.DeterministicCount
		r.NonDeterministicTransactions += res.NonDeterministicCount()
		r.DeterministicTime += res.DeterministicTime
		r.NonDeterministicTime += res.NonDeterministicTime
		r.TotalTime += res.ExecutionTime()
		r.Outcomes.Merge(res.Outcomes)
	}
	return r
}

// TotalMillis returns the total execution time in milliseconds
func (r *RunReport) TotalMillis() float64 {
	return Millis(r.TotalTime)
}

// Throughput returns executed transactions per second of execution time,
// zero when no time was spent
func (r *RunReport) Throughput() float64 {
	ms := r.TotalMillis()
	if ms <= 0 {
		return 0
	}
	return float64(r.TotalTransactions) / (ms / 1000)
}

// DeterministicPercent returns the share of deterministic transactions
func (r *RunReport) DeterministicPercent() float64 {
	if r.TotalTransactions == 0 {
		return 0
	}
	return float64(r.DeterministicTransactions) * 100 / float64(r.TotalTransactions)
}

// Millis converts a duration to milliseconds, truncated to the microsecond
func Millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
