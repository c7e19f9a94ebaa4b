package report

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
)

// Summary describes the distribution of block execution times, in milliseconds
type Summary struct {
	Mean   float64
	Median float64
	P90    float64
	P99    float64
	Max    float64
	StdDev float64
}

// Summarize computes the distribution of block execution times.
// A report without blocks gives a zero summary.
func Summarize(r *RunReport) (Summary, error) {
	if len(r.Blocks) == 0 {
		return Summary{}, nil
	}

	times := make(stats.Float64Data, len(r.Blocks))
	for i := range r.Blocks {
		times[i] = Millis(r.Blocks[i].ExecutionTime())
	}

	var s Summary
	var err error
	if s.Mean, err = times.Mean(); err != nil {
		return Summary{}, fmt.Errorf("could not compute mean: %w", err)
	}
	if s.Median, err = times.Median(); err != nil {
		return Summary{}, fmt.Errorf("could not compute median: %w", err)
	}
	if s.P90, err = times.Percentile(90); err != nil {
		return Summary{}, fmt.Errorf("could not compute p90: %w", err)
	}
	if s.P99, err = times.Percentile(99); err != nil {
		return Summary{}, fmt.Errorf("could not compute p99: %w", err)
	}
	if s.Max, err = times.Max(); err != nil {
		return Summary{}, fmt.Errorf("could not compute max: %w", err)
	}
	if s.StdDev, err = times.StandardDeviation(); err != nil {
		return Summary{}, fmt.Errorf("could not compute standard deviation: %w", err)
	}
	return s, nil
}

// LogReport logs the totals of a run and the distribution of block times
func LogReport(log zerolog.Logger, r *RunReport) {
	event := log.Info().
		Int("threads", r.Threads).
		Int("blocks", r.TotalBlocks).
		Int("txs", r.TotalTransactions).
		Int("deterministic_txs", r.DeterministicTransactions).
		Int("non_deterministic_txs", r.NonDeterministicTransactions).
		Float64("deterministic_pct", r.DeterministicPercent()).
		Float64("total_time_ms", r.TotalMillis()).
		Float64("deterministic_time_ms", Millis(r.DeterministicTime)).
		Float64("non_deterministic_time_ms", Millis(r.NonDeterministicTime)).
		Float64("tps", r.Throughput()).
		Int("successful", r.Outcomes.Successful).
		Int("failed", r.Outcomes.Failed).
		Int("invalid", r.Outcomes.Invalid).
		Str("wallclock", units.HumanDuration(r.Wallclock.Round(time.Millisecond)))

	summary, err := Summarize(r)
	if err != nil {
		log.Warn().Err(err).Msg("could not summarize block times")
	} else {
		event = event.
			Float64("block_ms_mean", summary.Mean).
			Float64("block_ms_median", summary.Median).
			Float64("block_ms_p90", summary.P90).
			Float64("block_ms_p99", summary.P99).
			Float64("block_ms_max", summary.Max).
			Float64("block_ms_stddev", summary.StdDev)
	}

	event.Msg("run finished")
}
