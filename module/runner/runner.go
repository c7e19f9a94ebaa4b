package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/onflow/evm-bench/evm/emulator/state"
	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/model/bench"
	"github.com/onflow/evm-bench/model/evmblock"
	"github.com/onflow/evm-bench/module"
	"github.com/onflow/evm-bench/module/classifier"
	"github.com/onflow/evm-bench/module/scheduler"
)

// Config is the configuration of a block runner
type Config struct {
	// Threads is the worker pool size, one of scheduler.ValidWorkerCounts
	Threads int
	// Prefix is removed from file names to get the block number
	Prefix string
	// ProgressInterval is the period of the progress log, zero disables it
	ProgressInterval time.Duration
}

// DefaultConfig returns the default runner configuration
func DefaultConfig() Config {
	return Config{
		Threads:          16,
		Prefix:           DefaultPrefix,
		ProgressInterval: 10 * time.Second,
	}
}

// Runner loads block files and executes them one after the other
type Runner struct {
	log       zerolog.Logger
	config    Config
	policy    classifier.Policy
	scheduler *scheduler.Scheduler
	metrics   module.BenchMetrics
}

// New creates a runner. It fails if the configured thread count is not supported.
func New(
	log zerolog.Logger,
	config Config,
	executor types.Executor,
	policy classifier.Policy,
	metrics module.BenchMetrics,
) (*Runner, error) {
	sched, err := scheduler.New(log, executor, config.Threads, metrics)
	if err != nil {
		return nil, fmt.Errorf("could not create scheduler: %w", err)
	}

	return &Runner{
		log:       log.With().Str("component", "block_runner").Int("threads", config.Threads).Logger(),
		config:    config,
		policy:    policy,
		scheduler: sched,
		metrics:   metrics,
	}, nil
}

// RunBlock loads, classifies and executes one block file.
//
// It fails only when the block number can't be taken from the file name or
// when the file can't be read or decoded. A block without transactions gives
// a zero result.
func (r *Runner) RunBlock(path string) (*bench.BlockResult, error) {
	number, err := ParseBlockNumber(path, r.config.Prefix)
	if err != nil {
		return nil, err
	}

	block, err := evmblock.ReadFile(path)
	if err != nil {
		return nil, err
	}

	txs := block.TransactionRecords()
	res := &bench.BlockResult{
		Number:  number,
		Threads: r.config.Threads,
		TxCount: len(txs),
	}
	if len(txs) == 0 {
		r.metrics.BlockExecuted(r.config.Threads, 0, 0)
		return res, nil
	}

	ctx := evmblock.NewBlockContext(block)
	base, err := state.NewEmptyView()
	if err != nil {
		return nil, fmt.Errorf("could not create state for block %d: %w", number, err)
	}

	parts := scheduler.Partition(txs, r.policy)
	run := r.scheduler.RunBlock(parts, base, ctx)

	res.DeterministicCount = len(parts.Deterministic)
	res.DeterministicTime = run.Deterministic.Span
	res.NonDeterministicTime = run.NonDeterministic.Span
	for _, part := range []scheduler.PartitionResult{run.Deterministic, run.NonDeterministic} {
		for _, out := range part.Outcomes {
			res.Outcomes.Add(out.Status)
		}
	}

	r.metrics.BlockExecuted(r.config.Threads, res.TxCount, res.ExecutionTime())
	return res, nil
}

// Run executes the block files in order, one block at a time.
//
// Blocks that fail to load are logged and left out of the results. The
// context is checked between blocks, a cancelled run returns the results
// gathered so far together with the context error.
func (r *Runner) Run(ctx context.Context, files []string) ([]bench.BlockResult, error) {
	results := make([]bench.BlockResult, 0, len(files))

	var tracker *StatsTracker
	if r.config.ProgressInterval > 0 {
		tracker = NewStatsTracker(ctx, time.Second)
		tracker.StartPeriodicLogger(r.log, r.config.ProgressInterval)
		defer tracker.Stop()
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			r.log.Warn().Err(err).Int("remaining", len(files)-i).Msg("run interrupted")
			return results, err
		}

		res, err := r.RunBlock(path)
		if err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("skipping block")
			r.metrics.BlockSkipped()
			if tracker != nil {
				tracker.IncSkipped()
			}
			continue
		}

		r.log.Debug().
			Uint64("block", res.Number).
			Int("txs", res.TxCount).
			Int("deterministic", res.DeterministicCount).
			Dur("deterministic_time", res.DeterministicTime).
			Dur("non_deterministic_time", res.NonDeterministicTime).
			Msg("block executed")

		results = append(results, *res)
		if tracker != nil {
			tracker.AddBlock(res.TxCount)
		}
	}

	return results, nil
}
