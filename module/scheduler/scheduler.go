package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/module"
	"github.com/onflow/evm-bench/module/classifier"
)

// ErrInvalidWorkerCount is returned for worker counts outside ValidWorkerCounts
var ErrInvalidWorkerCount = errors.New("invalid worker count")

// ValidWorkerCounts are the supported pool sizes
var ValidWorkerCounts = []int{4, 8, 16}

// ValidateWorkerCount returns an error wrapping ErrInvalidWorkerCount unless
// workers is one of ValidWorkerCounts. Other values are never rounded to a
// supported one.
func ValidateWorkerCount(workers int) error {
	for _, n := range ValidWorkerCounts {
		if workers == n {
			return nil
		}
	}
	return fmt.Errorf("%w: %d (supported: %v)", ErrInvalidWorkerCount, workers, ValidWorkerCounts)
}

// Partitions holds the transactions of a block split by class,
// each in block order
type Partitions struct {
	Deterministic    []*types.TransactionRecord
	NonDeterministic []*types.TransactionRecord
}

// Partition splits the transactions by the label the policy assigns them.
// Every transaction ends up in exactly one partition and each partition keeps
// the block order.
func Partition(txs []*types.TransactionRecord, policy classifier.Policy) Partitions {
	var parts Partitions
	for _, tx := range txs {
		switch policy.Classify(tx) {
		case types.Deterministic:
			parts.Deterministic = append(parts.Deterministic, tx)
		default:
			parts.NonDeterministic = append(parts.NonDeterministic, tx)
		}
	}
	return parts
}

// Get returns the partition of the given class
func (p Partitions) Get(label types.ClassLabel) []*types.TransactionRecord {
	if label == types.Deterministic {
		return p.Deterministic
	}
	return p.NonDeterministic
}

// Len returns the number of transactions in both partitions
func (p Partitions) Len() int {
	return len(p.Deterministic) + len(p.NonDeterministic)
}

// PartitionResult is the measurement of one partition
type PartitionResult struct {
	Label types.ClassLabel
	// wall clock time from the first submission until the last transaction finished
	Span time.Duration
	// outcomes in partition order
	Outcomes []types.Outcome
}

// BlockRun is the measurement of both partitions of a block
type BlockRun struct {
	Deterministic    PartitionResult
	NonDeterministic PartitionResult
}

// Total returns the sum of both partition spans
func (r BlockRun) Total() time.Duration {
	return r.Deterministic.Span + r.NonDeterministic.Span
}

// Scheduler executes partitions on a bounded pool of workers
type Scheduler struct {
	log      zerolog.Logger
	executor types.Executor
	workers  int
	metrics  module.BenchMetrics
}

// New creates a scheduler running partitions on exactly workers goroutines.
// It returns an error wrapping ErrInvalidWorkerCount for unsupported sizes.
func New(log zerolog.Logger, executor types.Executor, workers int, metrics module.BenchMetrics) (*Scheduler, error) {
	if err := ValidateWorkerCount(workers); err != nil {
		return nil, err
	}
	return &Scheduler{
		log:      log.With().Str("component", "scheduler").Int("workers", workers).Logger(),
		executor: executor,
		workers:  workers,
		metrics:  metrics,
	}, nil
}

// Workers returns the pool size
func (s *Scheduler) Workers() int {
	return s.workers
}

// RunBlock runs the deterministic partition to completion, then the non
// deterministic one. Both start from the same base view.
func (s *Scheduler) RunBlock(parts Partitions, base types.StateView, ctx *types.BlockContext) BlockRun {
	return BlockRun{
		Deterministic:    s.RunPartition(parts.Deterministic, types.Deterministic, base, ctx),
		NonDeterministic: s.RunPartition(parts.NonDeterministic, types.NonDeterministic, base, ctx),
	}
}

// RunPartition executes every transaction of the partition on its own fork of
// base and returns once all of them finished. An empty partition takes no time.
func (s *Scheduler) RunPartition(
	txs []*types.TransactionRecord,
	label types.ClassLabel,
	base types.StateView,
	ctx *types.BlockContext,
) PartitionResult {
	res := PartitionResult{Label: label}
	if len(txs) == 0 {
		return res
	}

	outcomes := make([]types.Outcome, len(txs))
	pool := workerpool.New(s.workers)

	start := time.Now()
	for i, tx := range txs {
		i, tx := i, tx
		pool.Submit(func() {
			outcomes[i] = s.execute(base, ctx, tx)
		})
	}
	pool.StopWait()
	res.Span = time.Since(start)
	res.Outcomes = outcomes

	for _, out := range outcomes {
		s.metrics.TransactionExecuted(label, out.Status, out.GasConsumed, out.Elapsed)
	}
	s.metrics.PartitionExecuted(label, len(txs), res.Span)

	s.log.Debug().
		Uint64("block", ctx.Number).
		Str("class", label.String()).
		Int("transactions", len(txs)).
		Dur("span", res.Span).
		Msg("partition executed")

	return res
}

// execute runs one transaction on a fresh fork, failures of the fork or of
// the executor end up in the outcome
func (s *Scheduler) execute(base types.StateView, ctx *types.BlockContext, tx *types.TransactionRecord) (out types.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = types.NewInvalidOutcome(fmt.Errorf("executor panic on transaction %d: %v", tx.Index, r), 0)
		}
	}()

	view, err := base.Fork()
	if err != nil {
		return types.NewInvalidOutcome(fmt.Errorf("could not fork state for transaction %d: %w", tx.Index, err), 0)
	}
	return s.executor.Execute(view, ctx, tx)
}
