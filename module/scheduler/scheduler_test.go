package scheduler_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/vm"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"

	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/module/classifier"
	"github.com/onflow/evm-bench/module/mock"
	"github.com/onflow/evm-bench/module/scheduler"
	"github.com/onflow/evm-bench/utils/unittest"
)

var forkError = errors.New("fork error")

func TestValidateWorkerCount(t *testing.T) {
	for _, n := range []int{4, 8, 16} {
		require.NoError(t, scheduler.ValidateWorkerCount(n))
	}
	for _, n := range []int{-4, 0, 1, 2, 3, 5, 7, 9, 12, 15, 17, 32, 64} {
		err := scheduler.ValidateWorkerCount(n)
		require.ErrorIs(t, err, scheduler.ErrInvalidWorkerCount, "worker count %d", n)
	}

	s, err := scheduler.New(unittest.Logger(), &sleepingExecutor{}, 6, mock.NewBenchMetrics(t))
	require.ErrorIs(t, err, scheduler.ErrInvalidWorkerCount)
	require.Nil(t, s)
}

func TestScheduler(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

// SchedulerTestSuite runs partitions against a fake executor that sleeps
// instead of executing and records how it was called.
type SchedulerTestSuite struct {
	suite.Suite

	metrics  *mock.BenchMetrics
	executor *sleepingExecutor
	base     *fakeView
	ctx      *types.BlockContext
}

func (s *SchedulerTestSuite) SetupTest() {
	s.metrics = mock.NewBenchMetrics(s.T())
	s.executor = &sleepingExecutor{delay: 10 * time.Millisecond}
	s.base = newFakeView()
	s.ctx = &types.BlockContext{Number: 1}
}

func (s *SchedulerTestSuite) newScheduler(workers int) *scheduler.Scheduler {
	sched, err := scheduler.New(unittest.Logger(), s.executor, workers, s.metrics)
	s.Require().NoError(err)
	s.Require().Equal(workers, sched.Workers())
	return sched
}

func (s *SchedulerTestSuite) expectMetrics(label types.ClassLabel, count int) {
	s.metrics.On("TransactionExecuted", label, types.StatusSuccessful, testifymock.Anything, testifymock.Anything).Times(count)
	s.metrics.On("PartitionExecuted", label, count, testifymock.Anything).Once()
}

// TestEmptyPartition checks that an empty partition takes no time and reports nothing.
func (s *SchedulerTestSuite) TestEmptyPartition() {
	sched := s.newScheduler(4)
	res := sched.RunPartition(nil, types.Deterministic, s.base, s.ctx)
	s.Require().Equal(time.Duration(0), res.Span)
	s.Require().Empty(res.Outcomes)
	s.Require().Equal(int64(0), s.base.forks.Load())
}

// TestBoundedConcurrency checks that no more than the configured number of
// transactions run at the same time and that they do run in parallel.
func (s *SchedulerTestSuite) TestBoundedConcurrency() {
	for _, workers := range scheduler.ValidWorkerCounts {
		s.Run(fmt.Sprintf("%d workers", workers), func() {
			s.SetupTest()
			count := 4 * workers
			s.expectMetrics(types.NonDeterministic, count)

			txs := unittest.TransactionRecordListFixture(count)
			res := s.newScheduler(workers).RunPartition(txs, types.NonDeterministic, s.base, s.ctx)

			s.Require().LessOrEqual(s.executor.maxRunning.Load(), int64(workers))
			s.Require().Greater(s.executor.maxRunning.Load(), int64(1))

			sequential := time.Duration(count) * s.executor.delay
			s.Require().Less(res.Span, sequential)
			s.Require().GreaterOrEqual(res.Span, 4*s.executor.delay)
		})
	}
}

// TestOutcomesArePositionStable checks that outcome i belongs to transaction i.
func (s *SchedulerTestSuite) TestOutcomesArePositionStable() {
	s.executor.delay = 0
	txs := unittest.TransactionRecordListFixture(100)
	s.expectMetrics(types.Deterministic, len(txs))

	res := s.newScheduler(16).RunPartition(txs, types.Deterministic, s.base, s.ctx)
	s.Require().Len(res.Outcomes, len(txs))
	for i, out := range res.Outcomes {
		s.Require().Equal(uint64(txs[i].Index), out.GasConsumed)
	}
}

// TestEveryTransactionGetsItsOwnFork checks that each transaction runs on a
// fresh fork of the base view.
func (s *SchedulerTestSuite) TestEveryTransactionGetsItsOwnFork() {
	s.executor.delay = time.Millisecond
	txs := unittest.TransactionRecordListFixture(50)
	s.expectMetrics(types.Deterministic, len(txs))

	s.newScheduler(8).RunPartition(txs, types.Deterministic, s.base, s.ctx)
	s.Require().Equal(int64(len(txs)), s.base.forks.Load())

	s.executor.mu.Lock()
	defer s.executor.mu.Unlock()
	s.Require().Len(s.executor.views, len(txs))
}

// TestForkFailure checks that a failed fork is recorded as an invalid outcome.
func (s *SchedulerTestSuite) TestForkFailure() {
	s.base.err = forkError
	txs := unittest.TransactionRecordListFixture(5)
	s.metrics.On("TransactionExecuted", types.Deterministic, types.StatusInvalid, uint64(0), time.Duration(0)).Times(len(txs))
	s.metrics.On("PartitionExecuted", types.Deterministic, len(txs), testifymock.Anything).Once()

	res := s.newScheduler(4).RunPartition(txs, types.Deterministic, s.base, s.ctx)
	for _, out := range res.Outcomes {
		s.Require().True(out.Invalid())
		s.Require().ErrorIs(out.Err, forkError)
	}
	s.Require().Equal(int64(0), s.executor.calls.Load())
}

// TestExecutorPanic checks that a panicking executor does not take the pool down.
func (s *SchedulerTestSuite) TestExecutorPanic() {
	s.executor.panicOn = 2
	txs := unittest.TransactionRecordListFixture(5)
	s.metrics.On("TransactionExecuted", types.Deterministic, types.StatusSuccessful, testifymock.Anything, testifymock.Anything).Times(4)
	s.metrics.On("TransactionExecuted", types.Deterministic, types.StatusInvalid, uint64(0), time.Duration(0)).Once()
	s.metrics.On("PartitionExecuted", types.Deterministic, len(txs), testifymock.Anything).Once()

	res := s.newScheduler(4).RunPartition(txs, types.Deterministic, s.base, s.ctx)
	s.Require().True(res.Outcomes[2].Invalid())
	s.Require().ErrorContains(res.Outcomes[2].Err, "executor panic")
}

// TestRunBlock checks that the non deterministic partition only starts once
// the deterministic one finished and that the block time is the sum of the spans.
func (s *SchedulerTestSuite) TestRunBlock() {
	policy := classifier.NewSelectorPolicy()
	txs := unittest.TransactionRecordListFixture(12)
	for i := 0; i < 12; i += 3 {
		unittest.WithInput(unittest.CallData(unittest.SwapSelector, 4))(txs[i])
	}
	parts := scheduler.Partition(txs, policy)
	s.Require().Len(parts.Deterministic, 8)
	s.Require().Len(parts.NonDeterministic, 4)

	s.expectMetrics(types.Deterministic, 8)
	s.expectMetrics(types.NonDeterministic, 4)

	run := s.newScheduler(4).RunBlock(parts, s.base, s.ctx)
	s.Require().Equal(run.Deterministic.Span+run.NonDeterministic.Span, run.Total())
	s.Require().Equal(types.Deterministic, run.Deterministic.Label)
	s.Require().Equal(types.NonDeterministic, run.NonDeterministic.Label)

	s.executor.mu.Lock()
	defer s.executor.mu.Unlock()
	lastDeterministicEnd := time.Time{}
	firstNonDeterministicStart := time.Now()
	for idx, span := range s.executor.spans {
		if idx%3 == 0 {
			if span.start.Before(firstNonDeterministicStart) {
				firstNonDeterministicStart = span.start
			}
			continue
		}
		if span.end.After(lastDeterministicEnd) {
			lastDeterministicEnd = span.end
		}
	}
	s.Require().False(firstNonDeterministicStart.Before(lastDeterministicEnd))
}

// TestWorkerCountSpeedup runs the same block with 4 and 8 workers. This is a
// performance regression check, the bound is not exact.
func (s *SchedulerTestSuite) TestWorkerCountSpeedup() {
	if testing.Short() {
		s.T().Skip("skipping timing sensitive test in short mode")
	}
	s.metrics.On("TransactionExecuted", testifymock.Anything, testifymock.Anything, testifymock.Anything, testifymock.Anything).Maybe()
	s.metrics.On("PartitionExecuted", testifymock.Anything, testifymock.Anything, testifymock.Anything).Maybe()
	s.executor.delay = time.Millisecond

	txs := unittest.TransactionRecordListFixture(2000)
	for i := 1000; i < 2000; i++ {
		unittest.WithInput(unittest.CallData(unittest.SwapSelector, 4))(txs[i])
	}
	parts := scheduler.Partition(txs, classifier.NewSelectorPolicy())
	s.Require().Len(parts.Deterministic, 1000)

	withFour := s.newScheduler(4).RunBlock(parts, s.base, s.ctx).Total()
	withEight := s.newScheduler(8)
	first := withEight.RunBlock(parts, s.base, s.ctx).Total()
	second := withEight.RunBlock(parts, s.base, s.ctx).Total()

	s.T().Logf("4 workers: %v, 8 workers: %v / %v", withFour, first, second)
	s.Require().Less(first, withFour)
	s.Require().Less(second, withFour)
}

type execution struct {
	start time.Time
	end   time.Time
}

// sleepingExecutor pretends to execute transactions, it reports the
// transaction index as gas used
type sleepingExecutor struct {
	delay   time.Duration
	panicOn int

	running    atomic.Int64
	maxRunning atomic.Int64
	calls      atomic.Int64

	mu    sync.Mutex
	views map[types.StateView]struct{}
	spans map[int]execution
}

var _ types.Executor = (*sleepingExecutor)(nil)

func (e *sleepingExecutor) Execute(view types.StateView, _ *types.BlockContext, tx *types.TransactionRecord) types.Outcome {
	e.calls.Inc()
	if e.panicOn != 0 && tx.Index == e.panicOn {
		panic("boom")
	}

	running := e.running.Inc()
	for {
		max := e.maxRunning.Load()
		if running <= max || e.maxRunning.CompareAndSwap(max, running) {
			break
		}
	}

	start := time.Now()
	time.Sleep(e.delay)
	end := time.Now()
	e.running.Dec()

	e.mu.Lock()
	if e.views == nil {
		e.views = make(map[types.StateView]struct{})
		e.spans = make(map[int]execution)
	}
	e.views[view] = struct{}{}
	e.spans[tx.Index] = execution{start: start, end: end}
	e.mu.Unlock()

	return types.Outcome{
		Status:      types.StatusSuccessful,
		GasConsumed: uint64(tx.Index),
		Elapsed:     end.Sub(start),
	}
}

// fakeView counts forks, every fork is a distinct value
type fakeView struct {
	forks *atomic.Int64
	err   error
	id    int64
}

var _ types.StateView = (*fakeView)(nil)

func newFakeView() *fakeView {
	return &fakeView{forks: atomic.NewInt64(0)}
}

func (v *fakeView) Fork() (types.StateView, error) {
	if v.err != nil {
		return nil, v.err
	}
	id := v.forks.Inc()
	return &fakeView{forks: atomic.NewInt64(0), id: id}, nil
}

func (v *fakeView) StateDB() vm.StateDB {
	return nil
}
