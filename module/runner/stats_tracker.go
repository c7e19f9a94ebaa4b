package runner

import (
	"context"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/rs/zerolog"
)

// RunStats is a snapshot of the progress of a run
type RunStats struct {
	Blocks       int
	Skipped      int
	Transactions int
	// moving averages, per second
	BlocksPerSecond       float64
	TransactionsPerSecond float64
}

// StatsTracker keeps track of the progress of a run
type StatsTracker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mux      sync.Mutex
	stats    RunStats
	blkEWMA  ewma.MovingAverage
	txsEWMA  ewma.MovingAverage
	interval time.Duration
}

const defaultMovingAverageAge = 10

// NewStatsTracker returns a tracker sampling its moving averages every interval
func NewStatsTracker(ctx context.Context, interval time.Duration) *StatsTracker {
	ctx, cancel := context.WithCancel(ctx)
	st := &StatsTracker{
		ctx:      ctx,
		cancel:   cancel,
		blkEWMA:  ewma.NewMovingAverage(defaultMovingAverageAge),
		txsEWMA:  ewma.NewMovingAverage(defaultMovingAverageAge),
		interval: interval,
	}

	st.wg.Add(1)
	go st.updateEWMAforever()
	return st
}

func (st *StatsTracker) updateEWMAforever() {
	defer st.wg.Done()

	t := time.NewTicker(st.interval)
	defer t.Stop()

	last := st.Stats()
	for {
		select {
		case <-t.C:
			stats := st.Stats()
			st.updateEWMAonce(last, stats)
			last = stats
		case <-st.ctx.Done():
			return
		}
	}
}

// updateEWMAonce adds the rates observed since the last sample
func (st *StatsTracker) updateEWMAonce(last, stats RunStats) {
	st.mux.Lock()
	defer st.mux.Unlock()

	perSecond := float64(time.Second) / float64(st.interval)
	st.blkEWMA.Add(float64(stats.Blocks-last.Blocks) * perSecond)
	st.txsEWMA.Add(float64(stats.Transactions-last.Transactions) * perSecond)
}

// StartPeriodicLogger logs the stats every interval until the tracker stops
func (st *StatsTracker) StartPeriodicLogger(log zerolog.Logger, interval time.Duration) {
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()

		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				stats := st.Stats()
				log.Info().
					Int("blocks", stats.Blocks).
					Int("skipped", stats.Skipped).
					Int("txs", stats.Transactions).
					Float64("blocksEWMA", stats.BlocksPerSecond).
					Float64("txsEWMA", stats.TransactionsPerSecond).
					Msg("run stats")
			case <-st.ctx.Done():
				return
			}
		}
	}()
}

// Stop stops sampling and logging
func (st *StatsTracker) Stop() {
	st.cancel()
	st.wg.Wait()
}

// AddBlock counts an executed block with txCount transactions
func (st *StatsTracker) AddBlock(txCount int) {
	st.mux.Lock()
	defer st.mux.Unlock()

	st.stats.Blocks++
	st.stats.Transactions += txCount
}

// IncSkipped counts a skipped block
func (st *StatsTracker) IncSkipped() {
	st.mux.Lock()
	defer st.mux.Unlock()

	st.stats.Skipped++
}

// Stats returns the current stats
func (st *StatsTracker) Stats() RunStats {
	st.mux.Lock()
	defer st.mux.Unlock()

	st.stats.BlocksPerSecond = st.blkEWMA.Value()
	st.stats.TransactionsPerSecond = st.txsEWMA.Value()
	return st.stats
}
