package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-bench/model/bench"
	"github.com/onflow/evm-bench/module/report"
	"github.com/onflow/evm-bench/utils/unittest"
)

func results() []bench.BlockResult {
	return []bench.BlockResult{
		{
			Number:               18_000_000,
			Threads:              8,
			TxCount:              150,
			DeterministicCount:   100,
			DeterministicTime:    1500 * time.Microsecond,
			NonDeterministicTime: 2*time.Millisecond + 345*time.Microsecond + 999*time.Nanosecond,
			Outcomes:             bench.OutcomeCounts{Successful: 140, Failed: 6, Invalid: 4},
		},
		{
			Number:             18_000_001,
			Threads:            8,
			TxCount:            0,
			DeterministicCount: 0,
		},
		{
			Number:               18_000_002,
			Threads:              8,
			TxCount:              50,
			DeterministicCount:   10,
			DeterministicTime:    500 * time.Microsecond,
			NonDeterministicTime: 1500 * time.Microsecond,
			Outcomes:             bench.OutcomeCounts{Successful: 50},
		},
	}
}

func TestAggregate(t *testing.T) {
	r := report.Aggregate(8, results(), 3*time.Second)

	assert.Equal(t, 8, r.Threads)
	assert.Equal(t, 3, r.TotalBlocks)
	assert.Equal(t, 200, r.TotalTransactions)
	assert.Equal(t, 110, r.DeterministicTransactions)
	assert.Equal(t, 90, r.NonDeterministicTransactions)
	assert.Equal(t, 2*time.Millisecond, r.DeterministicTime)
	assert.Equal(t, 3*time.Millisecond+845*time.Microsecond+999*time.Nanosecond, r.NonDeterministicTime)
	assert.Equal(t, r.DeterministicTime+r.NonDeterministicTime, r.TotalTime)
	assert.Equal(t, bench.OutcomeCounts{Successful: 190, Failed: 6, Invalid: 4}, r.Outcomes)
	assert.Equal(t, 55.0, r.DeterministicPercent())
	assert.InDelta(t, 200/(5.845/1000), r.Throughput(), 1e-6)
}

func TestAggregateZeroTime(t *testing.T) {
	r := report.Aggregate(4, []bench.BlockResult{{Number: 1, TxCount: 0}}, 0)
	assert.Equal(t, 0.0, r.Throughput())
	assert.Equal(t, 0.0, r.DeterministicPercent())

	empty := report.Aggregate(4, nil, 0)
	assert.Equal(t, 0, empty.TotalBlocks)
	assert.Equal(t, 0.0, empty.Throughput())
}

func TestWriteTable(t *testing.T) {
	r := report.Aggregate(8, results(), time.Second)

	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, r))

	expected := "Block No\tThreads\tBlock Size\tWilliams Time\n" +
		"18000000\t8\t150\t3.845000ms\n" +
		"18000001\t8\t0\t0.000000ms\n" +
		"18000002\t8\t50\t2.000000ms\n"
	assert.Equal(t, expected, buf.String())
}

// TestBlockSizeColumn checks that the block size column is the total
// transaction count whatever the class split.
func TestBlockSizeColumn(t *testing.T) {
	blocks := results()
	r := report.Aggregate(16, blocks, time.Second)

	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, r))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(blocks)+1)
	for i, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		require.Len(t, fields, 4)
		assert.Equal(t, "16", fields[1])
		assert.Equal(t, blocks[i].TxCount, mustAtoi(t, fields[2]))
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		path := filepath.Join(dir, "williams_execution_time.txt")
		r := report.Aggregate(4, results(), time.Second)
		require.NoError(t, report.WriteFile(path, r))

		times, err := report.ReadTimes(path, report.TimeColumn)
		require.NoError(t, err)
		require.Len(t, times, 3)
		assert.InDelta(t, 3.845, times[0], 1e-9)
		assert.InDelta(t, 0, times[1], 1e-9)
		assert.InDelta(t, r.TotalMillis(), times.Total(), 1e-9)

		err = report.WriteFile(filepath.Join(dir, "missing", "report.txt"), r)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestSummarize(t *testing.T) {
	r := report.Aggregate(4, results(), time.Second)
	s, err := report.Summarize(r)
	require.NoError(t, err)
	assert.InDelta(t, (3.845+0+2)/3, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.Median, 1e-9)
	assert.InDelta(t, 3.845, s.Max, 1e-9)
	assert.GreaterOrEqual(t, s.P99, s.P90)
	assert.Greater(t, s.StdDev, 0.0)

	s, err = report.Summarize(report.Aggregate(4, nil, 0))
	require.NoError(t, err)
	assert.Equal(t, report.Summary{}, s)
}

func TestLogReport(t *testing.T) {
	var messages []string
	log := unittest.HookedLogger(func(level zerolog.Level, msg string) {
		messages = append(messages, msg)
	})
	report.LogReport(log, report.Aggregate(4, results(), time.Second))
	assert.Equal(t, []string{"run finished"}, messages)
}
