package metrics_test

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/module/metrics"
	"github.com/onflow/evm-bench/utils/unittest"
)

func TestBenchCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewBenchCollector(reg)

	collector.BlockExecuted(8, 120, 15*time.Millisecond)
	collector.BlockExecuted(8, 80, 10*time.Millisecond)
	collector.BlockSkipped()
	collector.PartitionExecuted(types.Deterministic, 100, 5*time.Millisecond)
	collector.TransactionExecuted(types.Deterministic, types.StatusSuccessful, 21_000, time.Millisecond)
	collector.TransactionExecuted(types.NonDeterministic, types.StatusFailed, 50_000, time.Millisecond)
	collector.TransactionExecuted(types.NonDeterministic, types.StatusFailed, 50_000, time.Millisecond)
	collector.BlockDownloaded(time.Second)
	collector.BlockDownloadRetried()
	collector.BlockDownloadFailed()

	count, err := testutil.GatherAndCount(reg, "evm_bench_block_executed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP evm_bench_transaction_executed_total number of executed transactions
# TYPE evm_bench_transaction_executed_total counter
evm_bench_transaction_executed_total{class="deterministic",status="successful"} 1
evm_bench_transaction_executed_total{class="non_deterministic",status="failed"} 2
# HELP evm_bench_block_skipped_total number of block files that could not be loaded
# TYPE evm_bench_block_skipped_total counter
evm_bench_block_skipped_total 1
# HELP evm_bench_transaction_gas_used_total gas used by executed transactions
# TYPE evm_bench_transaction_gas_used_total counter
evm_bench_transaction_gas_used_total{class="deterministic"} 21000
evm_bench_transaction_gas_used_total{class="non_deterministic"} 100000
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"evm_bench_transaction_executed_total",
		"evm_bench_block_skipped_total",
		"evm_bench_transaction_gas_used_total",
	)
	require.NoError(t, err)
}

func TestServerHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewBenchCollector(reg)
	collector.BlockSkipped()

	server := metrics.NewServer(unittest.Logger(), 0, reg, false)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "evm_bench_block_skipped_total 1")
}

// TestServerReady checks that the server accepts requests as soon as Ready closes.
func TestServerReady(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewBenchCollector(reg)
	collector.BlockSkipped()

	server := metrics.NewServer(unittest.Logger(), 0, reg, false)
	assert.Empty(t, server.Addr())

	unittest.RequireReturnsBefore(t, func() {
		<-server.Ready()
	}, 5*time.Second, "server did not become ready")
	defer func() { <-server.Done() }()

	addr := server.Addr()
	require.NotEmpty(t, addr)

	// no retry: the port is bound once Ready closed
	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "evm_bench_block_skipped_total 1")
}

func TestServerPortInUse(t *testing.T) {
	first := metrics.NewServer(unittest.Logger(), 0, prometheus.NewRegistry(), false)
	<-first.Ready()
	defer func() { <-first.Done() }()

	_, portStr, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.ParseUint(portStr, 10, 32)
	require.NoError(t, err)

	second := metrics.NewServer(unittest.Logger(), uint(port), prometheus.NewRegistry(), false)
	unittest.RequireReturnsBefore(t, func() {
		<-second.Ready()
	}, 5*time.Second, "ready must close when the port cannot be bound")
	assert.Empty(t, second.Addr())
}

func TestNoopCollector(t *testing.T) {
	nc := metrics.NewNoopCollector()
	nc.BlockExecuted(4, 1, time.Second)
	nc.TransactionExecuted(types.Deterministic, types.StatusSuccessful, 1, time.Second)
}
