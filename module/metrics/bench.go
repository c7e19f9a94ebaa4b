package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/module"
)

// BenchCollector reports benchmark metrics to prometheus
type BenchCollector struct {
	blocksExecuted       *prometheus.CounterVec
	blocksSkipped        prometheus.Counter
	blockExecutionTime   *prometheus.HistogramVec
	blockTransactions    prometheus.Histogram
	partitionSpan        *prometheus.HistogramVec
	partitionSize        *prometheus.HistogramVec
	transactionsExecuted *prometheus.CounterVec
	transactionTime      *prometheus.HistogramVec
	gasUsed              *prometheus.CounterVec
	blocksDownloaded     prometheus.Counter
	downloadRetries      prometheus.Counter
	downloadFailures     prometheus.Counter
	downloadDuration     prometheus.Histogram
}

var _ module.BenchMetrics = (*BenchCollector)(nil)
var _ module.DownloadMetrics = (*BenchCollector)(nil)

func NewBenchCollector(registerer prometheus.Registerer) *BenchCollector {
	factory := promauto.With(registerer)

	return &BenchCollector{
		blocksExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemBlock,
			Name:      "executed_total",
			Help:      "number of executed blocks",
		}, []string{LabelThreads}),

		blocksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemBlock,
			Name:      "skipped_total",
			Help:      "number of block files that could not be loaded",
		}),

		blockExecutionTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemBlock,
			Name:      "execution_time_seconds",
			Help:      "time spent executing a block, sum of both partition spans",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{LabelThreads}),

		blockTransactions: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemBlock,
			Name:      "transactions",
			Help:      "number of transactions per block",
			Buckets:   prometheus.LinearBuckets(0, 50, 20),
		}),

		partitionSpan: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemPartition,
			Name:      "span_seconds",
			Help:      "wall clock span of a partition",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{LabelClass}),

		partitionSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemPartition,
			Name:      "transactions",
			Help:      "number of transactions per partition",
			Buckets:   prometheus.LinearBuckets(0, 50, 20),
		}, []string{LabelClass}),

		transactionsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemTransaction,
			Name:      "executed_total",
			Help:      "number of executed transactions",
		}, []string{LabelClass, LabelStatus}),

		transactionTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemTransaction,
			Name:      "execution_time_seconds",
			Help:      "time spent in the evm per transaction",
			Buckets:   prometheus.ExponentialBuckets(0.000005, 2, 16),
		}, []string{LabelClass}),

		gasUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemTransaction,
			Name:      "gas_used_total",
			Help:      "gas used by executed transactions",
		}, []string{LabelClass}),

		blocksDownloaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemDownload,
			Name:      "blocks_total",
			Help:      "number of blocks fetched from the archive node",
		}),

		downloadRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemDownload,
			Name:      "retries_total",
			Help:      "number of retried block requests",
		}),

		downloadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemDownload,
			Name:      "failures_total",
			Help:      "number of blocks that could not be fetched",
		}),

		downloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceBench,
			Subsystem: subsystemDownload,
			Name:      "request_duration_seconds",
			Help:      "time to fetch and store one block",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

func (bc *BenchCollector) BlockExecuted(threads int, txCount int, duration time.Duration) {
	t := strconv.Itoa(threads)
	bc.blocksExecuted.WithLabelValues(t).Inc()
	bc.blockExecutionTime.WithLabelValues(t).Observe(duration.Seconds())
	bc.blockTransactions.Observe(float64(txCount))
}

func (bc *BenchCollector) BlockSkipped() {
	bc.blocksSkipped.Inc()
}

func (bc *BenchCollector) PartitionExecuted(label types.ClassLabel, txCount int, span time.Duration) {
	bc.partitionSpan.WithLabelValues(label.String()).Observe(span.Seconds())
	bc.partitionSize.WithLabelValues(label.String()).Observe(float64(txCount))
}

func (bc *BenchCollector) TransactionExecuted(label types.ClassLabel, status types.Status, gasUsed uint64, duration time.Duration) {
	bc.transactionsExecuted.WithLabelValues(label.String(), status.String()).Inc()
	bc.transactionTime.WithLabelValues(label.String()).Observe(duration.Seconds())
	bc.gasUsed.WithLabelValues(label.String()).Add(float64(gasUsed))
}

func (bc *BenchCollector) BlockDownloaded(duration time.Duration) {
	bc.blocksDownloaded.Inc()
	bc.downloadDuration.Observe(duration.Seconds())
}

func (bc *BenchCollector) BlockDownloadRetried() {
	bc.downloadRetries.Inc()
}

func (bc *BenchCollector) BlockDownloadFailed() {
	bc.downloadFailures.Inc()
}
