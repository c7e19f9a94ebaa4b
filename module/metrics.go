package module

import (
	"time"

	"github.com/onflow/evm-bench/evm/types"
)

// BenchMetrics encapsulates the metrics reported while executing blocks
type BenchMetrics interface {
	// BlockExecuted reports the number of transactions of an executed block and
	// the time spent executing it (sum of the partition spans)
	BlockExecuted(threads int, txCount int, duration time.Duration)

	// BlockSkipped reports a block file that could not be loaded
	BlockSkipped()

	// PartitionExecuted reports the wall clock span of one partition of a block
	PartitionExecuted(label types.ClassLabel, txCount int, span time.Duration)

	// TransactionExecuted reports the outcome of one transaction and the time
	// spent in the engine
	TransactionExecuted(label types.ClassLabel, status types.Status, gasUsed uint64, duration time.Duration)
}

// DownloadMetrics encapsulates the metrics reported while fetching blocks from an archive node
type DownloadMetrics interface {
	// BlockDownloaded reports a block written to disk and the time the request took
	BlockDownloaded(duration time.Duration)

	// BlockDownloadRetried reports a failed request attempt that is retried
	BlockDownloadRetried()

	// BlockDownloadFailed reports a block that could not be fetched
	BlockDownloadFailed()
}
