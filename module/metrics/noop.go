package metrics

import (
	"time"

	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/module"
)

type NoopCollector struct{}

var _ module.BenchMetrics = (*NoopCollector)(nil)
var _ module.DownloadMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) BlockExecuted(threads int, txCount int, duration time.Duration)            {}
func (nc *NoopCollector) BlockSkipped()                                                             {}
func (nc *NoopCollector) PartitionExecuted(types.ClassLabel, int, time.Duration)                    {}
func (nc *NoopCollector) TransactionExecuted(types.ClassLabel, types.Status, uint64, time.Duration) {}
func (nc *NoopCollector) BlockDownloaded(duration time.Duration)                                    {}
func (nc *NoopCollector) BlockDownloadRetried()                                                     {}
func (nc *NoopCollector) BlockDownloadFailed()                                                      {}
