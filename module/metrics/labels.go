package metrics

const (
	LabelClass   = "class"
	LabelStatus  = "status"
	LabelThreads = "threads"
)

const (
	namespaceBench = "evm_bench"
)

const (
	subsystemBlock       = "block"
	subsystemPartition   = "partition"
	subsystemTransaction = "transaction"
	subsystemDownload    = "download"
)
