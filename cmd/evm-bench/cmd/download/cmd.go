package download

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/onflow/evm-bench/cmd/evm-bench/cmd/common"
	"github.com/onflow/evm-bench/module/fetcher"
	"github.com/onflow/evm-bench/module/metrics"
	"github.com/onflow/evm-bench/module/runner"
)

var (
	flagRPC         string
	flagStart       uint64
	flagCount       uint64
	flagOutput      string
	flagWorkers     int
	flagPrefix      string
	flagMaxRetries  uint64
	flagRetryDelay  time.Duration
	flagTimeout     time.Duration
	flagNoProgress  bool
	flagSkipCheck   bool
	flagMetricsPort uint
	flagPushgateway string
)

var Cmd = &cobra.Command{
	Use:   "download",
	Short: "download blocks with their transactions from an archive node",
	Run:   run,
}

func init() {
	defaults := fetcher.DefaultConfig()

	Cmd.Flags().StringVar(&flagRPC, "rpc", "http://localhost:8545", "JSON-RPC endpoint of the archive node")
	Cmd.Flags().Uint64Var(&flagStart, "start", defaults.Start, "first block to download")
	Cmd.Flags().Uint64Var(&flagCount, "count", defaults.Count, "number of consecutive blocks to download")
	Cmd.Flags().StringVar(&flagOutput, "output", defaults.OutputDir, "output directory, blocks are written to <output>/blocks")
	Cmd.Flags().IntVar(&flagWorkers, "workers", defaults.Workers, "number of concurrent requests")
	Cmd.Flags().StringVar(&flagPrefix, "prefix", runner.DefaultPrefix, "block file name prefix")
	Cmd.Flags().Uint64Var(&flagMaxRetries, "max-retries", defaults.MaxRetries, "retries per request before a block is deferred to the final retry pass")
	Cmd.Flags().DurationVar(&flagRetryDelay, "retry-delay", defaults.RetryDelay, "initial delay between retries")
	Cmd.Flags().DurationVar(&flagTimeout, "timeout", defaults.RequestTimeout, "timeout of a single request")
	Cmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "do not show the progress bar")
	Cmd.Flags().BoolVar(&flagSkipCheck, "skip-check", false, "skip the connection check")
	common.InitMetricsFlags(Cmd, &flagMetricsPort, &flagPushgateway)
}

func run(*cobra.Command, []string) {
	if flagWorkers < 1 {
		log.Fatal().Int("workers", flagWorkers).Msg("workers must be positive")
	}
	if flagCount == 0 {
		log.Fatal().Msg("count must be positive")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := rpc.DialContext(ctx, flagRPC)
	if err != nil {
		log.Fatal().Err(err).Str("rpc", flagRPC).Msg("could not connect to node")
	}
	defer client.Close()

	cfg := fetcher.DefaultConfig()
	cfg.OutputDir = flagOutput
	cfg.Prefix = flagPrefix
	cfg.Start = flagStart
	cfg.Count = flagCount
	cfg.Workers = flagWorkers
	cfg.MaxRetries = flagMaxRetries
	cfg.RetryDelay = flagRetryDelay
	cfg.RequestTimeout = flagTimeout
	cfg.ShowProgress = !flagNoProgress

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewBenchCollector(registry)

	stopMetrics := common.StartMetrics(log.Logger, registry, flagMetricsPort, flagPushgateway, "evm_bench_download")
	defer stopMetrics()

	downloader := fetcher.NewDownloader(log.Logger, client, cfg, collector)

	if !flagSkipCheck {
		latest, err := downloader.CheckConnection(ctx)
		if err != nil {
			stopMetrics()
			log.Fatal().Err(err).Str("rpc", flagRPC).Msg("connection check failed")
		}
		log.Info().Uint64("latest", latest).Str("rpc", flagRPC).Msg("connected to node")
		if end := flagStart + flagCount - 1; end > latest {
			log.Warn().Uint64("end", end).Uint64("latest", latest).Msg("range extends past the latest block")
		}
	}

	summary, err := downloader.DownloadAll(ctx)
	if err != nil {
		stopMetrics()
		if summary == nil {
			log.Fatal().Err(err).Msg("download failed")
		}
		log.Error().Err(err).Uints64("failed", summary.Failed).Msg("some blocks could not be downloaded")
		os.Exit(1)
	}
}
