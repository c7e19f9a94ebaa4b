package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/pbnjay/memory"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/evm-bench/cmd/evm-bench/cmd/common"
	"github.com/onflow/evm-bench/evm/emulator"
	"github.com/onflow/evm-bench/evm/types"
	"github.com/onflow/evm-bench/module"
	"github.com/onflow/evm-bench/module/classifier"
	"github.com/onflow/evm-bench/module/metrics"
	"github.com/onflow/evm-bench/module/report"
	"github.com/onflow/evm-bench/module/runner"
	"github.com/onflow/evm-bench/module/scheduler"
)

var (
	flagDataDir            string
	flagThreads            int
	flagOutput             string
	flagPrefix             string
	flagSelectors          []string
	flagTrivialInputLength int
	flagFundSenders        bool
	flagMetricsPort        uint
	flagPushgateway        string
	flagProfile            string
	flagProgressInterval   time.Duration
)

var Cmd = &cobra.Command{
	Use:   "run",
	Short: "execute the downloaded blocks and write the execution time report",
	Long: `Executes every block file of <data-dir>/blocks one block at a time. The transactions of
a block are split into a deterministic and a non-deterministic partition, each run on a pool of
--threads workers. Without --threads the run is repeated with 4, 8 and 16 workers.`,
	Run: run,
}

func init() {
	Cmd.Flags().StringVar(&flagDataDir, "data-dir", "./data_bdf", "directory holding the blocks/ directory")
	Cmd.Flags().IntVar(&flagThreads, "threads", 0, "number of workers (4, 8 or 16), runs all three when not given")
	Cmd.Flags().StringVar(&flagOutput, "output", "williams_execution_time.txt", "report file")
	Cmd.Flags().StringVar(&flagPrefix, "prefix", runner.DefaultPrefix, "block file name prefix before the block number")
	Cmd.Flags().StringSliceVar(&flagSelectors, "selectors", nil,
		fmt.Sprintf("function selectors classified as deterministic (default %s)", strings.Join(classifier.DefaultSelectors, ",")))
	Cmd.Flags().IntVar(&flagTrivialInputLength, "trivial-input-length", classifier.DefaultTrivialInputLength,
		"call data shorter than this many hex characters is classified as deterministic")
	Cmd.Flags().BoolVar(&flagFundSenders, "fund-senders", false, "credit each sender with the funds its transaction needs before executing it")
	common.InitMetricsFlags(Cmd, &flagMetricsPort, &flagPushgateway)
	Cmd.Flags().StringVar(&flagProfile, "profile", "", "write a cpu or mem profile to the current directory")
	Cmd.Flags().DurationVar(&flagProgressInterval, "progress-interval", 10*time.Second, "period of the progress log, 0 disables it")
}

func run(cmd *cobra.Command, _ []string) {
	threadsSet := cmd.Flags().Changed("threads") || viper.IsSet("threads")
	counts, err := threadCounts(flagThreads, threadsSet)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid thread count")
	}

	policy, err := newPolicy(flagSelectors, flagTrivialInputLength)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid classifier configuration")
	}

	blocksDir := filepath.Join(flagDataDir, "blocks")
	info, err := os.Stat(blocksDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", blocksDir).Msg("cannot read blocks directory")
	}
	if !info.IsDir() {
		log.Fatal().Str("dir", blocksDir).Msg("blocks path is not a directory")
	}

	files, err := runner.DiscoverBlockFiles(blocksDir, flagPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot list block files")
	}

	switch flagProfile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		log.Fatal().Str("profile", flagProfile).Msg("profile must be cpu or mem")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewBenchCollector(registry)

	stopMetrics := common.StartMetrics(log.Logger, registry, flagMetricsPort, flagPushgateway, "evm_bench")
	defer stopMetrics()

	log.Info().
		Int("cpus", runtime.NumCPU()).
		Str("memory", units.BytesSize(float64(memory.TotalMemory()))).
		Str("blocks_dir", blocksDir).
		Int("block_files", len(files)).
		Ints("threads", counts).
		Bool("fund_senders", flagFundSenders).
		Msg("starting benchmark")

	s := sweep{
		log:              log.Logger,
		output:           flagOutput,
		prefix:           flagPrefix,
		progressInterval: flagProgressInterval,
		executor:         emulator.NewEmulator(emulator.WithSenderFunding(flagFundSenders)),
		policy:           policy,
		metrics:          collector,
	}
	if err := s.run(ctx, files, counts); err != nil {
		stopMetrics()
		log.Fatal().Err(err).Msg("benchmark failed")
	}
}

// sweep runs the block files once per worker count and writes one report per run
type sweep struct {
	log              zerolog.Logger
	output           string
	prefix           string
	progressInterval time.Duration
	executor         types.Executor
	policy           classifier.Policy
	metrics          module.BenchMetrics
}

// run executes the runs in order. An interrupted run still writes the report
// of the blocks executed so far and ends the sweep without error. It fails
// when a runner can't be created or a report can't be written.
func (s sweep) run(ctx context.Context, files []string, threadCounts []int) error {
	multiple := len(threadCounts) > 1

	for _, threads := range threadCounts {
		cfg := runner.DefaultConfig()
		cfg.Threads = threads
		cfg.Prefix = s.prefix
		cfg.ProgressInterval = s.progressInterval

		r, err := runner.New(s.log, cfg, s.executor, s.policy, s.metrics)
		if err != nil {
			return fmt.Errorf("could not create runner: %w", err)
		}

		start := time.Now()
		results, runErr := r.Run(ctx, files)
		rep := report.Aggregate(threads, results, time.Since(start))

		output := outputPath(s.output, threads, multiple)
		if err := report.WriteFile(output, rep); err != nil {
			return fmt.Errorf("could not write report for %d threads: %w", threads, err)
		}
		report.LogReport(s.log, rep)
		s.log.Info().Str("output", output).Msg("report written")

		if runErr != nil {
			s.log.Warn().Err(runErr).Msg("benchmark interrupted, report holds the blocks executed so far")
			return nil
		}
	}
	return nil
}

// threadCounts returns the worker counts to run with. Without a configured
// count every supported count is run, a configured one must be supported.
func threadCounts(threads int, configured bool) ([]int, error) {
	if !configured {
		return append([]int(nil), scheduler.ValidWorkerCounts...), nil
	}
	if err := scheduler.ValidateWorkerCount(threads); err != nil {
		return nil, err
	}
	return []int{threads}, nil
}

func newPolicy(selectors []string, trivialInputLength int) (classifier.Policy, error) {
	if trivialInputLength < 0 {
		return nil, fmt.Errorf("trivial input length must not be negative, got %d", trivialInputLength)
	}
	opts := []classifier.Option{classifier.WithTrivialInputLength(trivialInputLength)}
	if len(selectors) > 0 {
		parsed, err := classifier.ParseSelectors(selectors)
		if err != nil {
			return nil, err
		}
		opts = append(opts, classifier.WithSelectors(parsed))
	}
	return classifier.NewSelectorPolicy(opts...), nil
}

// outputPath returns the report file for a run, a sweep writes <stem>_<n>threads<ext>
func outputPath(output string, threads int, multiple bool) string {
	if !multiple {
		return output
	}
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s_%dthreads%s", strings.TrimSuffix(output, ext), threads, ext)
}
