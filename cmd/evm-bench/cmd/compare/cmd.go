package compare

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/onflow/evm-bench/module/report"
)

const baselineTimeColumn = 4

var (
	flagBaseline        string
	flagCandidate       string
	flagBaselineColumn  int
	flagCandidateColumn int
	flagThreshold       float64
)

var Cmd = &cobra.Command{
	Use:   "compare",
	Short: "compare the total block time of a report against a baseline report",
	Long: `Sums the per block time column of both reports and reports the improvement of the
candidate over the baseline. Exits with an error when the improvement is below --threshold percent.`,
	Run: run,
}

func init() {
	Cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline report")
	_ = Cmd.MarkFlagRequired("baseline")
	Cmd.Flags().StringVar(&flagCandidate, "candidate", "williams_execution_time.txt", "report to compare against the baseline")
	Cmd.Flags().IntVar(&flagBaselineColumn, "baseline-column", baselineTimeColumn, "zero based time column of the baseline report")
	Cmd.Flags().IntVar(&flagCandidateColumn, "candidate-column", report.TimeColumn, "zero based time column of the candidate report")
	Cmd.Flags().Float64Var(&flagThreshold, "threshold", 15, "minimum improvement in percent")
}

func run(*cobra.Command, []string) {
	baseline, err := report.ReadTimes(flagBaseline, flagBaselineColumn)
	if err != nil {
		log.Fatal().Err(err).Msg("could not read baseline")
	}
	candidate, err := report.ReadTimes(flagCandidate, flagCandidateColumn)
	if err != nil {
		log.Fatal().Err(err).Msg("could not read candidate")
	}
	if len(baseline) == 0 {
		log.Fatal().Str("baseline", flagBaseline).Msg("baseline report has no blocks")
	}

	c := report.Compare(baseline, candidate)
	log.Info().
		Int("baseline_blocks", c.BaselineBlocks).
		Float64("baseline_total_ms", c.BaselineTotal).
		Int("candidate_blocks", c.CandidateBlocks).
		Float64("candidate_total_ms", c.CandidateTotal).
		Float64("improvement_pct", c.Improvement).
		Float64("speedup", c.Speedup).
		Float64("time_saved_ms", c.TimeSaved).
		Msg("comparison")

	if !c.MeetsThreshold(flagThreshold) {
		log.Error().
			Float64("improvement_pct", c.Improvement).
			Float64("threshold_pct", flagThreshold).
			Msgf("improvement is %.1f percentage points below the threshold", flagThreshold-c.Improvement)
		os.Exit(1)
	}
	log.Info().
		Float64("margin_pct", c.Improvement-flagThreshold).
		Msg("improvement meets the threshold")
}
