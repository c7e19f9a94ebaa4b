package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/evm-bench/cmd/evm-bench/cmd/compare"
	"github.com/onflow/evm-bench/cmd/evm-bench/cmd/download"
	"github.com/onflow/evm-bench/cmd/evm-bench/cmd/run"
)

// EnvPrefix is the prefix of environment variables overriding flags,
// --data-dir is read from EVMBENCH_DATA_DIR
const EnvPrefix = "EVMBENCH"

var (
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "evm-bench",
	Short: "benchmark hybrid parallel execution of historical EVM blocks",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := bindEnv(cmd.Flags()); err != nil {
			return err
		}
		return setLogger(flagLogLevel)
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (panic, fatal, error, warn, info, debug)")

	rootCmd.AddCommand(run.Cmd)
	rootCmd.AddCommand(download.Cmd)
	rootCmd.AddCommand(compare.Cmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// bindEnv sets every flag not given on the command line from its environment
// variable, if there is one
func bindEnv(flags *pflag.FlagSet) error {
	if err := viper.BindPFlags(flags); err != nil {
		return fmt.Errorf("could not bind flags: %w", err)
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !viper.IsSet(f.Name) {
			return
		}
		value := viper.GetString(f.Name)
		if setErr := flags.Set(f.Name, value); setErr != nil {
			err = fmt.Errorf("invalid value %q for --%s from environment: %w", value, f.Name, setErr)
		}
	})
	return err
}

func setLogger(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
