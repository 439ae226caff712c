package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "breakdown",
		Short:        "Buttonswap liquidity owner breakdown",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build, validate and export the owner breakdown of a token",
		RunE:  runBreakdown,
	}

	runCmd.Flags().Uint64("chain-id", 0, "chain id (1, 10, 8453, 42161, 43114)")
	runCmd.Flags().String("token", "", "input token address")
	runCmd.Flags().String("infura-project-id", "", "Infura project id for chains served through Infura")
	runCmd.Flags().String("rpc", "", "RPC URL, overrides the network default")
	runCmd.Flags().String("wrapper-map-url", "", "wrapper registry URL")
	runCmd.Flags().Int("page-size", 1000, "indexer page size")
	runCmd.Flags().Int("max-concurrency", 8, "pools processed at once per token, 0 for unbounded")
	runCmd.Flags().String("dead-address", "0x0000000000000000000000000000000000000000", "address whose LP shares are excluded from supply")
	runCmd.Flags().String("out-dir", "./output", "artifact output directory")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN, exports the artifact when set")
	runCmd.Flags().String("metrics-file", "", "write run metrics in text format to this path")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts for chain reads")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an exported breakdown artifact",
		RunE:  runValidate,
	}

	validateCmd.Flags().String("in", "", "breakdown artifact JSON")
	validateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(validateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
