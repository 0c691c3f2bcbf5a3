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
		Use:          "tracker",
		Short:        "Curve pool yield tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Fetch, reconcile and print pool records",
		RunE:  runTrack,
	}
	addSourceFlags(trackCmd)
	trackCmd.Flags().StringSlice("pool", nil, "pool name or address (repeatable, comma-separated)")
	trackCmd.Flags().String("pools", "", "batch file of pool entries (JSON or YAML)")
	trackCmd.Flags().String("vault-id", "", "Beefy vault id override")
	trackCmd.Flags().String("strategy", "", "StakeDAO strategy address override")
	trackCmd.Flags().String("format", "table", "output format (table, json, csv)")
	trackCmd.Flags().String("csv", "", "also write the visible columns to this CSV file")
	trackCmd.Flags().String("jsonl", "", "append record snapshots to this JSONL file")
	trackCmd.Flags().String("pg-dsn", "", "Postgres DSN for record snapshots")
	trackCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	root.AddCommand(trackCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reconciled pool records over HTTP",
		RunE:  runServe,
	}
	addSourceFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (comma-separated)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("chain", "ethereum", "chain name")
	cmd.Flags().Bool("stakedao", false, "include StakeDAO strategy data")
	cmd.Flags().Bool("beefy", false, "include Beefy vault data")
	cmd.Flags().String("curve-url", "", "Curve API base URL")
	cmd.Flags().String("stakedao-url", "", "StakeDAO API base URL")
	cmd.Flags().String("beefy-url", "", "Beefy API base URL")
	cmd.Flags().String("rpc-urls", "", "per-chain RPC endpoints for token symbols (chain=url, comma-separated)")
	cmd.Flags().Duration("http-timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().Int("max-retries", 2, "maximum retry attempts per request")
	cmd.Flags().Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
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

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
