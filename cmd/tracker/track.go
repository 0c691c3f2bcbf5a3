package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/chain"
	"yieldScope/internal/config"
	"yieldScope/internal/export"
	"yieldScope/internal/metrics"
	"yieldScope/internal/sources"
	"yieldScope/internal/storage"
	"yieldScope/internal/storage/postgres"
	"yieldScope/internal/tracker"
	"yieldScope/internal/transport"
)

// app holds the wiring shared by track and serve.
type app struct {
	tracker *tracker.Tracker
	symbols *chain.SymbolResolver
}

func (a *app) Close() {
	if a.symbols != nil {
		a.symbols.Close()
	}
}

func newApp(cfg config.Config, logger *zap.Logger) *app {
	fetcher := transport.NewHTTPClient(transport.Options{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryBackoff,
		UserAgent:  transport.DefaultOptions().UserAgent,
	}, logger)

	a := &app{}
	var symbols sources.SymbolLookup
	if len(cfg.RPCURLs) > 0 {
		a.symbols = chain.NewSymbolResolver(cfg.RPCURLs, logger)
		symbols = a.symbols
	}

	curve := sources.NewCurve(cfg.CurveURL, fetcher, symbols, logger)
	stakeDAO := sources.NewStakeDAO(cfg.StakeDAOURL, fetcher, logger)
	beefy := sources.NewBeefy(cfg.BeefyURL, fetcher, logger)
	a.tracker = tracker.New(curve, stakeDAO, beefy, logger)
	return a
}

func runTrack(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	queries, err := cfg.Queries()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)
	defer a.Close()

	logger.Info("track start",
		zap.Int("pools", len(queries)),
		zap.String("format", cfg.Format),
		zap.Int("rpc_chains", len(cfg.RPCURLs)),
		zap.String("jsonl", cfg.JSONL),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	report := a.tracker.Run(ctx, queries)
	payload := export.NewPayload(report)

	if err := render(cmd, cfg.Format, payload); err != nil {
		return err
	}
	if cfg.CSV != "" {
		if err := writeCSVFile(cfg.CSV, payload); err != nil {
			return err
		}
	}
	if err := persist(ctx, cfg, payload, logger); err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	logger.Info("track done",
		zap.Int("records", len(payload.Records)),
		zap.Int("failures", len(payload.Failures)),
	)
	return report.Fatal()
}

func render(cmd *cobra.Command, format string, payload export.Payload) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return export.WriteJSON(out, payload)
	case "csv":
		return export.WriteCSV(out, payload.Records, payload.Visibility)
	default:
		if len(payload.Records) > 0 {
			if err := export.WriteTable(out, payload.Records, payload.Visibility); err != nil {
				return err
			}
		}
		return export.WriteFailures(cmd.ErrOrStderr(), payload.Failures)
	}
}

func writeCSVFile(path string, payload export.Payload) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create csv dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()
	return export.WriteCSV(file, payload.Records, payload.Visibility)
}

// persist writes snapshots to every configured sink.
func persist(ctx context.Context, cfg config.Config, payload export.Payload, logger *zap.Logger) error {
	if len(payload.Records) == 0 || (cfg.JSONL == "" && cfg.PGDSN == "") {
		return nil
	}
	snaps := storage.Stamp(payload.Records, time.Now().UTC())

	var sinks []storage.Sink
	if cfg.JSONL != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.JSONL))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	for _, sink := range sinks {
		if err := sink.PutSnapshots(ctx, snaps); err != nil {
			return err
		}
	}
	logger.Info("snapshots stored", zap.Int("count", len(snaps)), zap.Int("sinks", len(sinks)))
	return nil
}
