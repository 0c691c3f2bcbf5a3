// Package tracker runs pool queries through the primary source, the optional
// sources, the matcher and the merge engine.
package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yieldScope/internal/address"
	"yieldScope/internal/match"
	"yieldScope/internal/merge"
	"yieldScope/internal/metrics"
	"yieldScope/internal/model"
	"yieldScope/internal/sources"
)

// BaseSource supplies the required part of a canonical record.
type BaseSource interface {
	FetchBase(ctx context.Context, q model.PoolQuery) (model.CanonicalPoolRecord, error)
}

// Tracker processes queries one at a time. It holds no per-pool state.
type Tracker struct {
	base     BaseSource
	stakeDAO sources.Adapter
	beefy    sources.Adapter
	logger   *zap.Logger
}

// New builds a tracker. Optional adapters may be nil.
func New(base BaseSource, stakeDAO, beefy sources.Adapter, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{base: base, stakeDAO: stakeDAO, beefy: beefy, logger: logger}
}

// Track resolves one query into a canonical record.
func (t *Tracker) Track(ctx context.Context, q model.PoolQuery) (model.CanonicalPoolRecord, error) {
	log := t.logger.With(zap.String("chain", q.ChainKey()), zap.String("pool", q.Pool))

	var strategy address.Address
	if q.Overrides.Strategy != "" {
		addr, err := address.Normalize(q.Overrides.Strategy)
		if err != nil {
			return model.CanonicalPoolRecord{}, fmt.Errorf("strategy override: %w", err)
		}
		strategy = addr
	}

	base, err := t.base.FetchBase(ctx, q)
	if err != nil {
		return model.CanonicalPoolRecord{}, err
	}
	log = log.With(zap.String("lp_token", base.LPToken.String()))

	var stakeDAOMatch, beefyMatch *model.IntermediateRecord
	if cands, ok := t.candidates(ctx, log, t.stakeDAO, model.SourceStakeDAO, q.Integrations.StakeDAO, q.ChainKey()); ok {
		var res match.Result
		if !strategy.IsZero() {
			res = match.ByWrapper(strategy, cands)
			logOverride(log, model.SourceStakeDAO, res, zap.String("strategy", strategy.String()))
		} else {
			res = match.Find(base.LPToken, cands)
			logMatch(log, model.SourceStakeDAO, res, len(cands))
		}
		stakeDAOMatch = found(res)
	}
	if cands, ok := t.candidates(ctx, log, t.beefy, model.SourceBeefy, q.Integrations.Beefy, q.ChainKey()); ok {
		res := match.Find(base.LPToken, cands)
		logMatch(log, model.SourceBeefy, res, len(cands))
		if !res.Found && q.Overrides.VaultID != "" {
			res = match.ByVaultID(q.Overrides.VaultID, cands)
			logOverride(log, model.SourceBeefy, res, zap.String("vault_id", q.Overrides.VaultID))
		}
		beefyMatch = found(res)
	}

	record, trace := merge.Merge(base, q.Integrations, stakeDAOMatch, beefyMatch)
	logBlock(log, model.SourceStakeDAO, trace.StakeDAO)
	logBlock(log, model.SourceBeefy, trace.Beefy)
	if len(trace.AugmentedFrom) > 0 {
		labels := make([]string, 0, len(trace.AugmentedFrom))
		for _, src := range trace.AugmentedFrom {
			labels = append(labels, src.Label())
		}
		log.Debug("other rewards augmented",
			zap.String("event", "rewards_augmented"),
			zap.Strings("from", labels),
			zap.Int("entries", len(record.OtherRewards)),
		)
	}
	return record, nil
}

// candidates fetches an optional source's records when it is enabled and
// covers the chain.
func (t *Tracker) candidates(
	ctx context.Context,
	log *zap.Logger,
	adapter sources.Adapter,
	src model.Source,
	enabled bool,
	chain string,
) ([]model.IntermediateRecord, bool) {
	if !enabled {
		log.Debug("source disabled", zap.String("event", "source_disabled"), zap.String("source", src.Label()))
		return nil, false
	}
	if adapter == nil || !adapter.Supports(chain) {
		log.Debug("source does not cover chain", zap.String("event", "source_unsupported"), zap.String("source", src.Label()))
		return nil, false
	}
	return adapter.Fetch(ctx, chain), true
}

func found(res match.Result) *model.IntermediateRecord {
	if !res.Found {
		return nil
	}
	rec := res.Record
	return &rec
}

func logMatch(log *zap.Logger, src model.Source, res match.Result, total int) {
	fields := []zap.Field{
		zap.String("source", src.Label()),
		zap.Int("candidates", res.Candidates),
		zap.Int("records", total),
	}
	switch {
	case !res.Found:
		metrics.MatchTotal.WithLabelValues(src.Key(), "none").Inc()
		log.Debug("no match", append(fields, zap.String("event", "match_none"))...)
	case res.Ambiguous():
		metrics.MatchTotal.WithLabelValues(src.Key(), "ambiguous").Inc()
		log.Info("ambiguous match resolved by tvl",
			append(fields, zap.String("event", "match_ambiguous"), zap.Float64("tvl", res.Record.TVL))...)
	default:
		metrics.MatchTotal.WithLabelValues(src.Key(), "found").Inc()
		log.Debug("match found", append(fields, zap.String("event", "match_found"))...)
	}
}

func logOverride(log *zap.Logger, src model.Source, res match.Result, key zap.Field) {
	metrics.MatchTotal.WithLabelValues(src.Key(), "override").Inc()
	log.Debug("override applied",
		zap.String("event", "match_override"),
		zap.String("source", src.Label()),
		key,
		zap.Bool("found", res.Found),
	)
}

func logBlock(log *zap.Logger, src model.Source, state merge.BlockState) {
	switch state {
	case merge.BlockPopulated:
		log.Debug("block populated", zap.String("event", "block_populated"), zap.String("source", src.Label()))
	case merge.BlockDisabled:
	default:
		log.Debug("block absent",
			zap.String("event", "block_absent"),
			zap.String("source", src.Label()),
			zap.String("reason", string(state)),
		)
	}
}
