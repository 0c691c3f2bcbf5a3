// Package sources turns upstream API payloads into intermediate records.
package sources

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"yieldScope/internal/metrics"
	"yieldScope/internal/model"
)

var (
	// ErrPoolNotFound is returned when the primary source has no record for a query.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrSourceUnavailable wraps network and payload failures of a source.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Adapter is implemented by every source. Fetch never fails: an unreachable
// or malformed upstream yields an empty sequence and a logged warning.
type Adapter interface {
	Source() model.Source
	Supports(chain string) bool
	Fetch(ctx context.Context, chain string) []model.IntermediateRecord
}

// degrade runs fetch and swallows its failure into an empty result.
func degrade(
	ctx context.Context,
	logger *zap.Logger,
	source model.Source,
	chain string,
	fetch func(context.Context, string) ([]model.IntermediateRecord, error),
) []model.IntermediateRecord {
	start := time.Now()
	records, err := fetch(ctx, chain)
	metrics.SourceFetchDuration.WithLabelValues(source.Key()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SourceFetchTotal.WithLabelValues(source.Key(), chain, "error").Inc()
		logger.Warn("source unavailable",
			zap.String("event", "source_unavailable"),
			zap.String("source", source.Label()),
			zap.String("chain", chain),
			zap.Error(err),
		)
		return nil
	}
	metrics.SourceFetchTotal.WithLabelValues(source.Key(), chain, "ok").Inc()
	metrics.SourceRecords.WithLabelValues(source.Key(), chain).Set(float64(len(records)))
	logger.Debug("source fetched",
		zap.String("source", source.Label()),
		zap.String("chain", chain),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records
}

func joinURL(base string, parts ...string) string {
	out := base
	for len(out) > 0 && out[len(out)-1] == '/' {
		out = out[:len(out)-1]
	}
	for _, part := range parts {
		out += "/" + part
	}
	return out
}
