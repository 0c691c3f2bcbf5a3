package tracker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"yieldScope/internal/address"
	"yieldScope/internal/merge"
	"yieldScope/internal/metrics"
	"yieldScope/internal/model"
	"yieldScope/internal/sources"
)

// Result is the outcome of one query of a batch.
type Result struct {
	Query  model.PoolQuery
	Record *model.CanonicalPoolRecord
	Err    error
}

// OK reports whether the query produced a record.
func (r Result) OK() bool { return r.Err == nil && r.Record != nil }

// Report is a finished batch.
type Report struct {
	Results    []Result
	Visibility merge.Visibility
}

// Records lists the successful records in query order.
func (r Report) Records() []model.CanonicalPoolRecord {
	out := make([]model.CanonicalPoolRecord, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, *res.Record)
		}
	}
	return out
}

// Failures lists the failed queries in query order.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Fatal returns the error of a single-pool batch that failed. Failures in
// larger batches are reported, never fatal.
func (r Report) Fatal() error {
	if len(r.Results) == 1 && !r.Results[0].OK() {
		return r.Results[0].Err
	}
	return nil
}

// Run processes queries in order, each to completion before the next.
// A failing pool is recorded and the batch continues.
func (t *Tracker) Run(ctx context.Context, queries []model.PoolQuery) Report {
	report := Report{Results: make([]Result, 0, len(queries))}
	for _, q := range queries {
		res := Result{Query: q}
		if err := ctx.Err(); err != nil {
			res.Err = err
			report.Results = append(report.Results, res)
			continue
		}

		record, err := t.Track(ctx, q)
		if err != nil {
			res.Err = err
			metrics.PoolsTotal.WithLabelValues(q.ChainKey(), FailureKind(err)).Inc()
			t.logger.Warn("pool failed",
				zap.String("event", "pool_failed"),
				zap.String("chain", q.ChainKey()),
				zap.String("pool", q.Pool),
				zap.String("kind", FailureKind(err)),
				zap.Error(err),
			)
		} else {
			res.Record = &record
			metrics.PoolsTotal.WithLabelValues(q.ChainKey(), "ok").Inc()
			t.logger.Debug("pool resolved",
				zap.String("event", "pool_resolved"),
				zap.String("chain", q.ChainKey()),
				zap.String("pool", q.Pool),
				zap.String("name", record.Name),
				zap.Bool("stakedao", record.StakeDAO != nil),
				zap.Bool("beefy", record.Beefy != nil),
			)
		}
		report.Results = append(report.Results, res)
	}
	report.Visibility = merge.Resolve(report.Records())
	return report
}

// FailureKind classifies an error for logs, metrics and reports.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, address.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, sources.ErrPoolNotFound):
		return "pool_not_found"
	case errors.Is(err, sources.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
