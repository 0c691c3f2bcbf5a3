package storage

import (
	"context"
	"time"

	"yieldScope/internal/model"
)

// Snapshot is one canonical record as exported at a point in time.
type Snapshot struct {
	TakenAt time.Time                 `json:"taken_at"`
	Record  model.CanonicalPoolRecord `json:"record"`
}

// Sink receives finished batch records. Sinks are export targets only; the
// tracker never reads them back.
type Sink interface {
	PutSnapshots(ctx context.Context, snaps []Snapshot) error
}

// Stamp wraps records with one shared timestamp.
func Stamp(records []model.CanonicalPoolRecord, at time.Time) []Snapshot {
	out := make([]Snapshot, 0, len(records))
	for _, rec := range records {
		out = append(out, Snapshot{TakenAt: at.UTC(), Record: rec})
	}
	return out
}
