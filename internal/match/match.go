// Package match picks the record of one source that describes a target pool.
package match

import (
	"strings"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
)

// Result is the outcome of one matcher invocation. Candidates counts the
// records that qualified before the tie-break, so Candidates > 1 means the
// choice was ambiguous.
type Result struct {
	Record     model.IntermediateRecord
	Found      bool
	Candidates int
}

// Ambiguous reports whether more than one record qualified.
func (r Result) Ambiguous() bool { return r.Candidates > 1 }

// Find returns the candidate whose LP-token addresses contain target. With
// several qualifying candidates the one with the strictly greatest TVL wins;
// ties keep the first seen.
func Find(target address.Address, candidates []model.IntermediateRecord) Result {
	return pick(candidates, func(rec model.IntermediateRecord) bool {
		return address.Contains(rec.Addresses, target)
	})
}

// ByWrapper matches on strategy, vault or gauge addresses instead of LP
// tokens. It serves explicit strategy overrides.
func ByWrapper(target address.Address, candidates []model.IntermediateRecord) Result {
	return pick(candidates, func(rec model.IntermediateRecord) bool {
		return address.Contains(rec.Wrappers, target)
	})
}

// ByVaultID matches the vault identifier carried in Beefy metadata,
// case-insensitively. An empty id never matches.
func ByVaultID(id string, candidates []model.IntermediateRecord) Result {
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{}
	}
	return pick(candidates, func(rec model.IntermediateRecord) bool {
		meta, ok := rec.Meta.(model.BeefyMeta)
		return ok && strings.EqualFold(meta.VaultID, id)
	})
}

func pick(candidates []model.IntermediateRecord, keep func(model.IntermediateRecord) bool) Result {
	var res Result
	for _, rec := range candidates {
		if !keep(rec) {
			continue
		}
		res.Candidates++
		if !res.Found || rec.TVL > res.Record.TVL {
			res.Record = rec
			res.Found = true
		}
	}
	return res
}
