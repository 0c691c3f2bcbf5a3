// Package merge assembles canonical pool records from the primary record and
// the optional-source matches.
package merge

import (
	"strings"

	"yieldScope/internal/model"
)

// BlockState says what happened to one optional block.
type BlockState string

const (
	BlockDisabled  BlockState = "disabled"
	BlockNoMatch   BlockState = "no_match"
	BlockNoYield   BlockState = "no_yield"
	BlockNoTVL     BlockState = "no_tvl"
	BlockPopulated BlockState = "populated"
)

// Trace records the decisions Merge took, for diagnostics.
type Trace struct {
	StakeDAO BlockState
	Beefy    BlockState
	// AugmentedFrom lists the sources whose rewards filled an empty
	// other-rewards list.
	AugmentedFrom []model.Source
}

// Merge combines base with the optional matches. A nil match means the source
// was unreachable, unsupported or had no match. Blocks are populated whole or
// left nil. Yields were normalized by the adapters and are copied as is.
func Merge(base model.CanonicalPoolRecord, enabled model.Integrations, stakeDAO, beefy *model.IntermediateRecord) (model.CanonicalPoolRecord, Trace) {
	out := base.Clone()
	out.StakeDAO = nil
	out.Beefy = nil
	if out.OtherRewards == nil {
		out.OtherRewards = []model.RewardEntry{}
	}

	var trace Trace
	var contributors []model.IntermediateRecord

	out.StakeDAO, trace.StakeDAO = stakeDAOBlock(enabled.StakeDAO, stakeDAO)
	if out.StakeDAO != nil {
		contributors = append(contributors, *stakeDAO)
	}
	out.Beefy, trace.Beefy = beefyBlock(enabled.Beefy, beefy)
	if out.Beefy != nil {
		contributors = append(contributors, *beefy)
	}

	if len(out.OtherRewards) == 0 {
		out.OtherRewards, trace.AugmentedFrom = augmentRewards(contributors)
	}
	return out, trace
}

func stakeDAOBlock(enabled bool, rec *model.IntermediateRecord) (*model.StakeDAOBlock, BlockState) {
	if !enabled {
		return nil, BlockDisabled
	}
	if rec == nil {
		return nil, BlockNoMatch
	}
	meta, ok := rec.Meta.(model.StakeDAOMeta)
	if !ok || rec.Source != model.SourceStakeDAO {
		return nil, BlockNoMatch
	}
	if !rec.HasYield {
		return nil, BlockNoYield
	}
	if !rec.HasTVL {
		return nil, BlockNoTVL
	}
	boost := meta.Boost
	if boost <= 0 {
		boost = 1
	}
	return &model.StakeDAOBlock{APY: rec.Yield, TVL: rec.TVL, Boost: boost}, BlockPopulated
}

func beefyBlock(enabled bool, rec *model.IntermediateRecord) (*model.BeefyBlock, BlockState) {
	if !enabled {
		return nil, BlockDisabled
	}
	if rec == nil {
		return nil, BlockNoMatch
	}
	meta, ok := rec.Meta.(model.BeefyMeta)
	if !ok || rec.Source != model.SourceBeefy || meta.VaultID == "" {
		return nil, BlockNoMatch
	}
	if !rec.HasYield {
		return nil, BlockNoYield
	}
	if !rec.HasTVL {
		return nil, BlockNoTVL
	}
	return &model.BeefyBlock{APY: rec.Yield, TVL: rec.TVL, VaultID: meta.VaultID}, BlockPopulated
}

// augmentRewards collects reward entries from the contributing records,
// skipping CRV and repeated symbols.
func augmentRewards(records []model.IntermediateRecord) ([]model.RewardEntry, []model.Source) {
	out := []model.RewardEntry{}
	var from []model.Source
	seen := make(map[string]struct{})
	for _, rec := range records {
		added := false
		for _, entry := range model.Rewards(rec.Meta) {
			key := strings.ToLower(strings.TrimSpace(entry.Token))
			if key == "" || key == "crv" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, entry)
			added = true
		}
		if added {
			from = append(from, rec.Source)
		}
	}
	return out, from
}
