package model

import "yieldScope/internal/address"

// IntermediateRecord is one upstream entry reshaped into the form shared by
// all adapters. Yields are already percentages.
type IntermediateRecord struct {
	Source Source
	Chain  string
	// Addresses holds the LP-token addresses the entry exposes.
	Addresses []address.Address
	// Wrappers holds strategy, vault or gauge addresses wrapping the pool.
	Wrappers []address.Address
	TVL      float64
	HasTVL   bool
	Yield    float64
	HasYield bool
	Meta     Passthrough
}

// Passthrough is source-specific metadata carried opaquely through matching.
// The set of implementations is closed: CurveMeta, StakeDAOMeta, BeefyMeta.
type Passthrough interface {
	passthroughSource() Source
}

// CurveMeta is carried by primary-source records.
type CurveMeta struct {
	Name        string
	PoolAddress address.Address
}

// StakeDAOMeta is carried by liquid-locker strategy records.
type StakeDAOMeta struct {
	Key     string
	Boost   float64
	Vault   address.Address
	Rewards []RewardEntry
}

// BeefyMeta is carried by auto-compounding vault records.
type BeefyMeta struct {
	VaultID string
}

func (CurveMeta) passthroughSource() Source    { return SourceCurve }
func (StakeDAOMeta) passthroughSource() Source { return SourceStakeDAO }
func (BeefyMeta) passthroughSource() Source    { return SourceBeefy }

// Rewards returns the reward breakdown carried by p, if any.
func Rewards(p Passthrough) []RewardEntry {
	switch meta := p.(type) {
	case StakeDAOMeta:
		return meta.Rewards
	default:
		return nil
	}
}
