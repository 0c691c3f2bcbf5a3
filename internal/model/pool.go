package model

import "yieldScope/internal/address"

// CoinShare is one pool coin and its fraction of the pool's USD value.
type CoinShare struct {
	Symbol string  `json:"symbol"`
	Share  float64 `json:"share"`
}

// RewardRange is the CRV reward yield without boost (Min) and at the boost
// ceiling (Max). Min <= Max.
type RewardRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RewardEntry is a non-CRV reward token and its yield contribution in percent.
type RewardEntry struct {
	Token string  `json:"token"`
	APY   float64 `json:"apy"`
}

// StakeDAOBlock is present only when the integration is enabled and a
// strategy matched.
type StakeDAOBlock struct {
	APY   float64 `json:"apy"`
	TVL   float64 `json:"tvl"`
	Boost float64 `json:"boost"`
}

// BeefyBlock is present only when the integration is enabled and a vault
// matched.
type BeefyBlock struct {
	APY     float64 `json:"apy"`
	TVL     float64 `json:"tvl"`
	VaultID string  `json:"vault_id"`
}

// CanonicalPoolRecord is the merged per-pool result.
type CanonicalPoolRecord struct {
	Name         string          `json:"name"`
	Chain        string          `json:"chain"`
	Address      address.Address `json:"address"`
	LPToken      address.Address `json:"lp_token"`
	Coins        []CoinShare     `json:"coins"`
	TVL          float64         `json:"tvl"`
	BaseAPY      float64         `json:"base_apy"`
	CRV          RewardRange     `json:"crv_apy"`
	OtherRewards []RewardEntry   `json:"other_rewards"`

	StakeDAO *StakeDAOBlock `json:"stakedao,omitempty"`
	Beefy    *BeefyBlock    `json:"beefy,omitempty"`
}

// Clone returns a deep copy so callers cannot share slices with r.
func (r CanonicalPoolRecord) Clone() CanonicalPoolRecord {
	out := r
	out.Coins = append([]CoinShare(nil), r.Coins...)
	out.OtherRewards = append([]RewardEntry(nil), r.OtherRewards...)
	if r.StakeDAO != nil {
		block := *r.StakeDAO
		out.StakeDAO = &block
	}
	if r.Beefy != nil {
		block := *r.Beefy
		out.Beefy = &block
	}
	return out
}

// CoinSymbols lists the coin symbols in pool order.
func (r CanonicalPoolRecord) CoinSymbols() []string {
	out := make([]string, 0, len(r.Coins))
	for _, c := range r.Coins {
		out = append(out, c.Symbol)
	}
	return out
}
