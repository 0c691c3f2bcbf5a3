package model

import (
	"errors"
	"strings"

	"yieldScope/internal/address"
)

// Integrations is the resolved enable state of the optional sources for one
// pool. It is computed once from CLI, file and default tiers and never
// re-resolved downstream.
type Integrations struct {
	StakeDAO bool `json:"stakedao"`
	Beefy    bool `json:"beefy"`
}

// ErrSharedOverrides rejects one vault id or strategy override spread over
// several pools. Overrides name a single vault or strategy.
var ErrSharedOverrides = errors.New("vault id and strategy overrides apply to exactly one pool")

// Overrides bypass automatic matching when set.
type Overrides struct {
	VaultID  string `json:"vault_id,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

func (o Overrides) IsZero() bool {
	return o.VaultID == "" && o.Strategy == ""
}

// PoolQuery identifies one pool to track.
type PoolQuery struct {
	Chain        string       `json:"chain"`
	Pool         string       `json:"pool"`
	Integrations Integrations `json:"integrations"`
	Overrides    Overrides    `json:"overrides"`
}

// Address returns the canonical address when Pool is one.
func (q PoolQuery) Address() (address.Address, bool) {
	addr, err := address.Normalize(q.Pool)
	if err != nil {
		return "", false
	}
	return addr, true
}

// LooksLikeAddress reports whether Pool carries a 0x prefix. A prefixed Pool
// that fails Address is a malformed address, not a name.
func (q PoolQuery) LooksLikeAddress() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(q.Pool)), "0x")
}

// ChainKey is the lowercase chain identifier.
func (q PoolQuery) ChainKey() string {
	return strings.ToLower(strings.TrimSpace(q.Chain))
}

// String renders the query for logs.
func (q PoolQuery) String() string {
	return q.ChainKey() + "/" + q.Pool
}
