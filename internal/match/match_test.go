package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
)

var (
	target = address.MustNormalize("0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490")
	other  = address.MustNormalize("0xDC24316b9AE028F1497c275EB9192a3Ea0f67022")
	vault  = address.MustNormalize("0xB17640796e4c27a39AF51887aff3F8DC0daF9567")
)

func rec(tvl float64, addrs ...address.Address) model.IntermediateRecord {
	return model.IntermediateRecord{Source: model.SourceStakeDAO, Addresses: addrs, TVL: tvl, Yield: tvl / 1e5, HasYield: true}
}

func TestFindEmpty(t *testing.T) {
	res := Find(target, nil)
	require.False(t, res.Found)
	require.Zero(t, res.Candidates)
	require.False(t, res.Ambiguous())
}

func TestFindSingle(t *testing.T) {
	res := Find(target, []model.IntermediateRecord{rec(10, other), rec(5, other, target)})
	require.True(t, res.Found)
	require.Equal(t, 5.0, res.Record.TVL)
	require.Equal(t, 1, res.Candidates)
}

func TestFindNone(t *testing.T) {
	res := Find(target, []model.IntermediateRecord{rec(10, other), rec(20)})
	require.False(t, res.Found)
}

func TestFindPrefersGreatestTVL(t *testing.T) {
	res := Find(target, []model.IntermediateRecord{rec(100, target), rec(200, target)})
	require.True(t, res.Found)
	require.Equal(t, 200.0, res.Record.TVL)
	require.True(t, res.Ambiguous())

	res = Find(target, []model.IntermediateRecord{rec(2.85e6, target), rec(1.10e6, target)})
	require.Equal(t, 2.85e6, res.Record.TVL)
	require.InDelta(t, 28.5, res.Record.Yield, 1e-9)
}

func TestFindTieKeepsFirst(t *testing.T) {
	first := rec(100, target)
	first.Meta = model.StakeDAOMeta{Key: "first"}
	second := rec(100, target)
	second.Meta = model.StakeDAOMeta{Key: "second"}

	res := Find(target, []model.IntermediateRecord{first, second})
	require.Equal(t, "first", res.Record.Meta.(model.StakeDAOMeta).Key)
	require.Equal(t, 2, res.Candidates)
}

func TestFindNeverReturnsNonContainingRecord(t *testing.T) {
	cands := []model.IntermediateRecord{rec(1e9, other), rec(1, target), rec(1e12)}
	res := Find(target, cands)
	require.True(t, res.Found)
	require.True(t, address.Contains(res.Record.Addresses, target))
}

func TestFindZeroTarget(t *testing.T) {
	res := Find("", []model.IntermediateRecord{rec(1, target)})
	require.False(t, res.Found)
}

func TestByWrapper(t *testing.T) {
	wrapped := rec(1, other)
	wrapped.Wrappers = []address.Address{vault}

	res := ByWrapper(vault, []model.IntermediateRecord{rec(50, target), wrapped})
	require.True(t, res.Found)
	require.Equal(t, 1.0, res.Record.TVL)
}

func TestByVaultID(t *testing.T) {
	a := model.IntermediateRecord{Source: model.SourceBeefy, TVL: 1, Meta: model.BeefyMeta{VaultID: "curve-3pool"}}
	b := model.IntermediateRecord{Source: model.SourceBeefy, TVL: 2, Meta: model.BeefyMeta{VaultID: "curve-steth"}}

	res := ByVaultID("Curve-3Pool", []model.IntermediateRecord{a, b})
	require.True(t, res.Found)
	require.Equal(t, 1.0, res.Record.TVL)

	require.False(t, ByVaultID("", []model.IntermediateRecord{a, b}).Found)
	require.False(t, ByVaultID("missing", []model.IntermediateRecord{a, b}).Found)
}
