package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
)

const stakeDAOList = `[
 {"key":"sd-3pool","lpToken":{"address":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490","symbol":"3Crv"},
  "vault":"0xB17640796e4c27a39AF51887aff3F8DC0daF9567","gaugeAddress":"0xbFcF63294aD7105dEa65aA58F8AE5BE2D9d0952A",
  "sdGauge":{"address":"0x7f50786A0b15723D741727882ee99a0BF34e3466"},
  "tvl":2850000,"apr":{"current":{"total":12.5,"boost":2.1},"total":99},
  "rewards":[{"token":{"symbol":"CRV"},"apr":8.1},{"token":{"symbol":"SDT"},"apr":0.021}]},
 {"key":"sd-legacy","lpToken":"0x6C3F90F043A72FA612CBAC8115EE7E52BDE6E490","tvl":"1100000","apr":{"total":0.075,"boost":1.8}},
 {"key":"sd-noapr","lpToken":{"address":"0xDC24316b9AE028F1497c275EB9192a3Ea0f67022"},"tvl":10}
]`

func TestStakeDAOParsesBothRevisions(t *testing.T) {
	srv := newFixtureServer(t, map[string]string{"/1.json": stakeDAOList})
	s := NewStakeDAO(srv.URL, testFetcher(), nil)

	records := s.Fetch(context.Background(), "ethereum")
	require.Len(t, records, 3)
	lp := address.MustNormalize(threePoolLP)

	newer := records[0]
	require.Equal(t, model.SourceStakeDAO, newer.Source)
	require.Equal(t, []address.Address{lp}, newer.Addresses)
	require.Len(t, newer.Wrappers, 3)
	require.True(t, newer.HasTVL)
	require.Equal(t, 2850000.0, newer.TVL)
	// The newer path wins over the older one.
	require.True(t, newer.HasYield)
	require.Equal(t, 12.5, newer.Yield)
	meta := newer.Meta.(model.StakeDAOMeta)
	require.Equal(t, 2.1, meta.Boost)
	require.Equal(t, "sd-3pool", meta.Key)
	require.Equal(t, address.MustNormalize("0xB17640796e4c27a39AF51887aff3F8DC0daF9567"), meta.Vault)
	require.Len(t, meta.Rewards, 2)
	require.InDelta(t, 2.1, meta.Rewards[1].APY, 1e-9)

	legacy := records[1]
	require.Equal(t, []address.Address{lp}, legacy.Addresses)
	require.Equal(t, 1100000.0, legacy.TVL)
	require.True(t, legacy.HasYield)
	require.InDelta(t, 7.5, legacy.Yield, 1e-9)
	require.Equal(t, 1.8, legacy.Meta.(model.StakeDAOMeta).Boost)

	noAPR := records[2]
	require.True(t, noAPR.HasTVL)
	require.False(t, noAPR.HasYield)
	require.Equal(t, 1.0, noAPR.Meta.(model.StakeDAOMeta).Boost)
}

func TestStakeDAOWrappedRoots(t *testing.T) {
	for _, key := range []string{"deployed", "strategies", "data"} {
		t.Run(key, func(t *testing.T) {
			srv := newFixtureServer(t, map[string]string{"/42161.json": `{"` + key + `":` + stakeDAOList + `}`})
			s := NewStakeDAO(srv.URL, testFetcher(), nil)
			require.Len(t, s.Fetch(context.Background(), "arbitrum"), 3)
		})
	}
}

func TestStakeDAODegrades(t *testing.T) {
	srv := newFixtureServer(t, map[string]string{
		"/1.json":    `{"unexpected":true}`,
		"/8453.json": "",
	})
	s := NewStakeDAO(srv.URL, testFetcher(), nil)
	ctx := context.Background()

	require.Empty(t, s.Fetch(ctx, "ethereum"))
	require.Empty(t, s.Fetch(ctx, "base"))
	require.Empty(t, s.Fetch(ctx, "polygon"))

	_, err := s.records(ctx, "ethereum")
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestStakeDAOSupports(t *testing.T) {
	s := NewStakeDAO("", nil, nil)
	require.True(t, s.Supports("Ethereum"))
	require.True(t, s.Supports("fraxtal"))
	require.False(t, s.Supports("optimism"))
	require.Equal(t, model.SourceStakeDAO, s.Source())
}
