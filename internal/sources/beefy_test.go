package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
)

const beefyVaults = `[
 {"id":"curve-3pool","chain":"ethereum","status":"active","platformId":"curve",
  "tokenAddress":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490","earnContractAddress":"0x1111111111111111111111111111111111111111"},
 {"id":"convex-3pool","chain":"ethereum","status":"active","platformId":"convex","tokenProviderId":"curve",
  "tokenAddress":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490","earnContractAddress":"0x2222222222222222222222222222222222222222"},
 {"id":"curve-old","chain":"ethereum","status":"eol","platformId":"curve",
  "tokenAddress":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"},
 {"id":"aero-pool","chain":"ethereum","status":"active","platformId":"aerodrome",
  "tokenAddress":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"},
 {"id":"curve-arb","chain":"arbitrum","status":"active","platformId":"curve",
  "tokenAddress":"0x7f90122BF0700F9E7e1F688fe926940E8839F353"}
]`

const beefyBreakdown = `{
 "curve-3pool":{"totalApy":0.0512,"vaultApr":0.05},
 "curve-arb":{"totalApy":0.2}
}`

const beefyTVL = `{"1":{"curve-3pool":2850000,"convex-3pool":1100000},"42161":{"curve-arb":5}}`

func beefyRoutes() map[string]string {
	return map[string]string{
		"/vaults":        beefyVaults,
		"/apy/breakdown": beefyBreakdown,
		"/tvl":           beefyTVL,
	}
}

func TestBeefyFetch(t *testing.T) {
	srv := newFixtureServer(t, beefyRoutes())
	b := NewBeefy(srv.URL, testFetcher(), nil)

	records := b.Fetch(context.Background(), "ethereum")
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, model.SourceBeefy, first.Source)
	require.Equal(t, []address.Address{address.MustNormalize(threePoolLP)}, first.Addresses)
	require.Equal(t, []address.Address{address.MustNormalize("0x1111111111111111111111111111111111111111")}, first.Wrappers)
	require.True(t, first.HasYield)
	require.InDelta(t, 5.12, first.Yield, 1e-9)
	require.True(t, first.HasTVL)
	require.Equal(t, 2850000.0, first.TVL)
	require.Equal(t, model.BeefyMeta{VaultID: "curve-3pool"}, first.Meta)

	second := records[1]
	require.False(t, second.HasYield)
	require.Equal(t, 1100000.0, second.TVL)
}

func TestBeefyTVLUnreported(t *testing.T) {
	routes := beefyRoutes()
	delete(routes, "/tvl")
	srv := newFixtureServer(t, routes)
	b := NewBeefy(srv.URL, testFetcher(), nil)

	records := b.Fetch(context.Background(), "arbitrum")
	require.Len(t, records, 1)
	require.False(t, records[0].HasTVL)
	require.Equal(t, 0.0, records[0].TVL)
	require.InDelta(t, 20.0, records[0].Yield, 1e-9)
}

func TestBeefyDegrades(t *testing.T) {
	routes := beefyRoutes()
	routes["/vaults"] = ""
	srv := newFixtureServer(t, routes)
	b := NewBeefy(srv.URL, testFetcher(), nil)

	require.Empty(t, b.Fetch(context.Background(), "ethereum"))
	_, err := b.records(context.Background(), "ethereum")
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestBeefySupports(t *testing.T) {
	b := NewBeefy("", nil, nil)
	require.True(t, b.Supports("avalanche"))
	require.False(t, b.Supports("celo"))
	require.Equal(t, "avax", beefyChainName("Avalanche"))
}
