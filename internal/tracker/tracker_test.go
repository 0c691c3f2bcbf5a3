package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yieldScope/internal/address"
	"yieldScope/internal/merge"
	"yieldScope/internal/model"
	"yieldScope/internal/sources"
	"yieldScope/internal/transport"
)

var (
	lpToken  = address.MustNormalize("0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490")
	poolAddr = address.MustNormalize("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7")
	strategy = address.MustNormalize("0xB17640796e4c27a39AF51887aff3F8DC0daF9567")
)

type fakeBase map[string]model.CanonicalPoolRecord

func (f fakeBase) FetchBase(ctx context.Context, q model.PoolQuery) (model.CanonicalPoolRecord, error) {
	if _, isAddr := q.Address(); !isAddr && q.LooksLikeAddress() {
		_, err := address.Normalize(q.Pool)
		return model.CanonicalPoolRecord{}, err
	}
	rec, ok := f[q.Pool]
	if !ok {
		return model.CanonicalPoolRecord{}, fmt.Errorf("%w: %s", sources.ErrPoolNotFound, q.Pool)
	}
	return rec, nil
}

type fakeAdapter struct {
	source  model.Source
	chains  map[string]bool
	records []model.IntermediateRecord
	calls   int
}

func (f *fakeAdapter) Source() model.Source        { return f.source }
func (f *fakeAdapter) Supports(chain string) bool { return f.chains[chain] }

func (f *fakeAdapter) Fetch(ctx context.Context, chain string) []model.IntermediateRecord {
	f.calls++
	return f.records
}

func threePool() model.CanonicalPoolRecord {
	return model.CanonicalPoolRecord{
		Name:         "3pool",
		Chain:        "ethereum",
		Address:      poolAddr,
		LPToken:      lpToken,
		Coins:        []model.CoinShare{{Symbol: "DAI", Share: 0.3}, {Symbol: "USDC", Share: 0.2}, {Symbol: "USDT", Share: 0.5}},
		TVL:          53.85e6,
		BaseAPY:      2.31,
		CRV:          model.RewardRange{Min: 7.17, Max: 17.93},
		OtherRewards: []model.RewardEntry{},
	}
}

func stakeDAORecord(tvl, yield float64, key string) model.IntermediateRecord {
	return model.IntermediateRecord{
		Source:    model.SourceStakeDAO,
		Chain:     "ethereum",
		Addresses: []address.Address{lpToken},
		TVL:       tvl,
		HasTVL:    true,
		Yield:     yield,
		HasYield:  true,
		Meta:      model.StakeDAOMeta{Key: key, Boost: 2},
	}
}

func beefyRecord(tvl, yield float64, id string) model.IntermediateRecord {
	return model.IntermediateRecord{
		Source:    model.SourceBeefy,
		Chain:     "ethereum",
		Addresses: []address.Address{lpToken},
		TVL:       tvl,
		HasTVL:    true,
		Yield:     yield,
		HasYield:  true,
		Meta:      model.BeefyMeta{VaultID: id},
	}
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func events(logs *observer.ObservedLogs) []string {
	var out []string
	for _, entry := range logs.All() {
		if v, ok := entry.ContextMap()["event"]; ok {
			out = append(out, v.(string))
		}
	}
	return out
}

func TestTrackBeefyNoCandidates(t *testing.T) {
	stakeDAO := &fakeAdapter{source: model.SourceStakeDAO, chains: map[string]bool{"ethereum": true}}
	beefy := &fakeAdapter{source: model.SourceBeefy, chains: map[string]bool{"ethereum": true},
		records: []model.IntermediateRecord{{Source: model.SourceBeefy, Addresses: []address.Address{poolAddr}, HasYield: true, Meta: model.BeefyMeta{VaultID: "other"}}}}
	logger, logs := observed()
	tr := New(fakeBase{"3pool": threePool()}, stakeDAO, beefy, logger)

	report := tr.Run(context.Background(), []model.PoolQuery{{
		Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{Beefy: true},
	}})

	require.NoError(t, report.Fatal())
	records := report.Records()
	require.Len(t, records, 1)
	require.Equal(t, threePool(), records[0])
	require.Nil(t, records[0].StakeDAO)
	require.Nil(t, records[0].Beefy)
	require.False(t, report.Visibility.Has(merge.GroupStakeDAO))
	require.False(t, report.Visibility.Has(merge.GroupBeefy))
	require.Equal(t, 0, stakeDAO.calls)
	require.Equal(t, 1, beefy.calls)

	require.Equal(t, []string{"source_disabled", "match_none", "block_absent", "pool_resolved"}, events(logs))
}

func TestTrackAmbiguousPicksLargestTVL(t *testing.T) {
	stakeDAO := &fakeAdapter{source: model.SourceStakeDAO, chains: map[string]bool{"ethereum": true},
		records: []model.IntermediateRecord{stakeDAORecord(1.10e6, 9.0, "small"), stakeDAORecord(2.85e6, 12.5, "large")}}
	beefy := &fakeAdapter{source: model.SourceBeefy, chains: map[string]bool{"ethereum": true},
		records: []model.IntermediateRecord{beefyRecord(1.10e6, 4.0, "curve-3pool-b"), beefyRecord(2.85e6, 5.12, "curve-3pool")}}
	logger, logs := observed()
	tr := New(fakeBase{"3pool": threePool()}, stakeDAO, beefy, logger)

	rec, err := tr.Track(context.Background(), model.PoolQuery{
		Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{StakeDAO: true, Beefy: true},
	})
	require.NoError(t, err)
	require.Equal(t, &model.StakeDAOBlock{APY: 12.5, TVL: 2.85e6, Boost: 2}, rec.StakeDAO)
	require.Equal(t, &model.BeefyBlock{APY: 5.12, TVL: 2.85e6, VaultID: "curve-3pool"}, rec.Beefy)

	ambiguous := logs.FilterField(zap.String("event", "match_ambiguous")).All()
	require.Len(t, ambiguous, 2)
	require.Equal(t, zapcore.InfoLevel, ambiguous[0].Level)
}

func TestTrackUnsupportedChain(t *testing.T) {
	stakeDAO := &fakeAdapter{source: model.SourceStakeDAO, chains: map[string]bool{}, records: []model.IntermediateRecord{stakeDAORecord(1, 1, "x")}}
	logger, logs := observed()
	tr := New(fakeBase{"3pool": threePool()}, stakeDAO, nil, logger)

	rec, err := tr.Track(context.Background(), model.PoolQuery{
		Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{StakeDAO: true, Beefy: true},
	})
	require.NoError(t, err)
	require.Nil(t, rec.StakeDAO)
	require.Nil(t, rec.Beefy)
	require.Equal(t, 0, stakeDAO.calls)
	require.Len(t, logs.FilterField(zap.String("event", "source_unsupported")).All(), 2)
}

func TestTrackStrategyOverride(t *testing.T) {
	wrapped := stakeDAORecord(10, 3.3, "wrapped")
	wrapped.Addresses = nil
	wrapped.Wrappers = []address.Address{strategy}
	stakeDAO := &fakeAdapter{source: model.SourceStakeDAO, chains: map[string]bool{"ethereum": true},
		records: []model.IntermediateRecord{stakeDAORecord(1e9, 20, "by-lp"), wrapped}}
	tr := New(fakeBase{"3pool": threePool()}, stakeDAO, nil, nil)

	rec, err := tr.Track(context.Background(), model.PoolQuery{
		Chain: "ethereum", Pool: "3pool",
		Integrations: model.Integrations{StakeDAO: true},
		Overrides:    model.Overrides{Strategy: "0xB17640796E4C27A39AF51887AFF3F8DC0DAF9567"},
	})
	require.NoError(t, err)
	require.Equal(t, 3.3, rec.StakeDAO.APY)

	_, err = tr.Track(context.Background(), model.PoolQuery{
		Chain: "ethereum", Pool: "3pool",
		Integrations: model.Integrations{StakeDAO: true},
		Overrides:    model.Overrides{Strategy: "not-an-address"},
	})
	require.ErrorIs(t, err, address.ErrInvalidAddress)
}

func TestTrackVaultIDFallbackIsOverrideGated(t *testing.T) {
	unmatched := beefyRecord(5, 7.5, "curve-3pool")
	unmatched.Addresses = nil
	beefy := &fakeAdapter{source: model.SourceBeefy, chains: map[string]bool{"ethereum": true},
		records: []model.IntermediateRecord{unmatched}}
	tr := New(fakeBase{"3pool": threePool()}, nil, beefy, nil)
	q := model.PoolQuery{Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{Beefy: true}}

	rec, err := tr.Track(context.Background(), q)
	require.NoError(t, err)
	require.Nil(t, rec.Beefy)

	q.Overrides.VaultID = "curve-3pool"
	rec, err = tr.Track(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, &model.BeefyBlock{APY: 7.5, TVL: 5, VaultID: "curve-3pool"}, rec.Beefy)
}

func TestRunContinuesAfterFailures(t *testing.T) {
	stakeDAO := &fakeAdapter{source: model.SourceStakeDAO, chains: map[string]bool{"ethereum": true},
		records: []model.IntermediateRecord{stakeDAORecord(1, 4, "a")}}
	tr := New(fakeBase{"3pool": threePool()}, stakeDAO, nil, nil)

	report := tr.Run(context.Background(), []model.PoolQuery{
		{Chain: "ethereum", Pool: "missing"},
		{Chain: "ethereum", Pool: "0xZZ"},
		{Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{StakeDAO: true}},
	})

	require.Len(t, report.Results, 3)
	require.NoError(t, report.Fatal())
	failures := report.Failures()
	require.Len(t, failures, 2)
	require.Equal(t, "pool_not_found", FailureKind(failures[0].Err))
	require.Equal(t, "invalid_address", FailureKind(failures[1].Err))
	require.Len(t, report.Records(), 1)
	require.True(t, report.Visibility.Has(merge.GroupStakeDAO))
}

func TestRunSinglePoolFailureIsFatal(t *testing.T) {
	tr := New(fakeBase{}, nil, nil, nil)
	report := tr.Run(context.Background(), []model.PoolQuery{{Chain: "ethereum", Pool: "missing"}})
	require.ErrorIs(t, report.Fatal(), sources.ErrPoolNotFound)
	require.Equal(t, merge.RequiredGroups, report.Visibility.Groups())
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := New(fakeBase{"3pool": threePool()}, nil, nil, nil)
	report := tr.Run(ctx, []model.PoolQuery{{Chain: "ethereum", Pool: "3pool"}, {Chain: "ethereum", Pool: "3pool"}})
	require.Len(t, report.Failures(), 2)
	require.Equal(t, "canceled", FailureKind(report.Results[0].Err))
}

func adapterRoutes() map[string]string {
	return map[string]string{
		"/curve/getPools/all/ethereum": `{"data":{"poolData":[{"address":"0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7",
			"lpTokenAddress":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490","name":"3pool",
			"coins":[{"symbol":"DAI","poolBalance":"1000000000000000000","decimals":18,"usdPrice":1},
			         {"symbol":"USDC","poolBalance":"1000000","decimals":6,"usdPrice":1}]}]}}`,
		"/curve/getBaseApys/ethereum": `{"data":{"baseApys":[{"address":"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7","latestDailyApyPcent":2.31}]}}`,
		"/curve/getVolumes/ethereum":  `{"data":{"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7":{"usdTotal":53850000}}}`,
		"/curve/getAllGauges":         `{"data":{"g":{"swap":"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7","gaugeCrvApy":[7.17,17.93]}}}`,
		"/beefy/vaults": `[{"id":"curve-other","chain":"ethereum","status":"active","platformId":"curve",
			"tokenAddress":"0xDC24316b9AE028F1497c275EB9192a3Ea0f67022"}]`,
		"/beefy/apy/breakdown": `{"curve-other":{"totalApy":0.05}}`,
		"/beefy/tvl":           `{"1":{"curve-other":10}}`,
		"/stakedao/1.json": `[{"lpToken":{"address":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"},"tvl":2850000,"apr":{"current":{"total":12.5,"boost":2.5}},
			"rewards":[{"token":{"symbol":"SDT"},"apr":1.5}]},
			{"lpToken":{"address":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"},"tvl":1100000,"apr":{"total":30}}]`,
	}
}

// newAdapterTracker wires the real adapters to a server answering routes.
// Paths mapped to "" answer 503.
func newAdapterTracker(t *testing.T, routes map[string]string, logger *zap.Logger) *Tracker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	fetcher := transport.NewHTTPClient(transport.Options{Timeout: 5 * time.Second}, nil)
	return New(
		sources.NewCurve(srv.URL+"/curve", fetcher, nil, logger),
		sources.NewStakeDAO(srv.URL+"/stakedao", fetcher, logger),
		sources.NewBeefy(srv.URL+"/beefy", fetcher, logger),
		logger,
	)
}

// TestEndToEndWithAdapters drives the real adapters over canned payloads.
func TestEndToEndWithAdapters(t *testing.T) {
	tr := newAdapterTracker(t, adapterRoutes(), nil)

	report := tr.Run(context.Background(), []model.PoolQuery{
		{Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{Beefy: true}},
	})
	require.NoError(t, report.Fatal())
	rec := report.Records()[0]
	require.Equal(t, 53850000.0, rec.TVL)
	require.Equal(t, 2.31, rec.BaseAPY)
	require.Equal(t, model.RewardRange{Min: 7.17, Max: 17.93}, rec.CRV)
	require.Empty(t, rec.OtherRewards)
	require.Nil(t, rec.StakeDAO)
	require.Nil(t, rec.Beefy)
	require.Equal(t, merge.RequiredGroups, report.Visibility.Groups())

	report = tr.Run(context.Background(), []model.PoolQuery{
		{Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{StakeDAO: true}},
	})
	rec = report.Records()[0]
	require.Equal(t, &model.StakeDAOBlock{APY: 12.5, TVL: 2850000, Boost: 2.5}, rec.StakeDAO)
	require.Equal(t, []model.RewardEntry{{Token: "SDT", APY: 1.5}}, rec.OtherRewards)
	require.True(t, report.Visibility.Has(merge.GroupStakeDAO))
}

func TestEndToEndBeefyTVLUnavailable(t *testing.T) {
	routes := adapterRoutes()
	routes["/beefy/vaults"] = `[{"id":"curve-3pool","chain":"ethereum","status":"active","platformId":"curve",
		"tokenAddress":"0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"}]`
	routes["/beefy/apy/breakdown"] = `{"curve-3pool":{"totalApy":0.05}}`
	routes["/beefy/tvl"] = ""
	logger, logs := observed()
	tr := newAdapterTracker(t, routes, logger)

	report := tr.Run(context.Background(), []model.PoolQuery{
		{Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{Beefy: true}},
	})
	require.NoError(t, report.Fatal())
	rec := report.Records()[0]
	require.Nil(t, rec.Beefy)
	require.False(t, report.Visibility.Has(merge.GroupBeefy))

	absent := logs.FilterField(zap.String("event", "block_absent")).All()
	require.Len(t, absent, 1)
	require.Equal(t, "no_tvl", absent[0].ContextMap()["reason"])

	// Once the figure is reported the block is populated.
	routes["/beefy/tvl"] = `{"1":{"curve-3pool":1100000}}`
	rec = tr.Run(context.Background(), []model.PoolQuery{
		{Chain: "ethereum", Pool: "3pool", Integrations: model.Integrations{Beefy: true}},
	}).Records()[0]
	require.Equal(t, &model.BeefyBlock{APY: 5, TVL: 1100000, VaultID: "curve-3pool"}, rec.Beefy)
}
