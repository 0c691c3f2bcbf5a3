package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
	"yieldScope/internal/numeric"
	"yieldScope/internal/transport"
)

const (
	DefaultCurveURL = "https://api.curve.finance/v1"

	// BoostCeiling is the maximum CRV boost a locker can reach.
	BoostCeiling = 2.5

	sideChainRewardsLabel = "Side Chain Rewards"
	crvSymbol             = "CRV"
)

// SymbolLookup resolves reward tokens the API lists without a symbol.
type SymbolLookup interface {
	Supports(chain string) bool
	Symbol(ctx context.Context, chain string, token address.Address) (string, error)
}

// Curve is the primary source. Every query re-fetches its endpoints.
type Curve struct {
	baseURL string
	fetcher transport.Fetcher
	symbols SymbolLookup
	logger  *zap.Logger
}

// NewCurve builds the primary adapter. symbols may be nil.
func NewCurve(baseURL string, fetcher transport.Fetcher, symbols SymbolLookup, logger *zap.Logger) *Curve {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultCurveURL
	}
	return &Curve{baseURL: baseURL, fetcher: fetcher, symbols: symbols, logger: logger}
}

func (c *Curve) Source() model.Source { return model.SourceCurve }

func (c *Curve) Supports(chain string) bool { return inSet(curveChains, chain) }

// Fetch returns one record per pool listed for chain.
func (c *Curve) Fetch(ctx context.Context, chain string) []model.IntermediateRecord {
	return degrade(ctx, c.logger, c.Source(), chainKey(chain), c.records)
}

func (c *Curve) records(ctx context.Context, chain string) ([]model.IntermediateRecord, error) {
	snap, err := c.load(ctx, chain)
	if err != nil {
		return nil, err
	}
	out := make([]model.IntermediateRecord, 0, len(snap.pools))
	for _, pool := range snap.pools {
		poolAddr, lpToken := poolAddresses(pool)
		if poolAddr.IsZero() {
			continue
		}
		baseAPY, hasAPY := snap.baseAPY(poolAddr)
		out = append(out, model.IntermediateRecord{
			Source:    model.SourceCurve,
			Chain:     chain,
			Addresses: address.Collect(lpToken.String(), poolAddr.String()),
			Wrappers:  address.Collect(strAt(pool, "gaugeAddress")),
			TVL:       snap.tvl(pool, poolAddr),
			HasTVL:    true,
			Yield:     baseAPY,
			HasYield:  hasAPY,
			Meta:      model.CurveMeta{Name: strAt(pool, "name"), PoolAddress: poolAddr},
		})
	}
	return out, nil
}

// FetchBase resolves a query against the primary source and builds the
// required part of the canonical record.
func (c *Curve) FetchBase(ctx context.Context, q model.PoolQuery) (model.CanonicalPoolRecord, error) {
	chain := q.ChainKey()
	if !c.Supports(chain) {
		return model.CanonicalPoolRecord{}, fmt.Errorf("%w: chain %q is not covered", ErrPoolNotFound, chain)
	}

	target, isAddr := q.Address()
	if !isAddr && q.LooksLikeAddress() {
		_, err := address.Normalize(q.Pool)
		return model.CanonicalPoolRecord{}, err
	}

	snap, err := c.load(ctx, chain)
	if err != nil {
		return model.CanonicalPoolRecord{}, err
	}

	var pool map[string]any
	if isAddr {
		pool = snap.byAddress(target)
	} else {
		pool = snap.byName(q.Pool)
	}
	if pool == nil {
		return model.CanonicalPoolRecord{}, fmt.Errorf("%w: %q on %s", ErrPoolNotFound, q.Pool, chain)
	}
	return c.build(ctx, snap, pool), nil
}

// FetchRewardRange returns the CRV reward range of a pool's gauge.
func (c *Curve) FetchRewardRange(ctx context.Context, pool address.Address, chain string) (model.RewardRange, error) {
	payload, err := c.fetcher.GetJSON(ctx, joinURL(c.baseURL, "getAllGauges"))
	if err != nil {
		return model.RewardRange{}, fmt.Errorf("%w: curve gauges: %v", ErrSourceUnavailable, err)
	}
	snap := &curveSnapshot{chain: chainKey(chain)}
	snap.gauges, _ = object(dataOf(payload))
	return rewardRange(snap.gauge(pool, "")), nil
}

func (c *Curve) build(ctx context.Context, snap *curveSnapshot, pool map[string]any) model.CanonicalPoolRecord {
	poolAddr, lpToken := poolAddresses(pool)
	if lpToken.IsZero() {
		lpToken = poolAddr
	}
	name := strAt(pool, "name")
	if name == "" {
		name = "Unknown"
	}
	baseAPY, _ := snap.baseAPY(poolAddr)
	gauge := snap.gauge(poolAddr, lpToken)
	coins, _ := coinShares(pool["coins"])

	return model.CanonicalPoolRecord{
		Name:         name,
		Chain:        snap.chain,
		Address:      poolAddr,
		LPToken:      lpToken,
		Coins:        coins,
		TVL:          snap.tvl(pool, poolAddr),
		BaseAPY:      baseAPY,
		CRV:          rewardRange(gauge),
		OtherRewards: c.otherRewards(ctx, snap.chain, pool, gauge),
	}
}

// otherRewards lists the non-CRV gauge rewards plus the side-chain figure.
func (c *Curve) otherRewards(ctx context.Context, chain string, pool, gauge map[string]any) []model.RewardEntry {
	out := []model.RewardEntry{}
	items, _ := list(pool["gaugeRewards"])
	for _, item := range items {
		apy, ok := floatAt(item, "apy")
		if !ok || apy <= 0 {
			continue
		}
		symbol := strAt(item, "symbol")
		if symbol == "" {
			symbol = c.resolveSymbol(ctx, chain, strAt(item, "tokenAddress"))
		}
		if strings.EqualFold(symbol, crvSymbol) {
			continue
		}
		out = append(out, model.RewardEntry{Token: symbol, APY: apy})
	}

	// sideChainRewardsApy is a fraction.
	if side, ok := floatAt(gauge, "sideChainRewardsApy"); ok && side > 0 {
		out = append(out, model.RewardEntry{Token: sideChainRewardsLabel, APY: side * 100})
	}
	return out
}

func (c *Curve) resolveSymbol(ctx context.Context, chain, raw string) string {
	token, err := address.Normalize(raw)
	if err != nil {
		return "Unknown"
	}
	fallback := token.String()[:10]
	if c.symbols == nil || !c.symbols.Supports(chain) {
		return fallback
	}
	symbol, err := c.symbols.Symbol(ctx, chain, token)
	if err != nil {
		c.logger.Debug("reward symbol lookup failed", zap.String("token", token.String()), zap.Error(err))
		return fallback
	}
	return symbol
}

// rewardRange derives (min, max) CRV yield from gauge data. The future rate
// is preferred when it carries any positive value.
func rewardRange(gauge map[string]any) model.RewardRange {
	if gauge == nil {
		return model.RewardRange{}
	}
	values := floats(gauge["gaugeFutureCrvApy"])
	if !anyPositive(values) {
		values = floats(gauge["gaugeCrvApy"])
	}
	switch {
	case len(values) >= 2:
		lo, hi := values[0], values[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		return model.RewardRange{Min: lo, Max: hi}
	case len(values) == 1:
		return model.RewardRange{Min: values[0], Max: values[0] * BoostCeiling}
	default:
		return model.RewardRange{}
	}
}

func anyPositive(values []float64) bool {
	for _, v := range values {
		if v > 0 {
			return true
		}
	}
	return false
}

// coinShares values each coin in USD and returns the fractions of the total.
func coinShares(raw any) ([]model.CoinShare, decimal.Decimal) {
	items, _ := list(raw)
	out := make([]model.CoinShare, 0, len(items))
	values := make([]decimal.Decimal, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		obj, ok := object(item)
		if !ok {
			out = append(out, model.CoinShare{Symbol: fmt.Sprint(item)})
			values = append(values, decimal.Zero)
			continue
		}
		symbol := strAt(obj, "symbol")
		if symbol == "" {
			symbol = "Unknown"
		}
		value := decimal.Zero
		balance, okBalance := numeric.Decimal(obj["poolBalance"])
		price, okPrice := numeric.Decimal(obj["usdPrice"])
		if okBalance && okPrice {
			decimals := numeric.Int(obj["decimals"], 18)
			value = balance.Shift(int32(-decimals)).Mul(price)
		}
		out = append(out, model.CoinShare{Symbol: symbol})
		values = append(values, value)
		total = total.Add(value)
	}

	if total.IsPositive() {
		for i := range out {
			out[i].Share = values[i].Div(total).InexactFloat64()
		}
	}
	return out, total
}

func poolAddresses(pool map[string]any) (address.Address, address.Address) {
	poolAddr, _ := address.Normalize(strAt(pool, "address"))
	lpToken, _ := address.Normalize(strAt(pool, "lpTokenAddress"))
	return poolAddr, lpToken
}

func dataOf(payload any) any {
	if data, ok := lookup(payload, "data"); ok {
		return data
	}
	return nil
}

// curveSnapshot holds the four endpoint payloads of one chain for one query.
type curveSnapshot struct {
	chain   string
	pools   []map[string]any
	apys    map[address.Address]map[string]any
	volumes map[string]any
	gauges  map[string]any
}

// load fetches the pool list (required) and the APY, volume and gauge
// payloads (best effort) concurrently.
func (c *Curve) load(ctx context.Context, chain string) (*curveSnapshot, error) {
	snap := &curveSnapshot{chain: chain}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		payload, err := c.fetcher.GetJSON(gctx, joinURL(c.baseURL, "getPools", "all", chain))
		if err != nil {
			return fmt.Errorf("getPools: %w", err)
		}
		items, ok := list(dataAt(payload, "poolData"))
		if !ok {
			return fmt.Errorf("getPools: missing data.poolData")
		}
		pools := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if obj, ok := object(item); ok {
				pools = append(pools, obj)
			}
		}
		snap.pools = pools
		return nil
	})
	g.Go(func() error {
		payload, err := c.fetcher.GetJSON(gctx, joinURL(c.baseURL, "getBaseApys", chain))
		if err != nil {
			c.logger.Warn("curve base apys unavailable", zap.String("chain", chain), zap.Error(err))
			return nil
		}
		items, _ := list(dataAt(payload, "baseApys"))
		apys := make(map[address.Address]map[string]any, len(items))
		for _, item := range items {
			obj, ok := object(item)
			if !ok {
				continue
			}
			if addr, err := address.Normalize(strAt(obj, "address")); err == nil {
				apys[addr] = obj
			}
		}
		snap.apys = apys
		return nil
	})
	g.Go(func() error {
		payload, err := c.fetcher.GetJSON(gctx, joinURL(c.baseURL, "getVolumes", chain))
		if err != nil {
			c.logger.Warn("curve volumes unavailable", zap.String("chain", chain), zap.Error(err))
			return nil
		}
		snap.volumes, _ = object(dataOf(payload))
		return nil
	})
	g.Go(func() error {
		payload, err := c.fetcher.GetJSON(gctx, joinURL(c.baseURL, "getAllGauges"))
		if err != nil {
			c.logger.Warn("curve gauges unavailable", zap.Error(err))
			return nil
		}
		snap.gauges, _ = object(dataOf(payload))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: curve %s: %v", ErrSourceUnavailable, chain, err)
	}
	return snap, nil
}

func dataAt(payload any, key string) any {
	v, _ := lookup(payload, "data", key)
	return v
}

func (s *curveSnapshot) byAddress(target address.Address) map[string]any {
	for _, pool := range s.pools {
		poolAddr, lpToken := poolAddresses(pool)
		if poolAddr == target || lpToken == target {
			return pool
		}
	}
	return nil
}

// byName prefers an exact case-insensitive name, then containment in either
// direction. Empty names never match.
func (s *curveSnapshot) byName(name string) map[string]any {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}
	for _, pool := range s.pools {
		if strings.ToLower(strAt(pool, "name")) == want {
			return pool
		}
	}
	for _, pool := range s.pools {
		have := strings.ToLower(strAt(pool, "name"))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return pool
		}
	}
	return nil
}

// baseAPY is the daily fee yield when positive, else the weekly one.
func (s *curveSnapshot) baseAPY(pool address.Address) (float64, bool) {
	entry, ok := s.apys[pool]
	if !ok {
		return 0, false
	}
	if daily, ok := floatAt(entry, "latestDailyApyPcent"); ok && daily > 0 {
		return daily, true
	}
	weekly, _ := floatAt(entry, "latestWeeklyApyPcent")
	return weekly, true
}

// tvl prefers the volumes payload, then the pool's own usdTotal, then the sum
// of coin values.
func (s *curveSnapshot) tvl(pool map[string]any, poolAddr address.Address) float64 {
	if v, ok := s.volumeTVL(poolAddr); ok {
		return v
	}
	if v, ok := floatAt(pool, "usdTotal"); ok && v > 0 {
		return v
	}
	_, total := coinShares(pool["coins"])
	return total.InexactFloat64()
}

func (s *curveSnapshot) volumeTVL(pool address.Address) (float64, bool) {
	if s.volumes == nil {
		return 0, false
	}
	for key, entry := range s.volumes {
		if addr, err := address.Normalize(key); err == nil && addr == pool {
			if v, ok := floatAt(entry, "usdTotal"); ok && v > 0 {
				return v, true
			}
		}
	}
	items, _ := list(s.volumes["pools"])
	for _, item := range items {
		if addr, err := address.Normalize(strAt(item, "address")); err == nil && addr == pool {
			if v, ok := floatAt(item, "usdTotal"); ok && v > 0 {
				return v, true
			}
		}
	}
	return 0, false
}

// gauge finds the gauge whose swap is pool (or whose LP token is lpToken) on
// the snapshot chain. Live gauges win over killed ones; keys are visited in
// sorted order so the choice is stable.
func (s *curveSnapshot) gauge(pool, lpToken address.Address) map[string]any {
	if s.gauges == nil {
		return nil
	}
	keys := make([]string, 0, len(s.gauges))
	for key := range s.gauges {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var killed map[string]any
	for _, key := range keys {
		entry, ok := object(s.gauges[key])
		if !ok {
			continue
		}
		if id := strings.ToLower(strAt(entry, "blockchainId")); id != "" && id != s.chain {
			continue
		}
		swap, _ := address.Normalize(strAt(entry, "swap"))
		swapToken, _ := address.Normalize(strAt(entry, "swap_token"))
		if !(swap == pool && !pool.IsZero()) && !(swapToken == lpToken && !lpToken.IsZero()) {
			continue
		}
		if isKilled, _ := entry["is_killed"].(bool); isKilled {
			if killed == nil {
				killed = entry
			}
			continue
		}
		return entry
	}
	return killed
}
