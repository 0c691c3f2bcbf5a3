package sources

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
	"yieldScope/internal/numeric"
	"yieldScope/internal/transport"
)

const DefaultStakeDAOURL = "https://api.stakedao.org/api/strategies/curve"

// Yield paths, newest API revision first.
var (
	stakeDAOYieldPaths = [][]string{{"apr", "current", "total"}, {"apr", "total"}}
	stakeDAOBoostPaths = [][]string{{"apr", "current", "boost"}, {"apr", "boost"}}
)

// Keys under which an object root may wrap the strategy list.
var stakeDAOListKeys = []string{"deployed", "strategies", "data"}

// StakeDAO reads liquid-locker strategies, one file per chain.
type StakeDAO struct {
	baseURL string
	fetcher transport.Fetcher
	logger  *zap.Logger
}

func NewStakeDAO(baseURL string, fetcher transport.Fetcher, logger *zap.Logger) *StakeDAO {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultStakeDAOURL
	}
	return &StakeDAO{baseURL: baseURL, fetcher: fetcher, logger: logger}
}

func (s *StakeDAO) Source() model.Source { return model.SourceStakeDAO }

func (s *StakeDAO) Supports(chain string) bool { return inSet(stakeDAOChains, chain) }

func (s *StakeDAO) Fetch(ctx context.Context, chain string) []model.IntermediateRecord {
	return degrade(ctx, s.logger, s.Source(), chainKey(chain), s.records)
}

func (s *StakeDAO) records(ctx context.Context, chain string) ([]model.IntermediateRecord, error) {
	id, ok := chainIDs[chain]
	if !ok {
		return nil, fmt.Errorf("%w: stakedao: no chain id for %q", ErrSourceUnavailable, chain)
	}
	payload, err := s.fetcher.GetJSON(ctx, joinURL(s.baseURL, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: stakedao: %v", ErrSourceUnavailable, err)
	}
	items, err := strategyList(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: stakedao: %v", ErrSourceUnavailable, err)
	}

	out := make([]model.IntermediateRecord, 0, len(items))
	for _, item := range items {
		obj, ok := object(item)
		if !ok {
			continue
		}
		out = append(out, parseStrategy(chain, obj))
	}
	return out, nil
}

// strategyList accepts a bare list or an object wrapping it.
func strategyList(payload any) ([]any, error) {
	if items, ok := list(payload); ok {
		return items, nil
	}
	root, ok := object(payload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload root %T", payload)
	}
	for _, key := range stakeDAOListKeys {
		if items, ok := list(root[key]); ok {
			return items, nil
		}
	}
	return nil, fmt.Errorf("no strategy list under %v", stakeDAOListKeys)
}

func parseStrategy(chain string, obj map[string]any) model.IntermediateRecord {
	rec := model.IntermediateRecord{
		Source:    model.SourceStakeDAO,
		Chain:     chain,
		Addresses: address.Collect(strAt(obj, "lpToken", "address"), strAt(obj, "lpToken")),
		Wrappers:  address.Collect(strAt(obj, "vault"), strAt(obj, "gaugeAddress"), strAt(obj, "sdGauge", "address")),
	}
	if tvl, ok := floatAt(obj, "tvl"); ok {
		rec.TVL = tvl
		rec.HasTVL = true
	}

	// The newer path wins whenever it is present, even if the older one
	// disagrees.
	if yield, ok := firstFloat(obj, stakeDAOYieldPaths...); ok {
		rec.Yield = numeric.Percent(yield)
		rec.HasYield = true
	}

	boost, ok := firstFloat(obj, stakeDAOBoostPaths...)
	if !ok || boost <= 0 {
		boost = 1
	}

	key := strAt(obj, "key")
	if key == "" {
		key = strAt(obj, "name")
	}
	vault, _ := address.Normalize(strAt(obj, "vault"))
	rec.Meta = model.StakeDAOMeta{
		Key:     key,
		Boost:   boost,
		Vault:   vault,
		Rewards: strategyRewards(obj["rewards"]),
	}
	return rec
}

func strategyRewards(raw any) []model.RewardEntry {
	items, _ := list(raw)
	out := make([]model.RewardEntry, 0, len(items))
	for _, item := range items {
		symbol := strAt(item, "token", "symbol")
		if symbol == "" {
			symbol = strAt(item, "symbol")
		}
		apr, ok := floatAt(item, "apr")
		if symbol == "" || !ok {
			continue
		}
		out = append(out, model.RewardEntry{Token: symbol, APY: numeric.Percent(apr)})
	}
	return out
}
