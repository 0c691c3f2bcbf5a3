package sources

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yieldScope/internal/address"
	"yieldScope/internal/model"
	"yieldScope/internal/numeric"
	"yieldScope/internal/transport"
)

const (
	DefaultBeefyURL = "https://api.beefy.finance"

	beefyPlatform = "curve"
	beefyActive   = "active"
)

// Beefy reads auto-compounding vaults built on Curve pools.
type Beefy struct {
	baseURL string
	fetcher transport.Fetcher
	logger  *zap.Logger
}

func NewBeefy(baseURL string, fetcher transport.Fetcher, logger *zap.Logger) *Beefy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBeefyURL
	}
	return &Beefy{baseURL: baseURL, fetcher: fetcher, logger: logger}
}

func (b *Beefy) Source() model.Source { return model.SourceBeefy }

func (b *Beefy) Supports(chain string) bool { return inSet(beefyChains, chain) }

func (b *Beefy) Fetch(ctx context.Context, chain string) []model.IntermediateRecord {
	return degrade(ctx, b.logger, b.Source(), chainKey(chain), b.records)
}

func (b *Beefy) records(ctx context.Context, chain string) ([]model.IntermediateRecord, error) {
	var vaults, breakdown, tvl any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payload, err := b.fetcher.GetJSON(gctx, joinURL(b.baseURL, "vaults"))
		if err != nil {
			return fmt.Errorf("vaults: %w", err)
		}
		vaults = payload
		return nil
	})
	g.Go(func() error {
		payload, err := b.fetcher.GetJSON(gctx, joinURL(b.baseURL, "apy", "breakdown"))
		if err != nil {
			return fmt.Errorf("apy breakdown: %w", err)
		}
		breakdown = payload
		return nil
	})
	g.Go(func() error {
		payload, err := b.fetcher.GetJSON(gctx, joinURL(b.baseURL, "tvl"))
		if err != nil {
			b.logger.Warn("beefy tvl unavailable", zap.Error(err))
			return nil
		}
		tvl = payload
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: beefy: %v", ErrSourceUnavailable, err)
	}

	items, ok := list(vaults)
	if !ok {
		return nil, fmt.Errorf("%w: beefy: vaults payload is %T, want list", ErrSourceUnavailable, vaults)
	}

	name := beefyChainName(chain)
	chainTVL, _ := lookup(tvl, chainIDs[chain])

	out := make([]model.IntermediateRecord, 0)
	for _, item := range items {
		vault, ok := object(item)
		if !ok || !isCurveVault(vault, name) {
			continue
		}
		id := strAt(vault, "id")
		rec := model.IntermediateRecord{
			Source:    model.SourceBeefy,
			Chain:     chain,
			Addresses: address.Collect(strAt(vault, "tokenAddress")),
			Wrappers:  address.Collect(strAt(vault, "earnContractAddress")),
			Meta:      model.BeefyMeta{VaultID: id},
		}
		if apy, ok := floatAt(breakdown, id, "totalApy"); ok {
			rec.Yield = numeric.Percent(apy)
			rec.HasYield = true
		}
		if tvl, ok := floatAt(chainTVL, id); ok {
			rec.TVL = tvl
			rec.HasTVL = true
		}
		out = append(out, rec)
	}
	return out, nil
}

func isCurveVault(vault map[string]any, chain string) bool {
	if !strings.EqualFold(strAt(vault, "chain"), chain) {
		return false
	}
	if !strings.EqualFold(strAt(vault, "status"), beefyActive) {
		return false
	}
	return strings.EqualFold(strAt(vault, "platformId"), beefyPlatform) ||
		strings.EqualFold(strAt(vault, "tokenProviderId"), beefyPlatform)
}
