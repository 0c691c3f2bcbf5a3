package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yieldScope/internal/storage"
)

// Schema creates the snapshot table. Applied by EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	chain           TEXT             NOT NULL,
	pool_address    TEXT             NOT NULL,
	taken_at        TIMESTAMPTZ      NOT NULL,
	name            TEXT             NOT NULL,
	lp_token        TEXT             NOT NULL,
	coins           JSONB            NOT NULL,
	tvl_usd         DOUBLE PRECISION NOT NULL,
	base_apy        DOUBLE PRECISION NOT NULL,
	crv_apy_min     DOUBLE PRECISION NOT NULL,
	crv_apy_max     DOUBLE PRECISION NOT NULL,
	other_rewards   JSONB            NOT NULL,
	stakedao_apy    DOUBLE PRECISION,
	stakedao_tvl    DOUBLE PRECISION,
	stakedao_boost  DOUBLE PRECISION,
	beefy_apy       DOUBLE PRECISION,
	beefy_tvl       DOUBLE PRECISION,
	beefy_vault_id  TEXT,
	created_at      TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, pool_address, taken_at)
)`

const upsertSnapshot = `
	INSERT INTO pool_snapshots (
		chain, pool_address, taken_at, name, lp_token, coins, tvl_usd, base_apy,
		crv_apy_min, crv_apy_max, other_rewards,
		stakedao_apy, stakedao_tvl, stakedao_boost,
		beefy_apy, beefy_tvl, beefy_vault_id
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (chain, pool_address, taken_at)
	DO UPDATE SET
		name = EXCLUDED.name,
		lp_token = EXCLUDED.lp_token,
		coins = EXCLUDED.coins,
		tvl_usd = EXCLUDED.tvl_usd,
		base_apy = EXCLUDED.base_apy,
		crv_apy_min = EXCLUDED.crv_apy_min,
		crv_apy_max = EXCLUDED.crv_apy_max,
		other_rewards = EXCLUDED.other_rewards,
		stakedao_apy = EXCLUDED.stakedao_apy,
		stakedao_tvl = EXCLUDED.stakedao_tvl,
		stakedao_boost = EXCLUDED.stakedao_boost,
		beefy_apy = EXCLUDED.beefy_apy,
		beefy_tvl = EXCLUDED.beefy_tvl,
		beefy_vault_id = EXCLUDED.beefy_vault_id
`

// Store provides Postgres persistence for exported snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutSnapshots inserts or updates snapshots in one batch.
func (s *Store) PutSnapshots(ctx context.Context, snaps []storage.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snaps {
		args, err := snapshotArgs(snap)
		if err != nil {
			return err
		}
		batch.Queue(upsertSnapshot, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snaps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// snapshotArgs flattens a snapshot into upsertSnapshot parameters. Absent
// optional blocks become NULLs.
func snapshotArgs(snap storage.Snapshot) ([]any, error) {
	rec := snap.Record
	coins, err := json.Marshal(rec.Coins)
	if err != nil {
		return nil, fmt.Errorf("marshal coins: %w", err)
	}
	rewards, err := json.Marshal(rec.OtherRewards)
	if err != nil {
		return nil, fmt.Errorf("marshal rewards: %w", err)
	}

	var sdAPY, sdTVL, sdBoost, bfAPY, bfTVL *float64
	var bfVault *string
	if rec.StakeDAO != nil {
		sdAPY, sdTVL, sdBoost = &rec.StakeDAO.APY, &rec.StakeDAO.TVL, &rec.StakeDAO.Boost
	}
	if rec.Beefy != nil {
		bfAPY, bfTVL, bfVault = &rec.Beefy.APY, &rec.Beefy.TVL, &rec.Beefy.VaultID
	}

	return []any{
		rec.Chain,
		rec.Address.String(),
		snap.TakenAt,
		rec.Name,
		rec.LPToken.String(),
		string(coins),
		rec.TVL,
		rec.BaseAPY,
		rec.CRV.Min,
		rec.CRV.Max,
		string(rewards),
		sdAPY, sdTVL, sdBoost,
		bfAPY, bfTVL, bfVault,
	}, nil
}
