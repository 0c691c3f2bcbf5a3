// Package export renders batch results as a console table, CSV or JSON.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"yieldScope/internal/merge"
	"yieldScope/internal/model"
)

const (
	maxNameLen   = 25
	maxCoins     = 3
	maxRatios    = 2
	noneRewards  = "None"
	missingValue = "-"
)

// column renders one field for display (Cell) and for CSV (Raw).
type column struct {
	Header string
	Group  merge.FieldGroup
	Cell   func(model.CanonicalPoolRecord) string
	Raw    func(model.CanonicalPoolRecord) string
}

var titleCase = cases.Title(language.English)

var allColumns = []column{
	{
		Header: "Pool Name", Group: merge.GroupPool,
		Cell: func(r model.CanonicalPoolRecord) string { return truncate(r.Name, maxNameLen) },
		Raw:  func(r model.CanonicalPoolRecord) string { return r.Name },
	},
	{
		Header: "Chain", Group: merge.GroupPool,
		Cell: func(r model.CanonicalPoolRecord) string { return titleCase.String(r.Chain) },
		Raw:  func(r model.CanonicalPoolRecord) string { return r.Chain },
	},
	{
		Header: "Address", Group: merge.GroupPool,
		Cell: nil,
		Raw:  func(r model.CanonicalPoolRecord) string { return r.Address.String() },
	},
	{
		Header: "Coins", Group: merge.GroupCoins,
		Cell: func(r model.CanonicalPoolRecord) string { return limitJoin(r.CoinSymbols(), maxCoins, " / ") },
		Raw:  func(r model.CanonicalPoolRecord) string { return strings.Join(r.CoinSymbols(), "/") },
	},
	{
		Header: "Coin Ratios", Group: merge.GroupCoins,
		Cell: func(r model.CanonicalPoolRecord) string { return limitJoin(ratios(r.Coins, true), maxRatios, ", ") },
		Raw:  func(r model.CanonicalPoolRecord) string { return strings.Join(ratios(r.Coins, false), ";") },
	},
	{
		Header: "TVL", Group: merge.GroupTVL,
		Cell: func(r model.CanonicalPoolRecord) string { return FormatCurrency(r.TVL) },
		Raw:  func(r model.CanonicalPoolRecord) string { return raw(r.TVL) },
	},
	{
		Header: "Base APY (%)", Group: merge.GroupBaseAPY,
		Cell: func(r model.CanonicalPoolRecord) string { return pct(r.BaseAPY) },
		Raw:  func(r model.CanonicalPoolRecord) string { return raw(r.BaseAPY) },
	},
	{
		Header: "CRV Rewards (%)", Group: merge.GroupCRV,
		Cell: func(r model.CanonicalPoolRecord) string { return pct(r.CRV.Min) + " - " + pct(r.CRV.Max) },
		Raw:  func(r model.CanonicalPoolRecord) string { return raw(r.CRV.Min) + "-" + raw(r.CRV.Max) },
	},
	{
		Header: "Other Rewards (%)", Group: merge.GroupRewards,
		Cell: func(r model.CanonicalPoolRecord) string { return rewards(r.OtherRewards, true) },
		Raw:  func(r model.CanonicalPoolRecord) string { return rewards(r.OtherRewards, false) },
	},
	{
		Header: "StakeDAO APY (%)", Group: merge.GroupStakeDAO,
		Cell: stakeDAOField(func(b *model.StakeDAOBlock) string { return pct(b.APY) }),
		Raw:  stakeDAOField(func(b *model.StakeDAOBlock) string { return raw(b.APY) }),
	},
	{
		Header: "StakeDAO TVL", Group: merge.GroupStakeDAO,
		Cell: stakeDAOField(func(b *model.StakeDAOBlock) string { return FormatCurrency(b.TVL) }),
		Raw:  stakeDAOField(func(b *model.StakeDAOBlock) string { return raw(b.TVL) }),
	},
	{
		Header: "Boost", Group: merge.GroupStakeDAO,
		Cell: stakeDAOField(func(b *model.StakeDAOBlock) string { return strconv.FormatFloat(b.Boost, 'f', 2, 64) + "x" }),
		Raw:  stakeDAOField(func(b *model.StakeDAOBlock) string { return raw(b.Boost) }),
	},
	{
		Header: "Beefy APY (%)", Group: merge.GroupBeefy,
		Cell: beefyField(func(b *model.BeefyBlock) string { return pct(b.APY) }),
		Raw:  beefyField(func(b *model.BeefyBlock) string { return raw(b.APY) }),
	},
	{
		Header: "Beefy TVL", Group: merge.GroupBeefy,
		Cell: beefyField(func(b *model.BeefyBlock) string { return FormatCurrency(b.TVL) }),
		Raw:  beefyField(func(b *model.BeefyBlock) string { return raw(b.TVL) }),
	},
	{
		Header: "Beefy Vault", Group: merge.GroupBeefy,
		Cell: beefyField(func(b *model.BeefyBlock) string { return b.VaultID }),
		Raw:  beefyField(func(b *model.BeefyBlock) string { return b.VaultID }),
	},
}

// visibleColumns keeps the columns whose group is visible. Table output
// skips columns without a Cell renderer.
func visibleColumns(v merge.Visibility, table bool) []column {
	out := make([]column, 0, len(allColumns))
	for _, col := range allColumns {
		if !v.Has(col.Group) {
			continue
		}
		if table && col.Cell == nil {
			continue
		}
		out = append(out, col)
	}
	return out
}

func stakeDAOField(f func(*model.StakeDAOBlock) string) func(model.CanonicalPoolRecord) string {
	return func(r model.CanonicalPoolRecord) string {
		if r.StakeDAO == nil {
			return missingValue
		}
		return f(r.StakeDAO)
	}
}

func beefyField(f func(*model.BeefyBlock) string) func(model.CanonicalPoolRecord) string {
	return func(r model.CanonicalPoolRecord) string {
		if r.Beefy == nil {
			return missingValue
		}
		return f(r.Beefy)
	}
}

// FormatCurrency renders a USD amount with K/M/B suffixes.
func FormatCurrency(amount float64) string {
	switch {
	case amount >= 1e9:
		return fmt.Sprintf("$%.2fB", amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("$%.2fM", amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("$%.2fK", amount/1e3)
	default:
		return fmt.Sprintf("$%.2f", amount)
	}
}

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func raw(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func limitJoin(items []string, n int, sep string) string {
	if len(items) <= n {
		return strings.Join(items, sep)
	}
	return strings.Join(items[:n], sep) + "..."
}

func ratios(coins []model.CoinShare, display bool) []string {
	out := make([]string, 0, len(coins))
	for _, c := range coins {
		if display {
			out = append(out, fmt.Sprintf("%s: %.1f%%", c.Symbol, c.Share*100))
		} else {
			out = append(out, c.Symbol+"="+raw(c.Share))
		}
	}
	return out
}

func rewards(entries []model.RewardEntry, display bool) string {
	if len(entries) == 0 {
		if display {
			return noneRewards
		}
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if display {
			parts = append(parts, fmt.Sprintf("%s: %.2f%%", e.Token, e.APY))
		} else {
			parts = append(parts, e.Token+"="+raw(e.APY))
		}
	}
	if display {
		return strings.Join(parts, ", ")
	}
	return strings.Join(parts, ";")
}
