package merge

import (
	"encoding/json"

	"yieldScope/internal/model"
)

// FieldGroup names a set of columns shown together.
type FieldGroup string

const (
	GroupPool     FieldGroup = "pool"
	GroupCoins    FieldGroup = "coins"
	GroupTVL      FieldGroup = "tvl"
	GroupBaseAPY  FieldGroup = "base_apy"
	GroupCRV      FieldGroup = "crv_apy"
	GroupRewards  FieldGroup = "other_rewards"
	GroupStakeDAO FieldGroup = "stakedao"
	GroupBeefy    FieldGroup = "beefy"
)

// groupOrder is the display order.
var groupOrder = []FieldGroup{
	GroupPool, GroupCoins, GroupTVL, GroupBaseAPY, GroupCRV, GroupRewards,
	GroupStakeDAO, GroupBeefy,
}

// RequiredGroups are shown for every batch.
var RequiredGroups = groupOrder[:6:6]

// Visibility is the set of field groups to display for a batch.
type Visibility map[FieldGroup]struct{}

// Resolve computes the field groups populated anywhere in records.
func Resolve(records []model.CanonicalPoolRecord) Visibility {
	out := make(Visibility, len(groupOrder))
	for _, group := range RequiredGroups {
		out[group] = struct{}{}
	}
	for _, rec := range records {
		if rec.StakeDAO != nil {
			out[GroupStakeDAO] = struct{}{}
		}
		if rec.Beefy != nil {
			out[GroupBeefy] = struct{}{}
		}
	}
	return out
}

// Has reports whether group is visible.
func (v Visibility) Has(group FieldGroup) bool {
	_, ok := v[group]
	return ok
}

// Groups lists the visible groups in display order.
func (v Visibility) Groups() []FieldGroup {
	out := make([]FieldGroup, 0, len(v))
	for _, group := range groupOrder {
		if v.Has(group) {
			out = append(out, group)
		}
	}
	return out
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Groups())
}
