package model

import "strings"

// Source identifies an upstream data provider.
type Source string

const (
	SourceCurve    Source = "CURVE"
	SourceStakeDAO Source = "STAKEDAO"
	SourceBeefy    Source = "BEEFY"
)

// Label returns the display name of the source.
func (s Source) Label() string {
	switch s {
	case SourceCurve:
		return "Curve"
	case SourceStakeDAO:
		return "StakeDAO"
	case SourceBeefy:
		return "Beefy"
	default:
		return string(s)
	}
}

// Key returns the lowercase form used in metric labels and config keys.
func (s Source) Key() string {
	return strings.ToLower(string(s))
}
