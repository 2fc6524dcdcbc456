// Package intent classifies normalized chat text against an ordered rule table.
package intent

import "strings"

// Intent is one enumerated classification of a user's chat message.
type Intent string

const (
	// ReconMissionOrder asks for a mission order for a selected reconnaissance drone.
	ReconMissionOrder Intent = "recon-mission-order"
	// ReconList asks for the available reconnaissance assets.
	ReconList Intent = "recon-list"
	// WatchNewData asks to review newly received drone data.
	WatchNewData Intent = "watch-new-data"
	// ConfirmEnemy confirms the scenario HQ as hostile.
	ConfirmEnemy Intent = "confirm-enemy"
	// AssetReference is a generic mention of drone assets.
	AssetReference Intent = "generic-asset-reference"
	// PlaceUnitSuggestion asks to place a unit on the map.
	PlaceUnitSuggestion Intent = "place-unit-suggestion"
	// Fallback is the terminal intent when nothing matches.
	Fallback Intent = "fallback"
)

// rule matches when every phrase in allOf occurs in the text, in any order.
type rule struct {
	intent Intent
	allOf  []string
}

// primaryRules are evaluated first, in declaration order. Multi-phrase rules
// live here so that specific requests out-rank broad keyword mentions; first
// satisfied rule wins.
var primaryRules = []rule{
	{ReconMissionOrder, []string{"ordre", "mission"}},
	{ReconList, []string{"liste", "drone"}},
	{WatchNewData, []string{"nouvelle", "donnee"}},
	{ConfirmEnemy, []string{"confirme", "ennemi"}},
}

// fallbackRules are the lower-priority single-keyword tier, evaluated only
// when no primary rule matched.
var fallbackRules = []rule{
	{AssetReference, []string{"drone"}},
	{PlaceUnitSuggestion, []string{"place"}},
	{PlaceUnitSuggestion, []string{"unite"}},
}

// Classify returns the intent for normalized text. Exactly one intent is
// selected; Fallback when no rule in either tier matches.
func Classify(normalized string) Intent {
	for _, r := range primaryRules {
		if r.matches(normalized) {
			return r.intent
		}
	}
	for _, r := range fallbackRules {
		if r.matches(normalized) {
			return r.intent
		}
	}
	return Fallback
}

func (r rule) matches(text string) bool {
	for _, phrase := range r.allOf {
		if !strings.Contains(text, phrase) {
			return false
		}
	}
	return true
}
