// Package vocab defines the closed classification vocabularies for map
// entities and normalizes raw values against small alias tables before
// membership checks.
package vocab

import (
	"fmt"
	"strings"
)

// Canonical side values.
const (
	SideFriend  = "FRIEND"
	SideEnemy   = "ENEMY"
	SideNeutral = "NEUTRAL"
	SideUnknown = "UNKNOWN"
)

// Canonical echelon values.
const (
	EchelonSection   = "SECTION"
	EchelonBattalion = "BATTALION"
	EchelonBrigade   = "BRIGADE"
)

// Canonical unit types. UASRecon is the type the chat listing intent queries.
const (
	UnitInfantry    = "INFANTRY"
	UnitArmor       = "ARMOR"
	UnitArtillery   = "ARTILLERY"
	UnitCommandPost = "COMMAND_POST"
	UnitUAS         = "UAS"
	UASRecon        = "UAS_RECON"
	UASAttack       = "UAS_ATTACK"
	UASVTOL         = "UAS_VTOL"
)

var sides = []string{SideFriend, SideEnemy, SideNeutral, SideUnknown}

var unitTypes = []string{
	UnitInfantry, UnitArmor, UnitArtillery, UnitCommandPost,
	UnitUAS, UASRecon, UASAttack, UASVTOL,
}

var echelons = []string{EchelonSection, EchelonBattalion, EchelonBrigade}

// Alias tables map known misspellings and abbreviations to canonical values.
// Consulted before membership checks; kept as data so forgiveness stays
// auditable without touching validation logic.
var sideAliases = map[string]string{
	"ENNEMY":  SideEnemy, // historical misspelling seen in seed data
	"HOSTILE": SideEnemy,
	"FR":      SideFriend,
}

var unitTypeAliases = map[string]string{
	"INF":   UnitInfantry,
	"DRONE": UnitUAS,
	"CP":    UnitCommandPost,
	"RECON": UASRecon,
}

var echelonAliases = map[string]string{
	"SEC": EchelonSection,
	"BN":  EchelonBattalion,
	"BDE": EchelonBrigade,
}

// ValidationError reports an out-of-vocabulary field value.
type ValidationError struct {
	Field string
	Value string
	Hint  string // nearest canonical member, when close enough to suggest
}

func (e *ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid %s %q (did you mean %q?)", e.Field, e.Value, e.Hint)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// NormalizeSide resolves raw to a canonical side value.
func NormalizeSide(raw string) (string, error) {
	return normalize("side", raw, sideAliases, sides)
}

// NormalizeUnitType resolves raw to a canonical unit type.
func NormalizeUnitType(raw string) (string, error) {
	return normalize("unit_type", raw, unitTypeAliases, unitTypes)
}

// NormalizeEchelon resolves raw to a canonical echelon.
func NormalizeEchelon(raw string) (string, error) {
	return normalize("echelon", raw, echelonAliases, echelons)
}

func normalize(field, raw string, aliases map[string]string, members []string) (string, error) {
	candidate := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := aliases[candidate]; ok {
		return canonical, nil
	}
	for _, m := range members {
		if candidate == m {
			return m, nil
		}
	}
	return "", &ValidationError{Field: field, Value: raw, Hint: nearestMember(candidate, members)}
}

// nearestMember returns the closest canonical member within edit distance 2,
// or empty when nothing is close enough to suggest.
func nearestMember(candidate string, members []string) string {
	best, bestDist := "", 3
	for _, m := range members {
		if d := DamerauLevenshteinDistance(candidate, m); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}
