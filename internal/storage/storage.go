// Package storage defines the spatial store interface for map entities.
package storage

import (
	"context"
	"sort"

	"github.com/kvasnier/c2-demo/internal/models"
	"github.com/kvasnier/c2-demo/pkg/geo"
)

// Scope selects which collections a restore replaces.
type Scope string

const (
	// ScopeUnits replaces units only.
	ScopeUnits Scope = "units"
	// ScopeUnitsAndPOIs replaces units and points of interest.
	ScopeUnitsAndPOIs Scope = "units_and_pois"
)

// Valid reports whether s is a recognized scope.
func (s Scope) Valid() bool {
	return s == ScopeUnits || s == ScopeUnitsAndPOIs
}

// IncludesPOIs reports whether the scope covers points of interest.
func (s Scope) IncludesPOIs() bool {
	return s == ScopeUnitsAndPOIs
}

// Storage defines unit and POI persistence operations. It is the single
// shared mutable resource between requests.
type Storage interface {
	// Unit operations
	InsertUnit(ctx context.Context, u *models.Unit) error
	ListUnits(ctx context.Context) ([]*models.Unit, error)
	NearestUnitsByType(ctx context.Context, unitType string, lat, lon float64, limit int) ([]*models.Unit, error)
	CountUnits(ctx context.Context) (int64, error)

	// POI operations
	InsertPOI(ctx context.Context, p *models.POI) error
	ListPOIs(ctx context.Context) ([]*models.POI, error)

	// ReplaceAll deletes the in-scope collections and applies the insertion
	// statements in order, as a single transaction. On any statement failure
	// the whole unit rolls back and the live data is left untouched; the
	// returned error names the failing statement.
	ReplaceAll(ctx context.Context, scope Scope, statements []string) error

	Close() error
}

// sortNearest orders units by ascending great-circle distance from the
// origin, breaking ties by descending creation time, and caps the result at
// limit. Shared by adapters so the tie-break contract lives in one place.
func sortNearest(units []*models.Unit, lat, lon float64, limit int) []*models.Unit {
	sort.SliceStable(units, func(i, j int) bool {
		di := geo.HaversineKm(lat, lon, units[i].Lat, units[i].Lon)
		dj := geo.HaversineKm(lat, lon, units[j].Lat, units[j].Lon)
		if di != dj {
			return di < dj
		}
		return units[i].CreatedAt.After(units[j].CreatedAt)
	})
	if limit > 0 && len(units) > limit {
		units = units[:limit]
	}
	return units
}
