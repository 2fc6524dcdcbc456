// Package models defines core data structures for map entities, chat turns, and restore results.
package models

import "time"

// Unit is a military unit placed on the map.
type Unit struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Side      string    `json:"side" db:"side"`
	UnitType  string    `json:"unit_type" db:"unit_type"`
	Echelon   string    `json:"echelon" db:"echelon"`
	SIDC      string    `json:"sidc" db:"sidc"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// POI is a point of interest placed on the map.
type POI struct {
	ID        string    `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	Category  string    `json:"category" db:"category"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UnitInput is the input for creating a unit.
type UnitInput struct {
	Name     string  `json:"name"`
	Side     string  `json:"side"`
	UnitType string  `json:"unit_type"`
	Echelon  string  `json:"echelon"`
	SIDC     string  `json:"sidc,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// POIInput is the input for creating a POI.
type POIInput struct {
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// Geometry is a GeoJSON point geometry. Coordinates are [lon, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Feature is a GeoJSON feature wrapping an entity's geometry and properties.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// ToFeature returns the GeoJSON feature representation of a unit.
func (u *Unit) ToFeature() *Feature {
	return &Feature{
		Type:     "Feature",
		Geometry: Geometry{Type: "Point", Coordinates: [2]float64{u.Lon, u.Lat}},
		Properties: map[string]any{
			"id":        u.ID,
			"name":      u.Name,
			"side":      u.Side,
			"unit_type": u.UnitType,
			"echelon":   u.Echelon,
			"sidc":      u.SIDC,
		},
	}
}

// ToFeature returns the GeoJSON feature representation of a POI.
func (p *POI) ToFeature() *Feature {
	return &Feature{
		Type:     "Feature",
		Geometry: Geometry{Type: "Point", Coordinates: [2]float64{p.Lon, p.Lat}},
		Properties: map[string]any{
			"id":       p.ID,
			"label":    p.Label,
			"category": p.Category,
		},
	}
}

// NewFeatureCollection wraps features in a collection, never returning a nil slice.
func NewFeatureCollection(features []*Feature) *FeatureCollection {
	if features == nil {
		features = []*Feature{}
	}
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}
