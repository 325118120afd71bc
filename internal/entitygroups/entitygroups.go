// Package entitygroups folds a search response, listings and preferred
// locations into the per-category groups shown on the map and in exports.
package entitygroups

import (
	"areabutler_backend/internal/location"
	realestate "areabutler_backend/internal/realestate/domain"
)

const (
	// RealEstateTitle is the group holding the user's listings.
	RealEstateTitle = "Immobilien"
	// PreferredLocationsTitle is the group holding user-pinned addresses.
	PreferredLocationsTitle = "Wichtige Orte"

	realEstateName         = "property"
	preferredLocationsName = "favorite"
)

// ResultEntity is one item on the map.
type ResultEntity struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	Label             string                `json:"label"`
	OsmName           string                `json:"osmName"`
	Address           string                `json:"address,omitempty"`
	Coordinates       location.Coordinates  `json:"coordinates"`
	DistanceInMeters  float64               `json:"distanceInMeters"`
	ByFoot            bool                  `json:"byFoot"`
	ByBike            bool                  `json:"byBike"`
	ByCar             bool                  `json:"byCar"`
	Selected          bool                  `json:"selected"`
	IsCustom          bool                  `json:"isCustom,omitempty"`
	RealEstateListing *realestate.Listing   `json:"realEstateListing,omitempty"`
}

// HasDistance reports whether DistanceInMeters was measured. Listings and
// preferred locations are placed by coordinates only.
func (e ResultEntity) HasDistance() bool {
	return !e.IsCustom && e.RealEstateListing == nil
}

// Reachable reports whether the item is reachable by mode.
func (e ResultEntity) Reachable(mode location.TransportMode) bool {
	switch mode {
	case location.Walk:
		return e.ByFoot
	case location.Bicycle:
		return e.ByBike
	case location.Car:
		return e.ByCar
	}
	return false
}

func (e *ResultEntity) setReachable(mode location.TransportMode) {
	switch mode {
	case location.Walk:
		e.ByFoot = true
	case location.Bicycle:
		e.ByBike = true
	case location.Car:
		e.ByCar = true
	}
}

// EntityGroup is a category of items.
type EntityGroup struct {
	Title  string         `json:"title"`
	Name   string         `json:"name"`
	Active bool           `json:"active"`
	Items  []ResultEntity `json:"items"`
}

// SelectedItems returns the items flagged as selected, in order.
func (g EntityGroup) SelectedItems() []ResultEntity {
	out := make([]ResultEntity, 0, len(g.Items))
	for _, item := range g.Items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}
