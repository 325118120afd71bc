// Package location holds the search-side data model: transport modes,
// points of interest per mode, isochrones and preferred locations.
package location

import (
	"math"
)

// TransportMode is a means of transportation used to compute reachability.
type TransportMode string

const (
	Walk    TransportMode = "WALK"
	Bicycle TransportMode = "BICYCLE"
	Car     TransportMode = "CAR"
)

// TransportModes lists every mode in the fixed iteration order used for grouping.
var TransportModes = []TransportMode{Walk, Bicycle, Car}

// Valid reports whether m is a known mode.
func (m TransportMode) Valid() bool {
	switch m {
	case Walk, Bicycle, Car:
		return true
	}
	return false
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether c is a usable point. The null island (0,0) is
// treated as missing since CRMs emit it for unset geolocations.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// OsmEntity describes what a point of interest is.
type OsmEntity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type,omitempty"`
}

// OsmLocation is one point of interest found for a transport mode.
// DistanceInMeters is the straight-line distance from the search center.
type OsmLocation struct {
	Address          string      `json:"address,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
	DistanceInMeters float64     `json:"distanceInMeters"`
	Entity           OsmEntity   `json:"entity"`
}

// TransportResult is the search result for one transport mode.
type TransportResult struct {
	LocationsOfInterest []OsmLocation `json:"locationsOfInterest"`
	Isochrone           Isochrone     `json:"isochrone"`
}

// SearchResponse maps each searched mode to its result.
type SearchResponse map[TransportMode]TransportResult

// EnsureModes returns a copy of s in which every mode in modes has an entry.
func (s SearchResponse) EnsureModes(modes []TransportMode) SearchResponse {
	out := make(SearchResponse, len(s)+len(modes))
	for mode, result := range s {
		out[mode] = result
	}
	for _, mode := range modes {
		if _, ok := out[mode]; !ok {
			out[mode] = TransportResult{LocationsOfInterest: []OsmLocation{}}
		}
	}
	return out
}

// AvailableMeans returns the modes, in iteration order, whose isochrone is non-empty.
func (s SearchResponse) AvailableMeans() []TransportMode {
	means := make([]TransportMode, 0, len(TransportModes))
	for _, mode := range TransportModes {
		if result, ok := s[mode]; ok && !result.Isochrone.Empty() {
			means = append(means, mode)
		}
	}
	return means
}

// Place is the searched address and its coordinates.
type Place struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// PreferredLocation is a user-pinned address shown as "Wichtige Orte".
// Coordinates are nil until geocoded.
type PreferredLocation struct {
	Title       string       `json:"title"`
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}
