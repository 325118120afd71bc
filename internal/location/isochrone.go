package location

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Isochrone is the area reachable within the configured travel time. It is
// stored as the GeoJSON document returned by the routing provider and keeps
// the parsed polygons for containment checks.
type Isochrone struct {
	raw      json.RawMessage
	polygons orb.MultiPolygon
}

// NewIsochrone builds an isochrone from polygons (lng/lat order).
func NewIsochrone(polygons ...orb.Polygon) Isochrone {
	mp := orb.MultiPolygon(polygons)
	raw, _ := geojson.NewGeometry(mp).MarshalJSON()
	return Isochrone{raw: raw, polygons: mp}
}

// Empty reports whether the isochrone has no area.
func (i Isochrone) Empty() bool {
	for _, p := range i.polygons {
		if len(p) > 0 && len(p[0]) >= 4 {
			return false
		}
	}
	return true
}

// Contains reports whether c lies inside any polygon.
func (i Isochrone) Contains(c Coordinates) bool {
	point := orb.Point{c.Lng, c.Lat}
	for _, p := range i.polygons {
		if planar.PolygonContains(p, point) {
			return true
		}
	}
	return false
}

// MarshalJSON writes the original GeoJSON document.
func (i Isochrone) MarshalJSON() ([]byte, error) {
	if len(i.raw) == 0 {
		return []byte("null"), nil
	}
	return i.raw, nil
}

// UnmarshalJSON accepts a FeatureCollection, Feature or bare geometry.
func (i *Isochrone) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*i = Isochrone{}
		return nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return fmt.Errorf("isochrone: %w", err)
	}

	var geometries []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(trimmed)
		if err != nil {
			return fmt.Errorf("isochrone: %w", err)
		}
		for _, f := range fc.Features {
			geometries = append(geometries, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(trimmed)
		if err != nil {
			return fmt.Errorf("isochrone: %w", err)
		}
		geometries = append(geometries, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(trimmed)
		if err != nil {
			return fmt.Errorf("isochrone: %w", err)
		}
		geometries = append(geometries, g.Geometry())
	}

	var polygons orb.MultiPolygon
	for _, g := range geometries {
		switch typed := g.(type) {
		case orb.Polygon:
			polygons = append(polygons, typed)
		case orb.MultiPolygon:
			polygons = append(polygons, typed...)
		}
	}

	i.raw = append(json.RawMessage(nil), trimmed...)
	i.polygons = polygons
	return nil
}
