package location

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
)

func square(minLng, minLat, maxLng, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat},
	}}
}

func TestIsochroneContains(t *testing.T) {
	iso := NewIsochrone(square(13.0, 52.0, 13.1, 52.1))

	if !iso.Contains(Coordinates{Lat: 52.05, Lng: 13.05}) {
		t.Fatal("expected point inside")
	}
	if iso.Contains(Coordinates{Lat: 52.2, Lng: 13.05}) {
		t.Fatal("expected point outside")
	}
}

func TestIsochroneUnmarshalFeatureCollection(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[13.0,52.0],[13.1,52.0],[13.1,52.1],[13.0,52.1],[13.0,52.0]]]}}]}`

	var iso Isochrone
	if err := json.Unmarshal([]byte(raw), &iso); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if iso.Empty() {
		t.Fatal("expected non-empty isochrone")
	}
	if !iso.Contains(Coordinates{Lat: 52.05, Lng: 13.05}) {
		t.Fatal("expected containment after decode")
	}

	out, err := json.Marshal(iso)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("expected original document, got %s", out)
	}
}

func TestIsochroneNullIsEmpty(t *testing.T) {
	var result TransportResult
	if err := json.Unmarshal([]byte(`{"locationsOfInterest":[],"isochrone":null}`), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.Isochrone.Empty() {
		t.Fatal("expected empty isochrone")
	}
}

func TestAvailableMeansKeepsModeOrder(t *testing.T) {
	search := SearchResponse{
		Car:     {Isochrone: NewIsochrone(square(0, 0, 1, 1))},
		Walk:    {Isochrone: NewIsochrone(square(0, 0, 1, 1))},
		Bicycle: {},
	}

	got := search.AvailableMeans()
	if len(got) != 2 || got[0] != Walk || got[1] != Car {
		t.Fatalf("unexpected means %v", got)
	}
}

func TestEnsureModesAddsMissingEntries(t *testing.T) {
	search := SearchResponse{Walk: {}}
	filled := search.EnsureModes(TransportModes)

	if len(filled) != 3 {
		t.Fatalf("expected 3 modes, got %d", len(filled))
	}
	if len(search) != 1 {
		t.Fatal("input must not be modified")
	}
}

func TestCoordinatesValid(t *testing.T) {
	cases := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{Lat: 52.5, Lng: 13.4}, true},
		{Coordinates{}, false},
		{Coordinates{Lat: 91, Lng: 13}, false},
		{Coordinates{Lat: 52, Lng: -181}, false},
	}
	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Errorf("%+v: expected %v, got %v", tc.c, tc.want, got)
		}
	}
}

func TestCatalogLabelFallbacks(t *testing.T) {
	c := DefaultCatalog()

	if got := c.LabelFor(OsmEntity{Name: "supermarket"}); got != "Supermärkte" {
		t.Fatalf("expected catalog label, got %q", got)
	}
	if got := c.LabelFor(OsmEntity{Name: "supermarket", Label: "Lebensmittel"}); got != "Lebensmittel" {
		t.Fatalf("expected entity label, got %q", got)
	}
	if got := c.LabelFor(OsmEntity{Name: "unknown_thing"}); got != "unknown_thing" {
		t.Fatalf("expected raw name, got %q", got)
	}
	if _, ok := c.IconForLabel("Lebensmittel"); ok {
		t.Fatal("unknown label must not resolve an icon")
	}
	if icon, ok := c.IconForLabel("Immobilien"); !ok || icon == "" {
		t.Fatal("expected icon for Immobilien")
	}
}
