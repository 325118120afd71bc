package entitygroups

import (
	"reflect"
	"testing"

	"areabutler_backend/internal/location"
	realestate "areabutler_backend/internal/realestate/domain"
	snapshot "areabutler_backend/internal/snapshot/domain"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

func poi(id, name, title string, lat, lng, distance float64) location.OsmLocation {
	return location.OsmLocation{
		Coordinates:      location.Coordinates{Lat: lat, Lng: lng},
		DistanceInMeters: distance,
		Entity:           location.OsmEntity{ID: id, Name: name, Title: title},
	}
}

func squareIso(minLng, minLat, maxLng, maxLat float64) location.Isochrone {
	return location.NewIsochrone(orb.Polygon{orb.Ring{
		{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat},
	}})
}

func TestDeriveSingleWalkPoi(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{
			poi("1", "supermarket", "Rewe", 52.5, 13.4, 500),
		}},
	}

	groups := Derive(search, nil, nil, nil, false)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(groups[0].Items))
	}
	item := groups[0].Items[0]
	if !item.ByFoot || item.ByBike || item.ByCar {
		t.Fatalf("unexpected reachability %+v", item)
	}
	if !item.Selected {
		t.Fatal("items must be selected by default")
	}
	if groups[0].Title != "Supermärkte" {
		t.Fatalf("expected catalog label, got %q", groups[0].Title)
	}
}

func TestDeriveDeduplicatesAcrossModes(t *testing.T) {
	shared := poi("1", "school", "Grundschule", 52.5, 13.4, 800)
	search := location.SearchResponse{
		location.Car:  {LocationsOfInterest: []location.OsmLocation{shared, poi("2", "school", "Gymnasium", 52.6, 13.5, 4000)}},
		location.Walk: {LocationsOfInterest: []location.OsmLocation{shared}},
	}

	groups := Derive(search, nil, nil, nil, false)
	if len(groups) != 1 || len(groups[0].Items) != 2 {
		t.Fatalf("unexpected groups %+v", groups)
	}

	seen := map[string]bool{}
	for _, item := range groups[0].Items {
		key := ItemKey(item.Coordinates, item.OsmName)
		if seen[key] {
			t.Fatalf("duplicate item %s", key)
		}
		seen[key] = true
	}

	first := groups[0].Items[0]
	if first.Name != "Grundschule" || !first.ByFoot || !first.ByCar || first.ByBike {
		t.Fatalf("expected merged reachability on nearest item, got %+v", first)
	}
}

func TestDeriveEmptySearch(t *testing.T) {
	listings := []realestate.Listing{{ID: uuid.New(), ShowInSnippet: true}}
	if got := Derive(nil, nil, listings, nil, false); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestDeriveVisibility(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{
			poi("near", "park", "Park A", 52.5, 13.4, 100),
			poi("mid", "park", "Park B", 52.51, 13.4, 600),
			poi("far", "park", "Park C", 52.52, 13.4, 1500),
		}},
	}
	cfg := &snapshot.SnapshotConfig{
		PoiFilter: &snapshot.PoiFilter{Type: snapshot.PoiFilterByDistance, Value: 1000},
		EntityVisibility: []snapshot.EntityVisibility{
			{ID: "near", Excluded: true},
			{ID: "far", Excluded: false},
		},
	}

	groups := Derive(search, cfg, nil, nil, false)
	var ids []string
	for _, item := range groups[0].Items {
		ids = append(ids, item.ID)
	}
	if !reflect.DeepEqual(ids, []string{"mid", "far"}) {
		t.Fatalf("explicit entries must override filter defaults, got %v", ids)
	}

	all := Derive(search, cfg, nil, nil, true)
	if len(all[0].Items) != 3 {
		t.Fatalf("ignoreVisibility must keep every item, got %d", len(all[0].Items))
	}
}

func TestDerivePoiFilterByAmountPerType(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{
			poi("s1", "school", "S1", 52.50, 13.4, 100),
			poi("s2", "school", "S2", 52.51, 13.4, 200),
			poi("s3", "school", "S3", 52.52, 13.4, 300),
			poi("p1", "park", "P1", 52.53, 13.4, 100),
			poi("p2", "park", "P2", 52.54, 13.4, 200),
		}},
	}
	cfg := &snapshot.SnapshotConfig{PoiFilter: &snapshot.PoiFilter{
		Type: snapshot.PoiFilterByAmount, Value: 1, PerType: map[string]int{"school": 2},
	}}

	groups := Derive(search, cfg, nil, nil, false)
	counts := map[string]int{}
	for _, g := range groups {
		counts[g.Title] = len(g.Items)
	}
	if counts["Schulen"] != 2 || counts["Parks"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestDerivePoiFilterByAmountSkipsExplicitExclusions(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{
			poi("s1", "school", "S1", 52.50, 13.4, 100),
			poi("s2", "school", "S2", 52.51, 13.4, 200),
			poi("s3", "school", "S3", 52.52, 13.4, 300),
			poi("s4", "school", "S4", 52.53, 13.4, 400),
		}},
	}
	cfg := &snapshot.SnapshotConfig{
		PoiFilter:        &snapshot.PoiFilter{Type: snapshot.PoiFilterByAmount, Value: 2},
		EntityVisibility: []snapshot.EntityVisibility{{ID: "s1", Excluded: true}},
	}

	groups := Derive(search, cfg, nil, nil, false)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	var ids []string
	for _, item := range groups[0].Items {
		ids = append(ids, item.ID)
	}
	if !reflect.DeepEqual(ids, []string{"s2", "s3"}) {
		t.Fatalf("expected the two nearest remaining schools, got %v", ids)
	}
}

func TestDeriveOmitsEmptyGroups(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{poi("x", "bar", "Bar", 52.5, 13.4, 100)}},
	}
	cfg := &snapshot.SnapshotConfig{EntityVisibility: []snapshot.EntityVisibility{{ID: "x", Excluded: true}}}

	if groups := Derive(search, cfg, nil, nil, false); len(groups) != 0 {
		t.Fatalf("expected no groups, got %+v", groups)
	}
}

func TestDeriveListingsAndPreferredLocations(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {Isochrone: squareIso(13.0, 52.0, 13.1, 52.1)},
		location.Car:  {Isochrone: squareIso(12.0, 51.0, 14.0, 53.0)},
	}
	inside := realestate.Listing{ID: uuid.New(), Name: "Altbau", Status: realestate.StatusForSale, ShowInSnippet: true,
		Coordinates: location.Coordinates{Lat: 52.05, Lng: 13.05}}
	rented := realestate.Listing{ID: uuid.New(), Name: "Loft", Status: realestate.StatusRented, ShowInSnippet: true,
		Coordinates: location.Coordinates{Lat: 52.05, Lng: 13.05}}
	hidden := realestate.Listing{ID: uuid.New(), Name: "Villa", Status: realestate.StatusForSale,
		Coordinates: location.Coordinates{Lat: 52.05, Lng: 13.05}}
	preferred := []location.PreferredLocation{
		{Title: "Büro", Address: "Hauptstr. 1", Coordinates: &location.Coordinates{Lat: 52.3, Lng: 13.3}},
		{Title: "Ohne Koordinaten", Address: "Unbekannt"},
	}
	cfg := &snapshot.SnapshotConfig{RealEstateStatus: snapshot.Ptr("KAUF")}

	groups := Derive(search, cfg, []realestate.Listing{inside, rented, hidden}, preferred, false)
	if len(groups) != 2 {
		t.Fatalf("expected listing and preferred groups, got %+v", groups)
	}

	estates := groups[0]
	if estates.Title != RealEstateTitle || len(estates.Items) != 1 {
		t.Fatalf("unexpected listing group %+v", estates)
	}
	item := estates.Items[0]
	if item.Name != "Altbau" || !item.ByFoot || item.ByBike || !item.ByCar {
		t.Fatalf("unexpected listing item %+v", item)
	}
	if item.RealEstateListing == nil || item.RealEstateListing.ID != inside.ID {
		t.Fatal("expected listing to be attached")
	}

	favs := groups[1]
	if favs.Title != PreferredLocationsTitle || len(favs.Items) != 1 {
		t.Fatalf("unexpected preferred group %+v", favs)
	}
	if fav := favs.Items[0]; !fav.Selected || !fav.IsCustom || fav.ByFoot || fav.ByCar {
		t.Fatalf("unexpected preferred item %+v", fav)
	}

	editor := Derive(search, cfg, []realestate.Listing{inside, rented, hidden}, preferred, true)
	if len(editor[0].Items) != 2 {
		t.Fatalf("ignoreVisibility keeps hidden listings matching the status filter, got %d", len(editor[0].Items))
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	search := location.SearchResponse{
		location.Bicycle: {LocationsOfInterest: []location.OsmLocation{
			poi("b", "pharmacy", "Apotheke B", 52.5, 13.4, 300),
			poi("a", "pharmacy", "Apotheke A", 52.6, 13.4, 300),
		}},
		location.Walk: {LocationsOfInterest: []location.OsmLocation{poi("c", "doctors", "Dr. C", 52.7, 13.4, 50)}},
	}

	first := Derive(search, nil, nil, nil, false)
	for i := 0; i < 20; i++ {
		if again := Derive(search, nil, nil, nil, false); !reflect.DeepEqual(first, again) {
			t.Fatal("derive is not deterministic")
		}
	}
	if first[0].Title != "Ärzte" {
		t.Fatalf("walk results must be grouped first, got %q", first[0].Title)
	}
	if first[1].Items[0].ID != "a" {
		t.Fatal("distance ties must be broken by name")
	}
}

func TestDeriveDefaultActiveGroups(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{
			poi("1", "park", "P", 52.5, 13.4, 10),
			poi("2", "bar", "B", 52.6, 13.4, 20),
		}},
	}
	cfg := &snapshot.SnapshotConfig{DefaultActiveGroups: []string{"Parks"}}

	for _, g := range Derive(search, cfg, nil, nil, false) {
		if want := g.Title == "Parks"; g.Active != want {
			t.Errorf("group %s: expected active=%v", g.Title, want)
		}
	}
}
