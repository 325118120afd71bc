package exports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"areabutler_backend/internal/entitygroups"
	"areabutler_backend/internal/location"
	realestate "areabutler_backend/internal/realestate/domain"
	snapshot "areabutler_backend/internal/snapshot/domain"
)

func group(title string, active bool, n int) entitygroups.EntityGroup {
	g := entitygroups.EntityGroup{Title: title, Active: active}
	for i := 0; i < n; i++ {
		g.Items = append(g.Items, entitygroups.ResultEntity{
			ID:               fmt.Sprintf("%s-%d", title, i),
			Name:             fmt.Sprintf("%s %d", title, i),
			DistanceInMeters: float64((n - i) * 250),
			ByFoot:           i == n-1,
			Selected:         true,
		})
	}
	return g
}

func TestShapeCapsGroupsPreferringActive(t *testing.T) {
	var groups []entitygroups.EntityGroup
	for _, title := range []string{"L", "K", "J", "I", "H", "G", "F", "E", "D", "C", "B", "A"} {
		groups = append(groups, group(title, true, 1))
	}
	groups = append(groups, group("0 inaktiv", false, 1))

	data := Shape(groups, nil, nil, Limits{GroupLimit: 8})
	if len(data.Tables) != 8 {
		t.Fatalf("expected 8 tables, got %d", len(data.Tables))
	}
	var got []string
	for _, table := range data.Tables {
		got = append(got, table.Title)
	}
	want := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestShapeInactiveFillsRemainingSlots(t *testing.T) {
	groups := []entitygroups.EntityGroup{group("Parks", false, 1), group("Bars", true, 1), group("Apotheken", false, 1)}

	data := Shape(groups, nil, nil, Limits{GroupLimit: 2})
	if data.Tables[0].Title != "Bars" || data.Tables[1].Title != "Apotheken" {
		t.Fatalf("unexpected order %q, %q", data.Tables[0].Title, data.Tables[1].Title)
	}
}

func TestShapeKeepsNearestItems(t *testing.T) {
	g := group("Schulen", true, 5)
	g.Items[4].Selected = false

	data := Shape([]entitygroups.EntityGroup{g}, nil, nil, Limits{ItemLimit: 3})
	body := data.Tables[0].Body
	if len(body) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(body))
	}
	if body[0][0] != "Schulen 3" || body[0][1] != "500 m" {
		t.Fatalf("expected nearest selected item first, got %v", body[0])
	}
}

func TestShapeColumnsFollowActiveMeans(t *testing.T) {
	cfg := &snapshot.SnapshotConfig{DefaultActiveMeans: []location.TransportMode{location.Walk, location.Car}}
	g := entitygroups.EntityGroup{Title: "Parks", Active: true, Items: []entitygroups.ResultEntity{
		{ID: "1", Name: "Stadtpark", DistanceInMeters: 1234, ByFoot: true, Selected: true},
	}}

	data := Shape([]entitygroups.EntityGroup{g}, cfg, nil, FullLimits)
	table := data.Tables[0]
	if !reflect.DeepEqual(table.Header, []string{"Name", "Entfernung", "Zu Fuß", "Auto"}) {
		t.Fatalf("unexpected header %v", table.Header)
	}
	if !reflect.DeepEqual(table.Body[0], []string{"Stadtpark", "1,2 km", "ja", "-"}) {
		t.Fatalf("unexpected row %v", table.Body[0])
	}
}

func TestShapeDistanceColumnForItemsWithoutDistance(t *testing.T) {
	g := entitygroups.EntityGroup{Title: "Gemischt", Active: true, Items: []entitygroups.ResultEntity{
		{ID: "1", Name: "Kiosk am Eck", DistanceInMeters: 0.4, Selected: true},
		{ID: "2", Name: "Büro", IsCustom: true, Selected: true},
		{ID: "3", Name: "Altbau", RealEstateListing: &realestate.Listing{Name: "Altbau"}, Selected: true},
	}}

	data := Shape([]entitygroups.EntityGroup{g}, nil, nil, FullLimits)
	got := map[string]string{}
	for _, row := range data.Tables[0].Body {
		got[row[0]] = row[1]
	}
	want := map[string]string{"Kiosk am Eck": "0 m", "Büro": "-", "Altbau": "-"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected distances %v", got)
	}
}

func TestShapeLegendOnlyForActiveGroupsWithIcon(t *testing.T) {
	groups := []entitygroups.EntityGroup{group("Parks", true, 1), group("Bars", false, 1), group("Eigenes", true, 1)}
	legend := Legend{"Parks": "park.svg", "Bars": "bar.svg"}

	data := Shape(groups, nil, legend, FullLimits)
	if len(data.Tables) != 3 {
		t.Fatalf("groups without icon must still be exported, got %d", len(data.Tables))
	}
	if !reflect.DeepEqual(data.Legend, []LegendEntry{{Title: "Parks", Icon: "park.svg"}}) {
		t.Fatalf("unexpected legend %+v", data.Legend)
	}
}

func TestShapeIsDeterministic(t *testing.T) {
	search := location.SearchResponse{
		location.Walk: {LocationsOfInterest: []location.OsmLocation{
			{Coordinates: location.Coordinates{Lat: 52.5, Lng: 13.4}, DistanceInMeters: 300, Entity: location.OsmEntity{ID: "1", Name: "park", Title: "Park"}},
			{Coordinates: location.Coordinates{Lat: 52.6, Lng: 13.4}, DistanceInMeters: 900, Entity: location.OsmEntity{ID: "2", Name: "school", Title: "Schule"}},
		}},
	}
	legend := LegendFromCatalog(location.DefaultCatalog())

	render := func() []byte {
		groups := entitygroups.Derive(search, nil, nil, nil, false)
		out, err := json.Marshal(Shape(groups, nil, legend, OnePageLimits))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return out
	}
	if first, second := render(), render(); !bytes.Equal(first, second) {
		t.Fatalf("shape output differs:\n%s\n%s", first, second)
	}
}

func TestFormatDistance(t *testing.T) {
	cases := map[float64]string{
		0:      "0 m",
		849.6:  "850 m",
		999.4:  "999 m",
		999.5:  "1,0 km",
		1234:   "1,2 km",
		15500:  "15,5 km",
	}
	for in, want := range cases {
		if got := FormatDistance(in); got != want {
			t.Errorf("FormatDistance(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateName(t *testing.T) {
	if got := TruncateName("Kurz", 10); got != "Kurz" {
		t.Fatalf("unexpected %q", got)
	}
	got := TruncateName("Städtische Gemeinschaftsgrundschule", 12)
	if got != "Städtisch..." {
		t.Fatalf("unexpected %q", got)
	}
	if n := len([]rune(got)); n != 12 {
		t.Fatalf("expected 12 runes, got %d", n)
	}
}

func TestPaginateSplitsLongTables(t *testing.T) {
	data := Shape([]entitygroups.EntityGroup{group("A", true, 5), group("B", true, 2)}, nil, nil, FullLimits)

	pages := Paginate(data, 4)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if len(pages[0].Tables) != 1 || len(pages[0].Tables[0].Body) != 4 {
		t.Fatalf("unexpected first page %+v", pages[0])
	}
	second := pages[1].Tables
	if len(second) != 2 || second[0].Title != "A" || len(second[0].Body) != 1 || second[1].Title != "B" {
		t.Fatalf("unexpected second page %+v", second)
	}
	if len(second[0].Header) == 0 {
		t.Fatal("continued table must repeat its header")
	}
}

func TestWriteCSV(t *testing.T) {
	data := ExportData{Tables: []ExportTable{{
		Title:  "Parks",
		Header: []string{"Name", "Entfernung"},
		Body:   [][]string{{"Stadtpark", "300 m"}},
	}}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "Kategorie;Name;Entfernung" || lines[1] != "Parks;Stadtpark;300 m" {
		t.Fatalf("unexpected csv %q", buf.String())
	}
}
