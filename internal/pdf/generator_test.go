package pdf

import (
	"bytes"
	"testing"
	"time"

	"areabutler_backend/internal/exports"
)

func TestGenerateProducesPDF(t *testing.T) {
	doc := SnapshotDocument{
		Address:      "Marienplatz 8, 80331 München",
		CreatedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ShareURL:     "https://app.example.de/embed/abc",
		BrandName:    "AreaButler",
		ContactPhone: "030 1234567",
		Data: exports.ExportData{
			Tables: []exports.ExportTable{{
				Title:  "Supermärkte",
				Header: []string{"Name", "Entfernung", "Zu Fuß"},
				Body:   [][]string{{"Rewe", "350 m", "ja"}, {"Edeka", "1,2 km", "-"}},
			}},
			Legend: []exports.LegendEntry{{Title: "Supermärkte", Icon: "supermarket"}},
		},
	}

	out, err := Generate(doc)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", out[:min(len(out), 8)])
	}
}

func TestColumnWidthsFillGrid(t *testing.T) {
	cases := map[int][]int{
		2: {10, 2},
		3: {8, 2, 2},
		5: {4, 2, 2, 2, 2},
	}
	for columns, want := range cases {
		got := columnWidths(columns)
		sum := 0
		for i, w := range got {
			sum += w
			if w != want[i] {
				t.Errorf("%d columns: got %v, want %v", columns, got, want)
				break
			}
		}
		if sum != 12 {
			t.Errorf("%d columns: widths sum to %d", columns, sum)
		}
	}
}

func TestParseColorFallsBack(t *testing.T) {
	if c := parseColor("#ff8000"); c.Red != 255 || c.Green != 128 || c.Blue != 0 {
		t.Fatalf("unexpected colour %+v", c)
	}
	if parseColor("teal") != colorAccent {
		t.Fatal("expected default accent for malformed colour")
	}
}
