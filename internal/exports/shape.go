// Package exports turns entity groups into the render-ready tables used by
// the PDF, CSV and document exports.
package exports

import (
	"cmp"
	"slices"

	"areabutler_backend/internal/entitygroups"
	"areabutler_backend/internal/location"
	snapshot "areabutler_backend/internal/snapshot/domain"
)

// Limits caps an export. Zero means unlimited.
type Limits struct {
	GroupLimit int `json:"groupLimit"`
	ItemLimit  int `json:"itemLimit"`
}

var (
	// OnePageLimits fits a one page summary.
	OnePageLimits = Limits{GroupLimit: 8, ItemLimit: 3}
	// FullLimits lists every group.
	FullLimits = Limits{GroupLimit: 0, ItemLimit: 10}
)

// Preset names an export size.
type Preset string

const (
	PresetOnePage Preset = "ONE_PAGE"
	PresetFull    Preset = "FULL"
)

// LimitsFor returns the limits of a preset, defaulting to FullLimits.
func LimitsFor(p Preset) Limits {
	if p == PresetOnePage {
		return OnePageLimits
	}
	return FullLimits
}

// Legend maps a group title to its icon reference. Titles without an entry
// have no icon and are left out of the legend.
type Legend map[string]string

// ExportTable is one group rendered as rows.
type ExportTable struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Body   [][]string `json:"body"`
}

// LegendEntry pairs a group title with its icon.
type LegendEntry struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// ExportData is the render-ready content of an export.
type ExportData struct {
	Tables []ExportTable `json:"tables"`
	Legend []LegendEntry `json:"legend"`
}

var meansHeaders = map[location.TransportMode]string{
	location.Walk:    "Zu Fuß",
	location.Bicycle: "Fahrrad",
	location.Car:     "Auto",
}

const (
	markYes    = "ja"
	markNo     = "-"
	noDistance = "-"
)

// Shape selects and formats groups for export. Groups without selected items
// are skipped. The remaining groups are ordered active first, then by title,
// and capped at GroupLimit; each keeps its ItemLimit nearest selected items.
// The output depends only on the inputs.
func Shape(groups []entitygroups.EntityGroup, cfg *snapshot.SnapshotConfig, legend Legend, limits Limits) ExportData {
	candidates := make([]entitygroups.EntityGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.SelectedItems()) > 0 {
			candidates = append(candidates, g)
		}
	}

	slices.SortStableFunc(candidates, func(a, b entitygroups.EntityGroup) int {
		if a.Active != b.Active {
			if a.Active {
				return -1
			}
			return 1
		}
		return entitygroups.CompareTitles(a.Title, b.Title)
	})
	if limits.GroupLimit > 0 && len(candidates) > limits.GroupLimit {
		candidates = candidates[:limits.GroupLimit]
	}

	means := cfg.ActiveMeans()
	header := []string{"Name", "Entfernung"}
	for _, mode := range means {
		header = append(header, meansHeaders[mode])
	}

	data := ExportData{
		Tables: make([]ExportTable, 0, len(candidates)),
		Legend: []LegendEntry{},
	}
	for _, g := range candidates {
		data.Tables = append(data.Tables, ExportTable{
			Title:  g.Title,
			Header: slices.Clone(header),
			Body:   rows(nearest(g.SelectedItems(), limits.ItemLimit), means),
		})
		if icon, ok := legend[g.Title]; g.Active && ok && icon != "" {
			data.Legend = append(data.Legend, LegendEntry{Title: g.Title, Icon: icon})
		}
	}
	return data
}

func nearest(items []entitygroups.ResultEntity, limit int) []entitygroups.ResultEntity {
	slices.SortStableFunc(items, func(a, b entitygroups.ResultEntity) int {
		return cmp.Or(
			cmp.Compare(a.DistanceInMeters, b.DistanceInMeters),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func rows(items []entitygroups.ResultEntity, means []location.TransportMode) [][]string {
	body := make([][]string, 0, len(items))
	for _, item := range items {
		distance := noDistance
		if item.HasDistance() {
			distance = FormatDistance(item.DistanceInMeters)
		}
		row := []string{TruncateName(item.Name, MaxNameLength), distance}
		for _, mode := range means {
			if item.Reachable(mode) {
				row = append(row, markYes)
			} else {
				row = append(row, markNo)
			}
		}
		body = append(body, row)
	}
	return body
}

// LegendFromCatalog builds a legend from the POI catalog icons.
func LegendFromCatalog(c *location.Catalog) Legend {
	return Legend(c.Icons())
}
