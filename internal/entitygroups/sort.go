package entitygroups

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CompareTitles orders group titles by German collation, so "Ärzte" sorts
// next to "Apotheken".
func CompareTitles(a, b string) int {
	return collate.New(language.German).CompareString(a, b)
}

// SortGroups returns a copy of groups in display order. With a custom order
// (group titles, e.g. cached from the editor) listed titles come first in that
// order and the rest follow alphabetically. Without one, groups are
// alphabetical with Immobilien pinned first and Wichtige Orte pinned last.
func SortGroups(groups []EntityGroup, order []string) []EntityGroup {
	out := slices.Clone(groups)
	col := collate.New(language.German)

	if len(order) > 0 {
		position := make(map[string]int, len(order))
		for i, title := range order {
			if _, dup := position[title]; !dup {
				position[title] = i
			}
		}
		slices.SortStableFunc(out, func(a, b EntityGroup) int {
			pa, okA := position[a.Title]
			pb, okB := position[b.Title]
			switch {
			case okA && okB:
				return pa - pb
			case okA:
				return -1
			case okB:
				return 1
			}
			return col.CompareString(a.Title, b.Title)
		})
		return out
	}

	slices.SortStableFunc(out, func(a, b EntityGroup) int {
		if ra, rb := pinRank(a.Title), pinRank(b.Title); ra != rb {
			return ra - rb
		}
		return col.CompareString(a.Title, b.Title)
	})
	return out
}

func pinRank(title string) int {
	switch title {
	case RealEstateTitle:
		return 0
	case PreferredLocationsTitle:
		return 2
	}
	return 1
}

// ApplyItemLimit returns a copy of groups in which only the limit nearest
// items of each group stay selected. Custom items are always kept selected.
// A limit of zero or less leaves the selection untouched.
func ApplyItemLimit(groups []EntityGroup, limit int) []EntityGroup {
	out := make([]EntityGroup, len(groups))
	for i, g := range groups {
		g.Items = slices.Clone(g.Items)
		if limit > 0 {
			kept := 0
			for j := range g.Items {
				item := &g.Items[j]
				if item.IsCustom || !item.Selected {
					continue
				}
				if kept >= limit {
					item.Selected = false
					continue
				}
				kept++
			}
		}
		out[i] = g
	}
	return out
}
