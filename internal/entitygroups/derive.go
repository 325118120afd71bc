package entitygroups

import (
	"cmp"
	"slices"
	"strconv"

	"areabutler_backend/internal/location"
	realestate "areabutler_backend/internal/realestate/domain"
	snapshot "areabutler_backend/internal/snapshot/domain"

	"github.com/mmcloughlin/geohash"
)

// Derive builds the entity groups for a snapshot. Items are deduplicated by
// coordinate and entity name across transport modes, grouped by label and
// sorted by distance. Groups keep the order of first appearance; callers
// order them with SortGroups. With ignoreVisibility set, explicit exclusions,
// POI filters and the snippet flag of listings are skipped, which yields the
// superset offered in the editor. An empty search response yields no groups.
func Derive(
	search location.SearchResponse,
	cfg *snapshot.SnapshotConfig,
	listings []realestate.Listing,
	preferred []location.PreferredLocation,
	ignoreVisibility bool,
) []EntityGroup {
	if len(search) == 0 {
		return []EntityGroup{}
	}

	catalog := location.DefaultCatalog()
	explicit := explicitVisibility(cfg, ignoreVisibility)

	groups := groupLocations(search, catalog)
	for i := range groups {
		groups[i].Active = cfg.GroupActive(groups[i].Title)
		sortItems(groups[i].Items)
		if !ignoreVisibility {
			groups[i].Items = applyVisibility(groups[i].Items, cfg, explicit)
		}
	}

	if g, ok := listingGroup(search, cfg, listings, explicit, ignoreVisibility); ok {
		groups = append(groups, g)
	}
	if g, ok := preferredGroup(cfg, preferred); ok {
		groups = append(groups, g)
	}

	out := make([]EntityGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Items) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// ItemKey identifies a POI independent of transport mode.
func ItemKey(c location.Coordinates, entityName string) string {
	return geohash.Encode(c.Lat, c.Lng) + ":" + entityName
}

func groupLocations(search location.SearchResponse, catalog *location.Catalog) []EntityGroup {
	type slot struct{ group, item int }

	var groups []EntityGroup
	groupIndex := map[string]int{}
	seen := map[string]slot{}

	for _, mode := range location.TransportModes {
		result, ok := search[mode]
		if !ok {
			continue
		}
		for _, loc := range result.LocationsOfInterest {
			key := ItemKey(loc.Coordinates, loc.Entity.Name)
			if s, dup := seen[key]; dup {
				groups[s.group].Items[s.item].setReachable(mode)
				continue
			}

			label := catalog.LabelFor(loc.Entity)
			gi, exists := groupIndex[label]
			if !exists {
				gi = len(groups)
				groupIndex[label] = gi
				groups = append(groups, EntityGroup{Title: label, Name: loc.Entity.Name})
			}

			item := newLocationItem(loc, label, key)
			item.setReachable(mode)
			groups[gi].Items = append(groups[gi].Items, item)
			seen[key] = slot{group: gi, item: len(groups[gi].Items) - 1}
		}
	}
	return groups
}

func newLocationItem(loc location.OsmLocation, label, key string) ResultEntity {
	id := loc.Entity.ID
	if id == "" {
		id = key
	}
	name := loc.Entity.Title
	if name == "" {
		name = label
	}
	return ResultEntity{
		ID:               id,
		Name:             name,
		Label:            label,
		OsmName:          loc.Entity.Name,
		Address:          loc.Address,
		Coordinates:      loc.Coordinates,
		DistanceInMeters: loc.DistanceInMeters,
		Selected:         true,
	}
}

func explicitVisibility(cfg *snapshot.SnapshotConfig, ignore bool) map[string]bool {
	if ignore || cfg == nil || len(cfg.EntityVisibility) == 0 {
		return nil
	}
	out := make(map[string]bool, len(cfg.EntityVisibility))
	for _, v := range cfg.EntityVisibility {
		out[v.ID] = v.Excluded
	}
	return out
}

// applyVisibility drops excluded items. An explicit entry decides on its own;
// otherwise the POI filter default applies. The amount filter ranks an item
// among the kept items of its own OSM type. items must be sorted by distance.
func applyVisibility(items []ResultEntity, cfg *snapshot.SnapshotConfig, explicit map[string]bool) []ResultEntity {
	out := make([]ResultEntity, 0, len(items))
	kept := make(map[string]int)
	for _, item := range items {
		excluded, ok := explicit[item.ID]
		if !ok {
			excluded = filteredByDefault(cfg, item, kept[item.OsmName])
		}
		if !excluded {
			out = append(out, item)
			kept[item.OsmName]++
		}
	}
	return out
}

func filteredByDefault(cfg *snapshot.SnapshotConfig, item ResultEntity, rank int) bool {
	if cfg == nil || cfg.PoiFilter == nil {
		return false
	}
	threshold := cfg.PoiFilter.Threshold(item.OsmName)
	switch cfg.PoiFilter.Type {
	case snapshot.PoiFilterByDistance:
		return threshold > 0 && item.DistanceInMeters > float64(threshold)
	case snapshot.PoiFilterByAmount:
		return threshold > 0 && rank >= threshold
	}
	return false
}

func listingGroup(
	search location.SearchResponse,
	cfg *snapshot.SnapshotConfig,
	listings []realestate.Listing,
	explicit map[string]bool,
	ignoreVisibility bool,
) (EntityGroup, bool) {
	if len(listings) == 0 {
		return EntityGroup{}, false
	}

	filter := realestate.Status(cfg.StatusFilter())
	items := make([]ResultEntity, 0, len(listings))
	for i := range listings {
		l := listings[i]
		if !l.MatchesStatus(filter) {
			continue
		}
		if !ignoreVisibility && !l.ShowInSnippet {
			continue
		}
		id := l.ID.String()
		if explicit[id] {
			continue
		}

		item := ResultEntity{
			ID:                id,
			Name:              l.Name,
			Label:             RealEstateTitle,
			OsmName:           realEstateName,
			Address:           l.Address,
			Coordinates:       l.Coordinates,
			Selected:          true,
			RealEstateListing: &l,
		}
		for _, mode := range location.TransportModes {
			if result, ok := search[mode]; ok && result.Isochrone.Contains(l.Coordinates) {
				item.setReachable(mode)
			}
		}
		items = append(items, item)
	}

	sortItems(items)
	return EntityGroup{
		Title:  RealEstateTitle,
		Name:   realEstateName,
		Active: cfg.GroupActive(RealEstateTitle),
		Items:  items,
	}, true
}

func preferredGroup(cfg *snapshot.SnapshotConfig, preferred []location.PreferredLocation) (EntityGroup, bool) {
	if len(preferred) == 0 {
		return EntityGroup{}, false
	}

	items := make([]ResultEntity, 0, len(preferred))
	for i, p := range preferred {
		if p.Coordinates == nil {
			continue
		}
		items = append(items, ResultEntity{
			ID:          preferredLocationsName + "-" + strconv.Itoa(i),
			Name:        p.Title,
			Label:       PreferredLocationsTitle,
			OsmName:     preferredLocationsName,
			Address:     p.Address,
			Coordinates: *p.Coordinates,
			Selected:    true,
			IsCustom:    true,
		})
	}

	sortItems(items)
	return EntityGroup{
		Title:  PreferredLocationsTitle,
		Name:   preferredLocationsName,
		Active: cfg.GroupActive(PreferredLocationsTitle),
		Items:  items,
	}, true
}

func sortItems(items []ResultEntity) {
	slices.SortStableFunc(items, func(a, b ResultEntity) int {
		return cmp.Or(
			cmp.Compare(a.DistanceInMeters, b.DistanceInMeters),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
