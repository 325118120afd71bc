package domain

import (
	"maps"
	"slices"

	"areabutler_backend/internal/location"
	realestate "areabutler_backend/internal/realestate/domain"
	"areabutler_backend/platform/apperr"
)

// DefaultConfig returns the application defaults, the lowest merge layer.
func DefaultConfig() SnapshotConfig {
	return SnapshotConfig{
		ShowLocation:       Ptr(true),
		ShowAddress:        Ptr(true),
		GroupItems:         Ptr(true),
		PoiFilter:          &PoiFilter{Type: PoiFilterNone},
		IconSizes:          &IconSizes{MapIconSize: 40, PoiIconSize: 32},
		PrimaryColor:       Ptr("#aa0c54"),
		MapBoxMapID:        Ptr("mapbox/streets-v11"),
		ZoomLevel:          Ptr(16.0),
		Theme:              Ptr(ThemeDefault),
		HideIsochrones:     Ptr(false),
		HideMeanToggles:    Ptr(false),
		HidePoiIcons:       Ptr(false),
		ShowStreetViewLink: Ptr(true),
		IsMapMenuCollapsed: Ptr(false),
	}
}

// Validate checks the invariants a stored config must hold.
func (c *SnapshotConfig) Validate() error {
	if c == nil {
		return nil
	}

	var details []apperr.FieldDetails
	if c.RealEstateStatus != nil && *c.RealEstateStatus != "" {
		switch status := realestate.Status(*c.RealEstateStatus); {
		case status == realestate.StatusAll:
			details = append(details, apperr.FieldDetails{Field: "realEstateStatus", Reason: "filter-only-value"})
		case !status.Persistable():
			details = append(details, apperr.FieldDetails{Field: "realEstateStatus", Reason: "oneof"})
		}
	}
	for _, mode := range c.DefaultActiveMeans {
		if !mode.Valid() {
			details = append(details, apperr.FieldDetails{Field: "defaultActiveMeans", Reason: "unknown-transport-mode"})
			break
		}
	}
	if c.PoiFilter != nil {
		switch c.PoiFilter.Type {
		case PoiFilterNone, PoiFilterByDistance, PoiFilterByAmount:
		default:
			details = append(details, apperr.FieldDetails{Field: "poiFilter.type", Reason: "oneof"})
		}
	}
	if c.Theme != nil && *c.Theme != ThemeDefault && *c.Theme != ThemeKF {
		details = append(details, apperr.FieldDetails{Field: "theme", Reason: "oneof"})
	}

	if len(details) == 0 {
		return nil
	}
	return apperr.Validation("invalid snapshot config").WithDetails(details)
}

// Merge builds the effective config. Each field is taken from the first layer
// that sets it: stored, then CRM overrides, then user defaults, then the
// application defaults. defaultActiveMeans follows activeMeans: without a
// stored value it is derived from availableMeans, the modes whose isochrone
// is non-empty. Inputs are never
// modified and merging a merged config again yields the same config.
func Merge(stored, crmOverrides, userDefaults *SnapshotConfig, availableMeans []location.TransportMode) (SnapshotConfig, error) {
	layers := []*SnapshotConfig{stored, crmOverrides, userDefaults}
	for _, layer := range layers {
		if err := layer.Validate(); err != nil {
			return SnapshotConfig{}, err
		}
	}

	defaults := DefaultConfig()
	layers = append(layers, &defaults)

	out := SnapshotConfig{
		ShowLocation:        pick(layers, func(c *SnapshotConfig) *bool { return c.ShowLocation }),
		ShowAddress:         pick(layers, func(c *SnapshotConfig) *bool { return c.ShowAddress }),
		GroupItems:          pick(layers, func(c *SnapshotConfig) *bool { return c.GroupItems }),
		RealEstateStatus:    pick(layers, func(c *SnapshotConfig) *string { return c.RealEstateStatus }),
		PrimaryColor:        pick(layers, func(c *SnapshotConfig) *string { return c.PrimaryColor }),
		MapBoxMapID:         pick(layers, func(c *SnapshotConfig) *string { return c.MapBoxMapID }),
		ZoomLevel:           pick(layers, func(c *SnapshotConfig) *float64 { return c.ZoomLevel }),
		Theme:               pick(layers, func(c *SnapshotConfig) *Theme { return c.Theme }),
		HideIsochrones:      pick(layers, func(c *SnapshotConfig) *bool { return c.HideIsochrones }),
		HideMeanToggles:     pick(layers, func(c *SnapshotConfig) *bool { return c.HideMeanToggles }),
		HidePoiIcons:        pick(layers, func(c *SnapshotConfig) *bool { return c.HidePoiIcons }),
		ShowStreetViewLink:  pick(layers, func(c *SnapshotConfig) *bool { return c.ShowStreetViewLink }),
		MapIcon:             pick(layers, func(c *SnapshotConfig) *string { return c.MapIcon }),
		IsMapMenuCollapsed:  pick(layers, func(c *SnapshotConfig) *bool { return c.IsMapMenuCollapsed }),
		EntityVisibility:    slices.Clone(pickSlice(layers, func(c *SnapshotConfig) []EntityVisibility { return c.EntityVisibility })),
		DefaultActiveGroups: slices.Clone(pickSlice(layers, func(c *SnapshotConfig) []string { return c.DefaultActiveGroups })),
	}

	if filter := pick(layers, func(c *SnapshotConfig) *PoiFilter { return c.PoiFilter }); filter != nil {
		copied := *filter
		copied.PerType = maps.Clone(filter.PerType)
		out.PoiFilter = &copied
	}
	if sizes := pick(layers, func(c *SnapshotConfig) *IconSizes { return c.IconSizes }); sizes != nil {
		copied := *sizes
		out.IconSizes = &copied
	}
	out.DefaultActiveMeans = activeMeans(layers, availableMeans)

	return out, nil
}

// activeMeans keeps the stored means verbatim. Means inherited from the CRM or
// user layer are narrowed to the modes the search can show; when nothing
// remains the available modes are used.
func activeMeans(layers []*SnapshotConfig, availableMeans []location.TransportMode) []location.TransportMode {
	if stored := layers[0]; stored != nil && len(stored.DefaultActiveMeans) > 0 {
		return slices.Clone(stored.DefaultActiveMeans)
	}

	inherited := pickSlice(layers[1:], func(c *SnapshotConfig) []location.TransportMode { return c.DefaultActiveMeans })
	if len(availableMeans) == 0 {
		return slices.Clone(inherited)
	}

	means := make([]location.TransportMode, 0, len(inherited))
	for _, mode := range inherited {
		if slices.Contains(availableMeans, mode) && !slices.Contains(means, mode) {
			means = append(means, mode)
		}
	}
	if len(means) == 0 {
		return slices.Clone(availableMeans)
	}
	return means
}

// pick returns a copy of the first non-nil pointer field across layers.
func pick[T any](layers []*SnapshotConfig, field func(*SnapshotConfig) *T) *T {
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if v := field(layer); v != nil {
			copied := *v
			return &copied
		}
	}
	return nil
}

func pickSlice[T any](layers []*SnapshotConfig, field func(*SnapshotConfig) []T) []T {
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if v := field(layer); len(v) > 0 {
			return v
		}
	}
	return nil
}
