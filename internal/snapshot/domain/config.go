// Package domain provides the snapshot configuration model and merge rules.
package domain

import (
	"encoding/json"

	"areabutler_backend/internal/location"
)

// PoiFilterType selects how a category-level default hides POIs.
type PoiFilterType string

const (
	PoiFilterNone       PoiFilterType = "NONE"
	PoiFilterByDistance PoiFilterType = "BY_DISTANCE"
	PoiFilterByAmount   PoiFilterType = "BY_AMOUNT"
)

// Theme of the embedded map.
type Theme string

const (
	ThemeDefault Theme = "DEFAULT"
	ThemeKF      Theme = "KF"
)

// EntityVisibility is an explicit per-item override.
type EntityVisibility struct {
	ID       string `json:"id"`
	Excluded bool   `json:"excluded"`
}

// PoiFilter hides POIs beyond a distance (meters) or beyond the n nearest per
// group. PerType overrides Value for individual OSM names.
type PoiFilter struct {
	Type    PoiFilterType  `json:"type"`
	Value   int            `json:"value,omitempty"`
	PerType map[string]int `json:"perType,omitempty"`
}

// Threshold returns the effective filter value for an OSM name.
func (f PoiFilter) Threshold(osmName string) int {
	if v, ok := f.PerType[osmName]; ok {
		return v
	}
	return f.Value
}

// IconSizes are the pixel sizes of map markers.
type IconSizes struct {
	MapIconSize int `json:"mapIconSize"`
	PoiIconSize int `json:"poiIconSize"`
}

// SnapshotConfig is the persisted configuration of a snapshot. Nil pointers
// and empty slices mean "not set" and are filled by Merge.
type SnapshotConfig struct {
	ShowLocation        *bool                    `json:"showLocation,omitempty"`
	ShowAddress         *bool                    `json:"showAddress,omitempty"`
	GroupItems          *bool                    `json:"groupItems,omitempty"`
	EntityVisibility    []EntityVisibility       `json:"entityVisibility,omitempty"`
	DefaultActiveGroups []string                 `json:"defaultActiveGroups,omitempty"`
	DefaultActiveMeans  []location.TransportMode `json:"defaultActiveMeans,omitempty"`
	PoiFilter           *PoiFilter               `json:"poiFilter,omitempty"`
	RealEstateStatus    *string                  `json:"realEstateStatus,omitempty"`
	IconSizes           *IconSizes               `json:"iconSizes,omitempty"`
	PrimaryColor        *string                  `json:"primaryColor,omitempty"`
	MapBoxMapID         *string                  `json:"mapBoxMapId,omitempty"`
	ZoomLevel           *float64                 `json:"zoomLevel,omitempty"`
	Theme               *Theme                   `json:"theme,omitempty"`
	HideIsochrones      *bool                    `json:"hideIsochrones,omitempty"`
	HideMeanToggles     *bool                    `json:"hideMeanToggles,omitempty"`
	HidePoiIcons        *bool                    `json:"hidePoiIcons,omitempty"`
	ShowStreetViewLink  *bool                    `json:"showStreetViewLink,omitempty"`
	MapIcon             *string                  `json:"mapIcon,omitempty"`
	IsMapMenuCollapsed  *bool                    `json:"isMapMenuCollapsed,omitempty"`
}

type snapshotConfigAlias SnapshotConfig

// legacyConfig holds keys written by older clients.
type legacyConfig struct {
	DefaultActiveMeansOfTransport []location.TransportMode `json:"defaultActiveMeansOfTransport"`
	IconSize                      *int                     `json:"iconSize"`
	ShowLocationAddress           *bool                    `json:"showLocationAddress"`
}

// UnmarshalJSON decodes the current shape and falls back to legacy keys when
// the current key is absent.
func (c *SnapshotConfig) UnmarshalJSON(data []byte) error {
	var current snapshotConfigAlias
	if err := json.Unmarshal(data, &current); err != nil {
		return err
	}
	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	if len(current.DefaultActiveMeans) == 0 && len(legacy.DefaultActiveMeansOfTransport) > 0 {
		current.DefaultActiveMeans = legacy.DefaultActiveMeansOfTransport
	}
	if current.IconSizes == nil && legacy.IconSize != nil {
		current.IconSizes = &IconSizes{MapIconSize: *legacy.IconSize, PoiIconSize: *legacy.IconSize}
	}
	if current.ShowAddress == nil && legacy.ShowLocationAddress != nil {
		current.ShowAddress = legacy.ShowLocationAddress
	}

	*c = SnapshotConfig(current)
	return nil
}

// ActiveMeans returns the configured modes, or every mode when none are set.
func (c *SnapshotConfig) ActiveMeans() []location.TransportMode {
	if c == nil || len(c.DefaultActiveMeans) == 0 {
		return location.TransportModes
	}
	return c.DefaultActiveMeans
}

// StatusFilter returns the configured listing status filter, or "".
func (c *SnapshotConfig) StatusFilter() string {
	if c == nil || c.RealEstateStatus == nil {
		return ""
	}
	return *c.RealEstateStatus
}

// GroupActive reports whether a group title is active by default.
func (c *SnapshotConfig) GroupActive(title string) bool {
	if c == nil || len(c.DefaultActiveGroups) == 0 {
		return true
	}
	for _, t := range c.DefaultActiveGroups {
		if t == title {
			return true
		}
	}
	return false
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
