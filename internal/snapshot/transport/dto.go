package transport

import (
	"strings"
	"time"

	"areabutler_backend/internal/entitygroups"
	"areabutler_backend/internal/exports"
	"areabutler_backend/internal/location"
	"areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	// TagTransportMode accepts WALK, BICYCLE or CAR.
	TagTransportMode = "transportmode"
	// TagIntegrationVendor accepts the CRMs that carry config overrides.
	TagIntegrationVendor = "integrationvendor"
)

// RegisterValidators registers the snapshot enum tags on val.
func RegisterValidators(val *validator.Validator) error {
	modes := make([]string, len(location.TransportModes))
	for i, m := range location.TransportModes {
		modes[i] = string(m)
	}
	if err := val.RegisterEnum(TagTransportMode, modes...); err != nil {
		return err
	}
	return val.RegisterEnum(TagIntegrationVendor, "PROPSTACK", "ONOFFICE")
}

type CoordinatesDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

func (c CoordinatesDTO) Coordinates() location.Coordinates {
	return location.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

type PlaceDTO struct {
	Address     string         `json:"address" validate:"required,max=500"`
	Coordinates CoordinatesDTO `json:"coordinates"`
}

type PreferredLocationDTO struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Address     string          `json:"address" validate:"required,max=500"`
	Coordinates *CoordinatesDTO `json:"coordinates"`
}

func toPreferred(in []PreferredLocationDTO) []location.PreferredLocation {
	out := make([]location.PreferredLocation, 0, len(in))
	for _, p := range in {
		loc := location.PreferredLocation{Title: p.Title, Address: p.Address}
		if p.Coordinates != nil {
			c := p.Coordinates.Coordinates()
			loc.Coordinates = &c
		}
		out = append(out, loc)
	}
	return out
}

type CreateSnapshotRequest struct {
	Location           PlaceDTO                `json:"location"`
	TransportModes     []string                `json:"transportModes" validate:"required,min=1,dive,transportmode"`
	SearchResponse     location.SearchResponse `json:"searchResponse"`
	Config             *domain.SnapshotConfig  `json:"config"`
	PreferredLocations []PreferredLocationDTO  `json:"preferredLocations" validate:"max=20,dive"`
	IntegrationVendor  string                  `json:"integrationVendor" validate:"omitempty,integrationvendor"`
}

// Modes returns the selected transport modes.
func (r CreateSnapshotRequest) Modes() []location.TransportMode {
	out := make([]location.TransportMode, len(r.TransportModes))
	for i, m := range r.TransportModes {
		out[i] = location.TransportMode(m)
	}
	return out
}

func (r CreateSnapshotRequest) Preferred() []location.PreferredLocation {
	return toPreferred(r.PreferredLocations)
}

type UpdateSnapshotRequest struct {
	PreferredLocations []PreferredLocationDTO `json:"preferredLocations" validate:"max=20,dive"`
	Description        *string                `json:"description" validate:"omitempty,max=10000"`
}

func (r UpdateSnapshotRequest) Preferred() []location.PreferredLocation {
	if r.PreferredLocations == nil {
		return nil
	}
	return toPreferred(r.PreferredLocations)
}

type ListSnapshotsRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type EntityGroupsRequest struct {
	Available bool   `form:"available"`
	Order     string `form:"order" validate:"max=2000"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// GroupOrder splits the comma separated custom group order.
func (r EntityGroupsRequest) GroupOrder() []string {
	if strings.TrimSpace(r.Order) == "" {
		return nil
	}
	parts := strings.Split(r.Order, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=PDF CSV TABLES"`
	Preset string `json:"preset" validate:"omitempty,oneof=ONE_PAGE FULL"`
}

type SnapshotResponse struct {
	ID                 uuid.UUID                    `json:"id"`
	Token              string                       `json:"token"`
	IntegrationVendor  *string                      `json:"integrationVendor,omitempty"`
	Location           location.Place               `json:"location"`
	SearchResponse     location.SearchResponse      `json:"searchResponse"`
	Config             *domain.SnapshotConfig       `json:"config,omitempty"`
	PreferredLocations []location.PreferredLocation `json:"preferredLocations"`
	Description        *string                      `json:"description,omitempty"`
	CreatedAt          time.Time                    `json:"createdAt"`
	UpdatedAt          time.Time                    `json:"updatedAt"`
	LastAccessedAt     *time.Time                   `json:"lastAccessedAt,omitempty"`
}

// SnapshotSummary is the list representation without the search payload.
type SnapshotSummary struct {
	ID             uuid.UUID      `json:"id"`
	Token          string         `json:"token"`
	Location       location.Place `json:"location"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	LastAccessedAt *time.Time     `json:"lastAccessedAt,omitempty"`
}

type ListSnapshotsResponse struct {
	Items      []SnapshotSummary `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type ConfigResponse struct {
	Stored    *domain.SnapshotConfig `json:"stored,omitempty"`
	Effective domain.SnapshotConfig  `json:"effective"`
}

type EntityGroupsResponse struct {
	Groups []entitygroups.EntityGroup `json:"groups"`
}

// EmbedResponse is the public view rendered by the embeddable map.
type EmbedResponse struct {
	Location    location.Place                                `json:"location"`
	Config      domain.SnapshotConfig                         `json:"config"`
	Groups      []entitygroups.EntityGroup                    `json:"groups"`
	Means       []location.TransportMode                      `json:"availableMeans"`
	Isochrones  map[location.TransportMode]location.Isochrone `json:"isochrones"`
	Description *string                                       `json:"description,omitempty"`
}

type ExportResponse struct {
	Format    string              `json:"format"`
	FileName  string              `json:"fileName,omitempty"`
	URL       string              `json:"url,omitempty"`
	ExpiresAt *time.Time          `json:"expiresAt,omitempty"`
	Tables    *exports.ExportData `json:"tables,omitempty"`
	Pages     []exports.Page      `json:"pages,omitempty"`
}

func ToResponse(s domain.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:                 s.ID,
		Token:              s.Token,
		IntegrationVendor:  s.IntegrationVendor,
		Location:           s.Location,
		SearchResponse:     s.SearchResponse,
		Config:             s.Config,
		PreferredLocations: s.PreferredLocations,
		Description:        s.Description,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		LastAccessedAt:     s.LastAccessedAt,
	}
}

func ToSummary(s domain.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		ID:             s.ID,
		Token:          s.Token,
		Location:       s.Location,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		LastAccessedAt: s.LastAccessedAt,
	}
}
