package transport

import (
	"encoding/json"
	"time"

	"areabutler_backend/internal/location"
	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	// TagStatus accepts a storable listing status.
	TagStatus = "realestatestatus"
	// TagStatusFilter additionally accepts ALLE.
	TagStatusFilter = "realestatestatusfilter"
	// TagVendor accepts a CRM vendor that delivers JSON records.
	TagVendor = "crmvendor"
)

// RegisterValidators registers the real-estate enum tags on val.
func RegisterValidators(val *validator.Validator) error {
	statuses := domain.PersistableStatuses()
	if err := val.RegisterEnum(TagStatus, statuses...); err != nil {
		return err
	}
	if err := val.RegisterEnum(TagStatusFilter, append(statuses, string(domain.StatusAll))...); err != nil {
		return err
	}
	return val.RegisterEnum(TagVendor, "ONOFFICE", "PROPSTACK", "PROPSTACK_WEBHOOK")
}

type CoordinatesDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type ListingRequest struct {
	Name            string                  `json:"name" validate:"required,min=1,max=300"`
	Address         string                  `json:"address" validate:"max=300"`
	Coordinates     CoordinatesDTO          `json:"coordinates"`
	CostStructure   *domain.CostStructure   `json:"costStructure,omitempty"`
	Characteristics *domain.Characteristics `json:"characteristics,omitempty"`
	Status          string                  `json:"status" validate:"omitempty,realestatestatus"`
	Status2         string                  `json:"status2,omitempty" validate:"omitempty,max=100"`
	ShowInSnippet   *bool                   `json:"showInSnippet,omitempty"`
}

// Location returns the request coordinates as a domain value.
func (r ListingRequest) Location() location.Coordinates {
	return location.Coordinates{Lat: r.Coordinates.Lat, Lng: r.Coordinates.Lng}
}

type ListListingsRequest struct {
	Status   string `form:"status" validate:"omitempty,realestatestatusfilter"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ListingResponse struct {
	ID              uuid.UUID               `json:"id"`
	Name            string                  `json:"name"`
	Address         string                  `json:"address"`
	Coordinates     location.Coordinates    `json:"coordinates"`
	CostStructure   *domain.CostStructure   `json:"costStructure,omitempty"`
	Characteristics *domain.Characteristics `json:"characteristics,omitempty"`
	Status          domain.Status           `json:"status,omitempty"`
	Status2         string                  `json:"status2,omitempty"`
	ShowInSnippet   bool                    `json:"showInSnippet"`
	ExternalSource  string                  `json:"externalSource,omitempty"`
	ExternalID      string                  `json:"externalId,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

type ListListingsResponse struct {
	Items      []ListingResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type ImportRequest struct {
	Vendor   string            `json:"vendor" validate:"required,crmvendor"`
	Payloads []json.RawMessage `json:"payloads" validate:"required,min=1,max=1000"`
}

type ImportResponse struct {
	Imported  int      `json:"imported"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	FailedIDs []string `json:"failedIds"`
}

type ConnectionRequest struct {
	APIKey          string          `json:"apiKey" validate:"required,min=8,max=200"`
	ConfigOverrides json.RawMessage `json:"configOverrides,omitempty"`
}

type ConnectionResponse struct {
	Vendor       string     `json:"vendor"`
	HasAPIKey    bool       `json:"hasApiKey"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

type SyncResponse struct {
	Queued bool `json:"queued"`
}

// ToResponse maps a domain listing.
func ToResponse(l domain.Listing) ListingResponse {
	return ListingResponse{
		ID:              l.ID,
		Name:            l.Name,
		Address:         l.Address,
		Coordinates:     l.Coordinates,
		CostStructure:   l.CostStructure,
		Characteristics: l.Characteristics,
		Status:          l.Status,
		Status2:         l.Status2,
		ShowInSnippet:   l.ShowInSnippet,
		ExternalSource:  l.ExternalSource,
		ExternalID:      l.ExternalID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}
