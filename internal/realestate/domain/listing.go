// Package domain provides core business rules for the real-estate bounded context.
package domain

import (
	"time"

	"areabutler_backend/internal/location"

	"github.com/google/uuid"
)

// Status is the internal lifecycle status of a listing.
type Status string

const (
	StatusInPreparation     Status = "IN_VORBEREITUNG"
	StatusForRent           Status = "MIETE"
	StatusForSale           Status = "KAUF"
	StatusRented            Status = "VERMIETET"
	StatusSold              Status = "VERKAUFT"
	StatusArchived          Status = "ARCHIVIERT"
	StatusMarketObservation Status = "MARKTBEOBACHTUNG"

	// StatusAll is the "all statuses" filter option. It is never stored.
	StatusAll Status = "ALLE"
)

var persistableStatuses = []Status{
	StatusInPreparation,
	StatusForRent,
	StatusForSale,
	StatusRented,
	StatusSold,
	StatusArchived,
	StatusMarketObservation,
}

// Persistable reports whether s may be stored on a listing or a snapshot config.
func (s Status) Persistable() bool {
	for _, known := range persistableStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PersistableStatuses returns the storable statuses as strings, for validator enums.
func PersistableStatuses() []string {
	out := make([]string, 0, len(persistableStatuses))
	for _, s := range persistableStatuses {
		out = append(out, string(s))
	}
	return out
}

// CostType tells how a price is to be read.
type CostType string

const (
	CostRentMonthlyCold CostType = "RENT_MONTHLY_COLD"
	CostRentMonthlyWarm CostType = "RENT_MONTHLY_WARM"
	CostSell            CostType = "SELL"
)

// Furnishing is a feature flag of a listing.
type Furnishing string

const (
	FurnishingGarden             Furnishing = "GARDEN"
	FurnishingBalcony            Furnishing = "BALCONY"
	FurnishingElevator           Furnishing = "ELEVATOR"
	FurnishingUnderfloorHeating  Furnishing = "UNDERFLOOR_HEATING"
	FurnishingGuestRestRooms     Furnishing = "GUEST_REST_ROOMS"
	FurnishingFittedKitchen      Furnishing = "FITTED_KITCHEN"
	FurnishingAccessible         Furnishing = "ACCESSIBLE"
	FurnishingGarageParkingSpace Furnishing = "GARAGE_PARKING_SPACE"
	FurnishingBasement           Furnishing = "BASEMENT"
)

// Price is an amount with its currency symbol.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CostStructure is the headline price of a listing.
type CostStructure struct {
	Price Price    `json:"price"`
	Type  CostType `json:"type"`
}

// Characteristics are the measurable features of a listing.
type Characteristics struct {
	NumberOfRooms                *float64     `json:"numberOfRooms,omitempty"`
	RealEstateSizeInSquareMeters *float64     `json:"realEstateSizeInSquareMeters,omitempty"`
	PropertySizeInSquareMeters   *float64     `json:"propertySizeInSquareMeters,omitempty"`
	EnergyEfficiency             string       `json:"energyEfficiency,omitempty"`
	Furnishing                   []Furnishing `json:"furnishing"`
}

// Listing is a real-estate object owned by a user.
type Listing struct {
	ID              uuid.UUID            `json:"id"`
	UserID          uuid.UUID            `json:"userId"`
	Name            string               `json:"name"`
	Address         string               `json:"address"`
	Coordinates     location.Coordinates `json:"coordinates"`
	CostStructure   *CostStructure       `json:"costStructure,omitempty"`
	Characteristics *Characteristics     `json:"characteristics,omitempty"`
	Status          Status               `json:"status,omitempty"`
	Status2         string               `json:"status2,omitempty"`
	ShowInSnippet   bool                 `json:"showInSnippet"`
	ExternalSource  string               `json:"externalSource,omitempty"`
	ExternalID      string               `json:"externalId,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`

	// MarketingType is the vendor's rent/buy marker, only used for status resolution.
	MarketingType string `json:"-"`
}

// MatchesStatus reports whether the listing passes a status filter. An empty
// filter and StatusAll match everything.
func (l Listing) MatchesStatus(filter Status) bool {
	if filter == "" || filter == StatusAll {
		return true
	}
	return l.Status == filter
}
