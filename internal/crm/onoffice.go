package crm

import (
	"strings"

	"areabutler_backend/internal/realestate/domain"
)

// OnOfficePayload is one estate record of the onOffice API (field names as
// returned by the "estate" resource).
type OnOfficePayload struct {
	ID            FlexString      `json:"Id"`
	Title         string          `json:"objekttitel"`
	ObjectType    string          `json:"objektart"`
	Street        string          `json:"strasse"`
	HouseNumber   string          `json:"hausnummer"`
	Zip           string          `json:"plz"`
	City          string          `json:"ort"`
	Lat           *FlexCoordinate `json:"breitengrad"`
	Lng           *FlexCoordinate `json:"laengengrad"`
	PurchasePrice *FlexNumber     `json:"kaufpreis"`
	WarmRent      *FlexNumber     `json:"warmmiete"`
	ColdRent      *FlexNumber     `json:"kaltmiete"`
	Currency      string          `json:"waehrung"`
	Rooms         *FlexNumber     `json:"anzahl_zimmer"`
	LivingArea    *FlexNumber     `json:"wohnflaeche"`
	PlotArea      *FlexNumber     `json:"grundstuecksflaeche"`
	EnergyClass   string          `json:"energyClass"`
	Balcony       FlexBool        `json:"balkon"`
	Balconies     *FlexNumber     `json:"anzahl_balkone"`
	Garden        FlexBool        `json:"gartennutzung"`
	Elevator      FlexList        `json:"fahrstuhl"`
	HeatingTypes  FlexList        `json:"heizungsart"`
	GuestToilet   FlexBool        `json:"gaestewc"`
	FittedKitchen FlexBool        `json:"einbaukueche"`
	Kitchen       FlexList        `json:"kueche"`
	BarrierFree   FlexBool        `json:"barrierefrei"`
	Wheelchair    FlexBool        `json:"rollstuhlgerecht"`
	ParkingTypes  FlexList        `json:"stellplatzart"`
	ParkingSpaces *FlexNumber     `json:"anzahl_stellplaetze"`
	Basement      string          `json:"unterkellert"`
	MarketingType string          `json:"vermarktungsart"`
	Status2       string          `json:"status2"`
}

func (p OnOfficePayload) Vendor() Vendor     { return VendorOnOffice }
func (p OnOfficePayload) ExternalID() string { return string(p.ID) }

// MapToListing maps the record. Price precedence: kaufpreis, warmmiete, kaltmiete.
func (p OnOfficePayload) MapToListing() (domain.Listing, error) {
	coords, err := coordinates(p.ExternalID(), p.Lat.Number(), p.Lng.Number())
	if err != nil {
		return domain.Listing{}, err
	}

	address := formatAddress(p.Street, p.HouseNumber, p.Zip, p.City)

	var furnishing furnishingSet
	furnishing.add(domain.FurnishingGarden, bool(p.Garden))
	furnishing.add(domain.FurnishingBalcony, bool(p.Balcony), positive(p.Balconies))
	furnishing.add(domain.FurnishingElevator, len(p.Elevator) > 0)
	furnishing.add(domain.FurnishingUnderfloorHeating, p.HeatingTypes.ContainsFold("fussboden"), p.HeatingTypes.ContainsFold("fußboden"))
	furnishing.add(domain.FurnishingGuestRestRooms, bool(p.GuestToilet))
	furnishing.add(domain.FurnishingFittedKitchen, bool(p.FittedKitchen), p.Kitchen.ContainsFold("ebk"))
	furnishing.add(domain.FurnishingAccessible, bool(p.BarrierFree), bool(p.Wheelchair))
	furnishing.add(domain.FurnishingGarageParkingSpace, p.ParkingTypes.ContainsFold("garage"), positive(p.ParkingSpaces))
	furnishing.add(domain.FurnishingBasement, hasBasement(p.Basement))

	return domain.Listing{
		Name:        firstNonEmpty(p.Title, p.ObjectType, address),
		Address:     address,
		Coordinates: coords,
		CostStructure: firstCost(p.Currency,
			costCandidate{p.PurchasePrice, domain.CostSell},
			costCandidate{p.WarmRent, domain.CostRentMonthlyWarm},
			costCandidate{p.ColdRent, domain.CostRentMonthlyCold},
		),
		Characteristics: buildCharacteristics(p.Rooms, p.LivingArea, p.PlotArea, p.EnergyClass, furnishing),
		Status2:         strings.TrimSpace(p.Status2),
		MarketingType:   strings.TrimSpace(p.MarketingType),
	}, nil
}

func hasBasement(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ja", "teilweise", "teil", "true", "1":
		return true
	}
	return false
}
