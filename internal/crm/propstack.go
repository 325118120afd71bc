package crm

import (
	"strings"

	"areabutler_backend/internal/realestate/domain"
)

// PropstackStatus is the property status object of the Propstack API.
type PropstackStatus struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// PropstackPayload is a unit as returned by the Propstack REST API.
type PropstackPayload struct {
	ID               FlexString       `json:"id"`
	Title            string           `json:"title"`
	RsType           string           `json:"rs_type"`
	ObjectType       string           `json:"object_type"`
	Address          string           `json:"address"`
	Street           string           `json:"street"`
	HouseNumber      string           `json:"house_number"`
	ZipCode          string           `json:"zip_code"`
	City             string           `json:"city"`
	Lat              *FlexCoordinate  `json:"lat"`
	Lng              *FlexCoordinate  `json:"lng"`
	Price            *FlexNumber      `json:"price"`
	BaseRent         *FlexNumber      `json:"base_rent"`
	TotalRent        *FlexNumber      `json:"total_rent"`
	Currency         string           `json:"currency"`
	NumberOfRooms    *FlexNumber      `json:"number_of_rooms"`
	LivingSpace      *FlexNumber      `json:"living_space"`
	PlotArea         *FlexNumber      `json:"plot_area"`
	EnergyClass      string           `json:"energy_efficiency_class"`
	Balcony          FlexBool         `json:"balcony"`
	Balconies        *FlexNumber      `json:"number_of_balconies"`
	Garden           FlexBool         `json:"garden"`
	Lift             FlexBool         `json:"lift"`
	HeatingType      string           `json:"heating_type"`
	FloorHeating     FlexBool         `json:"floor_heating"`
	GuestToilet      FlexBool         `json:"guest_toilet"`
	BuiltInKitchen   FlexBool         `json:"built_in_kitchen"`
	BarrierFree      FlexBool         `json:"barrier_free"`
	ParkingSpaceType string           `json:"parking_space_type"`
	ParkingSpaces    *FlexNumber      `json:"number_of_parking_spaces"`
	Cellar           FlexBool         `json:"cellar"`
	MarketingType    string           `json:"marketing_type"`
	PropertyStatus   *PropstackStatus `json:"property_status"`
}

func (p PropstackPayload) Vendor() Vendor     { return VendorPropstack }
func (p PropstackPayload) ExternalID() string { return string(p.ID) }

// MapToListing maps the unit. Price precedence: price, base_rent (cold), total_rent (warm).
func (p PropstackPayload) MapToListing() (domain.Listing, error) {
	coords, err := coordinates(p.ExternalID(), p.Lat.Number(), p.Lng.Number())
	if err != nil {
		return domain.Listing{}, err
	}

	address := firstNonEmpty(p.Address, formatAddress(p.Street, p.HouseNumber, p.ZipCode, p.City))

	var furnishing furnishingSet
	furnishing.add(domain.FurnishingGarden, bool(p.Garden))
	furnishing.add(domain.FurnishingBalcony, bool(p.Balcony), positive(p.Balconies))
	furnishing.add(domain.FurnishingElevator, bool(p.Lift))
	furnishing.add(domain.FurnishingUnderfloorHeating, bool(p.FloorHeating), strings.EqualFold(p.HeatingType, "FLOOR_HEATING"))
	furnishing.add(domain.FurnishingGuestRestRooms, bool(p.GuestToilet))
	furnishing.add(domain.FurnishingFittedKitchen, bool(p.BuiltInKitchen))
	furnishing.add(domain.FurnishingAccessible, bool(p.BarrierFree))
	furnishing.add(domain.FurnishingGarageParkingSpace, strings.Contains(strings.ToUpper(p.ParkingSpaceType), "GARAGE"), positive(p.ParkingSpaces))
	furnishing.add(domain.FurnishingBasement, bool(p.Cellar))

	var status2 string
	if p.PropertyStatus != nil {
		status2 = strings.TrimSpace(p.PropertyStatus.Name)
	}

	return domain.Listing{
		Name:        firstNonEmpty(p.Title, p.RsType, p.ObjectType, address),
		Address:     address,
		Coordinates: coords,
		CostStructure: firstCost(p.Currency,
			costCandidate{p.Price, domain.CostSell},
			costCandidate{p.BaseRent, domain.CostRentMonthlyCold},
			costCandidate{p.TotalRent, domain.CostRentMonthlyWarm},
		),
		Characteristics: buildCharacteristics(p.NumberOfRooms, p.LivingSpace, p.PlotArea, p.EnergyClass, furnishing),
		Status2:         status2,
		MarketingType:   strings.TrimSpace(p.MarketingType),
	}, nil
}
