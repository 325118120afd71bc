package maps

import "areabutler_backend/internal/location"

const (
	defaultSuggestionLimit = 5
	// upstreamLimit is fixed so the cache key depends on the query alone.
	upstreamLimit = 10
)

// LookupRequest holds the address-lookup query parameters.
type LookupRequest struct {
	Query string `form:"q" binding:"required,min=3,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=10"`
}

// AddressSuggestion is one German address candidate for the location search
// and the preferred location form.
type AddressSuggestion struct {
	Label       string               `json:"label"`
	Street      string               `json:"street"`
	HouseNumber string               `json:"houseNumber"`
	ZipCode     string               `json:"zipCode"`
	City        string               `json:"city"`
	District    string               `json:"district,omitempty"`
	State       string               `json:"state,omitempty"`
	Coordinates location.Coordinates `json:"coordinates"`
}

type nominatimAddress struct {
	Road         string `json:"road"`
	Pedestrian   string `json:"pedestrian"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	Suburb       string `json:"suburb"`
	CityDistrict string `json:"city_district"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}
