package crm

import (
	"bytes"
	"encoding/xml"
	"math"
	"strings"

	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/platform/apperr"

	"golang.org/x/net/html/charset"
)

// OpenImmoPayload is one <immobilie> element of an OpenImmo document.
type OpenImmoPayload struct {
	Category struct {
		MarketingType struct {
			Buy  string `xml:"KAUF,attr"`
			Rent string `xml:"MIETE_PACHT,attr"`
		} `xml:"vermarktungsart"`
		ObjectType struct {
			Inner []struct {
				XMLName xml.Name
			} `xml:",any"`
		} `xml:"objektart"`
	} `xml:"objektkategorie"`
	Geo struct {
		Zip         string `xml:"plz"`
		City        string `xml:"ort"`
		Street      string `xml:"strasse"`
		HouseNumber string `xml:"hausnummer"`
		Coordinates struct {
			Lat string `xml:"breitengrad,attr"`
			Lng string `xml:"laengengrad,attr"`
		} `xml:"geokoordinaten"`
	} `xml:"geo"`
	Prices struct {
		PurchasePrice string `xml:"kaufpreis"`
		ColdRent      string `xml:"kaltmiete"`
		WarmRent      string `xml:"warmmiete"`
		Currency      struct {
			ISO string `xml:"iso_waehrung,attr"`
		} `xml:"waehrung"`
	} `xml:"preise"`
	Areas struct {
		LivingArea string `xml:"wohnflaeche"`
		PlotArea   string `xml:"grundstuecksflaeche"`
		Rooms      string `xml:"anzahl_zimmer"`
		Balconies  string `xml:"anzahl_balkone"`
	} `xml:"flaechen"`
	Features struct {
		Garden string `xml:"gartennutzung"`
		Elevator struct {
			Passenger string `xml:"PERSONEN,attr"`
			Freight   string `xml:"LASTEN,attr"`
		} `xml:"fahrstuhl"`
		Heating struct {
			Floor string `xml:"FUSSBODEN,attr"`
		} `xml:"heizungsart"`
		GuestToilet string `xml:"gaestewc"`
		Kitchen     struct {
			Fitted string `xml:"EBK,attr"`
		} `xml:"kueche"`
		BarrierFree string `xml:"barrierefrei"`
		Wheelchair  string `xml:"rollstuhlgerecht"`
		Parking     struct {
			Garage      string `xml:"GARAGE,attr"`
			Underground string `xml:"TIEFGARAGE,attr"`
		} `xml:"stellplatzart"`
		Basement struct {
			Value string `xml:"keller,attr"`
		} `xml:"unterkellert"`
	} `xml:"ausstattung"`
	Condition struct {
		SaleStatus struct {
			Value string `xml:"stand,attr"`
		} `xml:"verkaufstatus"`
		EnergyPass struct {
			Class string `xml:"wertklasse"`
		} `xml:"energiepass"`
	} `xml:"zustand_angaben"`
	Texts struct {
		Title string `xml:"objekttitel"`
	} `xml:"freitexte"`
	Admin struct {
		ExternalID string `xml:"objektnr_extern"`
		InternalID string `xml:"objektnr_intern"`
	} `xml:"verwaltung_techn"`
}

type openImmoDocument struct {
	XMLName xml.Name `xml:"openimmo"`
	Providers []struct {
		Objects []OpenImmoPayload `xml:"immobilie"`
	} `xml:"anbieter"`
}

// ParseOpenImmo reads every <immobilie> of an OpenImmo document. Exports in
// ISO-8859-1 or windows-1252 are decoded by their XML declaration.
func ParseOpenImmo(data []byte) ([]OpenImmoPayload, error) {
	var doc openImmoDocument
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "invalid OpenImmo document", err)
	}

	var out []OpenImmoPayload
	for _, provider := range doc.Providers {
		out = append(out, provider.Objects...)
	}
	return out, nil
}

func (p OpenImmoPayload) Vendor() Vendor { return VendorOpenImmo }

func (p OpenImmoPayload) ExternalID() string {
	return firstNonEmpty(p.Admin.ExternalID, p.Admin.InternalID)
}

func (p OpenImmoPayload) objectType() string {
	if len(p.Category.ObjectType.Inner) == 0 {
		return ""
	}
	return p.Category.ObjectType.Inner[0].XMLName.Local
}

func (p OpenImmoPayload) marketingType() string {
	switch {
	case xmlBool(p.Category.MarketingType.Buy):
		return "KAUF"
	case xmlBool(p.Category.MarketingType.Rent):
		return "MIETE_PACHT"
	}
	return ""
}

// MapToListing maps the object. Price precedence: kaufpreis, kaltmiete, warmmiete.
func (p OpenImmoPayload) MapToListing() (domain.Listing, error) {
	coords, err := coordinates(p.ExternalID(), xmlCoordinate(p.Geo.Coordinates.Lat), xmlCoordinate(p.Geo.Coordinates.Lng))
	if err != nil {
		return domain.Listing{}, err
	}

	address := formatAddress(p.Geo.Street, p.Geo.HouseNumber, p.Geo.Zip, p.Geo.City)
	f := p.Features

	var furnishing furnishingSet
	furnishing.add(domain.FurnishingGarden, xmlBool(f.Garden))
	furnishing.add(domain.FurnishingBalcony, positive(xmlNumber(p.Areas.Balconies)))
	furnishing.add(domain.FurnishingElevator, xmlBool(f.Elevator.Passenger), xmlBool(f.Elevator.Freight))
	furnishing.add(domain.FurnishingUnderfloorHeating, xmlBool(f.Heating.Floor))
	furnishing.add(domain.FurnishingGuestRestRooms, xmlBool(f.GuestToilet))
	furnishing.add(domain.FurnishingFittedKitchen, xmlBool(f.Kitchen.Fitted))
	furnishing.add(domain.FurnishingAccessible, xmlBool(f.BarrierFree), xmlBool(f.Wheelchair))
	furnishing.add(domain.FurnishingGarageParkingSpace, xmlBool(f.Parking.Garage), xmlBool(f.Parking.Underground))
	furnishing.add(domain.FurnishingBasement, hasBasement(f.Basement.Value))

	return domain.Listing{
		Name:        firstNonEmpty(p.Texts.Title, p.objectType(), address),
		Address:     address,
		Coordinates: coords,
		CostStructure: firstCost(p.Prices.Currency.ISO,
			costCandidate{xmlNumber(p.Prices.PurchasePrice), domain.CostSell},
			costCandidate{xmlNumber(p.Prices.ColdRent), domain.CostRentMonthlyCold},
			costCandidate{xmlNumber(p.Prices.WarmRent), domain.CostRentMonthlyWarm},
		),
		Characteristics: buildCharacteristics(
			xmlNumber(p.Areas.Rooms),
			xmlNumber(p.Areas.LivingArea),
			xmlNumber(p.Areas.PlotArea),
			p.Condition.EnergyPass.Class,
			furnishing,
		),
		Status2:       strings.TrimSpace(p.Condition.SaleStatus.Value),
		MarketingType: p.marketingType(),
	}, nil
}

func xmlNumber(raw string) *FlexNumber {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	v, ok := ParseNumber(raw)
	if !ok {
		return Num(math.NaN())
	}
	return Num(v)
}

func xmlCoordinate(raw string) *FlexNumber {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Num(parseDegrees(raw))
}

func xmlBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "ja":
		return true
	}
	return false
}
