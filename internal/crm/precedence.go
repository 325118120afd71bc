package crm

import (
	"strings"

	"areabutler_backend/internal/realestate/domain"
)

// costCandidate is one price field of a vendor payload.
type costCandidate struct {
	amount   *FlexNumber
	costType domain.CostType
}

// firstCost returns the first candidate with a positive amount. The order of
// candidates is the vendor's price precedence.
func firstCost(currency string, candidates ...costCandidate) *domain.CostStructure {
	for _, c := range candidates {
		if amount, ok := c.amount.Positive(); ok {
			return &domain.CostStructure{
				Price: domain.Price{Amount: amount, Currency: NormalizeCurrency(currency)},
				Type:  c.costType,
			}
		}
	}
	return nil
}

// firstNonEmpty returns the first candidate that is not blank.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// formatAddress joins street, house number, zip code and city as
// "Musterstr. 1, 10115 Berlin", skipping missing parts.
func formatAddress(street, houseNumber, zip, city string) string {
	line1 := strings.TrimSpace(strings.TrimSpace(street) + " " + strings.TrimSpace(houseNumber))
	line2 := strings.TrimSpace(strings.TrimSpace(zip) + " " + strings.TrimSpace(city))
	switch {
	case line1 == "":
		return line2
	case line2 == "":
		return line1
	}
	return line1 + ", " + line2
}

// furnishingSet accumulates furnishing flags from independent vendor fields.
type furnishingSet struct {
	seen  map[domain.Furnishing]bool
	order []domain.Furnishing
}

func (s *furnishingSet) add(f domain.Furnishing, conditions ...bool) {
	for _, c := range conditions {
		if !c {
			continue
		}
		if s.seen == nil {
			s.seen = map[domain.Furnishing]bool{}
		}
		if !s.seen[f] {
			s.seen[f] = true
			s.order = append(s.order, f)
		}
		return
	}
}

func (s *furnishingSet) list() []domain.Furnishing {
	out := make([]domain.Furnishing, 0, len(s.order))
	return append(out, s.order...)
}

// buildCharacteristics returns nil when nothing but an empty furnishing list
// would be stored.
func buildCharacteristics(rooms, livingArea, plotArea *FlexNumber, energyClass string, furnishing furnishingSet) *domain.Characteristics {
	c := &domain.Characteristics{
		NumberOfRooms:                rooms.Ptr(),
		RealEstateSizeInSquareMeters: livingArea.Ptr(),
		PropertySizeInSquareMeters:   plotArea.Ptr(),
		EnergyEfficiency:             strings.TrimSpace(energyClass),
		Furnishing:                   furnishing.list(),
	}
	if c.NumberOfRooms == nil && c.RealEstateSizeInSquareMeters == nil && c.PropertySizeInSquareMeters == nil &&
		c.EnergyEfficiency == "" && len(c.Furnishing) == 0 {
		return nil
	}
	return c
}

func positive(f *FlexNumber) bool {
	_, ok := f.Positive()
	return ok
}
