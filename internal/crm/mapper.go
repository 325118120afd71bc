// Package crm maps real-estate payloads of third-party CRMs onto listings.
package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"areabutler_backend/internal/location"
	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/platform/apperr"
)

// Vendor identifies the source system of a payload.
type Vendor string

const (
	VendorOnOffice         Vendor = "ONOFFICE"
	VendorPropstack        Vendor = "PROPSTACK"
	VendorPropstackWebhook Vendor = "PROPSTACK_WEBHOOK"
	VendorOpenImmo         Vendor = "OPENIMMO"
)

// ExternalSource is the value stored on imported listings. Both Propstack
// variants share one source so webhook updates hit the imported record.
func (v Vendor) ExternalSource() string {
	if v == VendorPropstackWebhook {
		return string(VendorPropstack)
	}
	return string(v)
}

// Mapper is a vendor payload that can turn itself into a listing.
type Mapper interface {
	Vendor() Vendor
	ExternalID() string
	MapToListing() (domain.Listing, error)
}

const (
	ReasonMissingField   = "missing-required-field"
	ReasonMalformedField = "malformed-field"
)

// MapVendorPayload maps a payload and stamps its external source and id.
// Failures are *apperr.Error of kind mapping. A record without an id is
// rejected: source and id form the natural key imports upsert on.
func MapVendorPayload(p Mapper) (domain.Listing, error) {
	if strings.TrimSpace(p.ExternalID()) == "" {
		return domain.Listing{}, mappingError("", "id", ReasonMissingField)
	}
	listing, err := p.MapToListing()
	if err != nil {
		return domain.Listing{}, err
	}
	listing.ExternalSource = p.Vendor().ExternalSource()
	listing.ExternalID = strings.TrimSpace(p.ExternalID())
	listing.ShowInSnippet = true
	return listing, nil
}

// BatchResult is the outcome of mapping several payloads.
type BatchResult struct {
	Listings  []domain.Listing
	FailedIDs []string
	Errors    []error
}

// MapBatch maps every payload. A failing record is skipped and its id
// recorded; it never aborts the batch. Records without an id are reported by
// their 1-based position, e.g. "#3".
func MapBatch[T Mapper](payloads []T) BatchResult {
	result := BatchResult{Listings: make([]domain.Listing, 0, len(payloads))}
	for i, p := range payloads {
		listing, err := MapVendorPayload(p)
		if err != nil {
			id := strings.TrimSpace(p.ExternalID())
			if id == "" {
				id = fmt.Sprintf("#%d", i+1)
			}
			result.FailedIDs = append(result.FailedIDs, id)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Listings = append(result.Listings, listing)
	}
	return result
}

// Err joins the per-record errors, or returns nil.
func (r BatchResult) Err() error {
	return errors.Join(r.Errors...)
}

func mappingError(recordID, field, reason string) error {
	return apperr.Mapping(recordID, field, reason)
}

// coordinates validates a vendor geolocation.
func coordinates(recordID string, lat, lng *FlexNumber) (location.Coordinates, error) {
	latV, latOK := lat.Float()
	lngV, lngOK := lng.Float()
	if !latOK || !lngOK {
		if lat != nil && lng != nil {
			return location.Coordinates{}, mappingError(recordID, "geolocation", ReasonMalformedField)
		}
		return location.Coordinates{}, mappingError(recordID, "geolocation", ReasonMissingField)
	}

	c := location.Coordinates{Lat: latV, Lng: lngV}
	if c.Lat == 0 && c.Lng == 0 {
		return location.Coordinates{}, mappingError(recordID, "geolocation", ReasonMissingField)
	}
	if !c.Valid() {
		return location.Coordinates{}, mappingError(recordID, "geolocation", ReasonMalformedField)
	}
	return c, nil
}

// DecodePayloads decodes JSON records of a vendor into mappers. Records that
// are not JSON objects fail the whole request since the batch cannot be
// attributed to ids.
func DecodePayloads(vendor Vendor, records []json.RawMessage) ([]Mapper, error) {
	out := make([]Mapper, 0, len(records))
	for i, raw := range records {
		var (
			m   Mapper
			err error
		)
		switch vendor {
		case VendorOnOffice:
			var p OnOfficePayload
			err = json.Unmarshal(raw, &p)
			m = p
		case VendorPropstack:
			var p PropstackPayload
			err = json.Unmarshal(raw, &p)
			m = p
		case VendorPropstackWebhook:
			m, err = DecodePropstackWebhook(raw)
		default:
			return nil, apperr.BadRequest(fmt.Sprintf("vendor %q does not accept JSON records", vendor))
		}
		if err != nil {
			if apperr.GetKind(err) != apperr.KindUnknown {
				return nil, err
			}
			return nil, apperr.Wrap(apperr.KindBadRequest, fmt.Sprintf("record %d is malformed", i), err)
		}
		out = append(out, m)
	}
	return out, nil
}
