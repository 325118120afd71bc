package crm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/platform/apperr"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Labeled is the {label, value} wrapper Propstack puts around every field of
// a webhook body.
type Labeled[T any] struct {
	Label string `json:"label"`
	Value T      `json:"value"`
}

// PropstackWebhookPayload is the body of a Propstack property webhook.
type PropstackWebhookPayload struct {
	ID               FlexString                `json:"id"`
	Title            *Labeled[string]          `json:"title"`
	RsType           *Labeled[string]          `json:"rs_type"`
	ObjectType       *Labeled[string]          `json:"object_type"`
	Address          *Labeled[string]          `json:"address"`
	Street           *Labeled[string]          `json:"street"`
	HouseNumber      *Labeled[string]          `json:"house_number"`
	ZipCode          *Labeled[string]          `json:"zip_code"`
	City             *Labeled[string]          `json:"city"`
	Lat              *Labeled[*FlexCoordinate] `json:"lat"`
	Lng              *Labeled[*FlexCoordinate] `json:"lng"`
	Price            *Labeled[*FlexNumber]     `json:"price"`
	BaseRent         *Labeled[*FlexNumber]     `json:"base_rent"`
	TotalRent        *Labeled[*FlexNumber]     `json:"total_rent"`
	Currency         *Labeled[string]          `json:"currency"`
	NumberOfRooms    *Labeled[*FlexNumber]     `json:"number_of_rooms"`
	LivingSpace      *Labeled[*FlexNumber]     `json:"living_space"`
	PlotArea         *Labeled[*FlexNumber]     `json:"plot_area"`
	EnergyClass      *Labeled[string]          `json:"energy_efficiency_class"`
	Balcony          *Labeled[FlexBool]        `json:"balcony"`
	Balconies        *Labeled[*FlexNumber]     `json:"number_of_balconies"`
	Garden           *Labeled[FlexBool]        `json:"garden"`
	Lift             *Labeled[FlexBool]        `json:"lift"`
	HeatingType      *Labeled[string]          `json:"heating_type"`
	FloorHeating     *Labeled[FlexBool]        `json:"floor_heating"`
	GuestToilet      *Labeled[FlexBool]        `json:"guest_toilet"`
	BuiltInKitchen   *Labeled[FlexBool]        `json:"built_in_kitchen"`
	BarrierFree      *Labeled[FlexBool]        `json:"barrier_free"`
	ParkingSpaceType *Labeled[string]          `json:"parking_space_type"`
	ParkingSpaces    *Labeled[*FlexNumber]     `json:"number_of_parking_spaces"`
	Cellar           *Labeled[FlexBool]        `json:"cellar"`
	MarketingType    *Labeled[string]          `json:"marketing_type"`
	PropertyStatus   *PropstackStatus          `json:"property_status"`
}

func (p PropstackWebhookPayload) Vendor() Vendor     { return VendorPropstackWebhook }
func (p PropstackWebhookPayload) ExternalID() string { return string(p.ID) }

// MapToListing unwraps the labeled fields and applies the Propstack rules.
func (p PropstackWebhookPayload) MapToListing() (domain.Listing, error) {
	return p.unwrap().MapToListing()
}

func (p PropstackWebhookPayload) unwrap() PropstackPayload {
	return PropstackPayload{
		ID:               p.ID,
		Title:            value(p.Title),
		RsType:           value(p.RsType),
		ObjectType:       value(p.ObjectType),
		Address:          value(p.Address),
		Street:           value(p.Street),
		HouseNumber:      value(p.HouseNumber),
		ZipCode:          value(p.ZipCode),
		City:             value(p.City),
		Lat:              value(p.Lat),
		Lng:              value(p.Lng),
		Price:            value(p.Price),
		BaseRent:         value(p.BaseRent),
		TotalRent:        value(p.TotalRent),
		Currency:         value(p.Currency),
		NumberOfRooms:    value(p.NumberOfRooms),
		LivingSpace:      value(p.LivingSpace),
		PlotArea:         value(p.PlotArea),
		EnergyClass:      value(p.EnergyClass),
		Balcony:          value(p.Balcony),
		Balconies:        value(p.Balconies),
		Garden:           value(p.Garden),
		Lift:             value(p.Lift),
		HeatingType:      value(p.HeatingType),
		FloorHeating:     value(p.FloorHeating),
		GuestToilet:      value(p.GuestToilet),
		BuiltInKitchen:   value(p.BuiltInKitchen),
		BarrierFree:      value(p.BarrierFree),
		ParkingSpaceType: value(p.ParkingSpaceType),
		ParkingSpaces:    value(p.ParkingSpaces),
		Cellar:           value(p.Cellar),
		MarketingType:    value(p.MarketingType),
		PropertyStatus:   p.PropertyStatus,
	}
}

func value[T any](l *Labeled[T]) T {
	var zero T
	if l == nil {
		return zero
	}
	return l.Value
}

//go:embed schemas/propstack_webhook.json
var propstackWebhookSchema []byte

var compileWebhookSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("propstack_webhook.json", bytes.NewReader(propstackWebhookSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("propstack_webhook.json")
})

// DecodePropstackWebhook validates a webhook body against the embedded schema
// and decodes it.
func DecodePropstackWebhook(body []byte) (PropstackWebhookPayload, error) {
	schema, err := compileWebhookSchema()
	if err != nil {
		return PropstackWebhookPayload{}, fmt.Errorf("compile webhook schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return PropstackWebhookPayload{}, apperr.BadRequest("webhook body is not valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return PropstackWebhookPayload{}, apperr.Wrap(apperr.KindValidation, "webhook body does not match schema", err)
	}

	var payload PropstackWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return PropstackWebhookPayload{}, apperr.Wrap(apperr.KindBadRequest, "decode webhook body", err)
	}
	return payload, nil
}
