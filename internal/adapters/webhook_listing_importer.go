package adapters

import (
	"context"
	"fmt"

	"areabutler_backend/internal/crm"
	realestatesvc "areabutler_backend/internal/realestate/service"

	"github.com/google/uuid"
)

// WebhookListingImporter adapts the real-estate import pipeline for the webhook
// domain. A pushed record that cannot be mapped surfaces its mapping error.
type WebhookListingImporter struct {
	svc *realestatesvc.Service
}

// NewWebhookListingImporter creates a new webhook importer adapter.
func NewWebhookListingImporter(svc *realestatesvc.Service) *WebhookListingImporter {
	return &WebhookListingImporter{svc: svc}
}

func (a *WebhookListingImporter) ImportWebhookListing(ctx context.Context, userID uuid.UUID, userEmail string, payload crm.PropstackWebhookPayload) (bool, error) {
	result, err := a.svc.Import(ctx, userID, userEmail, crm.VendorPropstackWebhook, []crm.Mapper{payload})
	if err != nil {
		return false, fmt.Errorf("webhook adapter: import: %w", err)
	}
	if len(result.Errors) > 0 {
		return false, result.Errors[0]
	}
	return result.Created > 0, nil
}
