package webhook

import (
	"context"
	"strings"

	"areabutler_backend/internal/crm"
	"areabutler_backend/platform/logger"

	"github.com/google/uuid"
)

// ListingImporter upserts a single pushed listing for a user.
type ListingImporter interface {
	ImportWebhookListing(ctx context.Context, userID uuid.UUID, userEmail string, payload crm.PropstackWebhookPayload) (created bool, err error)
}

// IntakeResult is returned to the pushing CRM.
type IntakeResult struct {
	ExternalID string `json:"externalId"`
	Created    bool   `json:"created"`
}

// Service processes inbound webhook bodies.
type Service struct {
	repo     *Repository
	importer ListingImporter
	log      *logger.Logger
}

// NewService creates a new webhook service.
func NewService(repo *Repository, importer ListingImporter, log *logger.Logger) *Service {
	return &Service{repo: repo, importer: importer, log: log}
}

// ProcessPropstack validates, maps and stores a Propstack push. Schema and
// mapping failures are returned as typed errors so Propstack sees a 4xx.
func (s *Service) ProcessPropstack(ctx context.Context, userID uuid.UUID, userEmail string, body []byte) (IntakeResult, error) {
	payload, err := crm.DecodePropstackWebhook(body)
	if err != nil {
		s.log.Warn("propstack webhook rejected", "error", err, "userId", userID)
		return IntakeResult{}, err
	}

	created, err := s.importer.ImportWebhookListing(ctx, userID, userEmail, payload)
	if err != nil {
		return IntakeResult{}, err
	}

	s.log.Info("propstack webhook processed", "externalId", payload.ExternalID(), "created", created, "userId", userID)
	return IntakeResult{ExternalID: payload.ExternalID(), Created: created}, nil
}

// CreateKey issues a key for a user and returns the plaintext once.
func (s *Service) CreateKey(ctx context.Context, req CreateAPIKeyRequest) (APIKey, string, error) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		return APIKey{}, "", err
	}

	key, err := s.repo.Create(ctx, req.UserID, strings.ToLower(strings.TrimSpace(req.UserEmail)), strings.TrimSpace(req.Name), hash, prefix)
	if err != nil {
		return APIKey{}, "", err
	}
	return key, plaintext, nil
}

func (s *Service) ListKeys(ctx context.Context, userID uuid.UUID) ([]APIKey, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) RevokeKey(ctx context.Context, keyID uuid.UUID) error {
	return s.repo.Revoke(ctx, keyID)
}
