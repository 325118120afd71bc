package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"areabutler_backend/internal/crm"
	"areabutler_backend/internal/events"
	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/internal/realestate/repository"
	"areabutler_backend/internal/realestate/transport"
	snapshotdomain "areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/metrics"
	"areabutler_backend/platform/sanitize"
	"areabutler_backend/platform/secrets"

	"github.com/google/uuid"
)

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (domain.Listing, error)
	Update(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Upsert(ctx context.Context, listing domain.Listing) (domain.Listing, bool, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]domain.Listing, error)
	GetConnection(ctx context.Context, userID uuid.UUID, vendor string) (repository.Connection, error)
	UpsertConnection(ctx context.Context, conn repository.Connection) error
	TouchConnection(ctx context.Context, userID uuid.UUID, vendor string, at time.Time) error
}

// UnitSource pages through a Propstack account.
type UnitSource interface {
	FetchAll(ctx context.Context, apiKey string) ([]crm.PropstackPayload, error)
}

// SyncQueue enqueues background Propstack syncs.
type SyncQueue interface {
	EnqueuePropstackSync(ctx context.Context, userID uuid.UUID, userEmail string) error
}

// ImportResult summarises a CRM batch.
type ImportResult struct {
	Created   int
	Updated   int
	FailedIDs []string
	// Errors holds the mapping error of each failed record, in FailedIDs order.
	Errors []error
}

// Imported is the number of listings written.
func (r ImportResult) Imported() int { return r.Created + r.Updated }

// Service provides business logic for real-estate listings and CRM imports.
type Service struct {
	repo     Repository
	resolver *domain.StatusResolver
	eventBus events.Bus
	box      *secrets.Box
	units    UnitSource
	queue    SyncQueue
	log      *logger.Logger
}

// New creates a new real-estate service. units and queue may be nil when
// Propstack sync is not configured.
func New(repo Repository, resolver *domain.StatusResolver, eventBus events.Bus, box *secrets.Box, log *logger.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, eventBus: eventBus, box: box, log: log}
}

// SetUnitSource wires the Propstack API client.
func (s *Service) SetUnitSource(units UnitSource) { s.units = units }

// SetSyncQueue wires the background job client.
func (s *Service) SetSyncQueue(queue SyncQueue) { s.queue = queue }

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req transport.ListingRequest) (domain.Listing, error) {
	coords := req.Location()
	if !coords.Valid() {
		return domain.Listing{}, invalidCoordinates()
	}

	now := time.Now().UTC()
	listing := domain.Listing{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            sanitize.Text(req.Name),
		Address:         sanitize.Text(req.Address),
		Coordinates:     coords,
		CostStructure:   req.CostStructure,
		Characteristics: req.Characteristics,
		Status:          domain.Status(req.Status),
		Status2:         sanitize.Text(req.Status2),
		ShowInSnippet:   req.ShowInSnippet == nil || *req.ShowInSnippet,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if listing.Status == "" {
		listing.Status = domain.StatusInPreparation
	}

	return s.repo.Create(ctx, listing)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (domain.Listing, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// Update replaces the editable fields. Imported listings keep their external key.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req transport.ListingRequest) (domain.Listing, error) {
	coords := req.Location()
	if !coords.Valid() {
		return domain.Listing{}, invalidCoordinates()
	}

	current, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return domain.Listing{}, err
	}

	current.Name = sanitize.Text(req.Name)
	current.Address = sanitize.Text(req.Address)
	current.Coordinates = coords
	current.CostStructure = req.CostStructure
	current.Characteristics = req.Characteristics
	current.Status2 = sanitize.Text(req.Status2)
	if req.Status != "" {
		current.Status = domain.Status(req.Status)
	}
	if req.ShowInSnippet != nil {
		current.ShowInSnippet = *req.ShowInSnippet
	}

	return s.repo.Update(ctx, current)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, req transport.ListListingsRequest) (repository.ListResult, error) {
	return s.repo.List(ctx, repository.ListParams{
		UserID:   userID,
		Status:   domain.Status(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// ListAll returns every listing of the user.
func (s *Service) ListAll(ctx context.Context, userID uuid.UUID) ([]domain.Listing, error) {
	return s.repo.ListAll(ctx, userID)
}

// ImportRecords decodes JSON records of a vendor and imports them.
func (s *Service) ImportRecords(ctx context.Context, userID uuid.UUID, userEmail string, vendor crm.Vendor, records []json.RawMessage) (ImportResult, error) {
	mappers, err := crm.DecodePayloads(vendor, records)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, userID, userEmail, vendor, mappers)
}

// ImportOpenImmo parses an OpenImmo XML document and imports its objects.
func (s *Service) ImportOpenImmo(ctx context.Context, userID uuid.UUID, userEmail string, document []byte) (ImportResult, error) {
	payloads, err := crm.ParseOpenImmo(document)
	if err != nil {
		return ImportResult{}, err
	}
	mappers := make([]crm.Mapper, 0, len(payloads))
	for _, p := range payloads {
		mappers = append(mappers, p)
	}
	return s.Import(ctx, userID, userEmail, crm.VendorOpenImmo, mappers)
}

// Import maps every payload, resolves statuses with the user's rule table and
// upserts the listings on their external key. Unmappable records are skipped
// and reported in FailedIDs; a storage error aborts the batch.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, userEmail string, vendor crm.Vendor, mappers []crm.Mapper) (ImportResult, error) {
	batch := crm.MapBatch(mappers)
	result := ImportResult{FailedIDs: batch.FailedIDs, Errors: batch.Errors}
	if result.FailedIDs == nil {
		result.FailedIDs = []string{}
	}

	for _, err := range batch.Errors {
		s.log.Debug("crm record skipped", "vendor", vendor, "error", err)
	}

	for _, listing := range batch.Listings {
		listing = s.resolver.Apply(userEmail, listing)
		listing.ID = uuid.New()
		listing.UserID = userID
		listing.Name = sanitize.Text(listing.Name)
		listing.Address = sanitize.Text(listing.Address)

		_, inserted, err := s.repo.Upsert(ctx, listing)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
	}

	metrics.CRMImportRecordsTotal.WithLabelValues(string(vendor), "imported").Add(float64(result.Imported()))
	metrics.CRMImportRecordsTotal.WithLabelValues(string(vendor), "failed").Add(float64(len(result.FailedIDs)))
	s.log.ImportResult(string(vendor), result.Imported(), result.FailedIDs)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.ListingsImported{
			BaseEvent: events.NewBaseEvent(),
			UserID:    userID,
			UserEmail: userEmail,
			Vendor:    string(vendor),
			Imported:  result.Imported(),
			FailedIDs: result.FailedIDs,
		})
	}

	return result, nil
}

// SaveConnection stores the vendor API key sealed with the user id as
// associated data. Config overrides must be a valid snapshot config.
func (s *Service) SaveConnection(ctx context.Context, userID uuid.UUID, vendor crm.Vendor, req transport.ConnectionRequest) error {
	if len(req.ConfigOverrides) > 0 && string(req.ConfigOverrides) != "null" {
		var overrides snapshotdomain.SnapshotConfig
		if err := json.Unmarshal(req.ConfigOverrides, &overrides); err != nil {
			return apperr.Wrap(apperr.KindBadRequest, "configOverrides is not a config document", err)
		}
		if err := overrides.Validate(); err != nil {
			return err
		}
	}

	sealed, err := s.box.Seal(req.APIKey, userID.String())
	if err != nil {
		return err
	}

	return s.repo.UpsertConnection(ctx, repository.Connection{
		UserID:          userID,
		Vendor:          string(vendor),
		APIKey:          sealed,
		ConfigOverrides: req.ConfigOverrides,
	})
}

func (s *Service) GetConnection(ctx context.Context, userID uuid.UUID, vendor crm.Vendor) (repository.Connection, error) {
	return s.repo.GetConnection(ctx, userID, string(vendor))
}

// RequestPropstackSync queues a background sync for a user with a stored connection.
func (s *Service) RequestPropstackSync(ctx context.Context, userID uuid.UUID, userEmail string) error {
	if s.queue == nil {
		return apperr.Unavailable("background sync is not configured", nil)
	}
	if _, err := s.repo.GetConnection(ctx, userID, string(crm.VendorPropstack)); err != nil {
		return err
	}
	return s.queue.EnqueuePropstackSync(ctx, userID, userEmail)
}

// SyncPropstack fetches every unit of the user's Propstack account and imports it.
func (s *Service) SyncPropstack(ctx context.Context, userID uuid.UUID, userEmail string) (ImportResult, error) {
	if s.units == nil {
		return ImportResult{}, apperr.Unavailable("propstack client is not configured", nil)
	}

	conn, err := s.repo.GetConnection(ctx, userID, string(crm.VendorPropstack))
	if err != nil {
		return ImportResult{}, err
	}
	apiKey, err := s.box.Open(conn.APIKey, userID.String())
	if err != nil {
		return ImportResult{}, apperr.Wrap(apperr.KindInternal, "stored api key cannot be opened", err)
	}

	units, err := s.units.FetchAll(ctx, apiKey)
	if err != nil {
		return ImportResult{}, err
	}

	mappers := make([]crm.Mapper, 0, len(units))
	for _, u := range units {
		mappers = append(mappers, u)
	}
	result, err := s.Import(ctx, userID, userEmail, crm.VendorPropstack, mappers)
	if err != nil {
		return result, err
	}

	if err := s.repo.TouchConnection(ctx, userID, string(crm.VendorPropstack), time.Now().UTC()); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("failed to record propstack sync time", "error", err, "userId", userID)
	}
	return result, nil
}

func invalidCoordinates() error {
	return apperr.Validation("invalid coordinates").WithDetails([]apperr.FieldDetails{{Field: "coordinates", Reason: "range"}})
}
