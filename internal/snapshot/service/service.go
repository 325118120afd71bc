// Package service implements snapshot use cases: saving searches, merging
// their configuration, deriving entity groups and rendering exports.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"areabutler_backend/internal/adapters/storage"
	"areabutler_backend/internal/entitygroups"
	"areabutler_backend/internal/events"
	"areabutler_backend/internal/location"
	"areabutler_backend/internal/pdf"
	realestate "areabutler_backend/internal/realestate/domain"
	"areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/internal/snapshot/repository"
	"areabutler_backend/internal/snapshot/transport"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// geocodeConcurrency bounds parallel geocoder calls per snapshot.
const geocodeConcurrency = 4

type Repository interface {
	Create(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (domain.Snapshot, error)
	GetByToken(ctx context.Context, token string) (domain.Snapshot, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
	Update(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	GetUserDefaults(ctx context.Context, userID uuid.UUID) (*domain.SnapshotConfig, error)
	UpsertUserDefaults(ctx context.Context, userID uuid.UUID, cfg domain.SnapshotConfig) error
	GetCRMOverrides(ctx context.Context, userID uuid.UUID, vendor string) (*domain.SnapshotConfig, error)
	CreateExport(ctx context.Context, e domain.Export) error
	DeleteExportsBefore(ctx context.Context, before time.Time) ([]domain.Export, error)
}

// ListingReader returns every listing of a user.
type ListingReader interface {
	ListAll(ctx context.Context, userID uuid.UUID) ([]realestate.Listing, error)
}

// Geocoder resolves addresses of preferred locations.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (location.Coordinates, bool, error)
}

// Service provides snapshot business logic.
type Service struct {
	repo      Repository
	listings  ListingReader
	geocoder  Geocoder
	storage   storage.StorageService
	bucket    string
	exportCfg config.ExportConfig
	eventBus  events.Bus
	renderPDF func(pdf.SnapshotDocument) ([]byte, error)
	log       *logger.Logger
}

// New creates a new snapshot service. geocoder and store may be nil: preferred
// locations then keep missing coordinates and exports are returned inline.
func New(
	repo Repository,
	listings ListingReader,
	geocoder Geocoder,
	store storage.StorageService,
	bucket string,
	exportCfg config.ExportConfig,
	eventBus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		listings:  listings,
		geocoder:  geocoder,
		storage:   store,
		bucket:    bucket,
		exportCfg: exportCfg,
		eventBus:  eventBus,
		renderPDF: pdf.Generate,
		log:       log,
	}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req transport.CreateSnapshotRequest) (domain.Snapshot, error) {
	place := location.Place{
		Address:     req.Location.Address,
		Coordinates: req.Location.Coordinates.Coordinates(),
	}
	if !place.Coordinates.Valid() {
		return domain.Snapshot{}, apperr.Validation("invalid coordinates").
			WithDetails([]apperr.FieldDetails{{Field: "location.coordinates", Reason: "range"}})
	}
	if err := req.Config.Validate(); err != nil {
		return domain.Snapshot{}, err
	}

	preferred, err := s.geocodePreferred(ctx, req.Preferred())
	if err != nil {
		return domain.Snapshot{}, err
	}

	token, err := newToken()
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		ID:                 uuid.New(),
		UserID:             userID,
		Token:              token,
		Location:           place,
		SearchResponse:     req.SearchResponse.EnsureModes(req.Modes()),
		Config:             req.Config,
		PreferredLocations: preferred,
		CreatedAt:          time.Now().UTC(),
	}
	if req.IntegrationVendor != "" {
		vendor := req.IntegrationVendor
		snapshot.IntegrationVendor = &vendor
	}

	created, err := s.repo.Create(ctx, snapshot)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.log.Info("snapshot created", "snapshotId", created.ID, "userId", userID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (domain.Snapshot, error) {
	return s.repo.GetByID(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, req transport.ListSnapshotsRequest) (repository.ListResult, error) {
	return s.repo.List(ctx, repository.ListParams{UserID: userID, Page: req.Page, PageSize: req.PageSize})
}

// Update replaces the preferred locations and/or the description. Nil fields
// are left unchanged.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req transport.UpdateSnapshotRequest) (domain.Snapshot, error) {
	snapshot, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if preferred := req.Preferred(); preferred != nil {
		if snapshot.PreferredLocations, err = s.geocodePreferred(ctx, preferred); err != nil {
			return domain.Snapshot{}, err
		}
	}
	if req.Description != nil {
		snapshot.Description = req.Description
	}
	return s.repo.Update(ctx, snapshot)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

// SetDescription stores a generated location description.
func (s *Service) SetDescription(ctx context.Context, userID, id uuid.UUID, description string) (domain.Snapshot, error) {
	snapshot, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot.Description = &description
	return s.repo.Update(ctx, snapshot)
}

// UpdateConfig validates cfg against the full merge chain and stores it as the
// snapshot's own layer. The returned config is the effective one.
func (s *Service) UpdateConfig(ctx context.Context, userID, id uuid.UUID, cfg domain.SnapshotConfig) (domain.Snapshot, domain.SnapshotConfig, error) {
	snapshot, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return domain.Snapshot{}, domain.SnapshotConfig{}, err
	}

	snapshot.Config = &cfg
	effective, err := s.EffectiveConfig(ctx, snapshot)
	if err != nil {
		return domain.Snapshot{}, domain.SnapshotConfig{}, err
	}

	updated, err := s.repo.Update(ctx, snapshot)
	if err != nil {
		return domain.Snapshot{}, domain.SnapshotConfig{}, err
	}
	return updated, effective, nil
}

// EffectiveConfig merges the snapshot's config with the CRM overrides of its
// integration and the owner's defaults.
func (s *Service) EffectiveConfig(ctx context.Context, snapshot domain.Snapshot) (domain.SnapshotConfig, error) {
	var overrides *domain.SnapshotConfig
	if snapshot.IntegrationVendor != nil {
		var err error
		if overrides, err = s.repo.GetCRMOverrides(ctx, snapshot.UserID, *snapshot.IntegrationVendor); err != nil {
			return domain.SnapshotConfig{}, err
		}
	}

	defaults, err := s.repo.GetUserDefaults(ctx, snapshot.UserID)
	if err != nil {
		return domain.SnapshotConfig{}, err
	}

	return domain.Merge(snapshot.Config, overrides, defaults, snapshot.SearchResponse.AvailableMeans())
}

func (s *Service) GetUserDefaults(ctx context.Context, userID uuid.UUID) (domain.SnapshotConfig, error) {
	defaults, err := s.repo.GetUserDefaults(ctx, userID)
	if err != nil || defaults == nil {
		return domain.SnapshotConfig{}, err
	}
	return *defaults, nil
}

func (s *Service) SaveUserDefaults(ctx context.Context, userID uuid.UUID, cfg domain.SnapshotConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.repo.UpsertUserDefaults(ctx, userID, cfg)
}

// GroupOptions tune EntityGroups.
type GroupOptions struct {
	// Available returns every candidate item regardless of visibility settings.
	Available bool
	Order     []string
	ItemLimit int
}

// EntityGroups derives the ordered groups of a snapshot.
func (s *Service) EntityGroups(ctx context.Context, userID, id uuid.UUID, opts GroupOptions) ([]entitygroups.EntityGroup, error) {
	snapshot, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.EffectiveConfig(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	return s.deriveGroups(ctx, snapshot, &cfg, opts)
}

func (s *Service) deriveGroups(ctx context.Context, snapshot domain.Snapshot, cfg *domain.SnapshotConfig, opts GroupOptions) ([]entitygroups.EntityGroup, error) {
	var listings []realestate.Listing
	if s.listings != nil {
		var err error
		if listings, err = s.listings.ListAll(ctx, snapshot.UserID); err != nil {
			return nil, err
		}
	}

	groups := entitygroups.Derive(snapshot.SearchResponse, cfg, listings, snapshot.PreferredLocations, opts.Available)
	metrics.EntityGroupDerivationsTotal.Inc()

	groups = entitygroups.SortGroups(groups, opts.Order)
	if opts.ItemLimit > 0 {
		groups = entitygroups.ApplyItemLimit(groups, opts.ItemLimit)
	}
	return groups, nil
}

// EmbedView is the public, token-addressed view of a snapshot.
type EmbedView struct {
	Snapshot domain.Snapshot
	Config   domain.SnapshotConfig
	Groups   []entitygroups.EntityGroup
}

// Embed loads a snapshot by its public token. The address is blanked when
// the config hides it.
func (s *Service) Embed(ctx context.Context, token string) (EmbedView, error) {
	snapshot, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return EmbedView{}, err
	}
	cfg, err := s.EffectiveConfig(ctx, snapshot)
	if err != nil {
		return EmbedView{}, err
	}
	groups, err := s.deriveGroups(ctx, snapshot, &cfg, GroupOptions{})
	if err != nil {
		return EmbedView{}, err
	}

	if cfg.ShowAddress != nil && !*cfg.ShowAddress {
		snapshot.Location.Address = ""
	}
	return EmbedView{Snapshot: snapshot, Config: cfg, Groups: groups}, nil
}

// ShareURL is the public link of the embeddable map.
func (s *Service) ShareURL(token string) string {
	if s.exportCfg == nil {
		return ""
	}
	return s.exportCfg.GetAppBaseURL() + "/embed/" + token
}

// geocodePreferred fills missing coordinates concurrently. Lookups that fail
// or find nothing leave the location without coordinates.
func (s *Service) geocodePreferred(ctx context.Context, preferred []location.PreferredLocation) ([]location.PreferredLocation, error) {
	if s.geocoder == nil || len(preferred) == 0 {
		return preferred, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(geocodeConcurrency)
	for i := range preferred {
		if preferred[i].Coordinates != nil || preferred[i].Address == "" {
			continue
		}
		g.Go(func() error {
			coords, ok, err := s.geocoder.Geocode(gctx, preferred[i].Address)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.Warn("preferred location not geocoded", "address", preferred[i].Address, "error", err)
				return nil
			}
			if ok {
				preferred[i].Coordinates = &coords
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preferred, nil
}

func newToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate snapshot token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

