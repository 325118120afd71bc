package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"areabutler_backend/internal/adapters/storage"
	"areabutler_backend/internal/location"
	"areabutler_backend/internal/pdf"
	realestate "areabutler_backend/internal/realestate/domain"
	"areabutler_backend/internal/snapshot/domain"
	"areabutler_backend/internal/snapshot/repository"
	"areabutler_backend/internal/snapshot/transport"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/logger"

	"github.com/google/uuid"
)

type memRepo struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]domain.Snapshot
	defaults  map[uuid.UUID]domain.SnapshotConfig
	overrides map[string]domain.SnapshotConfig
	exports   []domain.Export
}

func newMemRepo() *memRepo {
	return &memRepo{
		snapshots: map[uuid.UUID]domain.Snapshot{},
		defaults:  map[uuid.UUID]domain.SnapshotConfig{},
		overrides: map[string]domain.SnapshotConfig{},
	}
}

func (r *memRepo) Create(_ context.Context, s domain.Snapshot) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[s.ID] = s
	return s, nil
}

func (r *memRepo) GetByID(_ context.Context, id, userID uuid.UUID) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[id]
	if !ok || s.UserID != userID {
		return domain.Snapshot{}, apperr.NotFound("snapshot not found")
	}
	return s, nil
}

func (r *memRepo) GetByToken(_ context.Context, token string) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snapshots {
		if s.Token == token {
			return s, nil
		}
	}
	return domain.Snapshot{}, apperr.NotFound("snapshot not found")
}

func (r *memRepo) List(_ context.Context, params repository.ListParams) (repository.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []domain.Snapshot
	for _, s := range r.snapshots {
		if s.UserID == params.UserID {
			items = append(items, s)
		}
	}
	return repository.ListResult{Items: items, Total: len(items)}, nil
}

func (r *memRepo) Update(_ context.Context, s domain.Snapshot) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.UpdatedAt = time.Now().UTC()
	r.snapshots[s.ID] = s
	return s, nil
}

func (r *memRepo) Delete(_ context.Context, id, _ uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, id)
	return nil
}

func (r *memRepo) GetUserDefaults(_ context.Context, userID uuid.UUID) (*domain.SnapshotConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.defaults[userID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (r *memRepo) UpsertUserDefaults(_ context.Context, userID uuid.UUID, cfg domain.SnapshotConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[userID] = cfg
	return nil
}

func (r *memRepo) GetCRMOverrides(_ context.Context, userID uuid.UUID, vendor string) (*domain.SnapshotConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.overrides[userID.String()+"/"+vendor]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (r *memRepo) CreateExport(_ context.Context, e domain.Export) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, e)
	return nil
}

func (r *memRepo) DeleteExportsBefore(_ context.Context, before time.Time) ([]domain.Export, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept, deleted []domain.Export
	for _, e := range r.exports {
		if e.CreatedAt.Before(before) {
			deleted = append(deleted, e)
		} else {
			kept = append(kept, e)
		}
	}
	r.exports = kept
	return deleted, nil
}

type fakeGeocoder struct {
	mu    sync.Mutex
	calls []string
	known map[string]location.Coordinates
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (location.Coordinates, bool, error) {
	g.mu.Lock()
	g.calls = append(g.calls, address)
	g.mu.Unlock()
	if address == "kaputt" {
		return location.Coordinates{}, false, errors.New("upstream down")
	}
	c, ok := g.known[address]
	return c, ok, nil
}

type fakeListings struct {
	listings []realestate.Listing
}

func (f fakeListings) ListAll(context.Context, uuid.UUID) ([]realestate.Listing, error) {
	return f.listings, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (s *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := folder + "/" + fileName
	s.objects[key] = data
	return key, nil
}

func (s *fakeStorage) GenerateDownloadURL(_ context.Context, _, fileKey, _ string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, _, fileKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, fileKey)
	s.deleted = append(s.deleted, fileKey)
	return nil
}

func (s *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }

type exportConfig struct{}

func (exportConfig) GetAppBaseURL() string         { return "https://app.example" }
func (exportConfig) GetExportBrandName() string    { return "AreaButler" }
func (exportConfig) GetExportContactPhone() string { return "+49 30 1234567" }

func poi(id, name, title string, distance float64) location.OsmLocation {
	return location.OsmLocation{
		Coordinates:      location.Coordinates{Lat: 52.5, Lng: 13.4},
		DistanceInMeters: distance,
		Entity:           location.OsmEntity{ID: id, Name: name, Title: title},
	}
}

func createRequest() transport.CreateSnapshotRequest {
	return transport.CreateSnapshotRequest{
		Location:       transport.PlaceDTO{Address: "Alexanderplatz 1, Berlin", Coordinates: transport.CoordinatesDTO{Lat: 52.52, Lng: 13.41}},
		TransportModes: []string{"WALK", "CAR"},
		SearchResponse: location.SearchResponse{
			location.Walk: {LocationsOfInterest: []location.OsmLocation{
				poi("1", "supermarket", "Rewe", 300),
				poi("2", "supermarket", "Edeka", 900),
				poi("3", "school", "Grundschule", 600),
			}},
		},
	}
}

func newTestService(repo *memRepo, geocoder Geocoder, store storage.StorageService) *Service {
	return New(repo, fakeListings{}, geocoder, store, "exports", exportConfig{}, nil, logger.Discard())
}

func TestCreateGeocodesPreferredLocations(t *testing.T) {
	geocoder := &fakeGeocoder{known: map[string]location.Coordinates{
		"Hauptbahnhof Berlin": {Lat: 52.525, Lng: 13.369},
	}}
	svc := newTestService(newMemRepo(), geocoder, nil)

	req := createRequest()
	req.PreferredLocations = []transport.PreferredLocationDTO{
		{Title: "Büro", Address: "Hauptbahnhof Berlin"},
		{Title: "Kita", Address: "kaputt"},
		{Title: "Schule", Address: "Unbekannt 1", Coordinates: &transport.CoordinatesDTO{Lat: 52.4, Lng: 13.3}},
	}

	created, err := svc.Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Token) != 48 {
		t.Fatalf("expected 48 char token, got %q", created.Token)
	}
	if len(created.PreferredLocations) != 3 {
		t.Fatalf("expected 3 preferred locations, got %d", len(created.PreferredLocations))
	}
	if c := created.PreferredLocations[0].Coordinates; c == nil || c.Lat != 52.525 {
		t.Fatalf("expected geocoded coordinates, got %+v", c)
	}
	if created.PreferredLocations[1].Coordinates != nil {
		t.Fatal("failed lookup must leave coordinates empty")
	}
	if len(geocoder.calls) != 2 {
		t.Fatalf("locations with coordinates must not be geocoded, calls %v", geocoder.calls)
	}
	if _, ok := created.SearchResponse[location.Car]; !ok {
		t.Fatal("expected an entry for every selected transport mode")
	}
}

func TestCreateRejectsInvalidCoordinates(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil)
	req := createRequest()
	req.Location.Coordinates = transport.CoordinatesDTO{Lat: 120, Lng: 13}

	_, err := svc.Create(context.Background(), uuid.New(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateConfigRejectsAllStatus(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil, nil)
	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, _, err = svc.UpdateConfig(context.Background(), userID, created.ID, domain.SnapshotConfig{RealEstateStatus: domain.Ptr("ALLE")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stored, _ := repo.GetByID(context.Background(), created.ID, userID); stored.Config != nil {
		t.Fatal("rejected config must not be stored")
	}
}

func TestEffectiveConfigLayers(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil, nil)
	userID := uuid.New()

	req := createRequest()
	req.IntegrationVendor = "PROPSTACK"
	req.Config = &domain.SnapshotConfig{PrimaryColor: domain.Ptr("#111111")}
	created, err := svc.Create(context.Background(), userID, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.overrides[userID.String()+"/PROPSTACK"] = domain.SnapshotConfig{
		PrimaryColor: domain.Ptr("#222222"),
		ZoomLevel:    domain.Ptr(14.0),
	}
	if err := svc.SaveUserDefaults(context.Background(), userID, domain.SnapshotConfig{
		ZoomLevel:   domain.Ptr(12.0),
		ShowAddress: domain.Ptr(false),
	}); err != nil {
		t.Fatalf("save defaults: %v", err)
	}

	cfg, err := svc.EffectiveConfig(context.Background(), created)
	if err != nil {
		t.Fatalf("effective config: %v", err)
	}
	if *cfg.PrimaryColor != "#111111" {
		t.Errorf("snapshot value must win, got %s", *cfg.PrimaryColor)
	}
	if *cfg.ZoomLevel != 14.0 {
		t.Errorf("crm override must beat user defaults, got %v", *cfg.ZoomLevel)
	}
	if *cfg.ShowAddress {
		t.Error("user default must beat application default")
	}
	if *cfg.MapBoxMapID == "" {
		t.Error("application defaults must fill unset fields")
	}
}

func TestUpdateConfigStoresOwnLayer(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil, nil)
	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, effective, err := svc.UpdateConfig(context.Background(), userID, created.ID, domain.SnapshotConfig{ZoomLevel: domain.Ptr(13.0)})
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if updated.Config.PrimaryColor != nil {
		t.Fatal("stored layer must not contain merged defaults")
	}
	if effective.PrimaryColor == nil || *effective.ZoomLevel != 13.0 {
		t.Fatalf("unexpected effective config %+v", effective)
	}
}

func TestEntityGroupsOrderAndLimit(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil)
	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	groups, err := svc.EntityGroups(context.Background(), userID, created.ID, GroupOptions{
		Order:     []string{"Schulen", "Supermärkte"},
		ItemLimit: 1,
	})
	if err != nil {
		t.Fatalf("entity groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Title != "Schulen" {
		t.Fatalf("expected requested order, got %q first", groups[0].Title)
	}
	if n := len(groups[1].SelectedItems()); n != 1 {
		t.Fatalf("expected item limit 1, got %d selected", n)
	}
}

func TestEntityGroupsOfOtherUserNotFound(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil)
	created, err := svc.Create(context.Background(), uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.EntityGroups(context.Background(), uuid.New(), created.ID, GroupOptions{})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEmbedHidesAddress(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil)
	req := createRequest()
	req.Config = &domain.SnapshotConfig{ShowAddress: domain.Ptr(false)}
	created, err := svc.Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := svc.Embed(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if view.Snapshot.Location.Address != "" {
		t.Fatalf("address must be hidden, got %q", view.Snapshot.Location.Address)
	}
	if len(view.Groups) == 0 {
		t.Fatal("expected groups in embed view")
	}
}

func TestExportTablesInline(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil)
	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.Export(context.Background(), userID, created.ID, domain.ExportTables, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Tables == nil || len(result.Tables.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %+v", result.Tables)
	}
	if len(result.Pages) == 0 {
		t.Fatal("expected paginated output")
	}
	if result.Content != nil || result.Download != nil {
		t.Fatal("tables export must not produce a file")
	}
}

func TestExportCSVWithoutStorage(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil)
	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.Export(context.Background(), userID, created.ID, domain.ExportCSV, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.FileName != "Standortanalyse.csv" {
		t.Fatalf("unexpected file name %q", result.FileName)
	}
	if !strings.Contains(string(result.Content), "Supermärkte;Rewe") {
		t.Fatalf("expected rewe row, got %s", result.Content)
	}
}

func TestExportPDFStoredAndPruned(t *testing.T) {
	repo := newMemRepo()
	store := &fakeStorage{objects: map[string][]byte{}}
	svc := newTestService(repo, nil, store)

	var rendered pdf.SnapshotDocument
	svc.renderPDF = func(doc pdf.SnapshotDocument) ([]byte, error) {
		rendered = doc
		return []byte("%PDF-1.4"), nil
	}

	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.Export(context.Background(), userID, created.ID, domain.ExportPDF, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Download == nil || result.Content != nil {
		t.Fatalf("expected a download link instead of inline content, got %+v", result)
	}
	if rendered.ShareURL != "https://app.example/embed/"+created.Token {
		t.Fatalf("unexpected share url %q", rendered.ShareURL)
	}
	if rendered.BrandName != "AreaButler" || rendered.PrimaryColor != "#aa0c54" {
		t.Fatalf("expected branding from config, got %+v", rendered)
	}
	if len(repo.exports) != 1 {
		t.Fatalf("expected export record, got %d", len(repo.exports))
	}

	pruned, err := svc.PruneExports(context.Background(), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 || len(store.deleted) != 1 || len(store.objects) != 0 {
		t.Fatalf("expected file deleted, pruned=%d deleted=%v", pruned, store.deleted)
	}
}
