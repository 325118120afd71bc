package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"areabutler_backend/internal/crm"
	"areabutler_backend/internal/events"
	"areabutler_backend/internal/realestate/domain"
	"areabutler_backend/internal/realestate/repository"
	"areabutler_backend/internal/realestate/transport"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/logger"
	"areabutler_backend/platform/secrets"

	"github.com/google/uuid"
)

const testKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

type memRepo struct {
	mu          sync.Mutex
	listings    map[string]domain.Listing
	connections map[string]repository.Connection
	touched     int
}

func newMemRepo() *memRepo {
	return &memRepo{listings: map[string]domain.Listing{}, connections: map[string]repository.Connection{}}
}

func naturalKey(l domain.Listing) string {
	return l.UserID.String() + "|" + l.ExternalSource + "|" + l.ExternalID
}

func (r *memRepo) Create(_ context.Context, l domain.Listing) (domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID.String()] = l
	return l, nil
}

func (r *memRepo) GetByID(_ context.Context, id, userID uuid.UUID) (domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.listings {
		if l.ID == id && l.UserID == userID {
			return l, nil
		}
	}
	return domain.Listing{}, apperr.NotFound("real estate listing not found")
}

func (r *memRepo) Update(_ context.Context, l domain.Listing) (domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, existing := range r.listings {
		if existing.ID == l.ID {
			r.listings[k] = l
			return l, nil
		}
	}
	return domain.Listing{}, apperr.NotFound("real estate listing not found")
}

func (r *memRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (r *memRepo) Upsert(_ context.Context, l domain.Listing) (domain.Listing, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := naturalKey(l)
	if existing, ok := r.listings[key]; ok {
		l.ID = existing.ID
		if l.Status == "" {
			l.Status = existing.Status
		}
		r.listings[key] = l
		return l, false, nil
	}
	r.listings[key] = l
	return l, true, nil
}

func (r *memRepo) List(context.Context, repository.ListParams) (repository.ListResult, error) {
	return repository.ListResult{}, nil
}

func (r *memRepo) ListAll(context.Context, uuid.UUID) ([]domain.Listing, error) { return nil, nil }

func (r *memRepo) GetConnection(_ context.Context, userID uuid.UUID, vendor string) (repository.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.connections[userID.String()+vendor]
	if !ok {
		return repository.Connection{}, apperr.NotFound("crm connection not found")
	}
	return conn, nil
}

func (r *memRepo) UpsertConnection(_ context.Context, conn repository.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.UserID.String()+conn.Vendor] = conn
	return nil
}

func (r *memRepo) TouchConnection(context.Context, uuid.UUID, string, time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched++
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

type fakeUnits struct {
	apiKey string
	units  []crm.PropstackPayload
}

func (f *fakeUnits) FetchAll(_ context.Context, apiKey string) ([]crm.PropstackPayload, error) {
	f.apiKey = apiKey
	return f.units, nil
}

func newService(t *testing.T) (*Service, *memRepo, *recordingBus) {
	t.Helper()
	resolver, err := domain.DefaultStatusResolver()
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	box, err := secrets.NewBox(testKey)
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	repo := newMemRepo()
	bus := &recordingBus{}
	return New(repo, resolver, bus, box, logger.Discard()), repo, bus
}

func raw(t *testing.T, v string) json.RawMessage {
	t.Helper()
	if !json.Valid([]byte(v)) {
		t.Fatalf("invalid json %s", v)
	}
	return json.RawMessage(v)
}

func TestImportRecordsSkipsFailuresAndResolvesStatus(t *testing.T) {
	svc, repo, bus := newService(t)
	userID := uuid.New()

	records := []json.RawMessage{
		raw(t, `{"id":"1","title":"<b>Altbau</b>","lat":52.5,"lng":13.4,"marketing_type":"RENT","property_status":{"name":"Vermietet seit 2020"}}`),
		raw(t, `{"id":"2","title":"Neubau","lat":52.5,"lng":13.4,"marketing_type":"BUY","property_status":{"name":"Aktiv"}}`),
		raw(t, `{"id":"3","title":"Ohne Lage"}`),
	}

	result, err := svc.ImportRecords(context.Background(), userID, "vertrieb@mustermann-immobilien.de", crm.VendorPropstack, records)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 {
		t.Fatalf("expected 2 created, got %+v", result)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != "3" {
		t.Fatalf("expected failed id 3, got %v", result.FailedIDs)
	}

	byID := map[string]domain.Listing{}
	for _, l := range repo.listings {
		byID[l.ExternalID] = l
	}
	if byID["1"].Status != domain.StatusRented {
		t.Errorf("expected VERMIETET, got %q", byID["1"].Status)
	}
	if byID["2"].Status != domain.StatusForSale {
		t.Errorf("expected KAUF, got %q", byID["2"].Status)
	}
	if byID["1"].Name != "Altbau" {
		t.Errorf("expected sanitized name, got %q", byID["1"].Name)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	evt, ok := bus.events[0].(events.ListingsImported)
	if !ok || evt.Imported != 2 || len(evt.FailedIDs) != 1 {
		t.Fatalf("unexpected event %#v", bus.events[0])
	}
}

func TestImportIsIdempotentOnNaturalKey(t *testing.T) {
	svc, repo, _ := newService(t)
	userID := uuid.New()
	record := []json.RawMessage{raw(t, `{"id":"7","title":"Villa","lat":52.5,"lng":13.4}`)}

	if _, err := svc.ImportRecords(context.Background(), userID, "someone@else.de", crm.VendorPropstack, record); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := svc.ImportRecords(context.Background(), userID, "someone@else.de", crm.VendorPropstack, record)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("expected update on re-import, got %+v", result)
	}
	if len(repo.listings) != 1 {
		t.Fatalf("expected one stored listing, got %d", len(repo.listings))
	}
}

func TestImportUnknownEmailLeavesStatusUnset(t *testing.T) {
	svc, repo, _ := newService(t)
	record := []json.RawMessage{raw(t, `{"id":"9","title":"Loft","lat":52.5,"lng":13.4,"property_status":{"name":"Verkauft"}}`)}

	if _, err := svc.ImportRecords(context.Background(), uuid.New(), "unknown@example.de", crm.VendorPropstack, record); err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, l := range repo.listings {
		if l.Status != "" {
			t.Fatalf("expected unset status, got %q", l.Status)
		}
		if l.Status2 != "Verkauft" {
			t.Fatalf("expected vendor status kept, got %q", l.Status2)
		}
	}
}

func TestSaveConnectionRejectsFilterOnlyStatus(t *testing.T) {
	svc, _, _ := newService(t)
	err := svc.SaveConnection(context.Background(), uuid.New(), crm.VendorPropstack, transport.ConnectionRequest{
		APIKey:          "ps_live_123456",
		ConfigOverrides: json.RawMessage(`{"realEstateStatus":"ALLE"}`),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSyncPropstackOpensStoredKey(t *testing.T) {
	svc, repo, _ := newService(t)
	units := &fakeUnits{units: []crm.PropstackPayload{
		{ID: "11", Title: "Reihenhaus", Lat: crm.Coord(53.55), Lng: crm.Coord(9.99)},
	}}
	svc.SetUnitSource(units)
	userID := uuid.New()

	if err := svc.SaveConnection(context.Background(), userID, crm.VendorPropstack, transport.ConnectionRequest{APIKey: "ps_live_123456"}); err != nil {
		t.Fatalf("save connection: %v", err)
	}
	for _, conn := range repo.connections {
		if conn.APIKey == "ps_live_123456" {
			t.Fatal("api key stored in clear text")
		}
	}

	result, err := svc.SyncPropstack(context.Background(), userID, "crm@stadtmakler-hamburg.de")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if units.apiKey != "ps_live_123456" {
		t.Fatalf("expected decrypted key passed to client, got %q", units.apiKey)
	}
	if result.Created != 1 || repo.touched != 1 {
		t.Fatalf("expected one created listing and a touched connection, got %+v touched=%d", result, repo.touched)
	}
}

func TestRequestPropstackSyncWithoutQueue(t *testing.T) {
	svc, _, _ := newService(t)
	err := svc.RequestPropstackSync(context.Background(), uuid.New(), "a@b.de")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestCreateRejectsNullIsland(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), uuid.New(), transport.ListingRequest{Name: "X"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
