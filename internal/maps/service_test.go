package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testConfig struct {
	url string
}

func (c testConfig) GetNominatimURL() string            { return c.url }
func (c testConfig) GetNominatimUserAgent() string      { return "AreaButlerTest/1.0" }
func (c testConfig) GetGeocodeCacheTTL() time.Duration { return time.Hour }

const nominatimBody = `[
	{"display_name": "Marienplatz 8, München", "lat": "48.1374", "lon": "11.5755",
	 "address": {"road": "Marienplatz", "house_number": "8", "postcode": "80331", "city": "München"}},
	{"display_name": "München", "lat": "48.1371", "lon": "11.5754", "address": {"city": "München"}},
	{"display_name": "Kaufingerstraße, München", "lat": "48.1379", "lon": "11.5722",
	 "address": {"pedestrian": "Kaufingerstraße", "postcode": "80331", "suburb": "Altstadt", "city": "München", "state": "Bayern"}}
]`

func newNominatim(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Query().Get("countrycodes") != "de" {
			t.Errorf("expected countrycodes=de, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "AreaButlerTest/1.0" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nominatimBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSearchAddressBuildsGermanLabels(t *testing.T) {
	var hits int32
	server := newNominatim(t, &hits)
	svc := NewService(testConfig{url: server.URL}, nil, logger.Discard())

	results, err := svc.SearchAddress(context.Background(), "Marienplatz 8", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected the street-less match to be dropped, got %d", len(results))
	}
	if results[0].Label != "Marienplatz 8, 80331 München" {
		t.Fatalf("unexpected label %q", results[0].Label)
	}
	if results[0].Coordinates.Lat != 48.1374 || results[0].Coordinates.Lng != 11.5755 {
		t.Fatalf("unexpected coordinates %+v", results[0].Coordinates)
	}

	pedestrian := results[1]
	if pedestrian.Street != "Kaufingerstraße" || pedestrian.District != "Altstadt" || pedestrian.State != "Bayern" {
		t.Fatalf("unexpected pedestrian suggestion %+v", pedestrian)
	}
	if pedestrian.Label != "Kaufingerstraße, 80331 München" {
		t.Fatalf("unexpected label %q", pedestrian.Label)
	}
}

func TestSearchAddressHonoursLimit(t *testing.T) {
	var hits int32
	server := newNominatim(t, &hits)
	svc := NewService(testConfig{url: server.URL}, nil, logger.Discard())

	results, err := svc.SearchAddress(context.Background(), "München", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Street != "Marienplatz" {
		t.Fatalf("expected only the first suggestion, got %+v", results)
	}
}

func TestGeocodeUsesRedisCache(t *testing.T) {
	var hits int32
	server := newNominatim(t, &hits)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewService(testConfig{url: server.URL}, rdb, logger.Discard())

	for i := 0; i < 3; i++ {
		coords, ok, err := svc.Geocode(context.Background(), "  Marienplatz   8 ")
		if err != nil || !ok {
			t.Fatalf("geocode: ok=%v err=%v", ok, err)
		}
		if coords.Lat != 48.1374 || coords.Lng != 11.5755 {
			t.Fatalf("unexpected coordinates %+v", coords)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
	if !mr.Exists(cacheKeyPrefix + "marienplatz 8") {
		t.Fatalf("expected normalised cache key, have %v", mr.Keys())
	}
	if ttl := mr.TTL(cacheKeyPrefix + "marienplatz 8"); ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestGeocodeUpstreamFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	svc := NewService(testConfig{url: server.URL}, nil, logger.Discard())
	_, _, err := svc.Geocode(context.Background(), "Irgendwo")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
