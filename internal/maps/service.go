package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"areabutler_backend/internal/location"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/breaker"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix  = "geocode:"
	defaultCacheTTL = 24 * time.Hour
)

type Service struct {
	baseURL   string
	userAgent string
	client    *http.Client
	cb        *gobreaker.CircuitBreaker[[]nominatimResponse]
	cache     *redis.Client
	ttl       time.Duration
	group     singleflight.Group
	log       *logger.Logger
}

// NewService creates the Nominatim-backed geocoder. cache may be nil, in which
// case every lookup goes upstream.
func NewService(cfg config.GeocoderConfig, cache *redis.Client, log *logger.Logger) *Service {
	ttl := cfg.GetGeocodeCacheTTL()
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Service{
		baseURL:   cfg.GetNominatimURL(),
		userAgent: cfg.GetNominatimUserAgent(),
		client:    &http.Client{Timeout: 5 * time.Second},
		cb:        breaker.New[[]nominatimResponse]("nominatim", breaker.Settings{}, log),
		cache:     cache,
		ttl:       ttl,
		log:       log,
	}
}

// SearchAddress returns up to limit address suggestions for query. A limit of
// zero means the default of five.
func (s *Service) SearchAddress(ctx context.Context, query string, limit int) ([]AddressSuggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	rawResults, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}

	suggestions := make([]AddressSuggestion, 0, limit)
	for _, raw := range rawResults {
		suggestion, ok := buildSuggestion(raw)
		if !ok {
			continue
		}
		suggestions = append(suggestions, suggestion)
		if len(suggestions) == limit {
			break
		}
	}

	return suggestions, nil
}

// Geocode resolves a free-text address to the coordinates of the best match.
// ok is false when Nominatim knows no such place.
func (s *Service) Geocode(ctx context.Context, address string) (location.Coordinates, bool, error) {
	rawResults, err := s.search(ctx, address)
	if err != nil {
		return location.Coordinates{}, false, err
	}

	for _, raw := range rawResults {
		if coords, ok := parseCoordinates(raw); ok {
			return coords, true, nil
		}
	}
	return location.Coordinates{}, false, nil
}

// search returns the raw Nominatim matches, served from Redis when cached.
// Concurrent lookups of the same query share one upstream call.
func (s *Service) search(ctx context.Context, query string) ([]nominatimResponse, error) {
	key := cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		results, err := s.cb.Execute(func() ([]nominatimResponse, error) {
			return s.fetch(ctx, query)
		})
		if err != nil {
			return nil, err
		}
		s.toCache(ctx, key, results)
		return results, nil
	})
	if err != nil {
		return nil, apperr.Unavailable("address lookup service unavailable", err)
	}
	return value.([]nominatimResponse), nil
}

func (s *Service) fromCache(ctx context.Context, key string) ([]nominatimResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("geocode cache read failed", "error", err)
		}
		return nil, false
	}

	var results []nominatimResponse
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (s *Service) toCache(ctx context.Context, key string, results []nominatimResponse) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Warn("geocode cache write failed", "error", err)
	}
}

func (s *Service) fetch(ctx context.Context, query string) ([]nominatimResponse, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", strconv.Itoa(upstreamLimit))
	params.Add("countrycodes", "de")

	reqURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "de")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("nominatim request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("nominatim upstream error", "status", resp.StatusCode)
		return nil, fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	var rawResults []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		s.log.Error("failed to decode nominatim payload", "error", err)
		return nil, err
	}

	return rawResults, nil
}

func buildSuggestion(raw nominatimResponse) (AddressSuggestion, bool) {
	street := firstNonEmpty(raw.Address.Road, raw.Address.Pedestrian)
	city := firstNonEmpty(raw.Address.City, raw.Address.Town, raw.Address.Village, raw.Address.Municipality)
	if street == "" || city == "" {
		return AddressSuggestion{}, false
	}

	coords, ok := parseCoordinates(raw)
	if !ok {
		return AddressSuggestion{}, false
	}

	suggestion := AddressSuggestion{
		Street:      street,
		HouseNumber: raw.Address.HouseNumber,
		ZipCode:     raw.Address.Postcode,
		City:        city,
		District:    firstNonEmpty(raw.Address.Suburb, raw.Address.CityDistrict),
		State:       raw.Address.State,
		Coordinates: coords,
	}
	suggestion.Label = buildLabel(suggestion)

	return suggestion, true
}

func parseCoordinates(raw nominatimResponse) (location.Coordinates, bool) {
	lat, errLat := strconv.ParseFloat(raw.Lat, 64)
	lng, errLng := strconv.ParseFloat(raw.Lon, 64)
	if errLat != nil || errLng != nil {
		return location.Coordinates{}, false
	}
	coords := location.Coordinates{Lat: lat, Lng: lng}
	return coords, coords.Valid()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// buildLabel renders the German address order: "Straße Nr, PLZ Ort".
func buildLabel(suggestion AddressSuggestion) string {
	parts := []string{suggestion.Street}
	if suggestion.HouseNumber != "" {
		parts = append(parts, suggestion.HouseNumber)
	}
	parts = append(parts, ",")
	if suggestion.ZipCode != "" {
		parts = append(parts, suggestion.ZipCode)
	}
	parts = append(parts, suggestion.City)

	label := strings.Join(parts, " ")
	label = strings.ReplaceAll(label, " ,", ",")
	return strings.TrimSpace(label)
}
