// Package propstackapi provides the HTTP client for the Propstack units API.
package propstackapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"areabutler_backend/internal/crm"
	"areabutler_backend/platform/apperr"
	"areabutler_backend/platform/breaker"
	"areabutler_backend/platform/config"
	"areabutler_backend/platform/logger"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	// PageSize is the number of units requested per page.
	PageSize = 50
	// maxPages bounds a sync run against runaway pagination.
	maxPages = 200

	apiKeyHeader = "X-API-KEY"
)

// ErrUnauthorized is returned when Propstack rejects the stored API key.
var ErrUnauthorized = errors.New("propstack: api key rejected")

// Client fetches units from Propstack. It is shared by all users; the API key
// is passed per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]crm.PropstackPayload]
	log        *logger.Logger
}

// New creates a Propstack client.
func New(cfg config.PropstackConfig, log *logger.Logger) *Client {
	rps := cfg.GetPropstackRequestsPerSecond()
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		baseURL:    cfg.GetPropstackBaseURL(),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cb:         breaker.New[[]crm.PropstackPayload]("propstack-api", breaker.Settings{
			Ignore: func(err error) bool { return errors.Is(err, ErrUnauthorized) },
		}, log),
		log:        log,
	}
}

type unitsResponse struct {
	Data []crm.PropstackPayload `json:"data"`
	Meta struct {
		TotalCount int `json:"total_count"`
	} `json:"meta"`
}

// FetchPage returns one page of units (1-based). An empty page ends pagination.
func (c *Client) FetchPage(ctx context.Context, apiKey string, page int) ([]crm.PropstackPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	units, err := c.cb.Execute(func() ([]crm.PropstackPayload, error) {
		return c.doRequest(ctx, apiKey, page)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperr.Unavailable("propstack is unavailable", err)
		}
		return nil, err
	}
	return units, nil
}

// FetchAll pages through every unit of the account.
func (c *Client) FetchAll(ctx context.Context, apiKey string) ([]crm.PropstackPayload, error) {
	all := make([]crm.PropstackPayload, 0, PageSize)
	for page := 1; page <= maxPages; page++ {
		units, err := c.FetchPage(ctx, apiKey, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		all = append(all, units...)
		if len(units) < PageSize {
			return all, nil
		}
	}
	c.log.Warn("propstack pagination limit reached", "pages", maxPages)
	return all, nil
}

func (c *Client) doRequest(ctx context.Context, apiKey string, page int) ([]crm.PropstackPayload, error) {
	params := url.Values{}
	params.Set("with_meta", "1")
	params.Set("page", strconv.Itoa(page))
	params.Set("per", strconv.Itoa(PageSize))

	reqURL := fmt.Sprintf("%s/units?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("propstack request failed", "error", err, "page", page)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	default:
		c.log.Error("propstack upstream error", "status", resp.StatusCode, "page", page)
		return nil, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	var body unitsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Data, nil
}
