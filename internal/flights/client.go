// Package flights searches Amadeus flight offers and renders them as text.
package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// ErrAirportNotFound is returned when a city has no matching airport.
var ErrAirportNotFound = errors.New("no airport found")

// APIError carries the error list of a failed Amadeus call.
type APIError struct {
	StatusCode int
	Errors     []apiErrorItem
}

type apiErrorItem struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("amadeus returned status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		msg := item.Title
		if item.Detail != "" {
			msg += ": " + item.Detail
		}
		parts = append(parts, fmt.Sprintf("[%d] %s", item.Status, msg))
	}
	return strings.Join(parts, "; ")
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// MaxPrice is used when a query sets none.
	MaxPrice float64
	// MaxOffers bounds how many offers are considered per search.
	MaxOffers         int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to the Amadeus self-service APIs with client-credentials auth.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	namer     AirlineNamer
	maxPrice  float64
	maxOffers int
	logger    arbor.ILogger
}

// NewClient creates a Client. namer resolves carrier codes to airline names;
// nil leaves codes as they are.
func NewClient(ctx context.Context, cfg Config, namer AirlineNamer, logger arbor.ILogger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("amadeus: API key and secret are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPrice <= 0 {
		cfg.MaxPrice = 20000
	}
	if cfg.MaxOffers <= 0 {
		cfg.MaxOffers = 5
	}
	if namer == nil {
		namer = CodeNamer{}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
	httpClient := cc.Client(tokenCtx)
	httpClient.Timeout = cfg.Timeout

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, 1),
		namer:     namer,
		maxPrice:  cfg.MaxPrice,
		maxOffers: cfg.MaxOffers,
		logger:    logger,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	full := c.baseURL + path + "?" + params.Encode()
	c.logger.Debug().Str("url", full).Msg("Amadeus request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Errors []apiErrorItem `json:"errors"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Errors = payload.Errors
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode amadeus response: %w", err)
	}
	return nil
}

type locationsResponse struct {
	Data []struct {
		SubType  string `json:"subType"`
		IataCode string `json:"iataCode"`
		Name     string `json:"name"`
	} `json:"data"`
}

// AirportCode returns the IATA code of the first airport matching city.
func (c *Client) AirportCode(ctx context.Context, city string) (string, error) {
	params := url.Values{}
	params.Set("keyword", city)
	params.Set("subType", "AIRPORT")

	var resp locationsResponse
	if err := c.get(ctx, "/v1/reference-data/locations", params, &resp); err != nil {
		c.logger.Warn().Err(err).Str("city", city).Msg("Airport lookup failed")
		return "", err
	}
	for _, loc := range resp.Data {
		if loc.SubType == "AIRPORT" && loc.IataCode != "" {
			return loc.IataCode, nil
		}
	}
	return "", fmt.Errorf("%w for %q", ErrAirportNotFound, city)
}
