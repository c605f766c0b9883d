package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// statusError is returned for non-200 responses.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// client is the HTTP plumbing shared by the API wrappers.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

func newClient(timeout time.Duration, rps float64, logger arbor.ILogger) *client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// getJSON issues a GET to endpoint with params and decodes a 200 response into out.
func (c *client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	full := endpoint
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	c.logger.Debug().Str("url", redact(endpoint, params)).Msg("GET")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var secretParams = []string{"key", "appid"}

// redact renders endpoint with params, hiding API keys.
func redact(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	safe := url.Values{}
	for k, v := range params {
		safe[k] = v
	}
	for _, k := range secretParams {
		if safe.Has(k) {
			safe.Set(k, "***REDACTED***")
		}
	}
	return endpoint + "?" + safe.Encode()
}

func join(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
