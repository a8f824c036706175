// Package fetch is the outbound HTTP adapter shared by the provider
// clients. A Client carries exactly one authentication mode, fixed at
// construction: bearer token, api_key query parameter, or none.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Client issues GET requests and returns raw JSON payloads. It does not
// retry and does not treat non-2xx statuses as errors; callers decide.
type Client struct {
	http   *http.Client
	apiKey string
	log    zerolog.Logger
}

// NewBearer returns a Client that attaches "Authorization: Bearer <token>"
// to every request.
func NewBearer(token string, timeout time.Duration, log zerolog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(context.Background(), src)
	hc.Timeout = timeout
	return &Client{http: hc, log: log}
}

// NewAPIKey returns a Client that appends api_key=<key> to every request URL
func NewAPIKey(key string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		apiKey: key,
		log:    log,
	}
}

// NewAnonymous returns a Client with no authentication
func NewAnonymous(timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Get fetches rawURL and returns the HTTP status and response body.
// Transport-level failures are the only error case; upstream failures are
// surfaced through the status code.
func (c *Client) Get(ctx context.Context, rawURL string) (int, []byte, error) {
	if c.apiKey != "" {
		if u, err := url.Parse(rawURL); err == nil {
			q := u.Query()
			q.Set("api_key", c.apiKey)
			u.RawQuery = q.Encode()
			rawURL = u.String()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Str("url", Redact(rawURL)).Dur("duration", time.Since(start)).Err(err).Msg("outbound GET failed")
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	c.log.Info().
		Str("url", Redact(rawURL)).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("outbound GET")

	return resp.StatusCode, body, nil
}

// Redact masks the api_key query parameter so credentials never reach logs
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
