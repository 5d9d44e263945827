// Package omega is the client for the Omega pricing vendor.
package omega

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"time"

	"pricesync/internal/model"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "http://localhost:8080"
	recordsPath    = "/pricing/records.json"

	// DefaultTimeout bounds a single price request when no timeout is configured.
	DefaultTimeout = 30 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=omega_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches price records from the Omega API.
type Client struct {
	// baseURL is the scheme and host of the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query carries the api_key and is sent with each request.
	query url.Values
	// timeout bounds every request.
	timeout time.Duration
	logger  zerolog.Logger
}

// Option is a configuration option for the Omega client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeout bounds each request. Zero keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "omega-client").Logger()
	}
}

// NewClient creates a new Omega API client.
func NewClient(apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("omega API key is required")
	}

	client := &Client{
		baseURL: defaultBaseURL,
		header:  http.Header{},
		query:   url.Values{},
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	client.query.Set("api_key", apiKey)

	for _, option := range options {
		option(client)
	}

	if _, err := url.Parse(client.baseURL); err != nil {
		return nil, fmt.Errorf("invalid omega base URL %q: %w", client.baseURL, err)
	}
	if client.httpClient == nil {
		client.httpClient = NewHTTPClient(client.timeout)
	}

	return client, nil
}

// GetPrices fetches the vendor's price records for [start, end].
// mode is forwarded as the demo hint when non-empty.
// An empty or absent record list yields model.ErrNoPriceData.
func (c *Client) GetPrices(ctx context.Context, start, end time.Time, mode string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := maps.Clone(c.query)
	query.Set("start_date", start.Format(time.DateOnly))
	query.Set("end_date", end.Format(time.DateOnly))
	if mode != "" {
		query.Set("demo", mode)
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, recordsPath, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &model.TransportError{Op: "creating request", Err: err}
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("start_date", start.Format(time.DateOnly)).
		Str("end_date", end.Format(time.DateOnly)).
		Str("mode", mode).
		Msg("requesting vendor prices")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("vendor request failed")
		return nil, &model.TransportError{Op: "performing request", Err: err}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &model.TransportError{Op: "get prices", StatusCode: res.StatusCode, Err: errors.New("unauthorized")}

	case http.StatusTooManyRequests:
		return nil, &model.TransportError{Op: "get prices", StatusCode: res.StatusCode, Err: errors.New("rate limited")}

	default:
		return nil, &model.TransportError{Op: "get prices", StatusCode: res.StatusCode, Err: errors.New("unexpected status code")}
	}

	payload, err := DecodePayload(res.Body)
	if err != nil {
		var malformed *model.MalformedRecordError
		if errors.As(err, &malformed) {
			c.logger.Error().Err(err).Msg("vendor returned a malformed record")
			return nil, err
		}
		return nil, &model.TransportError{Op: "decoding response", Err: err}
	}

	if len(payload.Records) == 0 {
		c.logger.Warn().
			Str("start_date", start.Format(time.DateOnly)).
			Str("end_date", end.Format(time.DateOnly)).
			Msg("vendor returned no price records")
		return nil, model.ErrNoPriceData
	}

	c.logger.Debug().Int("records", len(payload.Records)).Msg("vendor prices received")

	return payload.Records, nil
}
