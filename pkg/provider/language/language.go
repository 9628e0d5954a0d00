// Package language provides a client for a deployed language understanding
// endpoint, mapping free text to an intent plus recognized entities.
package language

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoIntent is returned when the service response carries no intent.
var ErrNoIntent = errors.New("language: cannot determine intent")

// Entity is one recognized span of the query text.
type Entity struct {
	Entity string  `json:"entity"`
	Type   string  `json:"type"`
	Score  float64 `json:"score"`
}

// Intent is one candidate interpretation, best first.
type Intent struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

// Response is the full service reply for a query.
type Response struct {
	Query    string   `json:"query"`
	Intents  []Intent `json:"intents"`
	Entities []Entity `json:"entities"`
}

// Result is the distilled outcome of a query: the top intent and the
// recognized entities.
type Result struct {
	Intent   string
	Entities []Entity
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for queries.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client queries a deployed language understanding service. The service URL
// is fixed per deployment and already carries the application id and
// subscription key; the query text is appended to it.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a Client for the given deployment URL. The URL must be
// complete, including the trailing "&q=".
func New(serviceURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(serviceURL, "&q=") {
		return nil, errors.New(`language: url must end with "&q="`)
	}
	c := &Client{
		url:        serviceURL,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// QueryRaw submits text and returns the complete service response.
func (c *Client) QueryRaw(ctx context.Context, text string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+url.QueryEscape(text), nil)
	if err != nil {
		return nil, fmt.Errorf("language: query request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("language: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("language: query: unexpected status %d", resp.StatusCode)
	}
	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("language: query decode: %w", err)
	}
	return &r, nil
}

// Query submits text and returns the top intent with the recognized
// entities. Returns ErrNoIntent when the service produced no intent.
func (c *Client) Query(ctx context.Context, text string) (*Result, error) {
	r, err := c.QueryRaw(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(r.Intents) == 0 || r.Intents[0].Intent == "" {
		return nil, ErrNoIntent
	}
	return &Result{
		Intent:   r.Intents[0].Intent,
		Entities: r.Entities,
	}, nil
}
