// Package isbn retrieves book metadata from the Open Library search API.
package isbn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Open Library base URL.
	BaseURL = "https://openlibrary.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps queries polite.
	RateLimit = 2.0

	// DefaultSearchLimit is the default number of books per query.
	DefaultSearchLimit = 10
)

// Common errors returned by the Open Library client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with openlibrary")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from openlibrary")
)

// Client is a rate-limited HTTP client for the Open Library search API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a new Open Library client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query describes a book search.
type Query struct {
	Query  string
	Author string
	Title  string
	ISBN   string
	Limit  int
}

// Search queries Open Library and returns the raw source-schema records.
func (c *Client) Search(ctx context.Context, q Query) ([]map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	if q.Title != "" {
		params.Set("title", q.Title)
	}
	if q.ISBN != "" {
		params.Set("isbn", q.ISBN)
	}
	params.Set("limit", strconv.Itoa(limit))

	u := c.baseURL + "/search.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	var result struct {
		Docs []map[string]any `json:"docs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	// Books carry no type field of their own.
	for _, d := range result.Docs {
		d["type"] = "book"
	}

	return result.Docs, nil
}
