// Package libgen retrieves book metadata from the Library Genesis JSON API.
package libgen

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

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Library Genesis mirror base URL.
	BaseURL = "https://libgen.rs"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps queries polite.
	RateLimit = 1.0

	// DefaultFields is the field list requested on lookups.
	DefaultFields = "id,title,author,year,publisher,pages,identifier,extension,md5"
)

// Search columns recognized by the API.
const (
	ColumnAuthor = "author"
	ColumnTitle  = "title"
	ColumnISBN   = "identifier"
)

// Common errors returned by the Library Genesis client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with libgen")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from libgen")
)

// Client is a rate-limited HTTP client for the Library Genesis API.
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

// WithBaseURL sets a custom base URL (for testing or mirrors).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a new Library Genesis client.
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

// Search looks up book ids matching a term in one column.
func (c *Client) Search(ctx context.Context, term, column string) ([]string, error) {
	params := url.Values{}
	params.Set("req", term)
	params.Set("column", column)
	params.Set("format", "json")

	body, err := c.get(ctx, "/search.php?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var hits []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &hits); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Lookup fetches the raw records for a set of book ids.
func (c *Client) Lookup(ctx context.Context, ids []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("fields", DefaultFields)

	body, err := c.get(ctx, "/json.php?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: parsing records: %v", ErrInvalidResponse, err)
	}

	for _, r := range records {
		r["type"] = "book"
		if md5, ok := r["md5"].(string); ok && md5 != "" {
			r["download"] = c.baseURL + "/book/index.php?md5=" + md5
		}
	}

	return records, nil
}

// get performs a rate-limited GET against the mirror.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
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
	return body, nil
}
