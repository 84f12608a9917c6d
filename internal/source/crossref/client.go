// Package crossref retrieves work metadata from the crossref REST API and
// defines the conversion table that maps its schema onto canonical
// documents.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit stays well inside crossref's polite-pool allowance.
	RateLimit = 10.0

	// DefaultSearchLimit is the default number of works per query.
	DefaultSearchLimit = 20
)

// Client is a rate-limited HTTP client for the crossref REST API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMailto sets the contact address sent with each request, which routes
// traffic to crossref's polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

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

// NewClient creates a new crossref client.
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

// Query describes a works search.
type Query struct {
	Query  string
	Author string
	Title  string
	DOIs   []string
	Limit  int
}

// Works searches crossref and returns the raw work records. DOI queries
// resolve each DOI individually; free queries hit the works search
// endpoint sorted by relevance.
func (c *Client) Works(ctx context.Context, q Query) ([]map[string]any, error) {
	if len(q.DOIs) > 0 {
		works := make([]map[string]any, 0, len(q.DOIs))
		for _, doi := range q.DOIs {
			w, err := c.WorkByDOI(ctx, doi)
			if err != nil {
				return nil, err
			}
			works = append(works, w)
		}
		return works, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	if q.Query != "" {
		params.Set("query", q.Query)
	}
	if q.Author != "" {
		params.Set("query.author", q.Author)
	}
	if q.Title != "" {
		params.Set("query.title", q.Title)
	}
	params.Set("rows", strconv.Itoa(limit))
	params.Set("sort", "relevance")

	body, err := c.get(ctx, "/works", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message struct {
			Items []map[string]any `json:"items"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing works: %v", ErrInvalidResponse, err)
	}

	return resp.Message.Items, nil
}

// WorkByDOI fetches one work record by DOI.
func (c *Client) WorkByDOI(ctx context.Context, doi string) (map[string]any, error) {
	doi = CleanDOI(doi)
	if doi == "" {
		return nil, fmt.Errorf("%w: empty doi", ErrNotFound)
	}

	body, err := c.get(ctx, "/works/"+url.PathEscape(doi), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message map[string]any `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing work: %v", ErrInvalidResponse, err)
	}
	if resp.Message == nil {
		return nil, ErrNotFound
	}

	return resp.Message, nil
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

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

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	return body, nil
}

func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// CleanDOI strips resolver prefixes and surrounding noise from a DOI.
func CleanDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{
		"https://doi.org/", "http://doi.org/", "https://dx.doi.org/",
		"http://dx.doi.org/", "doi.org/", "DOI:", "doi:",
	} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}
