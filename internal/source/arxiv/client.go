// Package arxiv retrieves preprint metadata from the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
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
	// BaseURL is the arXiv API base URL.
	BaseURL = "https://export.arxiv.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit follows arXiv's one-request-per-three-seconds guideline.
	RateLimit = 1.0 / 3.0

	// DefaultSearchLimit is the default number of entries per query.
	DefaultSearchLimit = 20
)

// Common errors returned by the arXiv client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with arxiv")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from arxiv")
)

// Client is a rate-limited HTTP client for the arXiv API.
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

// NewClient creates a new arXiv client.
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

// Query describes an arXiv search.
type Query struct {
	Query    string
	Author   string
	Title    string
	Abstract string
	Category string
	IDList   string
	Limit    int
}

// feed mirrors the subset of the Atom response we read.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID         string     `xml:"id"`
	Title      string     `xml:"title"`
	Summary    string     `xml:"summary"`
	Published  string     `xml:"published"`
	DOI        string     `xml:"doi"`
	JournalRef string     `xml:"journal_ref"`
	Comment    string     `xml:"comment"`
	Authors    []author   `xml:"author"`
	Categories []category `xml:"category"`
}

type author struct {
	Name string `xml:"name"`
}

type category struct {
	Term string `xml:"term,attr"`
}

// Search queries arXiv and returns the raw source-schema records.
func (c *Client) Search(ctx context.Context, q Query) ([]map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	if sq := buildSearchQuery(q); sq != "" {
		params.Set("search_query", sq)
	}
	if q.IDList != "" {
		params.Set("id_list", q.IDList)
	}
	params.Set("max_results", strconv.Itoa(limit))

	u := c.baseURL + "/api/query?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

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

	return parseFeed(body)
}

// buildSearchQuery assembles the arXiv search_query expression.
func buildSearchQuery(q Query) string {
	var terms []string
	add := func(prefix, value string) {
		if value != "" {
			terms = append(terms, fmt.Sprintf("%s:%q", prefix, value))
		}
	}
	add("all", q.Query)
	add("au", q.Author)
	add("ti", q.Title)
	add("abs", q.Abstract)
	add("cat", q.Category)
	return strings.Join(terms, " AND ")
}

// parseFeed decodes an Atom feed into raw source records.
func parseFeed(body []byte) ([]map[string]any, error) {
	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing feed: %v", ErrInvalidResponse, err)
	}

	records := make([]map[string]any, 0, len(f.Entries))
	for _, e := range f.Entries {
		authors := make([]any, 0, len(e.Authors))
		for _, a := range e.Authors {
			authors = append(authors, map[string]any{"name": a.Name})
		}
		tags := make([]any, 0, len(e.Categories))
		for _, cat := range e.Categories {
			tags = append(tags, cat.Term)
		}

		rec := map[string]any{
			"id":      e.ID,
			"title":   e.Title,
			"summary": e.Summary,
			"author":  authors,
			"type":    "article",
		}
		if e.Published != "" {
			rec["published"] = e.Published
		}
		if e.DOI != "" {
			rec["doi"] = e.DOI
		}
		if e.JournalRef != "" {
			rec["journal_ref"] = e.JournalRef
		}
		if e.Comment != "" {
			rec["comment"] = e.Comment
		}
		if len(tags) > 0 {
			rec["category"] = tags
		}
		records = append(records, rec)
	}

	return records, nil
}
