package crossref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWorksQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query.author") != "Schroedinger" {
			t.Errorf("query.author = %q", q.Get("query.author"))
		}
		if q.Get("rows") != "5" {
			t.Errorf("rows = %q", q.Get("rows"))
		}
		if q.Get("mailto") != "dev@example.org" {
			t.Errorf("mailto = %q", q.Get("mailto"))
		}
		fmt.Fprint(w, `{"message":{"items":[{"DOI":"10.1/a"},{"DOI":"10.1/b"}]}}`)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithMailto("dev@example.org"))
	works, err := c.Works(context.Background(), Query{Author: "Schroedinger", Limit: 5})
	if err != nil {
		t.Fatalf("Works: %v", err)
	}
	if len(works) != 2 {
		t.Fatalf("got %d works, want 2", len(works))
	}
	if works[0]["DOI"] != "10.1/a" {
		t.Errorf("first DOI = %v", works[0]["DOI"])
	}
}

func TestWorksByDOIList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"message":{"DOI":%q}}`, r.URL.Path[len("/works/"):])
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	works, err := c.Works(context.Background(), Query{DOIs: []string{"10.1/a", "https://doi.org/10.1/b"}})
	if err != nil {
		t.Fatalf("Works: %v", err)
	}
	if len(works) != 2 {
		t.Fatalf("got %d works, want 2", len(works))
	}
	// The resolver prefix must be stripped before the request is made.
	if works[1]["DOI"] != "10.1/b" {
		t.Errorf("second DOI = %v", works[1]["DOI"])
	}
}

func TestWorkByDOINotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	_, err := c.WorkByDOI(context.Background(), "10.9999/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should report true")
	}
}

func TestWorkByDOIEmptyDOI(t *testing.T) {
	c := NewClient()
	_, err := c.WorkByDOI(context.Background(), "  ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	_, err := c.WorkByDOI(context.Background(), "10.1/x")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestGetServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	_, err := c.WorkByDOI(context.Background(), "10.1/x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestWorksInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": garbage`)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	_, err := c.Works(context.Background(), Query{Query: "x"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse", err)
	}
}
