package itemlookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pobrify/internal/cache"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(
		cache.NewLRUCache[Response](16, time.Minute),
		cache.NewLRUCache[Preview](16, time.Minute),
		WithHTTPClient(srv.Client()),
		WithBaseURL(srv.URL),
	)
}

func TestItem_PassesJSONThroughAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/items/MLA123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"MLA123","title":"Casco","price":45000}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for i := 0; i < 2; i++ {
		r, err := c.Item(context.Background(), "MLA123")
		if err != nil {
			t.Fatalf("Item: %v", err)
		}
		if r.Status != http.StatusOK || !r.JSON || !strings.Contains(string(r.Body), "Casco") {
			t.Fatalf("unexpected response %+v", r)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1", calls.Load())
	}
}

func TestItem_NonJSONAndErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	r, err := c.Item(context.Background(), "MLA0")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if r.Status != http.StatusNotFound || r.JSON || string(r.Body) != "not found" {
		t.Fatalf("unexpected response %+v", r)
	}
	c.Item(context.Background(), "MLA0")
	if calls.Load() != 2 {
		t.Errorf("non-200 answers should not be cached, got %d calls", calls.Load())
	}
}

func TestItem_InvalidID(t *testing.T) {
	c := New(nil, nil)
	for _, id := range []string{"", "  ", "a/b", "x?y"} {
		if _, err := c.Item(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Item(%q) err = %v, want ErrInvalidID", id, err)
		}
	}
}

const productPage = `<!doctype html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Parrilla portátil">
<meta property="og:description" content="Acero inoxidable">
<meta property="og:image" content="/img/parrilla.jpg">
<meta property="product:price:amount" content="12.990,50">
</head><body></body></html>`

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(productPage))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	p, err := c.Scrape(context.Background(), srv.URL+"/p/1")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if p.Title != "Parrilla portátil" || p.Description != "Acero inoxidable" {
		t.Errorf("unexpected preview %+v", p)
	}
	if p.Image != srv.URL+"/img/parrilla.jpg" {
		t.Errorf("image = %q", p.Image)
	}
	if p.Price == nil || *p.Price != 12991 {
		t.Errorf("price = %v, want 12991", p.Price)
	}
}

func TestScrape_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.Scrape(context.Background(), "ftp://example.com"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
	if _, err := c.Scrape(context.Background(), "not a url"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
	if _, err := c.Scrape(context.Background(), srv.URL); err == nil {
		t.Error("expected error for upstream 502")
	}
}

func TestParsePreview_Fallbacks(t *testing.T) {
	html := `<html><head><title> Plain page </title></head>
<body><span itemprop="price" content="1500"></span></body></html>`
	p, err := ParsePreview("https://shop.example/x", strings.NewReader(html))
	if err != nil {
		t.Fatalf("ParsePreview: %v", err)
	}
	if p.Title != "Plain page" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Price == nil || *p.Price != 1500 {
		t.Errorf("price = %v", p.Price)
	}
	if p.Image != "" {
		t.Errorf("image = %q, want empty", p.Image)
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := map[string]string{
		"12.990,50": "12990.50",
		"1,299.50":  "1299.50",
		"$ 1500":    "1500",
		"99,9":      "99.9",
	}
	for in, want := range tests {
		if got := normalizePrice(in); got != want {
			t.Errorf("normalizePrice(%q) = %q, want %q", in, got, want)
		}
	}
}
