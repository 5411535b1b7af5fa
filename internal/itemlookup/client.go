// Package itemlookup proxies marketplace item lookups and scrapes product
// pages for accessory previews.
package itemlookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pobrify/internal/cache"
)

const (
	DefaultBaseURL = "https://api.mercadolibre.com"

	maxBodyBytes = 2 << 20
)

var (
	ErrInvalidID  = errors.New("invalid item id")
	ErrInvalidURL = errors.New("url must be absolute http or https")
)

// Response is an upstream answer passed through to the caller. Body is
// valid JSON when JSON is true, otherwise raw text.
type Response struct {
	Status int
	JSON   bool
	Body   []byte
}

type Client struct {
	http    *http.Client
	baseURL string
	items   *cache.LRUCache[Response]
	pages   *cache.LRUCache[Preview]
	group   singleflight.Group
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

func New(items *cache.LRUCache[Response], pages *cache.LRUCache[Preview], opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: DefaultBaseURL,
		items:   items,
		pages:   pages,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Item fetches /items/{id}. Only 200 answers are cached.
func (c *Client) Item(ctx context.Context, id string) (Response, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return Response{}, ErrInvalidID
	}
	if c.items != nil {
		if r, ok := c.items.Get(id); ok {
			return r, nil
		}
	}

	v, err, _ := c.group.Do("item:"+id, func() (any, error) {
		return c.fetchItem(ctx, id)
	})
	if err != nil {
		return Response{}, err
	}
	r := v.(Response)
	if c.items != nil && r.Status == http.StatusOK {
		c.items.Set(id, r)
	}
	return r, nil
}

func (c *Client) fetchItem(ctx context.Context, id string) (Response, error) {
	endpoint := fmt.Sprintf("%s/items/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("fetch item %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read item %s: %w", id, err)
	}
	c.logger.DebugContext(ctx, "Item lookup", "id", id, "status", resp.StatusCode, "bytes", len(body))
	return Response{Status: resp.StatusCode, JSON: json.Valid(body), Body: body}, nil
}
