package itemlookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pobrify/internal/core"
)

// Preview is the metadata scraped from a product page.
type Preview struct {
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	Price       *core.Money `json:"price,omitempty"`
}

// Scrape fetches rawURL and reads its Open Graph and product metadata.
func (c *Client) Scrape(ctx context.Context, rawURL string) (Preview, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Preview{}, ErrInvalidURL
	}
	key := u.String()
	if c.pages != nil {
		if p, ok := c.pages.Get(key); ok {
			return p, nil
		}
	}

	v, err, _ := c.group.Do("page:"+key, func() (any, error) {
		return c.fetchPreview(ctx, key)
	})
	if err != nil {
		return Preview{}, err
	}
	p := v.(Preview)
	if c.pages != nil {
		c.pages.Set(key, p)
	}
	return p, nil
}

func (c *Client) fetchPreview(ctx context.Context, pageURL string) (Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Preview{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return Preview{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Preview{}, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}
	return ParsePreview(pageURL, io.LimitReader(resp.Body, maxBodyBytes))
}

// ParsePreview extracts preview fields from an HTML document.
func ParsePreview(pageURL string, r io.Reader) (Preview, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Preview{}, fmt.Errorf("parse page: %w", err)
	}

	p := Preview{
		URL:         pageURL,
		Title:       meta(doc, "og:title", "twitter:title"),
		Description: meta(doc, "og:description", "description"),
		Image:       meta(doc, "og:image", "twitter:image"),
	}
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if p.Image != "" {
		p.Image = resolve(pageURL, p.Image)
	}

	price := meta(doc, "product:price:amount", "og:price:amount")
	if price == "" {
		price, _ = doc.Find(`[itemprop="price"]`).First().Attr("content")
	}
	if price != "" {
		if m, err := core.ParseAmount(normalizePrice(price)); err == nil {
			p.Price = &m
		}
	}
	return p, nil
}

func meta(doc *goquery.Document, names ...string) string {
	for _, n := range names {
		sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, n, n)).First()
		if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// normalizePrice accepts "1.299,50" and "1,299.50" style amounts.
func normalizePrice(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$ ")
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}
