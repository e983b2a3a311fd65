package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/evansbrianrobert/NBAStats/internal/cache"
)

const defaultUserAgent = "nbastats/1.0 (research pipeline; be polite)"

// Page is a fetched page reduced to what the schedule and link extractors
// need: cleaned visible text plus every hyperlink target in document order.
type Page struct {
	Text  string
	Links []string
}

// Client is a polite HTTP fetcher. Requests pass through a rate limiter,
// carry a fixed User-Agent, cap the response body, and consult an optional
// Redis page cache before touching the network.
type Client struct {
	hc      *http.Client
	limiter *rate.Limiter
	cache   *cache.PageCache
	ua      string
	maxBody int64
	log     *logrus.Entry
}

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxBody           int64
	UserAgent         string
	Cache             *cache.PageCache
}

// NewClient builds a fetcher with the given politeness settings.
func NewClient(opts Options, log *logrus.Logger) *Client {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 0.5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = 4 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Client{
		hc:      &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		cache:   opts.Cache,
		ua:      opts.UserAgent,
		maxBody: opts.MaxBody,
		log:     log.WithField("component", "fetch"),
	}
}

// Get returns the raw body for url, from cache when possible.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(ctx, url); ok {
		c.log.WithField("url", url).Debug("page cache hit")
		return body, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)

	c.log.WithField("url", url).Info("fetching")
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	c.cache.Set(ctx, url, body)
	return body, nil
}

// Document fetches url and parses it for structured extraction.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Page fetches url and reduces it to cleaned text plus hrefs.
func (c *Client) Page(ctx context.Context, url string) (*Page, error) {
	doc, err := c.Document(ctx, url)
	if err != nil {
		return nil, err
	}
	return PageFromDocument(doc), nil
}

// PageFromDocument strips scripts and styles, collapses the remaining text
// to non-empty lines, and collects every href in document order.
func PageFromDocument(doc *goquery.Document) *Page {
	doc.Find("script, style").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		for _, chunk := range strings.Split(line, "  ") {
			chunk = strings.TrimSpace(chunk)
			if chunk != "" {
				lines = append(lines, chunk)
			}
		}
	}

	var links []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	return &Page{Text: strings.Join(lines, "\n"), Links: links}
}
