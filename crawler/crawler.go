// Package crawler performs bounded breadth-first traversal of a website,
// restricted to the start URL's host, producing pages of extracted
// paragraph text. Fetch failures are non-fatal: the page is skipped and
// traversal continues.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/chattydevs/core/core"
)

const (
	// DefaultTimeout bounds each page fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the crawler to origin servers.
	DefaultUserAgent = "ChattyDevsBot/1.0 (+https://chattydevs.com)"

	// maxPageTextChars caps the extracted text of a single page.
	maxPageTextChars = 200_000
)

// Crawler fetches pages sequentially, one at a time. Safe for concurrent
// use; each Crawl call keeps its own queue and visited set.
type Crawler struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every fetch.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl visits at most maxPages distinct canonical URLs reachable from
// startURL on the same host and returns the non-empty pages in BFS order.
// URLs are canonicalized (fragment and trailing slash stripped) before
// being recorded as visited, so URL variants count once.
func (c *Crawler) Crawl(ctx context.Context, startURL string, maxPages int) ([]core.Page, error) {
	if startURL == "" {
		return nil, fmt.Errorf("%w: start_url is required", core.ErrValidation)
	}
	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" {
		return nil, fmt.Errorf("%w: start_url is not a valid absolute URL", core.ErrValidation)
	}
	if maxPages <= 0 {
		return nil, fmt.Errorf("%w: max_pages must be positive", core.ErrValidation)
	}

	host := start.Host
	queue := []string{startURL}
	visited := make(map[string]struct{})
	var pages []core.Page

	// The limit bounds distinct pages visited, not the queue size.
	for len(queue) > 0 && len(visited) < maxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		raw := queue[0]
		queue = queue[1:]

		canonical := canonicalize(raw)
		if _, seen := visited[canonical]; seen {
			continue
		}
		visited[canonical] = struct{}{}

		doc, err := c.fetch(ctx, canonical)
		if err != nil {
			// Non-fatal: drop the page, keep crawling.
			c.logger.Debug("skipping page", "url", canonical, "reason", err)
			continue
		}

		text := paragraphText(doc)
		if len(text) > maxPageTextChars {
			text = truncateToRuneBoundary(text, maxPageTextChars)
		}
		if text != "" {
			pages = append(pages, core.Page{URL: canonical, Text: text})
		}

		base, err := url.Parse(canonical)
		if err != nil {
			continue
		}
		for _, href := range anchorHrefs(doc) {
			link, err := base.Parse(href)
			if err != nil {
				continue
			}
			if link.Scheme != "http" && link.Scheme != "https" {
				continue
			}
			// No subdomain crossing: host must match exactly.
			if link.Host != host {
				continue
			}
			if _, seen := visited[canonicalize(link.String())]; seen {
				continue
			}
			queue = append(queue, link.String())
		}
	}

	return pages, nil
}

// fetch retrieves a URL and parses it as HTML. Transport errors, non-2xx
// statuses and non-HTML content types all return an error; callers treat
// those as a skipped page.
func (c *Crawler) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// truncateToRuneBoundary cuts text to at most maxBytes without severing
// a multi-byte rune.
func truncateToRuneBoundary(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// canonicalize strips the fragment and any trailing slashes so URL
// variants map to one visited entry.
func canonicalize(raw string) string {
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "/")
}

// paragraphText joins the text content of all <p> elements with spaces.
func paragraphText(doc *html.Node) string {
	var parts []string
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if t := nodeText(n); t != "" {
				parts = append(parts, t)
			}
		}
	})
	return strings.Join(parts, " ")
}

// anchorHrefs collects the href attribute of every anchor in document order.
func anchorHrefs(doc *html.Node) []string {
	var hrefs []string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		for _, attr := range n.Attr {
			if attr.Key == "href" && attr.Val != "" {
				hrefs = append(hrefs, attr.Val)
				return
			}
		}
	})
	return hrefs
}

// nodeText concatenates the text descendants of a node, collapsing runs of
// whitespace to single spaces.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(child *html.Node) {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
			sb.WriteByte(' ')
		}
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}
