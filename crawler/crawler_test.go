package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattydevs/core/core"
)

// site serves a small in-memory website keyed by path.
func site(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawl_BFSOrder(t *testing.T) {
	var external atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		external.Add(1)
	}))
	defer other.Close()

	// A links to B and C; C links to an external host.
	srv := site(t, map[string]string{
		"/":  `<html><body><p>page A body text</p><a href="/b">B</a><a href="/c">C</a></body></html>`,
		"/b": `<html><body><p>page B body text</p></body></html>`,
		"/c": `<html><body><p>page C body text</p><a href="` + other.URL + `/elsewhere">external</a></body></html>`,
	})

	c := New()
	pages, err := c.Crawl(context.Background(), srv.URL, 10)
	require.NoError(t, err)

	require.Len(t, pages, 3)
	assert.Equal(t, "page A body text", pages[0].Text)
	assert.Equal(t, "page B body text", pages[1].Text)
	assert.Equal(t, "page C body text", pages[2].Text)
	assert.Equal(t, int32(0), external.Load(), "external host must never be fetched")
}

func TestCrawl_MaxPagesBound(t *testing.T) {
	pages := make(map[string]string)
	for i := range 20 {
		var links strings.Builder
		for j := range 20 {
			fmt.Fprintf(&links, `<a href="/p%d">link</a>`, j)
		}
		pages[fmt.Sprintf("/p%d", i)] = fmt.Sprintf(
			`<html><body><p>content of page number %d with enough text</p>%s</body></html>`, i, links.String())
	}
	var fetched atomic.Int32
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched.Add(1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, pages[r.URL.Path])
	}))
	defer counting.Close()

	c := New()
	got, err := c.Crawl(context.Background(), counting.URL+"/p0", 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 5)
	assert.LessOrEqual(t, fetched.Load(), int32(5), "must not fetch more than max_pages URLs")
}

func TestCrawl_CanonicalURLCountsOnce(t *testing.T) {
	var hitsRoot atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/", "":
			fmt.Fprint(w, `<html><body><p>root page with some body text</p>
				<a href="/docs">1</a><a href="/docs/">2</a><a href="/docs#intro">3</a></body></html>`)
		case "/docs":
			hitsRoot.Add(1)
			fmt.Fprint(w, `<html><body><p>documentation page body text</p></body></html>`)
		}
	}))
	defer srv.Close()

	c := New()
	pages, err := c.Crawl(context.Background(), srv.URL, 10)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, int32(1), hitsRoot.Load(), "slash and fragment variants must be fetched once")
}

func TestCrawl_FetchFailureIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><p>landing page body text</p>
				<a href="/broken">broken</a><a href="/pdf">pdf</a><a href="/ok">ok</a></body></html>`)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-")
		case "/ok":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><p>healthy page body text</p></body></html>`)
		}
	}))
	defer srv.Close()

	c := New()
	pages, err := c.Crawl(context.Background(), srv.URL, 10)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "landing page body text", pages[0].Text)
	assert.Equal(t, "healthy page body text", pages[1].Text)
}

func TestCrawl_EmptyTextPageStillFollowed(t *testing.T) {
	srv := site(t, map[string]string{
		"/":     `<html><body><a href="/next">no paragraphs here</a></body></html>`,
		"/next": `<html><body><p>reachable through an empty page</p></body></html>`,
	})

	c := New()
	pages, err := c.Crawl(context.Background(), srv.URL, 10)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "reachable through an empty page", pages[0].Text)
}

func TestCrawl_PageTextCapKeepsValidUTF8(t *testing.T) {
	// The page text cap lands in the middle of the two-byte rune.
	long := strings.Repeat("a", maxPageTextChars-1) + "é plus text past the cap"
	srv := site(t, map[string]string{
		"/": "<html><body><p>" + long + "</p></body></html>",
	})

	c := New()
	pages, err := c.Crawl(context.Background(), srv.URL, 1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.True(t, utf8.ValidString(pages[0].Text))
	assert.LessOrEqual(t, len(pages[0].Text), maxPageTextChars)
}

func TestTruncateToRuneBoundary(t *testing.T) {
	assert.Equal(t, "a", truncateToRuneBoundary("aé", 2), "cut inside a rune backs off")
	assert.Equal(t, "aé", truncateToRuneBoundary("aé", 3))
	assert.Equal(t, "ab", truncateToRuneBoundary("ab", 5))
}

func TestCrawl_InvalidInput(t *testing.T) {
	c := New()

	_, err := c.Crawl(context.Background(), "", 10)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = c.Crawl(context.Background(), "not a url", 10)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = c.Crawl(context.Background(), "https://example.com", 0)
	assert.ErrorIs(t, err, core.ErrValidation)
}
