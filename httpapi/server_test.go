package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattydevs/core/core"
)

const testToken = "service-token"

type fakeCrawler struct {
	pages    []core.Page
	err      error
	maxPages int
}

func (f *fakeCrawler) Crawl(_ context.Context, _ string, maxPages int) ([]core.Page, error) {
	f.maxPages = maxPages
	return f.pages, f.err
}

type fakeChunker struct {
	tokenLimit int
}

// Split returns one chunk per line of input.
func (f *fakeChunker) Split(text string, tokenLimit int) []string {
	f.tokenLimit = tokenLimit
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}

type upsertCall struct {
	projectID string
	source    string
	chunks    []string
}

type fakeUpserter struct {
	calls []upsertCall
	err   error
}

func (f *fakeUpserter) Upsert(_ context.Context, projectID, source string, chunks []string) (int, error) {
	f.calls = append(f.calls, upsertCall{projectID, source, chunks})
	if f.err != nil {
		return 0, f.err
	}
	return len(chunks), nil
}

type fakeDeleter struct {
	count int
	err   error
}

func (f *fakeDeleter) DeleteProject(context.Context, string) (int, error) {
	return f.count, f.err
}

type testServer struct {
	*Server
	crawler  *fakeCrawler
	chunker  *fakeChunker
	upserter *fakeUpserter
	deleter  *fakeDeleter
	ts       *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	crawler := &fakeCrawler{}
	chunker := &fakeChunker{}
	upserter := &fakeUpserter{}
	deleter := &fakeDeleter{}

	s, err := NewServer(crawler, chunker, upserter, deleter, testToken, WithEnvironment("test"))
	require.NoError(t, err)
	t.Cleanup(s.Release)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &testServer{Server: s, crawler: crawler, chunker: chunker, upserter: upserter, deleter: deleter, ts: ts}
}

func (s *testServer) postJSON(t *testing.T, path string, body any, token string) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, s.ts.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(internalTokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, &fakeChunker{}, &fakeUpserter{}, &fakeDeleter{}, testToken)
	assert.ErrorIs(t, err, ErrCrawlerRequired)

	_, err = NewServer(&fakeCrawler{}, &fakeChunker{}, &fakeUpserter{}, &fakeDeleter{}, "")
	assert.ErrorIs(t, err, ErrTokenRequired)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, "test", body["environment"])
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	resp := s.postJSON(t, "/projects/delete", deleteRequest{ProjectID: "proj-1"}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.postJSON(t, "/projects/delete", deleteRequest{ProjectID: "proj-1"}, "wrong-token")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIngest(t *testing.T) {
	s := newTestServer(t)
	s.crawler.pages = []core.Page{
		{URL: "https://example.com", Text: "alpha\nbeta"},
		{URL: "https://example.com/docs", Text: "gamma"},
	}

	resp := s.postJSON(t, "/projects/ingest", ingestRequest{
		ProjectID: "proj-1",
		StartURL:  "https://example.com",
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[ingestResponse](t, resp)
	assert.Equal(t, "proj-1", body.ProjectID)
	assert.Equal(t, 2, body.PagesCrawled)
	assert.Equal(t, 3, body.ChunksIndexed)

	assert.Equal(t, DefaultMaxPages, s.crawler.maxPages)
	assert.Equal(t, DefaultChunkTokenSize, s.chunker.tokenLimit)

	require.Len(t, s.upserter.calls, 2)
	assert.Equal(t, "https://example.com", s.upserter.calls[0].source)
	assert.Equal(t, []string{"alpha", "beta"}, s.upserter.calls[0].chunks)
}

func TestIngest_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  ingestRequest
	}{
		{"short project id", ingestRequest{ProjectID: "ab", StartURL: "https://example.com"}},
		{"missing start url", ingestRequest{ProjectID: "proj-1"}},
		{"max pages too high", ingestRequest{ProjectID: "proj-1", StartURL: "https://example.com", MaxPages: 500}},
		{"max pages negative", ingestRequest{ProjectID: "proj-1", StartURL: "https://example.com", MaxPages: -1}},
		{"chunk size too low", ingestRequest{ProjectID: "proj-1", StartURL: "https://example.com", ChunkTokenSize: 50}},
		{"chunk size too high", ingestRequest{ProjectID: "proj-1", StartURL: "https://example.com", ChunkTokenSize: 5000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.postJSON(t, "/projects/ingest", tt.req, testToken)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestIngest_ProviderFailure(t *testing.T) {
	s := newTestServer(t)
	s.crawler.pages = []core.Page{{URL: "https://example.com", Text: "alpha"}}
	s.upserter.err = fmt.Errorf("%w: embedding quota exhausted", core.ErrProvider)

	resp := s.postJSON(t, "/projects/ingest", ingestRequest{
		ProjectID: "proj-1",
		StartURL:  "https://example.com",
	}, testToken)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, "internal server error", body.Error, "provider detail must not leak")
}

func TestDelete(t *testing.T) {
	s := newTestServer(t)
	s.deleter.count = 42

	resp := s.postJSON(t, "/projects/delete", deleteRequest{ProjectID: "proj-1"}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[deleteResponse](t, resp)
	assert.Equal(t, "proj-1", body.ProjectID)
	assert.Equal(t, 42, body.VectorsDeleted)
}

func TestDelete_NoVectors(t *testing.T) {
	s := newTestServer(t)
	s.deleter.count = 0

	resp := s.postJSON(t, "/projects/delete", deleteRequest{ProjectID: "proj-1"}, testToken)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelete_ProviderFailure(t *testing.T) {
	s := newTestServer(t)
	s.deleter.err = errors.New("qdrant down")

	resp := s.postJSON(t, "/projects/delete", deleteRequest{ProjectID: "proj-1"}, testToken)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, "internal server error", body.Error)
}

func multipartUpload(t *testing.T, projectID, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("project_id", projectID))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) postMultipart(t *testing.T, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.ts.URL+"/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(internalTokenHeader, testToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartUpload(t, "proj-1", "notes.txt", []byte("alpha\nbeta"))

	resp := s.postMultipart(t, body, contentType)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeBody[uploadResponse](t, resp)
	assert.Equal(t, "proj-1", out.ProjectID)
	assert.Equal(t, "notes.txt", out.Filename)
	assert.Equal(t, 2, out.ChunksIndexed)

	require.Len(t, s.upserter.calls, 1)
	assert.Equal(t, "notes.txt", s.upserter.calls[0].source)
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	s := newTestServer(t)
	body, contentType := multipartUpload(t, "proj-1", "image.png", []byte{0x89, 0x50})

	resp := s.postMultipart(t, body, contentType)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_MissingFile(t *testing.T) {
	s := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("project_id", "proj-1"))
	require.NoError(t, mw.Close())

	resp := s.postMultipart(t, &buf, mw.FormDataContentType())
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, s.ts.URL+"/projects/ingest", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
