// Package qdrant is a minimal REST client for the Qdrant points API,
// implementing store.VectorStore. It speaks the scroll, upsert and bulk
// delete endpoints; collection management is out of scope.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/retry"
	"github.com/chattydevs/core/store"
)

const (
	// DefaultTimeout bounds each store call.
	DefaultTimeout = 30 * time.Second
)

// Config holds connection settings for a Qdrant instance.
type Config struct {
	// URL is the Qdrant base URL, e.g. "https://xyz.cloud.qdrant.io:6333".
	URL string

	// APIKey is sent in the api-key header when non-empty.
	APIKey string

	// Collection is the collection holding all points.
	Collection string

	// Timeout bounds each HTTP call.
	Timeout time.Duration

	// Retry is applied to scroll and bulk-delete calls. Upserts are
	// deliberately not retried: a failed write aborts the ingestion
	// immediately rather than risking duplicate batches.
	Retry retry.Policy
}

// Client is a REST client to one Qdrant collection. Safe for concurrent use.
type Client struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	policy     retry.Policy
}

var _ store.VectorStore = (*Client)(nil)

// NewClient creates a Qdrant client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", core.ErrConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection is required", core.ErrConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.NewPolicy(3, 1500*time.Millisecond)
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
		policy:     cfg.Retry,
	}, nil
}

// Upsert writes points with a single bulk PUT. Not retried: a non-success
// status propagates immediately.
func (c *Client) Upsert(ctx context.Context, points []core.Point) error {
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points", c.url, c.collection)
	return c.roundTrip(ctx, http.MethodPut, url, body, nil)
}

type scrollResponse struct {
	Result struct {
		Points []struct {
			ID json.RawMessage `json:"id"`
		} `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	} `json:"result"`
}

// ScrollIDs fetches one page of point IDs matching the project filter.
// The cursor is the raw next_page_offset JSON of the previous page.
func (c *Client) ScrollIDs(ctx context.Context, projectID string, limit int, cursor string) ([]string, string, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": false,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "project_id", "match": map[string]any{"value": projectID}},
			},
		},
	}
	if cursor != "" {
		body["offset"] = json.RawMessage(cursor)
	}

	var out scrollResponse
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.url, c.collection)
	err := c.policy.Do(ctx, func() error {
		out = scrollResponse{}
		return c.roundTrip(ctx, http.MethodPost, url, body, &out)
	})
	if err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		ids = append(ids, decodeID(p.ID))
	}

	next := string(out.Result.NextPageOffset)
	if next == "null" {
		next = ""
	}
	return ids, next, nil
}

// DeletePoints removes points by explicit identifier in one bulk call,
// retried under the configured policy.
func (c *Client) DeletePoints(ctx context.Context, ids []string) error {
	points := make([]any, 0, len(ids))
	for _, id := range ids {
		points = append(points, encodeID(id))
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points/delete", c.url, c.collection)
	return c.policy.Do(ctx, func() error {
		return c.roundTrip(ctx, http.MethodPost, url, body, nil)
	})
}

// roundTrip issues one JSON request and decodes the response into out
// when non-nil. Any non-2xx status is an error.
func (c *Client) roundTrip(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// encodeID renders a point ID for the wire. Qdrant treats 123 and
// "123" as distinct IDs, so a decimal string (a foreign numeric ID
// passed through decodeID) must go back out as a JSON number.
func encodeID(id string) any {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return n
	}
	return id
}

// decodeID renders a Qdrant point ID. IDs written by this service are
// UUID strings, but numeric IDs from foreign points are tolerated.
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return string(raw)
}
