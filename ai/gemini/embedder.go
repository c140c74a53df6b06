// Package gemini implements ai.Embedder against the Gemini embedContent
// REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/chattydevs/core/ai"
	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/retry"
)

const (
	// DefaultBaseURL is the Gemini generative language API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the embedding model used unless overridden.
	DefaultModel = "models/text-embedding-004"

	// DefaultTimeout bounds each embedding call.
	DefaultTimeout = 20 * time.Second
)

// Config holds connection settings for the Gemini embedder.
type Config struct {
	// APIKey authenticates requests; required.
	APIKey string

	// Model is the embedding model identifier, e.g. "models/text-embedding-004".
	Model string

	// BaseURL overrides the API root, mainly for tests.
	BaseURL string

	// Timeout bounds each HTTP call.
	Timeout time.Duration

	// Retry is the policy applied around each provider call.
	Retry retry.Policy
}

// Embedder calls the Gemini embedContent endpoint. Safe for concurrent use.
type Embedder struct {
	endpoint string
	apiKey   string
	client   *http.Client
	policy   retry.Policy
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a Gemini embedder. Returns ai.Embedder to enforce
// abstraction.
func NewEmbedder(cfg Config) (ai.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", core.ErrConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.NewPolicy(3, 1500*time.Millisecond)
	}

	return &Embedder{
		endpoint: fmt.Sprintf("%s/%s:embedContent", cfg.BaseURL, cfg.Model),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		policy:   cfg.Retry,
		logger:   slog.Default().With("component", "gemini-embedder"),
	}, nil
}

type embedRequest struct {
	Content struct {
		Parts []part `json:"parts"`
	} `json:"content"`
}

type part struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// EmbedText generates an embedding for a single chunk, retrying the
// provider call under the configured policy and returning the last
// failure once attempts are exhausted.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.policy.Do(ctx, func() error {
		var callErr error
		vector, callErr = e.embed(ctx, text)
		return callErr
	})
	if err != nil {
		e.logger.Error("embedding failed after retries", "err", err)
		return nil, err
	}
	return vector, nil
}

func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	var reqBody embedRequest
	reqBody.Content.Parts = []part{{Text: text}}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := e.endpoint + "?key=" + url.QueryEscape(e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gemini embed: status %s: %s", resp.Status, body)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gemini embed: decode response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embed: empty embedding in response")
	}
	return out.Embedding.Values, nil
}
