// Package openai implements ai.Embedder against OpenAI-compatible
// embedding APIs (OpenAI, Ollama, vLLM, LocalAI).
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/chattydevs/core/ai"
	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/retry"
)

// Config holds connection settings for an OpenAI-compatible embedder.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:11434/v1".
	BaseURL string

	// Token authenticates requests. Local services that skip
	// authentication accept any non-empty value.
	Token string

	// Model is the embedding model identifier.
	Model string

	// Retry is the policy applied around each provider call.
	Retry retry.Policy
}

// Embedder wraps a langchaingo embedder behind the ai.Embedder interface.
type Embedder struct {
	embedder embeddings.Embedder
	policy   retry.Policy
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an embedder for an OpenAI-compatible endpoint.
// Returns ai.Embedder to enforce abstraction.
func NewEmbedder(cfg Config) (ai.Embedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: openai base url is required", core.ErrConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: openai embedding model is required", core.ErrConfig)
	}
	if cfg.Token == "" {
		cfg.Token = "none"
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.NewPolicy(3, 1500*time.Millisecond)
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.Token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		policy:   cfg.Retry,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string,
// retrying under the configured policy.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.policy.Do(ctx, func() error {
		vectors, callErr := e.embedder.EmbedDocuments(ctx, []string{text})
		if callErr != nil {
			return callErr
		}
		if len(vectors) == 0 {
			return fmt.Errorf("embedder returned no vectors")
		}
		vector = vectors[0]
		return nil
	})
	if err != nil {
		e.logger.Error("embedding failed after retries", "err", err)
		return nil, err
	}
	return vector, nil
}
