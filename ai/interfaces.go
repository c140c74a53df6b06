package ai

import "context"

// Embedder converts one text chunk into a fixed-length vector embedding.
// Implementations must be thread-safe for concurrent use and perform
// their own bounded retries; an error means the provider failed after
// all attempts.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
