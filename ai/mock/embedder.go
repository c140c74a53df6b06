package mock

import (
	"context"
	"hash/fnv"
	"sync"
)

// Embedder is a test double for ai.Embedder. It allows custom behavior
// injection via function fields; without one it produces deterministic
// vectors so identical text always embeds identically.
type Embedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	mu        sync.Mutex
	callCount int
	texts     []string
}

// NewEmbedder creates a mock embedder with default deterministic behavior.
// Returns the concrete type to allow test assertions.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// EmbedText generates a deterministic embedding based on the text hash.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, 8), nil
}

// CallCount returns the number of EmbedText calls.
func (m *Embedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns the chunks embedded so far, in call order.
func (m *Embedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// deterministicVector creates an embedding from an FNV hash of the text.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range dim {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
