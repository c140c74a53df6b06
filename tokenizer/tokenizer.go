// Package tokenizer wraps a BPE token encoding used for counting and
// slicing text. A Tokenizer is built once at process start and shared
// read-only by all requests; it holds no mutable state.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding scheme used unless overridden.
const DefaultEncoding = "cl100k_base"

// Tokenizer converts text to token sequences and back using a named
// encoding scheme. Safe for concurrent use.
type Tokenizer struct {
	enc  *tiktoken.Tiktoken
	name string
}

// New creates a Tokenizer for the named encoding. An empty name selects
// DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load token encoding %q: %w", encoding, err)
	}
	return &Tokenizer{enc: enc, name: encoding}, nil
}

// Name returns the encoding scheme name.
func (t *Tokenizer) Name() string {
	return t.name
}

// Encode converts text into its token sequence.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts a token sequence back into text.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	return len(t.Encode(text))
}
