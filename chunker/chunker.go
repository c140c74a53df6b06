// Package chunker splits arbitrary text into an ordered sequence of
// token-bounded, overlap-linked chunks. Text structure (headings, code
// fences, paragraph breaks) guides segmentation so chunks avoid severing
// semantic units; a trailing-token prefix carried from each emitted chunk
// into the next preserves cross-chunk context for retrieval.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxInputChars caps the input size; longer text is truncated.
	MaxInputChars = 500_000

	// DefaultMinChunkChars is the minimum character length of an emitted
	// chunk; shorter assemblies are discarded at flush.
	DefaultMinChunkChars = 50

	// overlapRatio of the token limit is carried from the tail of each
	// emitted chunk into the start of the next.
	overlapRatio = 0.15
)

// Tokenizer is the token encoding the chunker counts and slices with.
// Implemented by *tokenizer.Tokenizer.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// Chunker assembles structural blocks into token-bounded chunks.
// Deterministic and side-effect free beyond tokenizer use; safe for
// concurrent use.
type Chunker struct {
	tok           Tokenizer
	minChunkChars int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMinChunkChars overrides the minimum emitted chunk length.
func WithMinChunkChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.minChunkChars = n
		}
	}
}

// New creates a Chunker using the given tokenizer.
func New(tok Tokenizer, opts ...Option) *Chunker {
	c := &Chunker{
		tok:           tok,
		minChunkChars: DefaultMinChunkChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split chunks text under the given per-chunk token limit. Returns chunks
// in generation order; empty input yields no chunks. Every emitted chunk's
// token count is at most tokenLimit.
func (c *Chunker) Split(text string, tokenLimit int) []string {
	if text == "" || tokenLimit <= 0 {
		return nil
	}
	if len(text) > MaxInputChars {
		text = truncateToRuneBoundary(text, MaxInputChars)
	}

	blocks := segmentBlocks(text)
	if len(blocks) == 0 {
		return nil
	}

	overlap := int(float64(tokenLimit) * overlapRatio)

	var (
		chunks []string
		prefix string
		parts  []string
	)

	// flush emits the pending parts as one chunk and recomputes the
	// overlap prefix from its trailing tokens. Assemblies below the
	// minimum length are discarded.
	flush := func() {
		if len(parts) == 0 {
			return
		}
		assembled := joinParts(parts)
		parts = nil
		if len(assembled) < c.minChunkChars {
			prefix = ""
			return
		}
		chunks = append(chunks, assembled)

		prefix = ""
		if overlap > 0 {
			toks := c.tok.Encode(assembled)
			if len(toks) > 0 {
				start := max(0, len(toks)-overlap)
				prefix = strings.TrimSpace(c.tok.Decode(toks[start:]))
			}
		}
	}

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		// Tentatively add the block to the pending parts, adopting the
		// carried prefix when the parts list is empty.
		candidate := assemble(prefix, parts, block)
		if c.tok.Count(candidate) <= tokenLimit {
			if len(parts) == 0 && prefix != "" {
				parts = append(parts, prefix)
			}
			parts = append(parts, block)
			continue
		}

		if len(parts) > 0 {
			flush()

			// Retry the block alone against the fresh prefix.
			candidate = assemble(prefix, nil, block)
			if c.tok.Count(candidate) <= tokenLimit {
				if prefix != "" {
					parts = append(parts, prefix)
				}
				parts = append(parts, block)
				continue
			}
		}

		// The block alone exceeds the limit: hard-split it into token
		// windows. The prefix and pending parts do not survive this.
		toks := c.tok.Encode(block)
		if len(toks) == 0 {
			continue
		}
		step := max(1, tokenLimit-overlap)
		for i := 0; i < len(toks); i += step {
			end := min(i+tokenLimit, len(toks))
			piece := strings.TrimSpace(c.tok.Decode(toks[i:end]))
			if len(piece) >= c.minChunkChars {
				chunks = append(chunks, piece)
			}
		}
		prefix = ""
		parts = nil
	}

	flush()
	return chunks
}

// assemble joins {prefix when parts is empty, parts, block} with blank-line
// separators, mirroring what the pending parts would look like if the block
// were accepted.
func assemble(prefix string, parts []string, block string) string {
	base := make([]string, 0, len(parts)+2)
	if len(parts) == 0 && prefix != "" {
		base = append(base, prefix)
	}
	base = append(base, parts...)
	base = append(base, block)
	return joinParts(base)
}

// truncateToRuneBoundary cuts text to at most maxBytes without severing
// a multi-byte rune; the tokenizer must never see invalid UTF-8.
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

func joinParts(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}
