package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chattydevs/core/ai"
	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/store"
)

// DefaultBatchSize is the number of points flushed per bulk write.
const DefaultBatchSize = 50

// Upserter embeds text chunks and writes them to the vector store in
// batches.
type Upserter struct {
	embedder  ai.Embedder
	store     store.VectorStore
	batchSize int
	logger    *slog.Logger
}

// UpserterOption configures an Upserter.
type UpserterOption func(*Upserter)

// WithBatchSize sets the bulk write batch size.
// Default is DefaultBatchSize; values below 1 are ignored.
func WithBatchSize(size int) UpserterOption {
	return func(u *Upserter) {
		if size >= 1 {
			u.batchSize = size
		}
	}
}

// WithUpserterLogger sets a custom logger.
// Default is slog.Default().
func WithUpserterLogger(logger *slog.Logger) UpserterOption {
	return func(u *Upserter) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUpserter creates an upsert pipeline over the given embedder and
// vector store.
func NewUpserter(embedder ai.Embedder, vectorStore store.VectorStore, opts ...UpserterOption) (*Upserter, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vectorStore == nil {
		return nil, ErrStoreRequired
	}

	u := &Upserter{
		embedder:  embedder,
		store:     vectorStore,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Upsert embeds every chunk and writes the resulting points, tagged
// with projectID and source, to the vector store. All three arguments
// are required; an empty one is a validation error. Chunks are embedded
// one at a time and flushed per full batch plus a final partial batch.
//
// An embedding failure or a bulk-write failure aborts the whole upsert;
// the returned count covers completed flushes only, so on error it
// understates the chunks already embedded.
func (u *Upserter) Upsert(ctx context.Context, projectID, source string, chunks []string) (int, error) {
	if err := core.ValidateProjectID(projectID); err != nil {
		return 0, err
	}
	if source == "" {
		return 0, fmt.Errorf("%w: source must not be empty", core.ErrValidation)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: chunks must not be empty", core.ErrValidation)
	}

	flushed := 0
	batch := make([]core.Point, 0, u.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("%w: bulk write of %d points: %v", core.ErrProvider, len(batch), err)
		}
		flushed += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, chunk := range chunks {
		vector, err := u.embedder.EmbedText(ctx, chunk)
		if err != nil {
			return flushed, fmt.Errorf("%w: embedding chunk %d of %d: %v", core.ErrProvider, i+1, len(chunks), err)
		}

		batch = append(batch, core.Point{
			ID:     core.NewPointID(),
			Vector: vector,
			Payload: core.Payload{
				ProjectID: projectID,
				Source:    source,
				Content:   chunk,
			},
		})

		if len(batch) == u.batchSize {
			if err := flush(); err != nil {
				return flushed, err
			}
		}
	}

	if err := flush(); err != nil {
		return flushed, err
	}

	u.logger.Debug("upsert complete",
		"project_id", projectID, "source", source, "points", flushed)
	return flushed, nil
}
