package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chattydevs/core/core"
	"github.com/chattydevs/core/store"
)

// DefaultScrollPageSize is the page size used when scanning a
// project's point IDs.
const DefaultScrollPageSize = 100

// Deleter removes every point belonging to a project.
type Deleter struct {
	store    store.VectorStore
	pageSize int
	logger   *slog.Logger
}

// DeleterOption configures a Deleter.
type DeleterOption func(*Deleter)

// WithScrollPageSize sets the scan page size.
// Default is DefaultScrollPageSize; values below 1 are ignored.
func WithScrollPageSize(size int) DeleterOption {
	return func(d *Deleter) {
		if size >= 1 {
			d.pageSize = size
		}
	}
}

// WithDeleterLogger sets a custom logger.
// Default is slog.Default().
func WithDeleterLogger(logger *slog.Logger) DeleterOption {
	return func(d *Deleter) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDeleter creates a deletion pipeline over the given vector store.
func NewDeleter(vectorStore store.VectorStore, opts ...DeleterOption) (*Deleter, error) {
	if vectorStore == nil {
		return nil, ErrStoreRequired
	}

	d := &Deleter{
		store:    vectorStore,
		pageSize: DefaultScrollPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DeleteProject collects every point ID tagged with projectID and
// removes them in one bulk delete. Returns the number of points
// removed; zero when the project has no vectors, in which case no
// delete call is made.
func (d *Deleter) DeleteProject(ctx context.Context, projectID string) (int, error) {
	if err := core.ValidateProjectID(projectID); err != nil {
		return 0, err
	}

	var ids []string
	cursor := ""
	for {
		pageIDs, next, err := d.store.ScrollIDs(ctx, projectID, d.pageSize, cursor)
		if err != nil {
			return 0, fmt.Errorf("%w: scanning project %s: %v", core.ErrProvider, projectID, err)
		}
		ids = append(ids, pageIDs...)
		if len(pageIDs) == 0 || next == "" {
			break
		}
		cursor = next
	}

	if len(ids) == 0 {
		return 0, nil
	}

	if err := d.store.DeletePoints(ctx, ids); err != nil {
		return 0, fmt.Errorf("%w: deleting %d points of project %s: %v", core.ErrProvider, len(ids), projectID, err)
	}

	d.logger.Info("project vectors deleted", "project_id", projectID, "count", len(ids))
	return len(ids), nil
}
