// Copyright 2025 ChattyDevs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package store

import (
	"context"

	"github.com/chattydevs/core/core"
)

// VectorStore is the persistence surface for embedding points. The
// production implementation is store/qdrant; store/badger provides a
// local backend for development and tests.
//
// Deletion is a two-step protocol because the delete primitive operates
// on explicit identifiers, not filters: callers scroll all IDs matching
// a tenant and then issue one bulk delete.
type VectorStore interface {
	// Upsert writes a batch of points in a single bulk call. A failure
	// applies to the whole batch; no partial result is reported.
	Upsert(ctx context.Context, points []core.Point) error

	// ScrollIDs returns up to limit point IDs whose payload project_id
	// equals projectID, starting after the opaque cursor ("" for the
	// first page). An empty next cursor signals scan completion.
	ScrollIDs(ctx context.Context, projectID string, limit int, cursor string) (ids []string, next string, err error)

	// DeletePoints removes the identified points in one bulk call.
	DeletePoints(ctx context.Context, ids []string) error
}
