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


package core

import "github.com/google/uuid"

// Page is a single crawled web page: its canonical URL and the readable
// text extracted from it. Pages are transient, consumed within one
// ingestion request.
type Page struct {
	URL  string
	Text string
}

// Payload is the metadata stored alongside every vector. ProjectID is the
// tenant key and the only dimension used for scoped deletion. Source holds
// the page URL for crawled content or the original filename for uploads;
// the JSON key stays "url" for compatibility with existing collections.
type Payload struct {
	ProjectID string `json:"project_id"`
	Source    string `json:"url"`
	Content   string `json:"content"`
}

// Point is one vector-store record: identifier, embedding and payload.
// Points persist in the external store until an explicit project-wide
// deletion; there is no per-point update or expiry path.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// NewPointID generates a fresh random point identifier. IDs are never
// derived from content, so re-ingesting the same document produces new,
// duplicate points rather than overwriting existing ones.
func NewPointID() string {
	return uuid.NewString()
}
