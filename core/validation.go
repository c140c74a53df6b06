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

import "fmt"

// MinProjectIDLength is the minimum accepted length for a tenant identifier.
const MinProjectIDLength = 3

// ValidateProjectID validates a tenant identifier according to domain rules.
//
// Validation rules:
//   - must not be empty
//   - must be at least MinProjectIDLength characters
func ValidateProjectID(projectID string) error {
	if projectID == "" {
		return fmt.Errorf("%w: project_id is required", ErrValidation)
	}
	if len(projectID) < MinProjectIDLength {
		return fmt.Errorf("%w: project_id must be at least %d characters", ErrValidation, MinProjectIDLength)
	}
	return nil
}

// ValidatePoint validates a Point before it is written to the store.
//
// Validation rules:
//   - ID must not be empty
//   - Vector must not be empty
//   - Payload.ProjectID must not be empty
func ValidatePoint(point *Point) error {
	if point == nil {
		return fmt.Errorf("%w: point is nil", ErrValidation)
	}
	if point.ID == "" {
		return fmt.Errorf("%w: point id is required", ErrValidation)
	}
	if len(point.Vector) == 0 {
		return fmt.Errorf("%w: point vector is empty", ErrValidation)
	}
	if point.Payload.ProjectID == "" {
		return fmt.Errorf("%w: point payload missing project_id", ErrValidation)
	}
	return nil
}
