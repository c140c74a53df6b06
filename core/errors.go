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

import "errors"

// Error kinds shared across the service. Callers classify failures with
// errors.Is and decide between "recoverable, continue" and "abort, surface".
var (
	// ErrValidation indicates a missing or invalid required field.
	// Surfaced as a client error at the HTTP boundary.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a scoped operation matched nothing, e.g. a
	// deletion for a project with no stored vectors. A distinct outcome,
	// not a transport failure.
	ErrNotFound = errors.New("not found")

	// ErrProvider indicates an embedding or vector-store call failed after
	// all retry attempts. Aborts the current request.
	ErrProvider = errors.New("provider failure")

	// ErrConfig indicates a required setting or secret was absent at
	// startup. Fatal, prevents process start.
	ErrConfig = errors.New("invalid configuration")
)
