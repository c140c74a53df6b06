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


// Package ai defines the embedding abstraction used by the ingestion
// pipeline.
//
// The ingestion code depends only on the Embedder interface; concrete
// providers live in sub-packages:
//
//   - ai/gemini: the default provider, calling the Gemini embedContent
//     REST endpoint directly
//   - ai/openai: any OpenAI-compatible embeddings API (Ollama, vLLM,
//     OpenAI itself), via langchaingo
//   - ai/mock: a deterministic test double for unit tests without
//     external services
//
// Constructors on the provider packages return the ai.Embedder interface
// to keep callers decoupled from concrete implementations; the mock
// constructor returns its concrete type so tests can inject behavior and
// assert on call counts.
package ai
