// Package httpapi exposes the ingestion and deletion pipelines over
// HTTP.
//
// Endpoints:
//   - POST /projects/ingest — crawl a site and index its pages
//   - POST /projects/delete — remove every vector of a project
//   - POST /upload — index an uploaded txt, csv, or pdf file
//   - GET  /health — liveness probe
//
// Mutating endpoints require the internal service token in the
// X-Internal-Token header. Heavy request bodies run on a bounded worker
// pool so concurrent ingests cannot exhaust the process; the request
// itself stays synchronous.
package httpapi
