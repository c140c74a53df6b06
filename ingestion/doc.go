// Package ingestion provides the write and delete pipelines for a
// project's vector index.
//
// The Upserter type turns text chunks into embedded points and flushes
// them to the vector store in fixed-size batches. The Deleter type
// scans a project's point IDs page by page and removes them in one
// bulk call.
//
// Embedding calls carry their own retry policy; bulk writes do not.
// A failed bulk write aborts the upsert immediately, so points embedded
// since the last flush are lost and the caller learns the count of
// completed flushes only.
package ingestion
