// Package store defines the vector-store abstraction used by the
// ingestion and deletion pipelines.
//
// All durable state of the service lives behind this interface, keyed by
// random point identifiers with the tenant's project_id as the only
// query and delete dimension.
package store
