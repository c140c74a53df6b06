package httpapi

import "errors"

var (
	// ErrCrawlerRequired is returned when a crawler is not provided.
	ErrCrawlerRequired = errors.New("crawler required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrUpserterRequired is returned when an upserter is not provided.
	ErrUpserterRequired = errors.New("upserter required")

	// ErrDeleterRequired is returned when a deleter is not provided.
	ErrDeleterRequired = errors.New("deleter required")

	// ErrTokenRequired is returned when the internal service token is empty.
	ErrTokenRequired = errors.New("internal service token required")
)
