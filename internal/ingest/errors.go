package ingest

import "errors"

// Failure kinds recorded on the document when an ingestion run stops.
// Loader failures carry their own sentinels (loader.ErrUnsupportedFormat,
// loader.ErrLoad) and pass through unchanged.
var (
	// ErrEmbeddingService wraps failures from the external embedding
	// provider. Not retried here.
	ErrEmbeddingService = errors.New("embedding service failed")

	// ErrStoreWrite wraps failures from the vector store. A failed upsert
	// committed nothing.
	ErrStoreWrite = errors.New("vector store write failed")

	// ErrUnexpected is the umbrella for anything uncategorized, including
	// recovered panics.
	ErrUnexpected = errors.New("unexpected ingestion failure")
)
