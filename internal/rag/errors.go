package rag

import "errors"

var (
	// ErrExtraction is terminal for one ingestion attempt; the document is
	// marked failed and the user may retry the upload.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding covers network/quota failures and malformed embedding
	// responses. Per-chunk it is recoverable; the chunk is skipped.
	ErrEmbedding = errors.New("embedding failed")

	// ErrPersistence covers chunk store write failures. A failed batch is
	// lost from the index but ingestion continues with later batches.
	ErrPersistence = errors.New("persistence failed")

	// ErrGeneration is surfaced to the user as an explicit failure, never
	// silently replaced with fabricated content.
	ErrGeneration = errors.New("generation failed")

	// ErrNoChunks means retrieval ran against a document with nothing
	// stored (not ingested yet, or ingestion lost every chunk).
	ErrNoChunks = errors.New("no chunks stored for document")
)
