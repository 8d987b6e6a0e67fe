// Package rag holds the retrieval-augmented answering core: chunking,
// ingestion, query contextualization and hybrid retrieval. It depends only
// on the ports below; adapters live in internal/ai and internal/repository.
package rag

import "context"

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder additionally maps several texts to vectors in one request.
// The result is positional: vector i belongs to text i, and a response
// with a different count than the input is a failed call.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free text from a prompt. Used by the contextualizer
// with a fast model; answer generation goes through the same interface.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChunkRecord is a chunk prepared for insertion. Seq is the chunk's
// position in document order, assigned before embedding begins.
type ChunkRecord struct {
	Seq       int
	Content   string
	Embedding []float32
}

// SearchHit is one ranked result from a chunk store lookup. Rank is
// 1-based: rank 1 is the closest (vector) or most relevant (keyword) chunk.
type SearchHit struct {
	ChunkID uint
	Content string
	Rank    int
}

// ChunkStore persists chunks and serves lookups scoped to one document.
type ChunkStore interface {
	InsertBatch(ctx context.Context, documentID uint, records []ChunkRecord) error

	// NearestNeighbors orders by ascending cosine distance to query.
	NearestNeighbors(ctx context.Context, documentID uint, query []float32, limit int) ([]SearchHit, error)

	// KeywordSearch orders by descending lexical relevance over normalized
	// tokens; chunks matching no query token are not returned.
	KeywordSearch(ctx context.Context, documentID uint, query string, limit int) ([]SearchHit, error)

	DeleteByDocumentID(ctx context.Context, documentID uint) error
}
