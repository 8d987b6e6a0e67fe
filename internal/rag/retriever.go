package rag

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

const (
	DefaultSearchLimit  = 20
	DefaultTopK         = 10
	DefaultFallbackTopK = 5
	DefaultRRFK         = 60
)

// RetrieverConfig holds the tunable retrieval constants.
type RetrieverConfig struct {
	SearchLimit  int // per-list limit for vector and keyword search
	TopK         int // fused results returned
	FallbackTopK int // results returned when degraded to vector-only
	RRFK         int // reciprocal rank fusion constant
}

// ScoredChunk is one retrieval result.
type ScoredChunk struct {
	ChunkID uint
	Content string
	Score   float64
}

// Retriever runs hybrid (vector + keyword) retrieval against one document
// and fuses the two rankings with Reciprocal Rank Fusion.
type Retriever struct {
	embedder Embedder
	store    ChunkStore
	cfg      RetrieverConfig
}

func NewRetriever(embedder Embedder, store ChunkStore, cfg RetrieverConfig) *Retriever {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.FallbackTopK <= 0 {
		cfg.FallbackTopK = DefaultFallbackTopK
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	return &Retriever{embedder: embedder, store: store, cfg: cfg}
}

// Retrieve embeds the question, runs vector and keyword search in parallel
// and fuses them. A keyword path failure degrades to vector-only results
// with a smaller cap instead of failing the request.
func (r *Retriever) Retrieve(ctx context.Context, documentID uint, question string) ([]ScoredChunk, error) {
	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrEmbedding, err)
	}

	var (
		vectorHits, keywordHits []SearchHit
		vectorErr, keywordErr   error
		wg                      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = r.store.NearestNeighbors(ctx, documentID, queryVec, r.cfg.SearchLimit)
	}()
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = r.store.KeywordSearch(ctx, documentID, question, r.cfg.SearchLimit)
	}()
	wg.Wait()

	if vectorErr != nil {
		return nil, fmt.Errorf("vector search: %w", vectorErr)
	}
	if keywordErr != nil {
		log.Printf("keyword search for document %d failed, degrading to vector-only: %v", documentID, keywordErr)
		return r.vectorOnly(vectorHits), nil
	}

	fused := fuse(vectorHits, keywordHits, r.cfg.RRFK)
	if len(fused) > r.cfg.TopK {
		fused = fused[:r.cfg.TopK]
	}
	return fused, nil
}

// vectorOnly converts raw vector hits into scored results, capped at the
// degraded limit. Scores use the single-list RRF contribution so degraded
// and fused scores stay on the same scale.
func (r *Retriever) vectorOnly(hits []SearchHit) []ScoredChunk {
	if len(hits) > r.cfg.FallbackTopK {
		hits = hits[:r.cfg.FallbackTopK]
	}
	out := make([]ScoredChunk, len(hits))
	for i, hit := range hits {
		out[i] = ScoredChunk{
			ChunkID: hit.ChunkID,
			Content: hit.Content,
			Score:   1.0 / float64(r.cfg.RRFK+hit.Rank),
		}
	}
	return out
}

// fuse merges two ranked lists with Reciprocal Rank Fusion: each list
// contributes 1/(k+rank) per item, absent items contribute nothing. Ties
// keep the order items were first encountered (vector list, then keyword
// list), which makes results reproducible.
func fuse(vectorHits, keywordHits []SearchHit, k int) []ScoredChunk {
	scores := make(map[uint]float64)
	contents := make(map[uint]string)
	var order []uint

	for _, list := range [][]SearchHit{vectorHits, keywordHits} {
		for _, hit := range list {
			if _, seen := scores[hit.ChunkID]; !seen {
				order = append(order, hit.ChunkID)
				contents[hit.ChunkID] = hit.Content
			}
			scores[hit.ChunkID] += 1.0 / float64(k+hit.Rank)
		}
	}

	out := make([]ScoredChunk, 0, len(order))
	for _, id := range order {
		out = append(out, ScoredChunk{ChunkID: id, Content: contents[id], Score: scores[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
