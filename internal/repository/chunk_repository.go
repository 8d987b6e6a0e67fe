package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
	"docqa/internal/rag"
)

// ChunkRepository is the gorm-backed chunk store. Embeddings live in a
// JSON text column and both lookups load a document's chunks and rank them
// in-process, which keeps the queries dialect-free and the ranking math
// testable without a database.
type ChunkRepository struct {
	db *gorm.DB
}

var _ rag.ChunkStore = (*ChunkRepository)(nil)

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) InsertBatch(ctx context.Context, documentID uint, records []rag.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	chunks := make([]model.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = model.Chunk{
			DocumentID: documentID,
			Seq:        rec.Seq,
			Content:    rec.Content,
		}
		chunks[i].SetEmbedding(rec.Embedding)
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("%w: create chunk batch: %v", rag.ErrPersistence, err)
	}
	return nil
}

// NearestNeighbors returns up to limit chunks of the document ordered by
// ascending cosine distance to the query vector, rank 1 closest.
func (r *ChunkRepository) NearestNeighbors(ctx context.Context, documentID uint, query []float32, limit int) ([]rag.SearchHit, error) {
	chunks, err := r.listByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return toHits(rankByDistance(chunks, query), limit), nil
}

// KeywordSearch returns up to limit chunks of the document ordered by
// descending lexical relevance over normalized tokens. Chunks matching no
// query token are excluded.
func (r *ChunkRepository) KeywordSearch(ctx context.Context, documentID uint, query string, limit int) ([]rag.SearchHit, error) {
	chunks, err := r.listByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return toHits(rankByKeywords(chunks, query), limit), nil
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) CountByDocumentID(ctx context.Context, documentID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Chunk{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks by document failed: %w", err)
	}
	return n, nil
}

func (r *ChunkRepository) listByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("seq ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by document failed: %w", err)
	}
	return chunks, nil
}

func toHits(ranked []rankedChunk, limit int) []rag.SearchHit {
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	hits := make([]rag.SearchHit, len(ranked))
	for i, rc := range ranked {
		hits[i] = rag.SearchHit{
			ChunkID: rc.chunk.ID,
			Content: rc.chunk.Content,
			Rank:    i + 1,
		}
	}
	return hits
}
