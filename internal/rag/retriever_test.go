package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieve_FusesBothLists(t *testing.T) {
	store := &mockStore{
		vectorHits: []SearchHit{
			{ChunkID: 1, Content: "alpha", Rank: 1},
			{ChunkID: 2, Content: "beta", Rank: 2},
		},
		keywordHits: []SearchHit{
			{ChunkID: 2, Content: "beta", Rank: 1},
			{ChunkID: 3, Content: "gamma", Rank: 2},
		},
	}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	got, err := r.Retrieve(context.Background(), 7, "question")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Chunk 2 appears in both lists and must outrank single-list chunks.
	assert.Equal(t, uint(2), got[0].ChunkID)
	assert.InDelta(t, 1.0/62+1.0/61, got[0].Score, 1e-9)
}

func TestRetrieve_RRFNumericExample(t *testing.T) {
	store := &mockStore{
		vectorHits:  []SearchHit{{ChunkID: 1, Content: "both", Rank: 1}},
		keywordHits: []SearchHit{{ChunkID: 1, Content: "both", Rank: 1}},
	}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	got, err := r.Retrieve(context.Background(), 1, "q")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 2.0/61, got[0].Score, 1e-9)

	// Same rank in one list only scores exactly half.
	store.keywordHits = nil
	got, err = r.Retrieve(context.Background(), 1, "q")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0/61, got[0].Score, 1e-9)
}

func TestRetrieve_MonotonicityAcrossLists(t *testing.T) {
	store := &mockStore{
		vectorHits: []SearchHit{
			{ChunkID: 1, Content: "in both", Rank: 1},
		},
		keywordHits: []SearchHit{
			{ChunkID: 1, Content: "in both", Rank: 1},
			{ChunkID: 2, Content: "keyword only", Rank: 1},
		},
	}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	got, err := r.Retrieve(context.Background(), 1, "q")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].ChunkID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRetrieve_TopKCap(t *testing.T) {
	store := &mockStore{}
	for i := 1; i <= 20; i++ {
		store.vectorHits = append(store.vectorHits, SearchHit{
			ChunkID: uint(i), Content: fmt.Sprintf("chunk %d", i), Rank: i,
		})
	}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	got, err := r.Retrieve(context.Background(), 1, "q")
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestRetrieve_KeywordFailureDegradesToVectorOnly(t *testing.T) {
	store := &mockStore{keywordErr: errors.New("text index unavailable")}
	for i := 1; i <= 20; i++ {
		store.vectorHits = append(store.vectorHits, SearchHit{
			ChunkID: uint(i), Content: fmt.Sprintf("chunk %d", i), Rank: i,
		})
	}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	got, err := r.Retrieve(context.Background(), 1, "q")
	require.NoError(t, err, "keyword failure must not surface")
	require.Len(t, got, 5)
	assert.Equal(t, uint(1), got[0].ChunkID)
	assert.InDelta(t, 1.0/61, got[0].Score, 1e-9)
}

func TestRetrieve_VectorFailureSurfaces(t *testing.T) {
	store := &mockStore{vectorErr: errors.New("store down")}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	_, err := r.Retrieve(context.Background(), 1, "q")
	assert.Error(t, err)
}

func TestRetrieve_EmbedFailureSurfaces(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}}
	r := NewRetriever(embedder, &mockStore{}, RetrieverConfig{})

	_, err := r.Retrieve(context.Background(), 1, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestRetrieve_TieBreakIsEncounterOrder(t *testing.T) {
	// Symmetric ranks produce equal fused scores; the stable sort must
	// keep vector-list encounter order.
	store := &mockStore{
		vectorHits: []SearchHit{
			{ChunkID: 1, Content: "a", Rank: 1},
			{ChunkID: 2, Content: "b", Rank: 2},
		},
		keywordHits: []SearchHit{
			{ChunkID: 2, Content: "b", Rank: 1},
			{ChunkID: 1, Content: "a", Rank: 2},
		},
	}
	r := NewRetriever(&mockEmbedder{}, store, RetrieverConfig{})

	for i := 0; i < 5; i++ {
		got, err := r.Retrieve(context.Background(), 1, "q")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.InDelta(t, got[0].Score, got[1].Score, 1e-9)
		assert.Equal(t, uint(1), got[0].ChunkID)
		assert.Equal(t, uint(2), got[1].ChunkID)
	}
}
