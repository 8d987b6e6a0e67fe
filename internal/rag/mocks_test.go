package rag

import (
	"context"
	"sync"
)

// mockEmbedder implements BatchEmbedder for testing.
type mockEmbedder struct {
	mu         sync.Mutex
	calls      int
	batchCalls int
	embedFn    func(text string) ([]float32, error)
	batchFn    func(texts []string) ([][]float32, error)
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.embedOne(text)
}

// EmbedBatch defaults to embedding every text and rejecting the whole
// call when any single embedding fails, like a provider refusing a batch.
func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.batchFn != nil {
		return m.batchFn(texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.embedOne(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) embedOne(text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	calls    int
	response string
	err      error
}

func (m *mockGenerator) Generate(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockStore implements ChunkStore for testing.
type mockStore struct {
	mu          sync.Mutex
	insertCalls int
	inserted    [][]ChunkRecord
	insertFn    func(batch int) error // called with the 1-based batch number

	vectorHits  []SearchHit
	vectorErr   error
	keywordHits []SearchHit
	keywordErr  error
}

func (m *mockStore) InsertBatch(_ context.Context, _ uint, records []ChunkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertFn != nil {
		if err := m.insertFn(m.insertCalls); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, records)
	return nil
}

func (m *mockStore) NearestNeighbors(_ context.Context, _ uint, _ []float32, limit int) ([]SearchHit, error) {
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	if limit < len(m.vectorHits) {
		return m.vectorHits[:limit], nil
	}
	return m.vectorHits, nil
}

func (m *mockStore) KeywordSearch(_ context.Context, _ uint, _ string, limit int) ([]SearchHit, error) {
	if m.keywordErr != nil {
		return nil, m.keywordErr
	}
	if limit < len(m.keywordHits) {
		return m.keywordHits[:limit], nil
	}
	return m.keywordHits, nil
}

func (m *mockStore) DeleteByDocumentID(_ context.Context, _ uint) error {
	return nil
}

func (m *mockStore) storedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, batch := range m.inserted {
		n += len(batch)
	}
	return n
}
