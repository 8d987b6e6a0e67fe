package rag

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
)

const DefaultBatchSize = 10

// PipelineConfig controls chunking and batching for ingestion.
type PipelineConfig struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	EmbeddingDim int // expected vector length; 0 disables the guard
}

// Pipeline turns raw extracted text into stored chunks: split, embed in
// fixed-size batches, bulk insert per batch.
type Pipeline struct {
	embedder BatchEmbedder
	store    ChunkStore
	cfg      PipelineConfig
}

func NewPipeline(embedder BatchEmbedder, store ChunkStore, cfg PipelineConfig) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Pipeline{embedder: embedder, store: store, cfg: cfg}
}

// Ingest splits rawText and processes the chunks in document order, one
// batch at a time. Each batch is embedded with a single batch call; when
// that call fails the batch is retried chunk by chunk so one bad chunk
// costs only itself. Blank chunks and chunks whose embedding fails are
// skipped. A batch whose bulk insert fails is lost from the index but
// later batches still run, and earlier batches are never rolled back.
// Returns the number of chunks stored.
func (p *Pipeline) Ingest(ctx context.Context, documentID uint, rawText string) (int, error) {
	chunks := SplitText(rawText, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	// Sequence numbers follow document order and are fixed here, before
	// any embedding resolves, so reference numbering stays stable even
	// though chunks inside a batch finish out of order.
	stored := 0
	for offset := 0; offset < len(chunks); offset += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		end := offset + p.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		records := p.embedBatch(ctx, documentID, chunks[offset:end], offset)
		if len(records) == 0 {
			continue
		}
		if err := p.store.InsertBatch(ctx, documentID, records); err != nil {
			log.Printf("insert chunk batch for document %d failed, continuing: %v", documentID, err)
			continue
		}
		stored += len(records)
	}
	return stored, nil
}

type pendingChunk struct {
	seq     int
	content string
}

// embedBatch embeds one batch with a single embeddings call and returns
// the successfully embedded records in sequence order. A failed or
// miscounted batch response falls back to embedding chunk by chunk.
func (p *Pipeline) embedBatch(ctx context.Context, documentID uint, texts []string, seqOffset int) []ChunkRecord {
	var batch []pendingChunk
	for i, text := range texts {
		seq := seqOffset + i
		if strings.TrimSpace(text) == "" {
			log.Printf("skip blank chunk %d for document %d", seq, documentID)
			continue
		}
		batch = append(batch, pendingChunk{seq: seq, content: text})
	}
	if len(batch) == 0 {
		return nil
	}

	contents := make([]string, len(batch))
	for i, item := range batch {
		contents[i] = item.content
	}

	vecs, err := p.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		log.Printf("batch embed for document %d failed, retrying per chunk: %v", documentID, err)
		return p.embedEach(ctx, documentID, batch)
	}
	if len(vecs) != len(batch) {
		log.Printf("batch embed for document %d returned %d vectors for %d chunks, retrying per chunk", documentID, len(vecs), len(batch))
		return p.embedEach(ctx, documentID, batch)
	}

	var records []ChunkRecord
	for i, vec := range vecs {
		if !p.dimensionOK(documentID, batch[i].seq, vec) {
			continue
		}
		records = append(records, ChunkRecord{Seq: batch[i].seq, Content: batch[i].content, Embedding: vec})
	}
	return records
}

// embedEach is the degraded path: one embedding call per chunk, run
// concurrently, skipping chunks that still fail.
func (p *Pipeline) embedEach(ctx context.Context, documentID uint, batch []pendingChunk) []ChunkRecord {
	var (
		mu      sync.Mutex
		records []ChunkRecord
		wg      sync.WaitGroup
	)
	for _, item := range batch {
		wg.Add(1)
		go func(seq int, content string) {
			defer wg.Done()
			vec, err := p.embedder.Embed(ctx, content)
			if err != nil {
				log.Printf("embed chunk %d for document %d failed, skipping: %v", seq, documentID, err)
				return
			}
			if !p.dimensionOK(documentID, seq, vec) {
				return
			}
			mu.Lock()
			records = append(records, ChunkRecord{Seq: seq, Content: content, Embedding: vec})
			mu.Unlock()
		}(item.seq, item.content)
	}
	wg.Wait()

	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records
}

func (p *Pipeline) dimensionOK(documentID uint, seq int, vec []float32) bool {
	if p.cfg.EmbeddingDim > 0 && len(vec) != p.cfg.EmbeddingDim {
		log.Printf("chunk %d for document %d: embedding dimension %d, want %d, skipping", seq, documentID, len(vec), p.cfg.EmbeddingDim)
		return false
	}
	return true
}
