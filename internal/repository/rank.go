package repository

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"docqa/internal/model"
)

type rankedChunk struct {
	chunk model.Chunk
	score float64 // distance for vector ranking, relevance for keyword ranking
}

// rankByDistance orders chunks by ascending cosine distance to query.
// Ties keep sequence order.
func rankByDistance(chunks []model.Chunk, query []float32) []rankedChunk {
	ranked := make([]rankedChunk, len(chunks))
	for i := range chunks {
		ranked[i] = rankedChunk{
			chunk: chunks[i],
			score: cosineDistance(query, chunks[i].EmbeddingVector()),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})
	return ranked
}

// rankByKeywords orders chunks by descending token-match relevance and
// drops chunks that match no query token. Ties keep sequence order.
func rankByKeywords(chunks []model.Chunk, query string) []rankedChunk {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	var ranked []rankedChunk
	for i := range chunks {
		score := keywordScore(chunks[i].Content, queryTokens)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, rankedChunk{chunk: chunks[i], score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// cosineDistance is 1 - cosine similarity. Mismatched or zero-norm vectors
// rank last (distance 1, similarity 0), matching how an invalid embedding
// should never look close to anything.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// keywordScore is the summed term frequency of the query tokens in the
// chunk, normalized by chunk length so short precise chunks are not
// drowned out by long ones. Zero when no query token occurs.
func keywordScore(content string, queryTokens []string) float64 {
	contentTokens := tokenize(content)
	if len(contentTokens) == 0 {
		return 0
	}
	counts := make(map[string]int, len(contentTokens))
	for _, tok := range contentTokens {
		counts[tok]++
	}
	matched := 0
	for _, q := range queryTokens {
		matched += counts[q]
	}
	return float64(matched) / float64(len(contentTokens))
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, mirroring a "simple" full-text configuration.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
