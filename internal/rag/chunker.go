package rag

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Split preference, largest semantic unit first. The empty fallback is a
// hard cut at the window edge.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// SplitText splits text into an ordered sequence of segments of at most
// chunkSize runes. Each window is cut at the largest separator available
// inside it; the trailing chunkOverlap runes of a segment are carried into
// the start of the next so adjacent segments overlap. Empty or
// whitespace-only input yields no segments.
func SplitText(text string, chunkSize, chunkOverlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var segments []string
	start := 0
	for {
		end := start + chunkSize
		if end >= len(runes) {
			segments = append(segments, string(runes[start:]))
			break
		}
		end = start + splitPoint(runes[start:end])
		segments = append(segments, string(runes[start:end]))

		next := end - chunkOverlap
		if next <= start {
			// Overlap would stall the scan; advance without it.
			next = end
		}
		start = next
	}
	return segments
}

// splitPoint returns the cut position (exclusive, in runes) for a full
// window: just after the last occurrence of the largest separator present,
// or the window length when none is found and the cut must be forced.
func splitPoint(window []rune) int {
	s := string(window)
	for _, sep := range separators {
		if i := strings.LastIndex(s, sep); i > 0 {
			return len([]rune(s[:i])) + len([]rune(sep))
		}
	}
	return len(window)
}
