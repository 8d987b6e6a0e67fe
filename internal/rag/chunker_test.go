package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cyclicText builds deterministic separator-free text of n runes.
func cyclicText(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteRune(rune('a' + i%26))
	}
	return sb.String()
}

func TestSplitText_EmptyInput(t *testing.T) {
	assert.Nil(t, SplitText("", 1000, 200))
	assert.Nil(t, SplitText("   \n\t  ", 1000, 200))
}

func TestSplitText_ShortInputSingleSegment(t *testing.T) {
	text := "short text well under the limit"
	segments := SplitText(text, 1000, 200)
	require.Len(t, segments, 1)
	assert.Equal(t, text, segments[0])
}

func TestSplitText_ForcedSplitsWithOverlap(t *testing.T) {
	text := cyclicText(2400)
	segments := SplitText(text, 1000, 200)

	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.LessOrEqual(t, len([]rune(seg)), 1000)
	}

	// Overlap law: each segment starts with the previous segment's
	// trailing 200 runes.
	for i := 1; i < len(segments); i++ {
		prev := []rune(segments[i-1])
		suffix := string(prev[len(prev)-200:])
		assert.True(t, strings.HasPrefix(segments[i], suffix), "segment %d does not start with previous overlap", i)
	}

	// Coverage: stripping each segment's leading overlap reconstructs the
	// original text exactly.
	rebuilt := segments[0]
	for i := 1; i < len(segments); i++ {
		rebuilt += string([]rune(segments[i])[200:])
	}
	assert.Equal(t, text, rebuilt)
}

func TestSplitText_PrefersParagraphBreaks(t *testing.T) {
	para1 := cyclicText(600)
	para2 := strings.ToUpper(cyclicText(600))
	text := para1 + "\n\n" + para2

	segments := SplitText(text, 1000, 200)
	require.Len(t, segments, 2)
	assert.True(t, strings.HasSuffix(segments[0], "\n\n"), "first segment should end at the paragraph break")
	assert.True(t, strings.HasSuffix(segments[1], para2))
	for _, seg := range segments {
		assert.LessOrEqual(t, len([]rune(seg)), 1000)
	}
}

func TestSplitText_PrefersSentenceBreaksOverWords(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog near the river bank today. "
	text := strings.Repeat(sentence, 40) // ~2880 runes, no paragraph breaks

	segments := SplitText(text, 1000, 200)
	require.Greater(t, len(segments), 1)
	for i, seg := range segments {
		assert.LessOrEqual(t, len([]rune(seg)), 1000)
		if i < len(segments)-1 {
			assert.True(t, strings.HasSuffix(seg, ". "), "segment %d should end at a sentence break", i)
		}
	}
}

func TestSplitText_OrderPreserved(t *testing.T) {
	text := cyclicText(5000)
	segments := SplitText(text, 500, 100)

	// Every segment must appear in the original at or after the position
	// where the previous one started.
	pos := 0
	for i, seg := range segments {
		idx := strings.Index(text[pos:], seg)
		require.GreaterOrEqual(t, idx, 0, "segment %d out of order", i)
		pos += idx + 1
	}
}

func TestSplitText_OverlapLargerThanSizeIsClamped(t *testing.T) {
	segments := SplitText(cyclicText(300), 100, 100)
	assert.NotEmpty(t, segments)
	for _, seg := range segments {
		assert.LessOrEqual(t, len([]rune(seg)), 100)
	}
}
