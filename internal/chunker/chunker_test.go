package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 500, 50))
	assert.Nil(t, Chunk("   \n\t  ", 500, 50))
}

func TestChunkShortInput(t *testing.T) {
	text := "AI is the simulation of human intelligence processes by machines, especially computer systems."
	chunks := Chunk("  "+text+"\n", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkParameterNormalisation(t *testing.T) {
	text := strings.Repeat("word ", 300)

	// Invalid parameters fall back to defaults instead of panicking.
	assert.NotEmpty(t, Chunk(text, 0, 0))
	assert.NotEmpty(t, Chunk(text, 100, -5))
	assert.NotEmpty(t, Chunk(text, 100, 200))
}

func TestSpansTileInput(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60))
	size, overlap := 500, 50

	spans := Spans(text, size, overlap)
	require.NotEmpty(t, spans)

	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, len(text), spans[len(spans)-1].End)
	for i, sp := range spans {
		assert.LessOrEqual(t, sp.End-sp.Start, size, "span %d exceeds size", i)
		if i > 0 {
			prev := spans[i-1]
			assert.Equal(t, prev.End-overlap, sp.Start, "span %d does not overlap its predecessor", i)
		}
	}
}

func TestChunkSizeBoundAndOverlap(t *testing.T) {
	// ~2000 characters of repeated sentences.
	text := strings.TrimSpace(strings.Repeat("Docker is a platform for developing, shipping and running applications in containers. ", 23))
	require.GreaterOrEqual(t, len(text), 1900)

	chunks := Chunk(text, 500, 50)
	require.GreaterOrEqual(t, len(chunks), 4)
	require.LessOrEqual(t, len(chunks), 6)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 550, "chunk %d too large", i)
		if i > 0 {
			// The head of each chunk repeats the tail of the previous one.
			head := c[:40]
			assert.Contains(t, chunks[i-1], head, "chunk %d shares no overlap with chunk %d", i, i-1)
		}
	}
}

func TestChunkPrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("First paragraph sentence. ", 17) // ~440 chars
	para2 := strings.Repeat("Second paragraph sentence. ", 20)
	text := strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2)

	chunks := Chunk(text, 500, 0)
	require.GreaterOrEqual(t, len(chunks), 2)
	// The paragraph break lies in the lookback window, so the first chunk
	// ends at it rather than mid-sentence in the second paragraph.
	assert.Equal(t, strings.TrimSpace(para1), chunks[0])
}

func TestChunkPrefersSentenceBoundary(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("A reasonably long sentence that ends with a period. ", 40))

	chunks := Chunk(text, 500, 0)
	require.GreaterOrEqual(t, len(chunks), 2)
	for i, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, "."), "chunk %d does not end at a sentence boundary: %q", i, c[len(c)-20:])
	}
}

func TestChunkHardCutFallback(t *testing.T) {
	// No boundaries at all: one unbroken run of letters.
	text := strings.Repeat("x", 1200)

	chunks := Chunk(text, 500, 50)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 500, "chunk %d exceeds hard cut", i)
	}
	assert.Equal(t, 500, len(chunks[0]))
}

func TestSpansCoverage(t *testing.T) {
	// Reconstructing the input from span cores (span text minus the part
	// already covered by the previous span) must yield the original text.
	text := strings.TrimSpace(strings.Repeat("Coverage must hold for any input text, with no gaps. ", 40))
	spans := Spans(text, 300, 40)
	require.NotEmpty(t, spans)

	var rebuilt strings.Builder
	covered := 0
	for _, sp := range spans {
		start := sp.Start
		if start < covered {
			start = covered
		}
		rebuilt.WriteString(text[start:sp.End])
		covered = sp.End
	}
	assert.Equal(t, text, rebuilt.String())
}
