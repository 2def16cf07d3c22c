package contextbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserve/internal/models"
)

func result(id, docID, text string, sim float64) models.RetrievedResult {
	return models.RetrievedResult{
		Chunk: models.Chunk{
			ID:      id,
			DocID:   docID,
			Text:    text,
			CharLen: len(text),
		},
		Similarity: sim,
		Title:      "Title " + docID,
	}
}

func TestCountTokensApproximation(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 1, CountTokens("ab"))
	assert.Equal(t, 1, CountTokens("abcd"))
	assert.Equal(t, 2, CountTokens("abcde"))
	assert.Equal(t, 300, CountTokens(strings.Repeat("x", 1200)))
}

func TestBuildEmptyInput(t *testing.T) {
	bundle := New(0).Build(nil, 1000)

	assert.Empty(t, bundle.Text)
	assert.Empty(t, bundle.UsedChunks)
	assert.Zero(t, bundle.TokenCount)
	assert.Zero(t, bundle.EfficiencyRatio)
}

func TestBuildRespectsTokenBudget(t *testing.T) {
	// Ten chunks of ~300 tokens each against a 1000-token budget: exactly
	// three fit (900 tokens).
	var results []models.RetrievedResult
	for i := 0; i < 10; i++ {
		text := strings.Repeat(string(rune('a'+i)), 1200)
		results = append(results, result(string(rune('a'+i)), "d"+string(rune('a'+i)), text, 0.9-float64(i)*0.01))
	}

	bundle := New(0).Build(results, 1000)

	require.Len(t, bundle.UsedChunks, 3)
	assert.Equal(t, 900, bundle.TokenCount)
	assert.LessOrEqual(t, bundle.TokenCount, 1000)
	assert.InDelta(t, 3.0/900.0, bundle.EfficiencyRatio, 1e-9)
}

func TestBuildDropsOversizedChunkButKeepsWalking(t *testing.T) {
	big := strings.Repeat("b", 4000)   // 1000 tokens
	small := strings.Repeat("s", 400)  // 100 tokens
	tiny := strings.Repeat("t", 40)    // 10 tokens

	bundle := New(0).Build([]models.RetrievedResult{
		result("big", "d1", big, 0.9),
		result("small", "d2", small, 0.8),
		result("tiny", "d3", tiny, 0.7),
	}, 200)

	require.Len(t, bundle.UsedChunks, 2)
	assert.Equal(t, "small", bundle.UsedChunks[0].Chunk.ID)
	assert.Equal(t, "tiny", bundle.UsedChunks[1].Chunk.ID)
	assert.Equal(t, 110, bundle.TokenCount)
	// Nothing is truncated: the bundle text is whole chunks only.
	assert.NotContains(t, bundle.Text, "b")
}

func TestBuildJoinsWithSeparator(t *testing.T) {
	bundle := New(0).Build([]models.RetrievedResult{
		result("a", "d1", "first chunk text", 0.9),
		result("b", "d2", "second chunk text", 0.8),
	}, 1000)

	assert.Equal(t, "first chunk text"+models.ContextSeparator+"second chunk text", bundle.Text)
}

func TestBuildDeduplicatesSameDocument(t *testing.T) {
	base := strings.Repeat("The same sentence again and again. ", 10)
	// Near-duplicate: same document, text contained in the first chunk.
	dup := base[:len(base)-35]

	bundle := New(0.9).Build([]models.RetrievedResult{
		result("a", "d1", base, 0.9),
		result("a-dup", "d1", dup, 0.8),
		result("b", "d2", "unrelated content about something else", 0.7),
	}, 10000)

	require.Len(t, bundle.UsedChunks, 2)
	assert.Equal(t, "a", bundle.UsedChunks[0].Chunk.ID)
	assert.Equal(t, "b", bundle.UsedChunks[1].Chunk.ID)
}

func TestBuildKeepsSimilarTextFromOtherDocuments(t *testing.T) {
	text := strings.Repeat("Shared boilerplate paragraph. ", 8)

	bundle := New(0.9).Build([]models.RetrievedResult{
		result("a", "d1", text, 0.9),
		result("b", "d2", text, 0.8),
	}, 10000)

	// Deduplication only applies within a document.
	assert.Len(t, bundle.UsedChunks, 2)
}

func TestBuildKeepsOverlappingNeighbours(t *testing.T) {
	// Two consecutive chunks share only a 50-char overlap window; that is
	// far below the 90% duplicate threshold and both must survive.
	head := strings.Repeat("first portion of the document text here. ", 10)
	tail := strings.Repeat("second portion, different content entirely. ", 10)
	overlap := head[len(head)-50:]

	bundle := New(0.9).Build([]models.RetrievedResult{
		result("c0", "d1", head, 0.9),
		result("c1", "d1", overlap+tail, 0.85),
	}, 10000)

	assert.Len(t, bundle.UsedChunks, 2)
}

func TestOverlapFraction(t *testing.T) {
	assert.InDelta(t, 1.0, overlapFraction("abcdef", "abcdef"), 1e-9)
	assert.InDelta(t, 1.0, overlapFraction("cde", "abcdefgh"), 1e-9)
	assert.InDelta(t, 0.0, overlapFraction("", "abc"), 1e-9)

	// "wxyzab" shares the suffix/prefix run "ab" with "abcdef".
	frac := overlapFraction("wxyzab", "abcdef")
	assert.InDelta(t, 2.0/6.0, frac, 1e-9)
}
