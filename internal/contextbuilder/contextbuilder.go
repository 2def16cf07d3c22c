// Package contextbuilder packs retrieval results into a token budget.
package contextbuilder

import (
	"strings"

	"github.com/rs/zerolog/log"

	"ragserve/internal/models"
)

// DefaultDedupOverlap is the shared-text fraction above which two chunks of
// the same document count as duplicates.
const DefaultDedupOverlap = 0.9

// CountTokens approximates the token count of text as one token per four
// characters. It is a heuristic, not a tokenizer; the only guarantee is
// consistency, so budgets and reported counts always agree.
func CountTokens(text string) int {
	return (len(text) + 3) / 4
}

// Builder assembles context bundles. The zero value uses the default
// duplicate-detection threshold.
type Builder struct {
	dedupOverlap float64
}

func New(dedupOverlap float64) *Builder {
	if dedupOverlap <= 0 || dedupOverlap > 1 {
		dedupOverlap = DefaultDedupOverlap
	}
	return &Builder{dedupOverlap: dedupOverlap}
}

// Build greedily walks results in the given (similarity-descending) order,
// including each whole chunk while it fits the budget. A chunk that would
// exceed the remaining budget is dropped, never truncated; later, smaller
// chunks may still be included. Near-duplicate chunks from the same
// document are dropped, keeping the higher-similarity one. An empty input
// yields a zero-value bundle.
func (b *Builder) Build(results []models.RetrievedResult, maxTokens int) models.ContextBundle {
	var used []models.RetrievedResult
	tokens := 0

	for _, res := range results {
		if b.isDuplicate(res, used) {
			continue
		}
		cost := CountTokens(res.Chunk.Text)
		if tokens+cost > maxTokens {
			continue
		}
		used = append(used, res)
		tokens += cost
	}

	var bundle models.ContextBundle
	if len(used) == 0 {
		bundle.UsedChunks = []models.RetrievedResult{}
		return bundle
	}

	texts := make([]string, len(used))
	for i, res := range used {
		texts[i] = res.Chunk.Text
	}
	bundle.Text = strings.Join(texts, models.ContextSeparator)
	bundle.UsedChunks = used
	bundle.TokenCount = tokens
	bundle.EfficiencyRatio = float64(len(used)) / float64(max(tokens, 1))

	log.Debug().
		Int("candidates", len(results)).
		Int("used", len(used)).
		Int("tokens", tokens).
		Float64("efficiency", bundle.EfficiencyRatio).
		Msg("context built")
	return bundle
}

// isDuplicate reports whether res substantially repeats an already included
// chunk of the same document.
func (b *Builder) isDuplicate(res models.RetrievedResult, used []models.RetrievedResult) bool {
	for _, u := range used {
		if u.Chunk.DocID != res.Chunk.DocID {
			continue
		}
		if overlapFraction(u.Chunk.Text, res.Chunk.Text) >= b.dedupOverlap {
			return true
		}
	}
	return false
}

// overlapFraction measures how much of the shorter text is shared with the
// longer one: full containment counts as 1, otherwise the longest
// suffix/prefix run between the two (the shape chunk overlap produces),
// relative to the shorter text's length.
func overlapFraction(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if strings.Contains(longer, shorter) {
		return 1
	}

	shared := sharedEdge(a, b)
	if s := sharedEdge(b, a); s > shared {
		shared = s
	}
	return float64(shared) / float64(len(shorter))
}

// sharedEdge returns the length of the longest suffix of a that is a prefix
// of b.
func sharedEdge(a, b string) int {
	maxLen := len(a)
	if len(b) < maxLen {
		maxLen = len(b)
	}
	for n := maxLen; n > 0; n-- {
		if a[len(a)-n:] == b[:n] {
			return n
		}
	}
	return 0
}
