// Package chunker splits document text into overlapping, boundary-aware
// chunks within a size budget.
package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 500 // characters
	DefaultChunkOverlap = 50  // characters
)

// lookbackFraction bounds how far back from the size limit the splitter
// searches for an acceptable boundary (the latter 20% of the window).
const lookbackFraction = 5

// Chunk splits text into ordered chunk strings. Chunks never exceed size
// characters; each chunk after the first starts overlap characters before
// the end of the previous chunk's source span. Empty or whitespace-only
// input yields nil. Invalid parameters are normalised to defaults rather
// than rejected.
func Chunk(text string, size, overlap int) []string {
	spans := Spans(text, size, overlap)
	if spans == nil {
		return nil
	}
	text = strings.TrimSpace(text)
	chunks := make([]string, 0, len(spans))
	for _, sp := range spans {
		piece := strings.TrimSpace(text[sp.Start:sp.End])
		if piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

// Span is a half-open [Start,End) slice of the trimmed input text.
type Span struct {
	Start int
	End   int
}

// Spans computes the chunk boundaries over the trimmed input. Consecutive
// spans overlap by exactly the overlap parameter, spans tile the whole
// input with no gaps, and each span is at most size characters long.
func Spans(text string, size, overlap int) []Span {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []Span{{Start: 0, End: len(text)}}
	}

	var spans []Span
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			spans = append(spans, Span{Start: start, End: len(text)})
			break
		}
		end = splitPoint(text, start, end)
		spans = append(spans, Span{Start: start, End: end})

		next := end - overlap
		if next <= start {
			// Pathological overlap/boundary combination: force progress.
			next = start + 1
		}
		start = next
	}
	return spans
}

// splitPoint finds the best boundary at or before end, preferring paragraph
// breaks, then sentence-ending punctuation, then whitespace, within the
// lookback window. Falls back to a hard cut at end.
func splitPoint(text string, start, end int) int {
	window := (end - start) / lookbackFraction
	lo := end - window
	if lo <= start {
		return end
	}

	if i := strings.LastIndex(text[lo:end], "\n\n"); i >= 0 {
		return lo + i + 2
	}

	for i := end - 1; i >= lo; i-- {
		if isSentenceEnd(text, i) {
			return i + 1
		}
	}

	for i := end - 1; i >= lo; i-- {
		if unicode.IsSpace(rune(text[i])) {
			return i + 1
		}
	}

	return end
}

func isSentenceEnd(text string, i int) bool {
	switch text[i] {
	case '.', '!', '?':
	default:
		return false
	}
	// Only counts as a sentence end when followed by whitespace, so
	// decimals and file extensions are not split points.
	return i+1 >= len(text) || unicode.IsSpace(rune(text[i+1]))
}
