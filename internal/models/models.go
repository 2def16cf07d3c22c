package models

// Document is a logical unit of content submitted for indexing. Documents
// are immutable once chunked; an update is a delete followed by a re-add.
type Document struct {
	ID          string
	Title       string
	Content     string
	Source      string
	ContentType string
}

// Chunk is a contiguous slice of a document's content, the unit of retrieval.
type Chunk struct {
	ID       string
	DocID    string
	Text     string
	Position int
	CharLen  int
}

// RetrievedResult is a chunk annotated with a query-time similarity score.
// Similarity is in [0,1], higher is more relevant.
type RetrievedResult struct {
	Chunk      Chunk
	Similarity float64
	Title      string
	Source     string
}

// ContextBundle is the assembled evidence passed to the language model.
type ContextBundle struct {
	Text            string
	UsedChunks      []RetrievedResult
	TokenCount      int
	EfficiencyRatio float64
}

// Source summarises one piece of evidence behind an answer.
type Source struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// QueryResult is the final answer payload.
type QueryResult struct {
	Answer          string   `json:"answer"`
	Sources         []Source `json:"sources"`
	ContextUsed     int      `json:"context_used"`
	ContextTokens   int      `json:"context_tokens"`
	EfficiencyRatio float64  `json:"efficiency_ratio"`
}
