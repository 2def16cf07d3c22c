package models

const (
	// ContextSeparator joins chunk texts inside the prompt so the model can
	// discern chunk boundaries.
	ContextSeparator = "\n\n"

	// NoDocumentsAnswer is returned when nothing has been indexed yet. The
	// language model is not called in that case.
	NoDocumentsAnswer = "No documents have been added yet. Add documents before asking questions."

	// DegradedAnswer is returned when the language model is unreachable.
	// Retrieval succeeded, so this is a soft failure, not an error.
	DegradedAnswer = "The language model is currently unavailable. Please try again later."
)

var (
	SystemPromptTemplate = `You are a helpful assistant. Use the provided context to answer the question. If the context does not contain the answer, say so instead of guessing.`

	RAGPromptTemplate = `Context:
%s

Question: %s`

	NoContextPromptTemplate = `No relevant context was found in the indexed documents for this question. Answer from general knowledge if you can, and say explicitly that the indexed documents do not cover it.

Question: %s`
)
