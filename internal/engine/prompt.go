package engine

import (
	"fmt"
	"strings"

	"docrag/internal/domain"
)

const answerSystemPrompt = "You answer questions using only the provided context. " +
	"If the context is empty or does not contain the answer, say that you do not have " +
	"enough information. Do not invent facts."

// BuildPrompt assembles the synthesis prompt deterministically: retrieved
// chunks in ranked order, each tagged with its provenance, then the
// question.
func BuildPrompt(results []domain.SearchResult, question string) string {
	var b strings.Builder
	if len(results) == 0 {
		b.WriteString("No context was retrieved.\n\n")
	} else {
		b.WriteString("Context:\n\n")
		for _, r := range results {
			fmt.Fprintf(&b, "[source %s]\n%s\n\n", r.Chunk.ChunkID, r.Chunk.Text)
		}
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
