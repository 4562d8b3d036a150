// Package prompt renders the deterministic prompt templates sent to the LLM.
package prompt

import (
	"fmt"
	"strings"

	"github.com/askweb/askweb/internal/domain"
)

// InsufficientEvidence is the exact fallback the model is instructed to use
// when the search results do not support an answer.
const InsufficientEvidence = "I could not find enough information in the search results to answer that."

// Build renders the answer prompt: optional prior turns, then the numbered
// search results in input order, then the instruction block. Citation [k] in
// the generated answer refers to the k-th result passed into this call; the
// numbering is positional, so callers must pass the final merged ordering.
func Build(query string, results []domain.SearchResult, history []domain.ConversationEntry, minCitations int) string {
	var b strings.Builder

	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for i, entry := range history {
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, entry.Query, i+1, entry.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Search results:\n\n")
	for i, r := range results {
		content := r.FullContent
		if content == "" {
			content = r.Content
		}
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\nContent: %s\n\n", i+1, r.Title, r.URL, content)
	}

	fmt.Fprintf(&b, `Answer the question using only the numbered search results above.

Rules:
- Keep the answer to 2-3 sentences.
- Cite sources with bracketed numbers, for example [1], referring to the numbered results.
- Use at least %d citations when multiple results support the answer.
- If the results do not contain enough information, reply exactly: %q

Question: %s
Answer:`, minCitations, InsufficientEvidence, query)

	return b.String()
}

// Reformulate renders the instruction that rewrites a context-dependent
// follow-up into a standalone search query. Only the single most recent prior
// question is used as context, which bounds prompt size and biases toward the
// latest topic.
func Reformulate(current, previous string) string {
	return fmt.Sprintf(`Rewrite the follow-up question as a standalone web search query.

Previous question: %s
Follow-up question: %s

Respond with only the rewritten query, no explanation and no quotation marks.`, previous, current)
}
