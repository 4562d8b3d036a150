package domain

// SearchResult is a single web search hit. URL is the unique key within a
// result set; FullContent holds the sanitized page text when raw content was
// requested, otherwise it falls back to the short snippet in Content.
type SearchResult struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Content     string  `json:"content"`
	RawContent  string  `json:"raw_content,omitempty"`
	FullContent string  `json:"full_content,omitempty"`
	Score       float64 `json:"score"`
}

// ConversationEntry is one completed query/answer turn. The caller owns the
// history and sends it back with follow-up questions; nothing is persisted
// server-side.
type ConversationEntry struct {
	Query             string         `json:"query"`
	Answer            string         `json:"answer"`
	Sources           []SearchResult `json:"sources,omitempty"`
	ReformulatedQuery string         `json:"reformulated_query,omitempty"`
}

// ChatRequest is the request to ask a question
type ChatRequest struct {
	Query               string              `json:"query" binding:"required"`
	ConversationHistory []ConversationEntry `json:"conversationHistory,omitempty"`
}
