package chat_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/askweb/askweb/internal/api"
	"github.com/askweb/askweb/internal/config"
	"github.com/askweb/askweb/internal/domain"
	"github.com/askweb/askweb/internal/llm"
	"github.com/askweb/askweb/internal/service"
	"github.com/askweb/askweb/pkg/client"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubSearcher struct {
	results map[string][]domain.SearchResult
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	return s.results[query], nil
}

type stubProvider struct {
	reformulation string
	fragments     []llm.Fragment
}

func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return s.reformulation, nil
}

func (s *stubProvider) GenerateStream(ctx context.Context, prompt string) (<-chan llm.Fragment, error) {
	ch := make(chan llm.Fragment, len(s.fragments))
	for _, f := range s.fragments {
		ch <- f
	}
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, searcher service.Searcher, provider llm.Provider) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Prompt: config.PromptConfig{MinCitations: 2}}
	chatService := service.NewChatService(cfg, searcher, provider, zaptest.NewLogger(t))
	router := api.SetupRouter(chatService, zaptest.NewLogger(t), api.RouterConfig{AllowOrigins: []string{"*"}})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func typescriptResults() []domain.SearchResult {
	return []domain.SearchResult{
		{Title: "TypeScript", URL: "https://www.typescriptlang.org", Content: "TypeScript is JavaScript with syntax for types.", Score: 0.95},
		{Title: "TS handbook", URL: "https://www.typescriptlang.org/docs", Content: "The TypeScript Handbook.", Score: 0.82},
	}
}

func TestChatEndToEnd(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]domain.SearchResult{
		"What is TypeScript?": typescriptResults(),
	}}
	provider := &stubProvider{fragments: []llm.Fragment{
		{Text: "TypeScript is a typed superset "},
		{Text: "of JavaScript [1][2]."},
	}}
	srv := newTestServer(t, searcher, provider)

	result, err := client.New(srv.URL).Chat(context.Background(), "What is TypeScript?", nil)
	require.NoError(t, err)

	assert.Empty(t, result.ReformulatedQuery)
	require.NotEmpty(t, result.Sources)
	assert.LessOrEqual(t, len(result.Sources), 7)
	assert.Regexp(t, regexp.MustCompile(`\[\d+\]`), result.Answer)
	assert.Equal(t, "TypeScript is a typed superset of JavaScript [1][2].", result.Answer)
}

func TestChatFollowUpReformulates(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]domain.SearchResult{
		"tell me more about that": {{Title: "Misc", URL: "https://misc.example", Content: "m", Score: 0.2}},
		"Next.js framework features": {
			{Title: "Next.js", URL: "https://nextjs.org", Content: "The React framework.", Score: 0.9},
		},
	}}
	provider := &stubProvider{
		reformulation: "Next.js framework features",
		fragments:     []llm.Fragment{{Text: "Next.js adds routing and SSR [1]."}},
	}
	srv := newTestServer(t, searcher, provider)

	history := []client.ConversationEntry{{Query: "What is Next.js?", Answer: "A React framework [1]."}}
	result, err := client.New(srv.URL).Chat(context.Background(), "tell me more about that", history)
	require.NoError(t, err)

	assert.Equal(t, "Next.js framework features", result.ReformulatedQuery)
	assert.NotEqual(t, "tell me more about that", result.ReformulatedQuery)
	assert.Contains(t, result.ReformulatedQuery, "Next.js")
	// Merged sources from both searches.
	assert.Len(t, result.Sources, 2)
}

func TestChatEmptyQuery(t *testing.T) {
	srv := newTestServer(t, &stubSearcher{}, &stubProvider{})

	for _, body := range []string{`{}`, `{"query": ""}`, `{"query": "   "}`} {
		resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", body)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	}
}

func TestChatNoResults(t *testing.T) {
	srv := newTestServer(t, &stubSearcher{}, &stubProvider{})

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"query": "nothing matches this"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatStreamWireFormat(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]domain.SearchResult{
		"What is TypeScript?": typescriptResults(),
	}}
	provider := &stubProvider{fragments: []llm.Fragment{{Text: "Typed JavaScript [1]."}}}
	srv := newTestServer(t, searcher, provider)

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"query": "What is TypeScript?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var types []string
	err = client.Decode(resp.Body, func(event client.Event) error {
		types = append(types, event.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sources", "text", "done"}, types)
}

func TestChatMidStreamErrorEndsStream(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]domain.SearchResult{
		"q": typescriptResults(),
	}}
	provider := &stubProvider{fragments: []llm.Fragment{
		{Text: "partial "},
		{Err: domain.NewUpstreamError("llm", 500, "model overloaded")},
	}}
	srv := newTestServer(t, searcher, provider)

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"query": "q"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	// The stream already opened with a success status; the failure must be
	// the terminal in-stream event.
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result, err := client.Collect(resp.Body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, "partial ", result.Answer)
	assert.NotEmpty(t, result.Sources)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubSearcher{}, &stubProvider{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
