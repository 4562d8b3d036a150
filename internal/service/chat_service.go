package service

import (
	"context"
	"errors"
	"strings"

	"github.com/askweb/askweb/internal/config"
	"github.com/askweb/askweb/internal/domain"
	"github.com/askweb/askweb/internal/llm"
	"github.com/askweb/askweb/internal/prompt"
	"github.com/askweb/askweb/internal/sanitize"
	"github.com/askweb/askweb/internal/search"
	"go.uber.org/zap"
)

// Searcher is the outbound search dependency.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// ChatService orchestrates one turn: reformulate the follow-up when history
// is present, search both queries in parallel, merge and sanitize the
// results, then stream the generated answer as tagged events.
type ChatService struct {
	cfg      *config.Config
	searcher Searcher
	provider llm.Provider
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(cfg *config.Config, searcher Searcher, provider llm.Provider, logger *zap.Logger) *ChatService {
	return &ChatService{
		cfg:      cfg,
		searcher: searcher,
		provider: provider,
		logger:   logger,
	}
}

// Stream runs one turn. Failures before streaming begins (invalid query,
// search failure, zero results) are returned as an error so the transport can
// report them with a status code; after that every outcome crosses the event
// channel, which emits [ReformulatedQuery?] [Sources] [TextDelta]* and exactly
// one terminal Done or ErrorEvent before closing.
func (s *ChatService) Stream(ctx context.Context, req *domain.ChatRequest) (<-chan domain.Event, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.NewInvalidRequest("query must not be empty")
	}

	reformulated := s.reformulate(ctx, query, req.ConversationHistory)

	results, err := s.searchBoth(ctx, query, reformulated)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.NewNoResults(query)
	}

	for i := range results {
		results[i].FullContent = s.fullContent(results[i])
	}

	answerPrompt := prompt.Build(query, results, req.ConversationHistory, s.cfg.Prompt.MinCitations)

	ch := make(chan domain.Event, 16)
	go s.stream(ctx, ch, reformulated, results, answerPrompt)
	return ch, nil
}

// reformulate rewrites a follow-up question into a standalone query using the
// most recent prior turn. It is best-effort: any failure falls back to the
// original query and the turn continues. Returns "" when no reformulation
// applies.
func (s *ChatService) reformulate(ctx context.Context, query string, history []domain.ConversationEntry) string {
	if len(history) == 0 {
		return ""
	}
	previous := history[len(history)-1].Query

	out, err := s.provider.Generate(ctx, prompt.Reformulate(query, previous))
	if err != nil {
		s.logger.Warn("query reformulation failed, using original query",
			zap.String("query", query),
			zap.Error(err),
		)
		return ""
	}

	reformulated := strings.Trim(strings.TrimSpace(out), `"`)
	if reformulated == "" || strings.EqualFold(reformulated, query) {
		return ""
	}
	s.logger.Debug("query reformulated",
		zap.String("original", query),
		zap.String("reformulated", reformulated),
	)
	return reformulated
}

type searchOutcome struct {
	results []domain.SearchResult
	err     error
}

// searchBoth issues the original-query search, plus the reformulated-query
// search concurrently when a reformulation was produced, and merges the two
// result sets without losing relevance signal from either.
func (s *ChatService) searchBoth(ctx context.Context, query, reformulated string) ([]domain.SearchResult, error) {
	if reformulated == "" {
		return s.searcher.Search(ctx, query)
	}

	original := make(chan searchOutcome, 1)
	go func() {
		results, err := s.searcher.Search(ctx, query)
		original <- searchOutcome{results, err}
	}()

	reformulatedResults, reformulatedErr := s.searcher.Search(ctx, reformulated)
	originalOutcome := <-original

	if originalOutcome.err != nil {
		return nil, originalOutcome.err
	}
	if reformulatedErr != nil {
		return nil, reformulatedErr
	}
	return search.Merge(originalOutcome.results, reformulatedResults), nil
}

// fullContent sanitizes a result's raw page text. A result whose raw content
// is absent or cleans down to nothing falls back to its short snippet, so a
// bad page never fails the turn.
func (s *ChatService) fullContent(r domain.SearchResult) string {
	if r.RawContent == "" {
		return r.Content
	}
	cleaned := sanitize.Clean(r.RawContent)
	if cleaned == "" {
		s.logger.Debug("raw content sanitized to empty, falling back to snippet",
			zap.String("url", r.URL),
		)
		return r.Content
	}
	return cleaned
}

func (s *ChatService) stream(ctx context.Context, ch chan<- domain.Event, reformulated string, results []domain.SearchResult, answerPrompt string) {
	defer close(ch)

	emit := func(e domain.Event) bool {
		select {
		case ch <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if reformulated != "" {
		if !emit(domain.ReformulatedQuery{Query: reformulated}) {
			return
		}
	}
	if !emit(domain.Sources{Sources: results}) {
		return
	}

	fragments, err := s.provider.GenerateStream(ctx, answerPrompt)
	if err != nil {
		s.logger.Error("failed to start answer generation", zap.Error(err))
		emit(errorEvent(err))
		return
	}

	for fragment := range fragments {
		if fragment.Err != nil {
			s.logger.Error("answer generation failed mid-stream", zap.Error(fragment.Err))
			emit(errorEvent(fragment.Err))
			return
		}
		if fragment.Text == "" {
			continue
		}
		if !emit(domain.TextDelta{Content: fragment.Text}) {
			return
		}
	}

	emit(domain.Done{})
}

func errorEvent(err error) domain.ErrorEvent {
	var se *domain.StatusError
	if errors.As(err, &se) {
		return domain.ErrorEvent{Error: se.Message, Details: se.Details}
	}
	return domain.ErrorEvent{Error: "answer generation failed", Details: err.Error()}
}
