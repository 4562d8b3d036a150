package llm

import (
	"context"

	"github.com/askweb/askweb/internal/config"
	"github.com/askweb/askweb/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAI calls an OpenAI-compatible chat completion endpoint through the
// official SDK, which handles the streaming transport itself.
type OpenAI struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAI creates an OpenAI provider from configuration.
func NewOpenAI(cfg config.LLMConfig, logger *zap.Logger) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
}

// Generate runs one non-streaming completion.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       o.model,
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", domain.NewUnreachableError("llm", err)
	}
	if len(completion.Choices) == 0 {
		return "", domain.NewMalformedResponse("llm", "completion has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// GenerateStream opens a streaming completion and relays content deltas.
func (o *OpenAI) GenerateStream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: o.model,
	})

	ch := make(chan Fragment)
	go func() {
		defer close(ch)
		defer stream.Close()

		emit := func(f Fragment) bool {
			select {
			case ch <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				if !emit(Fragment{Text: content}) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			emit(Fragment{Err: domain.NewUnreachableError("llm", err)})
		}
	}()
	return ch, nil
}
