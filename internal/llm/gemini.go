package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/askweb/askweb/internal/config"
	"github.com/askweb/askweb/internal/domain"
	"go.uber.org/zap"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the Gemini REST API. The non-streaming endpoint returns a
// single JSON object; the streaming endpoint returns a pretty-printed JSON
// array whose objects arrive with arbitrary chunk boundaries, decoded
// incrementally by objectScanner.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGemini creates a Gemini provider from configuration.
func NewGemini(cfg config.LLMConfig, logger *zap.Logger) *Gemini {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &Gemini{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// Generate runs one non-streaming completion.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.post(ctx, "generateContent", prompt)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewUnreachableError("llm", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.NewUpstreamError("llm", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.NewMalformedResponse("llm", err.Error())
	}
	if parsed.Error != nil {
		return "", domain.NewUpstreamError("llm", parsed.Error.Code, parsed.Error.Message)
	}
	return parsed.text(), nil
}

// GenerateStream opens a streaming completion against streamGenerateContent.
func (g *Gemini) GenerateStream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	resp, err := g.post(ctx, "streamGenerateContent", prompt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, domain.NewUpstreamError("llm", resp.StatusCode, string(body))
	}

	ch := make(chan Fragment)
	go g.decodeStream(ctx, resp.Body, ch)
	return ch, nil
}

// decodeStream reads raw body chunks, extracts complete JSON objects from the
// streamed array, and forwards each non-empty text fragment in order. The
// stream ends when the upstream connection closes; ending is not an error.
func (g *Gemini) decodeStream(ctx context.Context, body io.ReadCloser, ch chan<- Fragment) {
	defer close(ch)
	defer body.Close()

	emit := func(f Fragment) bool {
		select {
		case ch <- f:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var scanner objectScanner
	chunk := make([]byte, 4096)
	for {
		n, readErr := body.Read(chunk)
		for _, obj := range scanner.Feed(chunk[:n]) {
			var parsed geminiResponse
			if err := json.Unmarshal(obj, &parsed); err != nil {
				emit(Fragment{Err: domain.NewMalformedResponse("llm", err.Error())})
				return
			}
			if parsed.Error != nil {
				emit(Fragment{Err: domain.NewUpstreamError("llm", parsed.Error.Code, parsed.Error.Message)})
				return
			}
			if text := parsed.text(); text != "" {
				if !emit(Fragment{Text: text}) {
					return
				}
			}
		}
		if readErr == io.EOF {
			return
		}
		if readErr != nil {
			emit(Fragment{Err: domain.NewUnreachableError("llm", readErr)})
			return
		}
	}
}

func (g *Gemini) post(ctx context.Context, method, prompt string) (*http.Response, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal llm request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:%s?key=%s", g.baseURL, g.model, method, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.NewUnreachableError("llm", err)
	}
	return resp, nil
}
