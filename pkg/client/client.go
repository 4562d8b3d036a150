// Package client consumes the chat event stream. It is the caller-side half
// of the protocol: it decodes the server's `data: <JSON>` lines back into
// typed events and enforces that every stream ends with exactly one terminal
// event.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrTruncatedStream reports a stream that closed without a terminal event,
// which is a protocol violation.
var ErrTruncatedStream = errors.New("event stream closed without a terminal event")

// Source is one cited search result as delivered on the wire.
type Source struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Content     string  `json:"content"`
	FullContent string  `json:"full_content,omitempty"`
	Score       float64 `json:"score"`
}

// ConversationEntry is one completed turn, sent back with follow-up questions.
type ConversationEntry struct {
	Query             string   `json:"query"`
	Answer            string   `json:"answer"`
	Sources           []Source `json:"sources,omitempty"`
	ReformulatedQuery string   `json:"reformulated_query,omitempty"`
}

// Event is one decoded stream event. Exactly one of the pointer fields is set
// depending on Type.
type Event struct {
	Type    string   `json:"type"`
	Query   string   `json:"query,omitempty"`
	Sources []Source `json:"sources,omitempty"`
	Content string   `json:"content,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details string   `json:"details,omitempty"`
}

// Event type tags, matching the server side.
const (
	EventReformulatedQuery = "reformulated_query"
	EventSources           = "sources"
	EventText              = "text"
	EventDone              = "done"
	EventError             = "error"
)

// Decode reads an SSE body and invokes fn for each event in emission order.
// It returns ErrTruncatedStream when the body ends without a Done or Error
// event, and stops reading once a terminal event was seen.
func Decode(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
		if event.Type == EventDone || event.Type == EventError {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return ErrTruncatedStream
}

// Result is the accumulated outcome of one turn.
type Result struct {
	ReformulatedQuery string
	Sources           []Source
	Answer            string
}

// Entry converts a finished turn into a history entry for the next request.
func (r *Result) Entry(query string) ConversationEntry {
	return ConversationEntry{
		Query:             query,
		Answer:            r.Answer,
		Sources:           r.Sources,
		ReformulatedQuery: r.ReformulatedQuery,
	}
}

// Collect consumes a stream, concatenating text deltas into the full answer.
// An in-stream Error event is returned as an error alongside whatever was
// received before it.
func Collect(r io.Reader) (*Result, error) {
	var result Result
	var streamErr error

	err := Decode(r, func(event Event) error {
		switch event.Type {
		case EventReformulatedQuery:
			result.ReformulatedQuery = event.Query
		case EventSources:
			result.Sources = event.Sources
		case EventText:
			result.Answer += event.Content
		case EventError:
			if event.Details != "" {
				streamErr = fmt.Errorf("%s: %s", event.Error, event.Details)
			} else {
				streamErr = errors.New(event.Error)
			}
		}
		return nil
	})
	if err != nil {
		return &result, err
	}
	return &result, streamErr
}

// Client calls the chat endpoint over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
	}
}

type chatRequest struct {
	Query               string              `json:"query"`
	ConversationHistory []ConversationEntry `json:"conversationHistory,omitempty"`
}

type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Chat asks one question and collects the full streamed answer.
func (c *Client) Chat(ctx context.Context, query string, history []ConversationEntry) (*Result, error) {
	payload, err := json.Marshal(chatRequest{Query: query, ConversationHistory: history})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Details != "" {
				return nil, fmt.Errorf("chat failed (%d): %s: %s", resp.StatusCode, apiErr.Error, apiErr.Details)
			}
			return nil, fmt.Errorf("chat failed (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("chat failed (%d): %s", resp.StatusCode, string(body))
	}

	return Collect(resp.Body)
}
