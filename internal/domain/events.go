package domain

import (
	"encoding/json"
	"fmt"
)

// Event type tags as they appear on the wire.
const (
	EventTypeReformulatedQuery = "reformulated_query"
	EventTypeSources           = "sources"
	EventTypeText              = "text"
	EventTypeDone              = "done"
	EventTypeError             = "error"
)

// Event is the closed union of everything the chat stream can emit. For a
// successful turn the emission order is always
// [ReformulatedQuery?] [Sources] [TextDelta]* [Done]; a turn that fails after
// streaming has begun ends in ErrorEvent instead of Done. Exactly one terminal
// event is emitted and nothing follows it.
type Event interface {
	eventType() string
}

// ReformulatedQuery announces that a follow-up question was rewritten into a
// standalone search query. At most one per turn, always first.
type ReformulatedQuery struct {
	Query string `json:"query"`
}

// Sources carries the merged, sanitized search results the answer will cite.
// Exactly one per turn, always before the first TextDelta.
type Sources struct {
	Sources []SearchResult `json:"sources"`
}

// TextDelta is one fragment of the generated answer. Concatenating all deltas
// in emission order reconstructs the full answer.
type TextDelta struct {
	Content string `json:"content"`
}

// Done terminates a successful turn.
type Done struct{}

// ErrorEvent terminates a failed turn that had already begun streaming.
type ErrorEvent struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (ReformulatedQuery) eventType() string { return EventTypeReformulatedQuery }
func (Sources) eventType() string           { return EventTypeSources }
func (TextDelta) eventType() string         { return EventTypeText }
func (Done) eventType() string              { return EventTypeDone }
func (ErrorEvent) eventType() string        { return EventTypeError }

func (e ReformulatedQuery) MarshalJSON() ([]byte, error) {
	type alias ReformulatedQuery
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

func (e Sources) MarshalJSON() ([]byte, error) {
	type alias Sources
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

func (e TextDelta) MarshalJSON() ([]byte, error) {
	type alias TextDelta
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

func (e Done) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{e.eventType()})
}

func (e ErrorEvent) MarshalJSON() ([]byte, error) {
	type alias ErrorEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

// UnmarshalEvent decodes one wire event back into its concrete variant.
func UnmarshalEvent(data []byte) (Event, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch tag.Type {
	case EventTypeReformulatedQuery:
		var e ReformulatedQuery
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", tag.Type, err)
		}
		return e, nil
	case EventTypeSources:
		var e Sources
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", tag.Type, err)
		}
		return e, nil
	case EventTypeText:
		var e TextDelta
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", tag.Type, err)
		}
		return e, nil
	case EventTypeDone:
		return Done{}, nil
	case EventTypeError:
		var e ErrorEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", tag.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", tag.Type)
	}
}
