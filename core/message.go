package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Content represents a polymorphic message payload. Concrete content types
// implement the unexported isContent marker enabling a closed set.
type Content interface{ isContent() }

// TextContent is a plain text payload.
type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) isContent() {}

// MediaReference points at a platform-side media asset produced or consumed
// by an agent (uploaded video, generated clip, audio track, image).
type MediaReference struct {
	MediaID  string         `json:"media_id"`
	Kind     string         `json:"kind"` // "video", "audio", "image"
	URL      string         `json:"url,omitempty"`
	Title    string         `json:"title,omitempty"`
	Length   float64        `json:"length,omitempty"` // seconds, when known
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (MediaReference) isContent() {}

// SearchHit is one match inside a SearchResults payload.
type SearchHit struct {
	MediaID string  `json:"media_id"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Start   float64 `json:"start,omitempty"` // match window in seconds
	End     float64 `json:"end,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// SearchResults carries an ordered list of matches for a query.
type SearchResults struct {
	Query string      `json:"query"`
	Hits  []SearchHit `json:"hits"`
}

func (SearchResults) isContent() {}

// ErrorContent describes a failure surfaced to the user. Kind mirrors the
// error taxonomy ("planning", "validation", "agent", "cancelled", "skipped").
type ErrorContent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (ErrorContent) isContent() {}

// Message is one typed output inside a Turn. It is owned by the turn until
// the turn commits, after which it must be treated as immutable.
type Message struct {
	ID      string        `json:"id"`
	Agent   string        `json:"agent"` // producing agent, "assistant" for planner output
	Status  MessageStatus `json:"status"`
	Content Content       `json:"content"`
	Warning string        `json:"warning,omitempty"` // set for degraded (partial) results
	Created time.Time     `json:"created"`
}

// NewMessage creates a message in the given status.
func NewMessage(agent string, status MessageStatus, content Content) Message {
	return Message{
		ID:      NewID(),
		Agent:   agent,
		Status:  status,
		Content: content,
		Created: time.Now().UTC(),
	}
}

// NewTextMessage is a convenience constructor for successful text output.
func NewTextMessage(agent, text string) Message {
	return NewMessage(agent, MessageSuccess, TextContent{Text: text})
}

// NewErrorMessage is a convenience constructor for failure output.
func NewErrorMessage(agent, kind, text string) Message {
	return NewMessage(agent, MessageError, ErrorContent{Kind: kind, Message: text})
}

// contentEnvelope discriminates Content implementations on the wire so
// persisted turns round-trip through JSON-backed stores.
type contentEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const (
	contentKindText   = "text"
	contentKindMedia  = "media_reference"
	contentKindSearch = "search_results"
	contentKindError  = "error"
)

type messageJSON struct {
	ID      string          `json:"id"`
	Agent   string          `json:"agent"`
	Status  MessageStatus   `json:"status"`
	Content contentEnvelope `json:"content"`
	Warning string          `json:"warning,omitempty"`
	Created time.Time       `json:"created"`
}

// MarshalJSON encodes the message with a content-kind discriminator.
func (m Message) MarshalJSON() ([]byte, error) {
	var kind string
	switch m.Content.(type) {
	case TextContent:
		kind = contentKindText
	case MediaReference:
		kind = contentKindMedia
	case SearchResults:
		kind = contentKindSearch
	case ErrorContent:
		kind = contentKindError
	case nil:
		return nil, fmt.Errorf("message %s has no content", m.ID)
	default:
		return nil, fmt.Errorf("unknown content type %T", m.Content)
	}

	payload, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}

	return json.Marshal(messageJSON{
		ID:      m.ID,
		Agent:   m.Agent,
		Status:  m.Status,
		Content: contentEnvelope{Kind: kind, Payload: payload},
		Warning: m.Warning,
		Created: m.Created,
	})
}

// UnmarshalJSON decodes the discriminated content union.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var content Content
	switch raw.Content.Kind {
	case contentKindText:
		var c TextContent
		if err := json.Unmarshal(raw.Content.Payload, &c); err != nil {
			return err
		}
		content = c
	case contentKindMedia:
		var c MediaReference
		if err := json.Unmarshal(raw.Content.Payload, &c); err != nil {
			return err
		}
		content = c
	case contentKindSearch:
		var c SearchResults
		if err := json.Unmarshal(raw.Content.Payload, &c); err != nil {
			return err
		}
		content = c
	case contentKindError:
		var c ErrorContent
		if err := json.Unmarshal(raw.Content.Payload, &c); err != nil {
			return err
		}
		content = c
	default:
		return fmt.Errorf("unknown content kind %q", raw.Content.Kind)
	}

	m.ID = raw.ID
	m.Agent = raw.Agent
	m.Status = raw.Status
	m.Content = content
	m.Warning = raw.Warning
	m.Created = raw.Created

	return nil
}
