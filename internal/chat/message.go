package chat

import (
	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// InlineData carries base64-encoded binary content (image or audio) together
// with its MIME type, in the provider wire shape.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is a single content fragment of a message: either text or inline
// binary data. Exactly one of the two fields is populated.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// DataPart creates an inline-data part from base64-encoded content.
func DataPart(mimeType, data string) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: data}}
}

// IsText reports whether the part is the text variant.
func (p Part) IsText() bool {
	return p.InlineData == nil
}

// Message is one turn fragment of a conversation. The ID is stable across
// in-place streaming updates: a placeholder and its final form share one ID.
// Thoughts is only meaningful for model messages.
type Message struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	Parts    []Part `json:"parts"`
	Thoughts string `json:"thoughts,omitempty"`
}

// NewMessage creates a message with a fresh unique ID.
func NewMessage(role Role, parts []Part) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  role,
		Parts: parts,
	}
}

// Text returns the concatenated text content of the message. Inline-data
// parts contribute nothing.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.IsText() {
			out += p.Text
		}
	}
	return out
}

// Session is a persisted, named conversation.
type Session struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// NewSession creates a session seeded with its first user message. The title
// is derived from the message content.
func NewSession(first Message) *Session {
	hasAudio := false
	for _, p := range first.Parts {
		if p.InlineData != nil && isAudioMime(p.InlineData.MimeType) {
			hasAudio = true
			break
		}
	}
	return &Session{
		ID:       uuid.NewString(),
		Title:    DeriveTitle(first.Text(), hasAudio),
		Messages: []Message{first},
	}
}

const (
	// UntitledTitle replaces an empty title on rename.
	UntitledTitle = "Untitled Chat"

	titleMaxLen = 40
)

// DeriveTitle builds a session title from the first user text: the first 40
// characters, with an ellipsis when truncated. Audio-only turns get a fixed
// label, as do turns with no text at all.
func DeriveTitle(text string, hasAudio bool) string {
	if text == "" {
		if hasAudio {
			return "Audio message"
		}
		return "New Chat"
	}
	runes := []rune(text)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen]) + "..."
	}
	return text
}

func isAudioMime(mimeType string) bool {
	return len(mimeType) >= 6 && mimeType[:6] == "audio/"
}
