package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/entrepeneur4lyf/mak/internal/chat"
	"github.com/entrepeneur4lyf/mak/internal/llm"
	"github.com/entrepeneur4lyf/mak/internal/storage"
	"github.com/google/uuid"
)

// State is the turn state machine position.
type State int

const (
	StateIdle State = iota
	StateAwaitingSession
	StateStreaming
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSession:
		return "awaiting_session"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Fragment is one progressive-reveal update: the cumulative text of the
// model message so far. Fragments for one turn arrive strictly in order.
type Fragment struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// FragmentFunc receives each fragment as it is folded into the transcript.
type FragmentFunc func(Fragment)

// Controller drives turns for the active conversation: it assembles user
// messages, lazily creates sessions, streams model replies into the working
// transcript, and reconciles completed turns back into the store. One
// controller serves one logical thread of control; a submission while a turn
// is in flight is rejected.
type Controller struct {
	store    *storage.HistoryStore
	provider llm.ChatProvider

	mu        sync.Mutex
	state     State
	messages  []chat.Message
	currentID string
	handle    llm.ChatHandle
	lastErr   error
}

// New creates a controller over the given store and provider.
func New(store *storage.HistoryStore, provider llm.ChatProvider) *Controller {
	return &Controller{store: store, provider: provider}
}

// State returns the current state machine position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the single visible error slot, latest wins.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CurrentSessionID returns the active session id, empty when none.
func (c *Controller) CurrentSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// Messages returns a copy of the working transcript.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.messages...)
}

// BuildParts assembles the part sequence for a user turn in the fixed public
// order: images, then audio, then text. Empty text contributes no part.
func BuildParts(text string, images []chat.InlineData, audio *chat.InlineData) []chat.Part {
	parts := make([]chat.Part, 0, len(images)+2)
	for _, img := range images {
		parts = append(parts, chat.DataPart(img.MimeType, img.Data))
	}
	if audio != nil {
		parts = append(parts, chat.DataPart(audio.MimeType, audio.Data))
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		parts = append(parts, chat.TextPart(trimmed))
	}
	return parts
}

// Submit runs one full turn: it appends the user message optimistically,
// creates a session and adapter if needed, streams the reply through
// onFragment, and commits the finished model message. It blocks until the
// turn completes or fails and returns the committed model message.
func (c *Controller) Submit(ctx context.Context, text string, images []chat.InlineData, audio *chat.InlineData, onFragment FragmentFunc) (chat.Message, error) {
	c.mu.Lock()
	if c.state == StateAwaitingSession || c.state == StateStreaming {
		c.mu.Unlock()
		return chat.Message{}, fmt.Errorf("%w: a turn is already in flight", chat.ErrUserInput)
	}
	parts := BuildParts(text, images, audio)
	if len(parts) == 0 {
		c.mu.Unlock()
		return chat.Message{}, fmt.Errorf("%w: empty submission", chat.ErrUserInput)
	}

	c.lastErr = nil
	user := chat.NewMessage(chat.RoleUser, parts)
	c.messages = append(c.messages, user)
	c.state = StateAwaitingSession

	if c.currentID == "" {
		session, err := c.store.Create(user)
		if err != nil {
			c.lastErr = err
		}
		c.currentID = session.ID
		handle, err := c.provider.OpenSession(ctx, nil)
		if err != nil {
			return chat.Message{}, c.failOpenLocked(err)
		}
		c.handle = handle
	} else {
		if err := c.store.Append(c.currentID, user); err != nil {
			c.lastErr = err
		}
		if c.handle == nil {
			history := append([]chat.Message(nil), c.messages[:len(c.messages)-1]...)
			handle, err := c.provider.OpenSession(ctx, history)
			if err != nil {
				return chat.Message{}, c.failOpenLocked(err)
			}
			c.handle = handle
		}
	}

	sessionID := c.currentID
	handle := c.handle
	c.mu.Unlock()

	return c.streamTurn(ctx, handle, parts, sessionID, c.commitAppend(sessionID), onFragment)
}

// EditMessage truncates the transcript at the edited message, replaces its
// content with a single text part, rebuilds the adapter from the preceding
// prefix, and re-streams a replacement reply. On success the entire new
// transcript overwrites the stored one; the discarded suffix is gone.
func (c *Controller) EditMessage(ctx context.Context, messageID, newText string, onFragment FragmentFunc) (chat.Message, error) {
	c.mu.Lock()
	if c.state == StateAwaitingSession || c.state == StateStreaming {
		c.mu.Unlock()
		return chat.Message{}, fmt.Errorf("%w: a turn is already in flight", chat.ErrUserInput)
	}
	idx := -1
	for i, msg := range c.messages {
		if msg.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		log.Printf("Cannot find message to edit: %s", messageID)
		return chat.Message{}, fmt.Errorf("%w: message %s not found", chat.ErrUserInput, messageID)
	}

	c.lastErr = nil
	prefix := append([]chat.Message(nil), c.messages[:idx]...)
	// Attachments on the original message are dropped: an edit is text-only.
	edited := chat.Message{
		ID:    c.messages[idx].ID,
		Role:  chat.RoleUser,
		Parts: []chat.Part{chat.TextPart(newText)},
	}
	c.messages = append(append([]chat.Message(nil), prefix...), edited)
	c.state = StateAwaitingSession

	handle, err := c.provider.OpenSession(ctx, prefix)
	if err != nil {
		return chat.Message{}, c.failOpenLocked(err)
	}
	c.handle = handle
	sessionID := c.currentID
	c.mu.Unlock()

	return c.streamTurn(ctx, handle, edited.Parts, sessionID, c.commitReplace(sessionID), onFragment)
}

// NewChat leaves the active conversation: the working transcript is
// snapshotted into its session and active state is cleared. Allowed even
// while a turn is in flight; the abandoned stream's late fragments are
// dropped by the session identity check.
func (c *Controller) NewChat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentID != "" && len(c.messages) > 0 {
		if err := c.store.ReplaceTranscript(c.currentID, c.messages); err != nil {
			log.Printf("Warning: failed to snapshot session %s: %v", c.currentID, err)
		}
	}
	c.currentID = ""
	c.messages = nil
	c.lastErr = nil
	c.handle = nil
}

// LoadChat activates a stored session: its transcript becomes the working
// transcript and a fresh adapter is opened seeded with the full history.
func (c *Controller) LoadChat(ctx context.Context, id string) error {
	session, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: session %s not found", chat.ErrUserInput, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentID = session.ID
	c.messages = append([]chat.Message(nil), session.Messages...)
	c.lastErr = nil
	c.handle = nil

	handle, err := c.provider.OpenSession(ctx, session.Messages)
	if err != nil {
		// The transcript stays visible; the next submit retries the open.
		c.lastErr = err
		c.state = StateError
		return err
	}
	c.handle = handle
	c.state = StateIdle
	return nil
}

// DeleteChat removes a session from the store. Deleting the active session
// also clears the working transcript and drops the adapter.
func (c *Controller) DeleteChat(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Delete(id)
	if id == c.currentID {
		c.currentID = ""
		c.messages = nil
		c.lastErr = nil
		c.handle = nil
		c.state = StateIdle
	}
	return err
}

// failOpenLocked records an adapter open failure. The user message stays
// visible but unanswered. Called with c.mu held; releases it.
func (c *Controller) failOpenLocked(err error) error {
	c.state = StateError
	c.lastErr = err
	c.handle = nil
	c.mu.Unlock()
	log.Printf("Adapter open failed: %v", err)
	return err
}

// commitAppend persists a completed ordinary turn by appending the model
// message to the stored transcript.
func (c *Controller) commitAppend(sessionID string) func(chat.Message) error {
	return func(final chat.Message) error {
		return c.store.Append(sessionID, final)
	}
}

// commitReplace persists a completed edit-regeneration by overwriting the
// stored transcript with the working one. Runs with c.mu held.
func (c *Controller) commitReplace(sessionID string) func(chat.Message) error {
	return func(chat.Message) error {
		return c.store.ReplaceTranscript(sessionID, c.messages)
	}
}

// streamTurn consumes a model reply: it installs a placeholder message,
// folds fragments into it in arrival order, applies thought extraction once
// the stream is exhausted, and commits the final message. Fragments that
// arrive after the session was abandoned are discarded.
func (c *Controller) streamTurn(ctx context.Context, handle llm.ChatHandle, parts []chat.Part, sessionID string, commit func(chat.Message) error, onFragment FragmentFunc) (chat.Message, error) {
	placeholder := chat.Message{
		ID:    uuid.NewString(),
		Role:  chat.RoleModel,
		Parts: []chat.Part{chat.TextPart("")},
	}

	c.mu.Lock()
	if c.currentID == sessionID {
		c.messages = append(c.messages, placeholder)
	}
	c.state = StateStreaming
	c.mu.Unlock()

	stream, err := handle.SendStream(ctx, parts)
	if err != nil {
		return chat.Message{}, c.failStream(sessionID, placeholder.ID, 0, err)
	}

	var buf strings.Builder
	var streamErr error
	for chunk := range stream {
		switch ch := chunk.(type) {
		case llm.ApiStreamTextChunk:
			buf.WriteString(ch.Text)
			cumulative := buf.String()
			c.mu.Lock()
			if c.currentID == sessionID {
				c.overwriteTextLocked(placeholder.ID, cumulative)
			}
			c.mu.Unlock()
			if onFragment != nil {
				onFragment(Fragment{MessageID: placeholder.ID, Text: cumulative})
			}
		case llm.ApiStreamErrorChunk:
			streamErr = ch.Err
		}
	}
	if streamErr != nil {
		return chat.Message{}, c.failStream(sessionID, placeholder.ID, buf.Len(), streamErr)
	}

	thoughts, answer := chat.SplitThoughts(buf.String())
	final := chat.Message{
		ID:       placeholder.ID,
		Role:     chat.RoleModel,
		Parts:    []chat.Part{chat.TextPart(answer)},
		Thoughts: thoughts,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	if c.currentID != sessionID {
		// Session switched away mid-stream; drop the late result.
		log.Printf("Discarding completed reply for abandoned session %s", sessionID)
		return chat.Message{}, nil
	}
	c.replaceMessageLocked(placeholder.ID, final)
	if err := commit(final); err != nil {
		c.lastErr = err
	}
	return final, nil
}

// failStream records a stream failure. A placeholder that never received a
// fragment is removed so no empty bubble lingers; partial content stays.
func (c *Controller) failStream(sessionID, placeholderID string, received int, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
	c.lastErr = err
	log.Printf("Stream failed for session %s: %v", sessionID, err)
	if received == 0 && c.currentID == sessionID {
		for i := len(c.messages) - 1; i >= 0; i-- {
			if c.messages[i].ID == placeholderID {
				c.messages = append(c.messages[:i], c.messages[i+1:]...)
				break
			}
		}
	}
	return err
}

func (c *Controller) overwriteTextLocked(id, text string) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages[i].Parts = []chat.Part{chat.TextPart(text)}
			return
		}
	}
}

func (c *Controller) replaceMessageLocked(id string, msg chat.Message) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages[i] = msg
			return
		}
	}
}
