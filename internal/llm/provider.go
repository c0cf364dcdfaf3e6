package llm

import (
	"context"

	"github.com/entrepeneur4lyf/mak/internal/chat"
)

// ChatProvider opens stateful multi-turn conversations with a remote model.
type ChatProvider interface {
	// OpenSession establishes a conversation seeded with an existing
	// transcript prefix. History messages are reduced to the minimal
	// provider-acceptable form; thoughts are never sent back to the model.
	// Fails with an initialization error when credentials are absent or
	// the provider rejects the configuration.
	OpenSession(ctx context.Context, history []chat.Message) (ChatHandle, error)
}

// ChatHandle is one live conversation. It accumulates context across sends;
// it is rebuilt from a transcript prefix whenever the active session changes
// or a prefix is edited.
type ChatHandle interface {
	// SendStream submits one user turn and returns a single-pass stream of
	// incremental text fragments, exhausted when the model finishes.
	SendStream(ctx context.Context, parts []chat.Part) (ApiStream, error)
}
