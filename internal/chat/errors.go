package chat

import "errors"

// Error categories for the conversation engine. Callers wrap these with
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	// ErrInitialization means the provider could not be set up (missing or
	// rejected credentials). It blocks starting any turn but is not fatal
	// to the process.
	ErrInitialization = errors.New("initialization failed")

	// ErrStream means the provider failed mid-response. The current turn is
	// aborted; partial content already streamed is preserved.
	ErrStream = errors.New("stream failed")

	// ErrPersistence means durable storage could not be read or written.
	// In-memory state is unaffected.
	ErrPersistence = errors.New("persistence failed")

	// ErrUserInput covers empty submissions and edits targeting unknown
	// messages. No mutation occurs.
	ErrUserInput = errors.New("invalid input")
)
