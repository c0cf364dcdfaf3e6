package llm

// ApiStream is a single-pass stream of response chunks. The channel is
// closed when the model has finished the turn or after an error chunk.
type ApiStream <-chan ApiStreamChunk

// ApiStreamChunk represents different types of streaming responses.
type ApiStreamChunk interface {
	Type() string
}

// ApiStreamTextChunk represents an incremental text fragment.
type ApiStreamTextChunk struct {
	Text string `json:"text"`
}

func (c ApiStreamTextChunk) Type() string { return "text" }

// ApiStreamErrorChunk represents a mid-stream provider failure. It is the
// last chunk on the stream; no partial-fragment retry is attempted.
type ApiStreamErrorChunk struct {
	Err error `json:"-"`
}

func (c ApiStreamErrorChunk) Type() string { return "error" }
