package chat

import "strings"

// Markers delimiting the model's private reasoning block inside a raw
// response buffer. The system instruction asks the model to emit its
// step-by-step reasoning between these before the visible answer.
const (
	ThinkingOpen  = "<thinking>"
	ThinkingClose = "</thinking>"
)

// SplitThoughts separates the model's private reasoning trace from the
// visible answer. Only the first complete marker pair is recognized; its
// trimmed inner content becomes the thoughts and the buffer with the
// bracketed span removed, trimmed, becomes the answer. Without a complete
// pair the thoughts are empty and the answer is the full trimmed buffer.
func SplitThoughts(buffer string) (thoughts, answer string) {
	start := strings.Index(buffer, ThinkingOpen)
	if start >= 0 {
		rest := buffer[start+len(ThinkingOpen):]
		end := strings.Index(rest, ThinkingClose)
		if end >= 0 {
			thoughts = strings.TrimSpace(rest[:end])
			answer = strings.TrimSpace(buffer[:start] + rest[end+len(ThinkingClose):])
			return thoughts, answer
		}
	}
	return "", strings.TrimSpace(buffer)
}
