package chat

import "testing"

func TestSplitThoughts(t *testing.T) {
	tests := []struct {
		name     string
		buffer   string
		thoughts string
		answer   string
	}{
		{
			name:     "marker pair present",
			buffer:   "<thinking>A</thinking>B",
			thoughts: "A",
			answer:   "B",
		},
		{
			name:     "no markers",
			buffer:   "  just an answer  ",
			thoughts: "",
			answer:   "just an answer",
		},
		{
			name:     "whitespace inside markers",
			buffer:   "<thinking>\n step one\n step two \n</thinking>\n\nThe answer.",
			thoughts: "step one\n step two",
			answer:   "The answer.",
		},
		{
			name:     "unclosed marker is not extracted",
			buffer:   "<thinking>half finished",
			thoughts: "",
			answer:   "<thinking>half finished",
		},
		{
			name:     "only first pair recognized",
			buffer:   "<thinking>one</thinking>mid<thinking>two</thinking>end",
			thoughts: "one",
			answer:   "mid<thinking>two</thinking>end",
		},
		{
			name:     "empty buffer",
			buffer:   "",
			thoughts: "",
			answer:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thoughts, answer := SplitThoughts(tt.buffer)
			if thoughts != tt.thoughts {
				t.Errorf("thoughts = %q, want %q", thoughts, tt.thoughts)
			}
			if answer != tt.answer {
				t.Errorf("answer = %q, want %q", answer, tt.answer)
			}
		})
	}
}
