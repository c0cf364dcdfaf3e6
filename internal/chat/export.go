package chat

import "strings"

// ExportTranscript renders a session as a plain-text transcript. Each
// message becomes an author header followed by its parts, one per line;
// inline-data parts are rendered as a literal placeholder.
func ExportTranscript(s *Session) string {
	var b strings.Builder
	for _, msg := range s.Messages {
		author := "MAK"
		if msg.Role == RoleUser {
			author = "User"
		}
		lines := make([]string, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if p.IsText() {
				lines = append(lines, p.Text)
			} else {
				lines = append(lines, "[Image]")
			}
		}
		b.WriteString(author)
		b.WriteString(":\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}

// ExportFilename derives a download filename (without extension) from a
// session title: ASCII letters and digits are kept lowercased, everything
// else becomes an underscore. An empty result falls back to "chat-export".
func ExportFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 'a' - 'A')
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "chat-export"
	}
	return b.String()
}
