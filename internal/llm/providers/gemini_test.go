package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/entrepeneur4lyf/mak/internal/chat"
)

func TestOpenSessionWithoutKey(t *testing.T) {
	p := NewGeminiProvider("", DefaultModel)
	_, err := p.OpenSession(context.Background(), nil)
	if !errors.Is(err, chat.ErrInitialization) {
		t.Errorf("error = %v, want ErrInitialization", err)
	}
}

func TestNewGeminiProviderDefaultsModel(t *testing.T) {
	p := NewGeminiProvider("key", "")
	if p.model != DefaultModel {
		t.Errorf("model = %q, want %q", p.model, DefaultModel)
	}
}

func TestSanitizeHistory(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("img-bytes"))
	history := []chat.Message{
		chat.NewMessage(chat.RoleUser, []chat.Part{
			chat.DataPart("image/png", img),
			chat.TextPart("what is this?"),
		}),
		{
			ID:       "m1",
			Role:     chat.RoleModel,
			Parts:    []chat.Part{chat.TextPart("A picture.")},
			Thoughts: "private reasoning",
		},
		chat.NewMessage(chat.RoleModel, []chat.Part{chat.TextPart("")}),
	}

	contents := sanitizeHistory(history)
	if len(contents) != 2 {
		t.Fatalf("content count = %d, want 2 (empty message dropped)", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("roles = %q, %q", contents[0].Role, contents[1].Role)
	}
	if len(contents[0].Parts) != 2 {
		t.Fatalf("user part count = %d, want 2", len(contents[0].Parts))
	}
	if contents[0].Parts[0].InlineData == nil ||
		contents[0].Parts[0].InlineData.MIMEType != "image/png" ||
		string(contents[0].Parts[0].InlineData.Data) != "img-bytes" {
		t.Error("inline data should be decoded from base64")
	}
	if contents[1].Parts[0].Text != "A picture." {
		t.Errorf("model text = %q", contents[1].Parts[0].Text)
	}
}

func TestToGenaiPartsDropsInvalidBase64(t *testing.T) {
	parts := toGenaiParts([]chat.Part{
		chat.DataPart("image/png", "!!not-base64!!"),
		chat.TextPart("still here"),
	})
	if len(parts) != 1 || parts[0].Text != "still here" {
		t.Errorf("parts = %+v, want only the text part", parts)
	}
}
