package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/entrepeneur4lyf/mak/internal/chat"
	"github.com/entrepeneur4lyf/mak/internal/llm"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// SystemInstruction directs the model to answer in markdown, to precede the
// visible answer with a private reasoning block, and to handle audio input
// with a transcription/translation response.
const SystemInstruction = "You are a helpful and friendly AI assistant named MAK. " +
	"Format your responses using markdown. Before you provide the final answer, " +
	"first think step-by-step about the user's query inside a `<thinking>...</thinking>` block. " +
	"This thinking process should be brief and not part of the final answer itself. " +
	"If the user provides an audio file, your task is to analyze it, detect the language, " +
	"and provide a response that includes both a transcription in the original language " +
	"and a translation in English. Format this clearly, for example: " +
	"\n\n**Detected Language:** [Language]\n\n**Transcription:**\n[Transcription]\n\n**English Translation:**\n[Translation]"

// GeminiProvider implements llm.ChatProvider using the official Google SDK.
type GeminiProvider struct {
	apiKey string
	model  string
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider. The client is created lazily
// on the first OpenSession so key errors surface as initialization errors.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiProvider{apiKey: apiKey, model: model}
}

// OpenSession establishes a conversation seeded with a transcript prefix.
func (p *GeminiProvider) OpenSession(ctx context.Context, history []chat.Message) (llm.ChatHandle, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", chat.ErrInitialization)
	}
	if p.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create Gemini client: %v", chat.ErrInitialization, err)
		}
		p.client = client
	}

	return &geminiSession{
		client:   p.client,
		model:    p.model,
		contents: sanitizeHistory(history),
	}, nil
}

// geminiSession is one live conversation. It carries the provider-side
// context and appends each completed exchange to it.
type geminiSession struct {
	client   *genai.Client
	model    string
	contents []*genai.Content
}

// SendStream submits one user turn and streams the model's reply.
func (s *geminiSession) SendStream(ctx context.Context, parts []chat.Part) (llm.ApiStream, error) {
	user := &genai.Content{Role: "user", Parts: toGenaiParts(parts)}
	if len(user.Parts) == 0 {
		return nil, fmt.Errorf("%w: no sendable parts", chat.ErrUserInput)
	}

	contents := make([]*genai.Content, 0, len(s.contents)+1)
	contents = append(contents, s.contents...)
	contents = append(contents, user)

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemInstruction}},
		},
	}

	iter := s.client.Models.GenerateContentStream(ctx, s.model, contents, config)

	responseChan := make(chan llm.ApiStreamChunk, 100)
	go func() {
		defer close(responseChan)

		var full strings.Builder
		for result, err := range iter {
			if err != nil {
				responseChan <- llm.ApiStreamErrorChunk{Err: fmt.Errorf("%w: %v", chat.ErrStream, err)}
				return
			}
			if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
				for _, part := range result.Candidates[0].Content.Parts {
					if part.Text != "" {
						full.WriteString(part.Text)
						responseChan <- llm.ApiStreamTextChunk{Text: part.Text}
					}
				}
			}
		}

		// The exchange joins the provider-side context only once the turn
		// completed cleanly, mirroring the rollback semantics upstream.
		s.contents = append(s.contents, user, &genai.Content{
			Role:  "model",
			Parts: []*genai.Part{{Text: full.String()}},
		})
	}()

	return responseChan, nil
}

// sanitizeHistory reduces transcript messages to the minimal provider form:
// role plus text/inline-data parts. Thoughts and empty messages are dropped.
func sanitizeHistory(history []chat.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		parts := toGenaiParts(msg.Parts)
		if len(parts) == 0 {
			continue
		}
		role := "user"
		if msg.Role == chat.RoleModel {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

func toGenaiParts(parts []chat.Part) []*genai.Part {
	var out []*genai.Part
	for _, p := range parts {
		if p.IsText() {
			if p.Text == "" {
				continue
			}
			out = append(out, &genai.Part{Text: p.Text})
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			log.Printf("Warning: dropping inline part with invalid base64 (%s): %v", p.InlineData.MimeType, err)
			continue
		}
		out = append(out, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: p.InlineData.MimeType,
				Data:     data,
			},
		})
	}
	return out
}
