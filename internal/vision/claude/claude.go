package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/quickcloset/internal/vision"
)

// maxTokens comfortably covers a single "title | category | tags" line.
const maxTokens = 256

type ClaudeSuggester struct {
	client *anthropic.Client
	model  string
}

func NewClaudeSuggester(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeSuggester {
	return &ClaudeSuggester{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// buildMessages constructs the Messages API payload for a vision request.
func buildMessages(imageData []byte, mimeType string) []anthropic.Message {
	return []anthropic.Message{{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				normaliseMIME(mimeType),
				base64.StdEncoding.EncodeToString(imageData),
			)),
			anthropic.NewTextMessageContent(vision.SuggestPrompt),
		},
	}}
}

func (a *ClaudeSuggester) Suggest(ctx context.Context, r io.Reader, mimeType string) (*vision.Suggestion, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(imageData, mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			text.WriteString(c.GetText())
		}
	}

	return vision.ParseResponse(text.String())
}

// normaliseMIME maps MIME types onto the set the Messages API accepts:
// jpeg, png, gif and webp. Anything else is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
