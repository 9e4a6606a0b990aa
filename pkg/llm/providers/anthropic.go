package providers

import (
	"context"
	"strings"

	"filestoprompt/pkg/llm"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic completes transcripts with the Messages API. System messages are
// sent through the dedicated system parameter.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic creates an Anthropic backend.
func NewAnthropic(cfg Config) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...)}
}

// Name returns the provider name.
func (p *Anthropic) Name() string {
	return ProviderAnthropic
}

// Complete implements llm.Backend.
func (p *Anthropic) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	system, turns := splitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    convertAnthropicMessages(turns),
	}
	for _, s := range system {
		params.System = append(params.System, anthropic.TextBlockParam{Text: s})
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", llm.ErrEmptyCompletion
	}
	return text.String(), nil
}

func convertAnthropicMessages(turns []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == llm.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}
