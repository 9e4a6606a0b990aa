package providers

import (
	"context"

	"filestoprompt/pkg/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI completes transcripts with the Chat Completions API.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(cfg Config) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...)}
}

// Name returns the provider name.
func (p *OpenAI) Name() string {
	return ProviderOpenAI
}

// Complete implements llm.Backend.
func (p *OpenAI) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    convertOpenAIMessages(req.Messages),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func convertOpenAIMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			assistantMsg := openai.ChatCompletionAssistantMessageParam{
				Role: "assistant",
			}
			assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: openai.String(m.Content),
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMsg})
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
