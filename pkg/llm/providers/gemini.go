package providers

import (
	"context"
	"fmt"
	"strings"

	"filestoprompt/pkg/llm"

	"google.golang.org/genai"
)

// Gemini completes transcripts with the Gemini API. Assistant turns use the
// "model" role and system messages become the system instruction.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini backend.
func NewGemini(cfg Config) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Name returns the provider name.
func (p *Gemini) Name() string {
	return ProviderGemini
}

// Complete implements llm.Backend.
func (p *Gemini) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	system, turns := splitSystem(req.Messages)

	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     &temperature,
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, convertGeminiContents(turns), config)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", llm.ErrEmptyCompletion
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", llm.ErrEmptyCompletion
	}
	return text.String(), nil
}

func convertGeminiContents(turns []llm.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}
