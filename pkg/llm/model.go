package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned by backends whose response carries no text.
var ErrEmptyCompletion = errors.New("backend returned an empty completion")

// CompletionRequest is everything a backend needs to produce one completion.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Backend produces completions for a transcript.
type Backend interface {
	// Complete blocks until the backend answers or fails.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider name.
	Name() string
}

// ResponseCache stores completions by fingerprint. Implementations must be
// safe for concurrent use.
type ResponseCache interface {
	Get(ctx context.Context, fingerprint string) (completion string, ok bool, err error)
	Put(ctx context.Context, fingerprint, completion string) error
}

// GenerateOptions tune a single Generate call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// DefaultMaxTokens caps completions when GenerateOptions leaves MaxTokens unset.
const DefaultMaxTokens = 300

// Model binds a model identifier to a backend and an optional response cache.
type Model struct {
	id      string
	backend Backend
	cache   ResponseCache
	logger  *zap.Logger
}

// NewModel creates a Model. A nil cache disables caching.
func NewModel(id string, backend Backend, cache ResponseCache, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		id:      id,
		backend: backend,
		cache:   cache,
		logger:  logger.With(zap.String("model", id)),
	}
}

// ID returns the model identifier.
func (m *Model) ID() string {
	return m.id
}

// Generate requests a completion for t and appends the reply to t as an
// assistant message.
//
// Only zero-temperature requests are deterministic, so only they are looked
// up in and written to the cache.
func (m *Model) Generate(ctx context.Context, t *Transcript, opts GenerateOptions) (string, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	messages := t.Messages()
	cacheable := opts.Temperature == 0 && m.cache != nil

	var key string
	if cacheable {
		key = Fingerprint(m.id, messages)
		cached, ok, err := m.cache.Get(ctx, key)
		if err != nil {
			m.logger.Error("Failed to read response cache", zap.String("fingerprint", key), zap.Error(err))
			return "", fmt.Errorf("failed to read response cache: %w", err)
		}
		if ok {
			m.logger.Debug("Response cache hit", zap.String("fingerprint", key))
			t.Add(RoleAssistant, cached)
			return cached, nil
		}
		m.logger.Debug("Response cache miss", zap.String("fingerprint", key))
	}

	m.logger.Debug("Requesting completion",
		zap.String("backend", m.backend.Name()),
		zap.Int("messages", len(messages)),
		zap.Int("maxTokens", opts.MaxTokens),
		zap.Float64("temperature", opts.Temperature))

	reply, err := m.backend.Complete(ctx, CompletionRequest{
		Model:       m.id,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", m.backend.Name(), err)
	}
	t.Add(RoleAssistant, reply)

	if cacheable {
		if err := m.cache.Put(ctx, key, reply); err != nil {
			m.logger.Error("Failed to write response cache", zap.String("fingerprint", key), zap.Error(err))
			return "", fmt.Errorf("failed to write response cache: %w", err)
		}
	}
	return reply, nil
}
