// Package summarize decides whether a file is emitted verbatim or replaced by
// an LLM-condensed rendering of its exported API.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"filestoprompt/pkg/llm"

	"go.uber.org/zap"
)

const (
	// DefaultThreshold is the word count at or below which files pass through.
	DefaultThreshold = 30

	// DefaultMaxTokens caps the length of a condensed rendering.
	DefaultMaxTokens = 4096
)

// ErrNilModel is returned by New when summarization is enabled without a model.
var ErrNilModel = errors.New("summarizer requires a model unless disabled")

// Config tunes a Summarizer. Zero values select the defaults.
type Config struct {
	Threshold int  // Files with more words than this are condensed.
	MaxTokens int  // Completion cap for a condensed rendering.
	Disabled  bool // Pass every file through unchanged.
}

// Summarizer condenses long files through an llm.Model.
type Summarizer struct {
	model     *llm.Model
	threshold int
	maxTokens int
	disabled  bool
	logger    *zap.Logger
}

// New creates a Summarizer. model may be nil only when cfg.Disabled is set.
func New(model *llm.Model, cfg Config, logger *zap.Logger) (*Summarizer, error) {
	if model == nil && !cfg.Disabled {
		return nil, ErrNilModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Summarizer{
		model:     model,
		threshold: cfg.Threshold,
		maxTokens: cfg.MaxTokens,
		disabled:  cfg.Disabled,
		logger:    logger,
	}, nil
}

// CountWords returns the number of whitespace-delimited words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ShouldSummarize reports whether contents is long enough to be condensed.
func (s *Summarizer) ShouldSummarize(contents string) bool {
	return !s.disabled && CountWords(contents) > s.threshold
}

// Summarize returns contents unchanged when it is short, otherwise the
// model's condensed rendering, verbatim.
func (s *Summarizer) Summarize(ctx context.Context, contents string) (string, error) {
	if !s.ShouldSummarize(contents) {
		return contents, nil
	}

	t := BuildTranscript(contents)
	s.logger.Debug("Condensing file",
		zap.String("model", s.model.ID()),
		zap.Int("words", CountWords(contents)),
		zap.Int("messages", t.Len()))

	summary, err := s.model.Generate(ctx, t, llm.GenerateOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return "", fmt.Errorf("failed to summarize file: %w", err)
	}
	return summary, nil
}

// BuildTranscript returns the few-shot conversation asking for contents to be
// condensed: instructions, one worked example, then the file itself.
func BuildTranscript(contents string) *llm.Transcript {
	return llm.NewTranscript().
		Add(llm.RoleSystem, instructions).
		Add(llm.RoleUser, exampleSource).
		Add(llm.RoleAssistant, exampleSummary).
		Add(llm.RoleUser, contents)
}
