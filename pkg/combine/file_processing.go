package combine

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ProcessSingleFile reads, decodes and summarizes a single file.
// Unreadable or non-text files come back with Skipped set and a nil error;
// only summarization failures are returned as errors.
func ProcessSingleFile(ctx context.Context, filePath string, s Summarizer, logger *zap.Logger) (FileContent, error) {
	logger.Debug("Processing file", zap.String("filePath", filePath))

	fileBytes, err := os.ReadFile(filePath)
	if err != nil {
		logger.Warn("Failed to read file", zap.String("filePath", filePath), zap.Error(err))
		return FileContent{Path: filePath, Skipped: err}, nil
	}

	text, err := decodeText(fileBytes)
	if err != nil {
		logger.Debug("Skipping non-text file", zap.String("filePath", filePath), zap.Int("sizeBytes", len(fileBytes)))
		return FileContent{Path: filePath, Skipped: err}, nil
	}

	summary, err := s.Summarize(ctx, text)
	if err != nil {
		logger.Error("Failed to summarize file", zap.String("filePath", filePath), zap.Error(err))
		return FileContent{}, fmt.Errorf("%s: %w", filePath, err)
	}

	return FileContent{
		Path:    filePath,
		Content: summary,
	}, nil
}
