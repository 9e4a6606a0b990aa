package combine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// writeFileContent writes one file section: the path, a delimiter line, the
// content, a blank line and a closing delimiter.
func writeFileContent(w io.Writer, content FileContent) error {
	_, err := fmt.Fprintf(w, "%s\n---\n%s\n\n---\n", content.Path, content.Content)
	return err
}

// writeSkipWarning reports a file that was left out of the output.
func writeSkipWarning(w io.Writer, content FileContent) {
	if errors.Is(content.Skipped, ErrNotText) {
		fmt.Fprintf(w, "Warning: Skipping file %s due to %v\n", content.Path, ErrNotText)
		return
	}
	fmt.Fprintf(w, "Warning: Skipping file %s: %v\n", content.Path, content.Skipped)
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Ensured directory exists", zap.String("path", path))
	return nil
}
