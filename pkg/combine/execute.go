package combine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Run collects the files under args.Paths, passes each through s and writes
// the framed result to args.Output or args.Stdout.
func Run(ctx context.Context, args Arguments, s Summarizer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if args.Stdout == nil {
		args.Stdout = os.Stdout
	}
	if args.Stderr == nil {
		args.Stderr = os.Stderr
	}

	startTime := time.Now()
	logger.Debug("Starting combine process", zap.Strings("paths", args.Paths))

	collected, err := CollectFiles(args, logger)
	if err != nil {
		logger.Error("Failed to collect files", zap.Error(err))
		return err
	}

	out := args.Stdout
	if args.Output != "" {
		f, err := createOutput(args.Output, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Error("Failed to close output file", zap.String("file", args.Output), zap.Error(err))
			}
		}()
		out = f
	}
	writer := bufio.NewWriter(out)

	if args.Tree {
		if _, err := writer.WriteString(GenerateTree(collected) + "\n"); err != nil {
			return fmt.Errorf("failed to write tree content: %w", err)
		}
	}

	written := 0
	emit := func(content FileContent) error {
		if content.Skipped != nil {
			writeSkipWarning(args.Stderr, content)
			return nil
		}
		if err := writeFileContent(writer, content); err != nil {
			return fmt.Errorf("failed to write content: %w", err)
		}
		written++
		return writer.Flush()
	}

	files := collected.All()
	if err := ProcessFilesConcurrently(ctx, files, args.MaxWorkers, s, emit, logger); err != nil {
		logger.Error("Failed to process files", zap.Error(err))
		return fmt.Errorf("failed to process files: %w", err)
	}

	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output", zap.Error(err))
		return fmt.Errorf("failed to flush output: %w", err)
	}

	logger.Info("Successfully combined files",
		zap.Int("discoveredFiles", len(files)),
		zap.Int("writtenFiles", written),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return nil
}

// createOutput creates the output file and any missing parent directories.
func createOutput(path string, logger *zap.Logger) (io.WriteCloser, error) {
	if err := ensureDirectory(filepath.Dir(path), logger); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", path), zap.Error(err))
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	logger.Debug("Writing combined content to output file", zap.String("file", path))
	return f, nil
}
