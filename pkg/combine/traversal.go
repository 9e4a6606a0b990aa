package combine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"filestoprompt/pkg/ignore"

	"go.uber.org/zap"
)

// ErrPathNotExist is returned for input paths that cannot be found.
var ErrPathNotExist = errors.New("path does not exist")

type collector struct {
	args   Arguments
	names  ignore.NamePatterns
	logger *zap.Logger
	files  []string
}

// CollectFiles validates every input path and then discovers the files under
// each one. Within a directory, files are listed before subdirectories and
// both are visited in name order.
func CollectFiles(args Arguments, logger *zap.Logger) (CollectedFiles, error) {
	names, err := ignore.NewNamePatterns(args.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	infos := make([]fs.FileInfo, len(args.Paths))
	for i, path := range args.Paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrPathNotExist, path)
			}
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}
		infos[i] = info
	}

	logger.Debug("Starting file collection", zap.Int("pathCount", len(args.Paths)))
	var collected CollectedFiles
	for i, path := range args.Paths {
		c := &collector{args: args, names: names, logger: logger}

		var rules ignore.Rules
		if !args.IgnoreGitignore {
			gi, err := ignore.Load(filepath.Dir(path), logger)
			if err != nil {
				return nil, fmt.Errorf("failed to load ignore file: %w", err)
			}
			rules = rules.With(gi)
		}

		if !infos[i].IsDir() {
			collected = append(collected, CollectedPath{Root: path, Files: []string{path}})
			continue
		}

		logger.Debug("Processing directory", zap.String("dir", path))
		if err := c.walkDir(path, rules); err != nil {
			return nil, err
		}
		collected = append(collected, CollectedPath{Root: path, IsDir: true, Files: c.files})
	}

	logger.Debug("Completed file collection", zap.Int("files", len(collected.All())))
	return collected, nil
}

func (c *collector) walkDir(dir string, rules ignore.Rules) error {
	if !c.args.IgnoreGitignore {
		gi, err := ignore.Load(dir, c.logger)
		if err != nil {
			return fmt.Errorf("failed to load ignore file: %w", err)
		}
		rules = rules.With(gi)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Warn("Failed to read directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		path := joinPath(dir, name)

		if !c.args.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				c.logger.Warn("Skipping broken symlink", zap.String("path", path), zap.Error(err))
				continue
			}
			// Symlinked directories are not followed.
			if info.IsDir() {
				continue
			}
		}

		if rules.MatchesPath(path, isDir) {
			c.logger.Debug("Skipping ignored path", zap.String("path", path))
			continue
		}

		if isDir {
			subdirs = append(subdirs, path)
			continue
		}
		if c.names.MatchName(name) {
			c.logger.Debug("File matches ignore pattern", zap.String("file", path))
			continue
		}
		c.files = append(c.files, path)
	}

	for _, sub := range subdirs {
		if err := c.walkDir(sub, rules); err != nil {
			return err
		}
	}
	return nil
}

// joinPath appends name to dir without cleaning dir, so discovered paths keep
// the spelling of the input argument.
func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}
