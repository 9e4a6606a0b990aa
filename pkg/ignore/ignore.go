package ignore

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FileName is the ignore file read from every walked directory.
const FileName = ".gitignore"

// IgnorePattern encapsulates a compiled regular expression pattern,
// a negation flag, and metadata about the pattern's origin.
type IgnorePattern struct {
	Pattern *regexp.Regexp // Matches the path, with an optional sub-path group.
	Negate  bool           // Indicates if the pattern is a negation (starts with '!').
	DirOnly bool           // Pattern ended in '/' and only matches directories.
	Line    string         // Original pattern line.
	LineNo  int            // Line number in the source (1-based).
}

// GitIgnore holds the patterns of one ignore file, matched relative to the
// directory that contains it.
type GitIgnore struct {
	Base     string           // Absolute directory the patterns are relative to.
	Patterns []*IgnorePattern // Compiled patterns in file order.
	logger   *zap.Logger
}

// NewGitIgnore creates an empty GitIgnore rooted at base.
func NewGitIgnore(base string, logger *zap.Logger) *GitIgnore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return &GitIgnore{
		Base:     base,
		Patterns: []*IgnorePattern{},
		logger:   logger,
	}
}

// Load reads dir/.gitignore. A missing file yields an empty GitIgnore.
func Load(dir string, logger *zap.Logger) (*GitIgnore, error) {
	gi := NewGitIgnore(dir, logger)
	if err := gi.CompileIgnoreFile(filepath.Join(gi.Base, FileName)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return gi, nil
}

// CompileIgnoreLines compiles a set of ignore pattern lines and adds them to the GitIgnore instance.
func (gi *GitIgnore) CompileIgnoreLines(lines ...string) {
	for i, line := range lines {
		pattern, ok := parsePatternLine(line)
		if !ok {
			continue
		}
		pattern.Line = line
		pattern.LineNo = i + 1
		gi.Patterns = append(gi.Patterns, pattern)
	}
}

// CompileIgnoreFile reads an ignore file, parses its lines, and adds them to the GitIgnore instance.
func (gi *GitIgnore) CompileIgnoreFile(fpath string) error {
	content, err := os.ReadFile(fpath)
	if err != nil {
		if !os.IsNotExist(err) {
			gi.logger.Error("Failed to read ignore file", zap.String("filePath", fpath), zap.Error(err))
		}
		return err
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	gi.CompileIgnoreLines(lines...)
	gi.logger.Debug("Compiled ignore patterns", zap.String("filePath", fpath), zap.Int("patternCount", len(gi.Patterns)))
	return nil
}

// MatchesPath checks if an absolute path matches any of the ignore patterns.
func (gi *GitIgnore) MatchesPath(path string, isDir bool) bool {
	matches, _ := gi.MatchesPathWithPattern(path, isDir)
	return matches
}

// MatchesPathWithPattern reports whether path is ignored and which pattern
// decided it. The last matching pattern wins, so negations re-include.
func (gi *GitIgnore) MatchesPathWithPattern(path string, isDir bool) (bool, *IgnorePattern) {
	rel, ok := gi.relative(path)
	if !ok {
		return false, nil
	}

	var matchedPattern *IgnorePattern
	matches := false
	for _, pattern := range gi.Patterns {
		if pattern.matches(rel, isDir) {
			matchedPattern = pattern
			matches = !pattern.Negate
		}
	}
	return matches, matchedPattern
}

// relative returns path relative to the GitIgnore base, in slash form.
func (gi *GitIgnore) relative(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(gi.Base, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return normalizePath(rel), true
}

func (p *IgnorePattern) matches(rel string, isDir bool) bool {
	m := p.Pattern.FindStringSubmatch(rel)
	if m == nil {
		return false
	}
	// A non-empty sub-path means rel lies inside a matched directory.
	if p.DirOnly && m[1] == "" && !isDir {
		return false
	}
	return true
}

// Rules is a stack of ignore files from the outermost directory inwards.
type Rules []*GitIgnore

// With returns a new stack with gi appended; r itself is left untouched.
func (r Rules) With(gi *GitIgnore) Rules {
	if gi == nil || len(gi.Patterns) == 0 {
		return r
	}
	out := make(Rules, len(r), len(r)+1)
	copy(out, r)
	return append(out, gi)
}

// MatchesPath applies every ignore file in order; deeper files override
// shallower ones.
func (r Rules) MatchesPath(path string, isDir bool) bool {
	ignored := false
	for _, gi := range r {
		if matched, pattern := gi.MatchesPathWithPattern(path, isDir); pattern != nil {
			ignored = matched
		}
	}
	return ignored
}

// normalizePath converts OS-specific path separators to forward slashes.
func normalizePath(path string) string {
	return filepath.ToSlash(path)
}
