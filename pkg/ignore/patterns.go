package ignore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// parsePatternLine processes a line from an ignore file into a compiled pattern.
// It returns false for blank lines, comments and patterns that fail to compile.
func parsePatternLine(line string) (*IgnorePattern, bool) {
	trimmedLine := strings.TrimSpace(line)

	// Ignore empty lines and comments.
	if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
		return nil, false
	}

	// Check for negation.
	negate := false
	if strings.HasPrefix(trimmedLine, "!") {
		negate = true
		trimmedLine = strings.TrimPrefix(trimmedLine, "!")
	}

	// Handle escaped characters for `#` and `!`.
	if strings.HasPrefix(trimmedLine, "\\#") || strings.HasPrefix(trimmedLine, "\\!") {
		trimmedLine = trimmedLine[1:]
	}

	dirOnly := strings.HasSuffix(trimmedLine, "/")
	trimmedLine = strings.TrimSuffix(trimmedLine, "/")

	// A slash anywhere but the end anchors the pattern to the ignore file's directory.
	anchored := strings.Contains(trimmedLine, "/")
	trimmedLine = strings.TrimPrefix(trimmedLine, "/")
	if trimmedLine == "" {
		return nil, false
	}

	compiledRegex, err := regexp.Compile(anchorPattern(wildcardToRegex(trimmedLine), anchored))
	if err != nil {
		return nil, false
	}

	return &IgnorePattern{
		Pattern: compiledRegex,
		Negate:  negate,
		DirOnly: dirOnly,
	}, true
}

// wildcardToRegex converts `**`, `*`, `?` and `[...]` wildcards to regex
// equivalents and escapes everything else.
func wildcardToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString(`(?:.*/)?`)
			i += 2
		case strings.HasPrefix(pattern[i:], "/**") && i+3 == len(pattern):
			b.WriteString(`/.*`)
			i += 2
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(`.*`)
			i++
		case c == '*':
			b.WriteString(`[^/]*`)
		case c == '?':
			b.WriteString(`[^/]`)
		case c == '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		case c == '\\' && i+1 < len(pattern):
			i++
			b.WriteString(regexp.QuoteMeta(string(pattern[i])))
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// anchorPattern anchors the regex to the full relative path. The trailing
// group captures any sub-path, so a matched directory covers its contents.
func anchorPattern(pattern string, anchored bool) string {
	if anchored {
		return "^" + pattern + "(/.*)?$"
	}
	return "^(?:.*/)?" + pattern + "(/.*)?$"
}

// NamePatterns are glob patterns matched against a file's base name, as given
// with --ignore on the command line.
type NamePatterns []string

// NewNamePatterns validates patterns.
func NewNamePatterns(patterns []string) (NamePatterns, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return NamePatterns(patterns), nil
}

// MatchName reports whether name matches any of the patterns.
func (n NamePatterns) MatchName(name string) bool {
	for _, p := range n {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
