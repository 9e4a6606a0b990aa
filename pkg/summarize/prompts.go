package summarize

const instructions = `
Objective:
Create a summarized version of the given code file that includes only the types, interfaces, and function definitions that are exported (visible outside the file/module). Include explanatory comments for each exported function and type.

**Instructions:**

Exclude:
- All import statements.
- All function bodies.
- Any type, interface, or function that is not exported (i.e., starts with a lowercase letter in Go or is prefixed with an underscore in Python).

Include:
- Full definitions of any exported types and data structures.
- Exported function definitions without bodies.
- Concise explanatory comments for each exported function and type.

**Comments:**
- Write a comment at the top summarizing the file's purpose.
- Explain each function's purpose, and briefly inputs and outputs.
`

const exampleSource = `
package ast

import (
	"bufio"
	"io"
)

type prefs struct {
	reader NamedReader
}

type NamedReader interface {
	Read(buff []byte) (n int, err error)
}

type Opt func(prefs) (prefs, error)

func WithSourceMap() Opt {
	return func(p prefs) (prefs, error) {
		return p, nil
	}
}

func FromPath(path string) (prefs, error) {
	var p prefs
	f, err := os.Open(path)
	if err != nil {
		return p, err
	}
	p.reader = f
	return p, nil
}
`

const exampleSummary = `
package ast

// Parses configurations for a version parser. Defines options (` + "`Opt`" + ` and ` + "`FromOpt`" + `) to customize parsing behavior, such as enabling a source map or specifying the data source. Contains ` + "`prefs`" + ` structure for configurations and ` + "`NamedReader`" + ` interface for reading sources.

// holds parsing configuration settings.
type prefs struct {
	reader NamedReader // data source
}

// an io.Reader with additional methods.
type NamedReader interface {
	Read(buff []byte) (n int, err error)
}

// for modifying parsing preferences.
type Opt func(prefs) (prefs, error)

// source mapping in preferences.
func WithSourceMap() Opt { ... }

// tell parser to read from a file path.
func FromPath(path string) (prefs, error) { ... }
`
