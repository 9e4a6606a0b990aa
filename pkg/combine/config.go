// Package combine walks input paths and writes every text file, optionally
// condensed, into a single prompt stream.
package combine

import (
	"context"
	"io"
)

// Arguments holds the configuration options for the file combining process.
type Arguments struct {
	Paths           []string  // List of file or directory paths to be processed.
	IncludeHidden   bool      // Include files and directories whose names start with '.'.
	IgnoreGitignore bool      // Do not read .gitignore files.
	IgnorePatterns  []string  // Glob patterns matched against file base names.
	Output          string    // Destination file; empty writes to Stdout.
	Tree            bool      // Prefix the output with a tree of the discovered files.
	MaxWorkers      int       // Number of concurrent workers; values below 1 mean one.
	Stdout          io.Writer // Output stream when Output is empty.
	Stderr          io.Writer // Receives skip warnings.
}

// Summarizer turns a file's text into what is emitted for it.
type Summarizer interface {
	Summarize(ctx context.Context, contents string) (string, error)
}

// FileContent represents the structured content of a single file.
type FileContent struct {
	Path    string // Path as discovered, relative to the input argument.
	Content string // Summarized or verbatim text.
	Skipped error  // Non-nil when the file was not emitted.
}

// CollectedPath lists the files discovered under one input path.
type CollectedPath struct {
	Root  string
	IsDir bool
	Files []string
}

// CollectedFiles contains the discovered files grouped by input path.
type CollectedFiles []CollectedPath

// All returns every discovered file in discovery order.
func (c CollectedFiles) All() []string {
	var files []string
	for _, p := range c {
		files = append(files, p.Files...)
	}
	return files
}
