package combine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type upperSummarizer struct {
	calls atomic.Int32
}

func (u *upperSummarizer) Summarize(_ context.Context, contents string) (string, error) {
	u.calls.Add(1)
	return strings.ToUpper(contents), nil
}

type failingSummarizer struct{ err error }

func (f failingSummarizer) Summarize(context.Context, string) (string, error) {
	return "", f.err
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func run(t *testing.T, args Arguments, s Summarizer) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args.Stdout = &stdout
	args.Stderr = &stderr
	err := Run(context.Background(), args, s, zap.NewNop())
	return stdout.String(), stderr.String(), err
}

func TestCollectFilesOrder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b.txt":       "b",
		"a.txt":       "a",
		"sub/c.txt":   "c",
		"sub/z/d.txt": "d",
		"aaa/e.txt":   "e",
	})

	collected, err := CollectFiles(Arguments{Paths: []string{root}}, zap.NewNop())
	require.NoError(t, err)

	want := []string{"a.txt", "b.txt", "aaa/e.txt", "sub/c.txt", "sub/z/d.txt"}
	for i := range want {
		want[i] = filepath.Join(root, filepath.FromSlash(want[i]))
	}
	assert.Equal(t, want, collected.All())
	require.Len(t, collected, 1)
	assert.True(t, collected[0].IsDir)
}

func TestCollectFilesHidden(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".env":          "secret",
		".git/config":   "cfg",
		"visible.txt":   "v",
		"dir/.hidden.x": "h",
	})

	collected, err := CollectFiles(Arguments{Paths: []string{root}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "visible.txt")}, collected.All())

	collected, err = CollectFiles(Arguments{Paths: []string{root}, IncludeHidden: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, collected.All(), 4)
}

func TestCollectFilesGitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"proj/.gitignore":      "*.log\nbuild/\n",
		"proj/main.go":         "package main",
		"proj/debug.log":       "log",
		"proj/build/out.go":    "package out",
		"proj/pkg/.gitignore":  "gen.go\n",
		"proj/pkg/gen.go":      "package pkg",
		"proj/pkg/lib.go":      "package pkg",
		"proj/other/gen.go":    "package other",
		"proj/other/trace.log": "log",
	})
	proj := filepath.Join(root, "proj")

	collected, err := CollectFiles(Arguments{Paths: []string{proj}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(proj, "main.go"),
		filepath.Join(proj, "other", "gen.go"),
		filepath.Join(proj, "pkg", "lib.go"),
	}, collected.All())

	collected, err = CollectFiles(Arguments{Paths: []string{proj}, IgnoreGitignore: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, collected.All(), 7)
}

func TestCollectFilesParentGitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":    "*.tmp\n",
		"src/a.go":      "package a",
		"src/cache.tmp": "x",
	})

	collected, err := CollectFiles(Arguments{Paths: []string{filepath.Join(root, "src")}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src", "a.go")}, collected.All())
}

func TestCollectFilesIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"README.md":    "readme",
		"main.go":      "package main",
		"docs/doc.md":  "doc",
		"docs/main.go": "package docs",
	})

	collected, err := CollectFiles(Arguments{Paths: []string{root}, IgnorePatterns: []string{"*.md"}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "main.go"),
		filepath.Join(root, "docs", "main.go"),
	}, collected.All())

	_, err = CollectFiles(Arguments{Paths: []string{root}, IgnorePatterns: []string{"[bad"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestCollectFilesMissingPath(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a"})
	missing := filepath.Join(root, "nope")

	_, err := CollectFiles(Arguments{Paths: []string{root, missing}}, zap.NewNop())
	require.ErrorIs(t, err, ErrPathNotExist)
	assert.Equal(t, "path does not exist: "+missing, err.Error())
}

func TestCollectFilesKeepsArgumentSpelling(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"sub/a.txt": "a"})

	arg := root + string(filepath.Separator) + "."
	collected, err := CollectFiles(Arguments{Paths: []string{arg}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{arg + string(filepath.Separator) + "sub" + string(filepath.Separator) + "a.txt"}, collected.All())
}

func TestRunFraming(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"one.txt": "first file",
		"two.txt": "second\nfile",
	})
	one := filepath.Join(root, "one.txt")
	two := filepath.Join(root, "two.txt")

	stdout, stderr, err := run(t, Arguments{Paths: []string{root}}, &upperSummarizer{})
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t,
		one+"\n---\nFIRST FILE\n\n---\n"+two+"\n---\nSECOND\nFILE\n\n---\n",
		stdout)
}

func TestRunSingleFileArgument(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"f.go": "package f\r\n"})
	path := filepath.Join(root, "f.go")

	stdout, _, err := run(t, Arguments{Paths: []string{path}}, &upperSummarizer{})
	require.NoError(t, err)
	assert.Equal(t, path+"\n---\nPACKAGE F\n\n\n---\n", stdout)
}

func TestRunSkipsNonText(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"bad.bin":  "\xff\xfe\xfd",
		"nul.dat":  "abc\x00def",
		"good.txt": "fine",
	})
	s := &upperSummarizer{}

	stdout, stderr, err := run(t, Arguments{Paths: []string{root}}, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "good.txt")+"\n---\nFINE\n\n---\n", stdout)
	assert.Contains(t, stderr, "Warning: Skipping file "+filepath.Join(root, "bad.bin")+" due to invalid UTF-8 content\n")
	assert.Contains(t, stderr, "Warning: Skipping file "+filepath.Join(root, "nul.dat")+" due to invalid UTF-8 content\n")
	assert.Equal(t, int32(1), s.calls.Load())
}

func TestRunSummarizerFailure(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a", "b.txt": "b"})
	boom := errors.New("backend down")

	stdout, _, err := run(t, Arguments{Paths: []string{root}}, failingSummarizer{err: boom})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, stdout)
}

func TestRunOutputFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"in/a.txt": "alpha"})
	output := filepath.Join(root, "out", "nested", "prompt.txt")

	stdout, _, err := run(t, Arguments{Paths: []string{filepath.Join(root, "in")}, Output: output}, &upperSummarizer{})
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "in", "a.txt")+"\n---\nALPHA\n\n---\n", string(data))
}

func TestRunTree(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"z.txt":     "z",
		"a/b.txt":   "b",
		"a/c/d.txt": "d",
	})

	stdout, _, err := run(t, Arguments{Paths: []string{root}, Tree: true}, &upperSummarizer{})
	require.NoError(t, err)

	wantTree := filepath.ToSlash(root) + "/\n" +
		"├── a/\n" +
		"│   ├── c/\n" +
		"│   │   └── d.txt\n" +
		"│   └── b.txt\n" +
		"└── z.txt\n\n"
	assert.True(t, strings.HasPrefix(stdout, wantTree), stdout)
}

func TestGenerateTreeFileArgument(t *testing.T) {
	tree := GenerateTree(CollectedFiles{{Root: "main.go", Files: []string{"main.go"}}})
	assert.Equal(t, "main.go\n", tree)
}

func TestRunMissingPath(t *testing.T) {
	_, _, err := run(t, Arguments{Paths: []string{filepath.Join(t.TempDir(), "missing")}}, &upperSummarizer{})
	assert.ErrorIs(t, err, ErrPathNotExist)
}

// slowSummarizer finishes earlier files last so ordering depends on the pool.
type slowSummarizer struct {
	mu    sync.Mutex
	inUse int
	max   int
}

func (s *slowSummarizer) Summarize(_ context.Context, contents string) (string, error) {
	s.mu.Lock()
	s.inUse++
	if s.inUse > s.max {
		s.max = s.inUse
	}
	s.mu.Unlock()

	n := len(contents)
	time.Sleep(time.Duration(20-n) * time.Millisecond)

	s.mu.Lock()
	s.inUse--
	s.mu.Unlock()
	return contents, nil
}

func TestProcessFilesConcurrentlyKeepsOrder(t *testing.T) {
	root := t.TempDir()
	var files []string
	for i := 0; i < 10; i++ {
		name := filepath.Join(root, string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(name, []byte(strings.Repeat("x", i+1)), 0o644))
		files = append(files, name)
	}

	s := &slowSummarizer{}
	var got []string
	err := ProcessFilesConcurrently(context.Background(), files, 4, s, func(c FileContent) error {
		got = append(got, c.Path)
		return nil
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, files, got)
	assert.LessOrEqual(t, s.max, 4)
}

func TestProcessFilesConcurrentlyEmitError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a": "a", "b": "b", "c": "c"})
	files := []string{filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")}
	stop := errors.New("stop")

	emitted := 0
	err := ProcessFilesConcurrently(context.Background(), files, 2, &upperSummarizer{}, func(FileContent) error {
		emitted++
		return stop
	}, zap.NewNop())
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, emitted)
}

func TestProcessFilesConcurrentlyCanceled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ProcessFilesConcurrently(ctx, []string{filepath.Join(root, "a")}, 1, &upperSummarizer{}, func(FileContent) error {
		return nil
	}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeText(t *testing.T) {
	text, err := decodeText([]byte("a\r\nb\rc"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", text)

	_, err = decodeText([]byte{0xc3, 0x28})
	assert.ErrorIs(t, err, ErrNotText)

	text, err = decodeText([]byte("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", text)
}
