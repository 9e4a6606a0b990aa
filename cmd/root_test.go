package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"filestoprompt/pkg/cache"
	"filestoprompt/pkg/llm/providers"
	"filestoprompt/pkg/version"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longFile = `package shapes

// Area returns the area of a rectangle with the given width and height.
func Area(width, height float64) float64 {
	return width * height
}

func Perimeter(w, h float64) float64 {
	return 2 * (w + h)
}
`

// resetFlags restores every flag to its default so runs do not leak into
// each other through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "FILES_TO_PROMPT_PROVIDER", "FILES_TO_PROMPT_CACHE_DIR"} {
		t.Setenv(name, "")
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(RootCmd)
	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	err := Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionShort(t *testing.T) {
	isolate(t)
	stdout, _, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)

	stdout, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "files-to-prompt version "), stdout)
}

func TestNoSummary(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.go")
	require.NoError(t, os.WriteFile(path, []byte(longFile), 0o644))

	stdout, _, err := execute(t, "--no-summary", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n---\n"+longFile+"\n\n---\n", stdout)
}

func TestMissingAPIKey(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, _, err := execute(t, "--cache-dir", t.TempDir(), dir)
	require.ErrorIs(t, err, providers.ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "--no-summary")
}

func TestMissingPath(t *testing.T) {
	isolate(t)
	missing := filepath.Join(t.TempDir(), "nope")

	_, _, err := execute(t, "--no-summary", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path does not exist: "+missing)
}

func TestSummarizeThroughOpenAIWithCache(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4-turbo",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "CONDENSED"}}]
		}`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cacheDir := t.TempDir()
	path := filepath.Join(dir, "shapes.go")
	short := filepath.Join(dir, "tiny.go")
	require.NoError(t, os.WriteFile(path, []byte(longFile), 0o644))
	require.NoError(t, os.WriteFile(short, []byte("package tiny\n"), 0o644))

	want := path + "\n---\nCONDENSED\n\n---\n" + short + "\n---\npackage tiny\n\n\n---\n"
	for i := 0; i < 2; i++ {
		stdout, _, err := execute(t, "--base-url", srv.URL+"/", "--cache-dir", cacheDir, dir)
		require.NoError(t, err)
		assert.Equal(t, want, stdout)
	}
	assert.Equal(t, int32(1), hits.Load())

	stdout, _, err := execute(t, "cache", "stats", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "entries: 1\n")

	stdout, _, err = execute(t, "cache", "clear", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, "cleared 1 entries\n", stdout)

	_, _, err = execute(t, "--base-url", srv.URL+"/", "--cache-dir", cacheDir, dir)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachePath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	stdout, _, err := execute(t, "cache", "path", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, cache.DBFileName)+"\n", stdout)
}
