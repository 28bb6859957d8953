package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pageindex/internal/codeindex"
	"pageindex/internal/config"
	"pageindex/internal/logging"
	"pageindex/internal/summary"
)

const samplePython = `import os

class Greeter:
    """Says hello."""

    def greet(self, name):
        return "hello " + name


def add(a, b):
    return a + b
`

func newWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "src", "greet.py"), []byte(samplePython), 0644))
	// keep logs quiet and out of the test output
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.DefaultFileName),
		[]byte("logging:\n  level: error\n"), 0644))
	t.Cleanup(func() { logging.Use(nil, nil) })
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestIndexWritesJSONAndRecordsRun(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "--workspace", ws, "index", "--code-path", "src")
	require.NoError(t, err)

	jsonPath := filepath.Join(ws, "results", "src_code_structure.json")
	assert.Contains(t, out, "Tree structure saved to: "+jsonPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \"doc_name\": \"src\",\n  \"structure\": ["), text)
	assert.Contains(t, text, `"title": "greet()"`)
	assert.Contains(t, text, `"node_id": "0000"`)
	assert.NotContains(t, text, `"text"`)

	assert.FileExists(t, filepath.Join(ws, ".pageindex", "index.db"))

	out, err = execute(t, "--workspace", ws, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "DOC")
	assert.Contains(t, out, filepath.Join(ws, "src"))

	out, err = execute(t, "--workspace", ws, "query", "GREET")
	require.NoError(t, err)
	assert.Contains(t, out, "Greeter")
	assert.Contains(t, out, "greet()")
	assert.Contains(t, out, "greet.py")

	out, err = execute(t, "--workspace", ws, "query", "--type", "function")
	require.NoError(t, err)
	assert.Contains(t, out, "add()")
	assert.NotContains(t, out, "Greeter")

	out, err = execute(t, "--workspace", ws, "query", "nothing_like_this")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching nodes found.")
}

func TestIndexFlagsOverrideConfig(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "--workspace", ws, "index",
		"--code-path", filepath.Join(ws, "src", "greet.py"),
		"--if-add-node-text", "yes",
		"--if-add-node-id", "no",
		"--output-dir", "out",
		"--no-store")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(ws, "out", "greet_code_structure.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "def add(a, b):\n    return a + b"`)
	assert.NotContains(t, string(data), `"node_id"`)
	assert.NoFileExists(t, filepath.Join(ws, ".pageindex", "index.db"))
}

func TestIndexWithSummaries(t *testing.T) {
	ws := newWorkspace(t)

	orig := newGenerator
	t.Cleanup(func() { newGenerator = orig })
	newGenerator = func(context.Context, *config.Config) (summary.Generator, error) {
		return summary.GeneratorFunc(func(context.Context, string) (string, error) {
			return "A greeting module.", nil
		}), nil
	}

	_, err := execute(t, "--workspace", ws, "index", "--code-path", "src",
		"--if-add-node-summary", "yes", "--if-add-doc-description", "yes", "--no-store")
	require.NoError(t, err)

	result, err := readResult(filepath.Join(ws, "results", "src_code_structure.json"))
	require.NoError(t, err)
	assert.Equal(t, "A greeting module.", result.DocDescription)

	file := result.Structure[0].Nodes[0]
	require.Equal(t, "greet.py", file.Title)
	assert.Equal(t, "import os", file.Nodes[0].Summary)
	assert.Equal(t, "Says hello.", file.Nodes[1].PrefixSummary)
}

func TestIndexErrors(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "--workspace", ws, "index")
	assert.Error(t, err, "--code-path is required")

	_, err = execute(t, "--workspace", ws, "index", "--code-path", "missing")
	assert.True(t, errors.Is(err, codeindex.ErrPathNotFound), "got %v", err)

	require.NoError(t, os.WriteFile(filepath.Join(ws, "notes.txt"), []byte("x"), 0644))
	_, err = execute(t, "--workspace", ws, "index", "--code-path", "notes.txt")
	assert.True(t, errors.Is(err, codeindex.ErrUnsupportedExtension), "got %v", err)

	_, err = execute(t, "--workspace", ws, "index", "--code-path", "src", "--if-thinning", "maybe")
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "--workspace", ws, "index", "--code-path", "src", "--no-store")
	require.NoError(t, err)

	out, err := execute(t, "--workspace", ws, "show", "--plain", "results/src_code_structure.json")
	require.NoError(t, err)
	assert.Contains(t, out, "- [directory] src #0000\n")
	assert.Contains(t, out, "  - [file] greet.py L1-11 #0001\n")
	assert.Contains(t, out, "      - [method] greet() L6-7 #0005\n")

	out, err = execute(t, "--workspace", ws, "show", "--plain", "--markdown", "results/src_code_structure.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# src\n"), out)
	assert.Contains(t, out, "**Greeter** _class_ `L3-7`")

	out, err = execute(t, "--workspace", ws, "show", "--markdown", "--style", "notty", "results/src_code_structure.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Greeter")

	_, err = execute(t, "--workspace", ws, "show")
	assert.Error(t, err)
}

func TestShowStoredRun(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "--workspace", ws, "index", "--code-path", "src")
	require.NoError(t, err)

	out, err := execute(t, "--workspace", ws, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	runID := strings.Fields(lines[1])[0]

	out, err = execute(t, "--workspace", ws, "show", "--plain", "--run", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "[class] Greeter")

	_, err = execute(t, "--workspace", ws, "show", "--run", "nope")
	assert.Error(t, err)
}

func TestInitWritesDefaultConfig(t *testing.T) {
	ws := newWorkspace(t)
	path := filepath.Join(ws, config.DefaultFileName)

	_, err := execute(t, "--workspace", ws, "init")
	assert.ErrorContains(t, err, "already exists")

	out, err := execute(t, "--workspace", ws, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Config written to: "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	want := config.DefaultConfig()
	assert.Equal(t, want.Index, loaded.Index)
	assert.Equal(t, want.Store, loaded.Store)
	assert.Equal(t, want.OutputDir, loaded.OutputDir)
	assert.Equal(t, "info", loaded.Logging.Level)
}

func TestHelpListsLanguages(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Supported languages: c, cpp, java, kotlin, python.")
}

func TestRunsEmpty(t *testing.T) {
	ws := newWorkspace(t)
	out, err := execute(t, "--workspace", ws, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatchReindexes(t *testing.T) {
	ws := newWorkspace(t)
	workspace = ws
	logger = zap.NewNop()
	var err error
	cfg, err = config.Load("")
	require.NoError(t, err)
	cfg.Store.Enabled = false
	cfg.Watch.Debounce = "50ms"
	cfg.OutputDir = filepath.Join(t.TempDir(), "results")

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	src := filepath.Join(ws, "src")
	go func() { done <- runWatch(ctx, cmd, src) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching ")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(src, "extra.py"), []byte("def extra():\n    pass\n"), 0644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Re-indexed after")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	result, err := readResult(filepath.Join(cfg.OutputDir, "src_code_structure.json"))
	require.NoError(t, err)
	var titles []string
	for _, n := range result.Structure[0].Nodes {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"extra.py", "greet.py"}, titles)
}
