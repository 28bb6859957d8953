package codeindex

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return writeFile(t, t.TempDir(), name, string(data))
}

func TestCodeToTree_SingleFile(t *testing.T) {
	path := copyFixture(t, "sample_cpp.cpp")

	result, err := CodeToTree(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "sample_cpp", result.DocName)
	assert.Empty(t, result.DocDescription)
	require.Len(t, result.Structure, 1)

	var ids, titles []string
	for _, n := range Flatten(result.Structure) {
		ids = append(ids, n.NodeID)
		titles = append(titles, n.Title)
		assert.Empty(t, n.Text, "text should be stripped from %s", n.Title)
	}
	assert.Equal(t, []string{"0000", "0001", "0002", "0003", "0004", "0005", "0006", "0007", "0008", "0009"}, ids)
	assert.Equal(t, []string{
		"sample_cpp.cpp", "Imports", "#include <iostream>", "#include <vector>", "#include <string>",
		"MyLib", "Calculator", "add()", "Vector", "main()",
	}, titles)

	importsNode := result.Structure[0].Nodes[0]
	assert.Equal(t, "#include <iostream>\n#include <vector>\n#include <string>", importsNode.Summary)
}

func TestCodeToTree_KeepText(t *testing.T) {
	path := copyFixture(t, "sample_cpp.cpp")
	opts := DefaultOptions()
	opts.AddNodeText = true
	opts.AddNodeID = false

	result, err := CodeToTree(context.Background(), path, opts)
	require.NoError(t, err)

	file := result.Structure[0]
	data, _ := os.ReadFile(path)
	assert.Equal(t, string(data), file.Text)
	assert.Empty(t, file.NodeID)
	assert.Equal(t, "int main() {\n  MyLib::Calculator calc;\n  std::cout << calc.add(1, 2) << std::endl;\n  return 0;\n}", file.Nodes[2].Text)
}

func TestCodeToTree_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := CodeToTree(context.Background(), filepath.Join(dir, "missing.py"), DefaultOptions())
	assert.True(t, errors.Is(err, ErrPathNotFound), "got %v", err)

	txt := writeFile(t, dir, "notes.txt", "hello")
	_, err = CodeToTree(context.Background(), txt, DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnsupportedExtension), "got %v", err)

	py := writeFile(t, dir, "a.py", "x = 1\n")
	opts := DefaultOptions()
	opts.AddNodeSummary = true
	_, err = CodeToTree(context.Background(), py, opts)
	assert.Error(t, err)
}

func TestCodeToTree_Directory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	writeFile(t, root, "a.py", "def a():\n    pass\n")
	writeFile(t, root, "sub/B.java", "class B {}\n")
	writeFile(t, root, "sub/deeper/readme.txt", "no code here")
	writeFile(t, root, "docs/notes.md", "# notes")
	writeFile(t, root, ".hidden/c.py", "def c(): pass\n")
	writeFile(t, root, "node_modules/d.py", "def d(): pass\n")
	writeFile(t, root, "build/e.py", "def e(): pass\n")

	result, err := CodeToTree(context.Background(), root, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "project", result.DocName)

	want := []*Node{
		{
			Title: "project", Type: NodeDirectory, NodeID: "0000",
			Nodes: []*Node{
				{
					Title: "sub", Type: NodeDirectory, NodeID: "0001",
					Nodes: []*Node{
						{
							Title: "B.java", Type: NodeFile, NodeID: "0002", StartLine: 1, EndLine: 1,
							Nodes: []*Node{
								{Title: "B", Type: NodeClass, NodeID: "0003", StartLine: 1, EndLine: 1},
							},
						},
					},
				},
				{
					Title: "a.py", Type: NodeFile, NodeID: "0004", StartLine: 1, EndLine: 2,
					Nodes: []*Node{
						{Title: "a()", Type: NodeFunction, NodeID: "0005", Signature: "def a()", StartLine: 1, EndLine: 2},
					},
				},
			},
		},
	}
	requireTree(t, want, result.Structure)
}

func TestCodeToTree_NonUTF8FileSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.py", string([]byte{0xff, 0xfe, 0x00}))
	writeFile(t, root, "good.py", "def ok():\n    return 1\n")

	result, err := CodeToTree(context.Background(), root, DefaultOptions())
	require.NoError(t, err)

	files := result.Structure[0].Nodes
	require.Len(t, files, 1)
	assert.Equal(t, "good.py", files[0].Title)
}

func TestCodeToTree_JSONShape(t *testing.T) {
	path := copyFixture(t, "sample_cpp.cpp")
	result, err := CodeToTree(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, `{"doc_name":"sample_cpp","structure":[{"title":"sample_cpp.cpp","node_id":"0000","type":"file","start_line":1,"end_line":22,"nodes":[`), out)
	assert.NotContains(t, out, `"path"`)
	assert.NotContains(t, out, `"text"`)
	assert.NotContains(t, out, `"doc_description"`)
	assert.Contains(t, out, `{"title":"add()","node_id":"0007","type":"method","signature":"int add(int a, int b)","start_line":9,"end_line":9}`)
}

type recordingAnnotator struct {
	mu       sync.Mutex
	textSeen map[string]string
}

func (r *recordingAnnotator) Annotate(_ context.Context, root *Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textSeen = make(map[string]string)
	Walk(root, func(n, _ *Node) bool {
		r.textSeen[n.Title] = n.Text
		if len(n.Nodes) > 0 {
			n.PrefixSummary = "prefix " + n.Title
		} else {
			n.Summary = "summary " + n.Title
		}
		return true
	})
	return nil
}

func (r *recordingAnnotator) Describe(_ context.Context, structure []*Node) (string, error) {
	return "describes " + structure[0].Title, nil
}

func TestCodeToTree_WithAnnotator(t *testing.T) {
	path := copyFixture(t, "sample_cpp.cpp")
	ann := &recordingAnnotator{}
	opts := DefaultOptions()
	opts.AddNodeSummary = true
	opts.AddDocDescription = true
	opts.Annotator = ann

	result, err := CodeToTree(context.Background(), path, opts)
	require.NoError(t, err)

	assert.Equal(t, "describes sample_cpp.cpp", result.DocDescription)
	// summaries are computed while the text is still present
	assert.Equal(t, "struct Vector {\n  float x, y, z;\n};", ann.textSeen["Vector"])

	file := result.Structure[0]
	assert.Equal(t, "prefix sample_cpp.cpp", file.PrefixSummary)
	assert.Equal(t, "summary main()", file.Nodes[2].Summary)
	// imports keep their text as summary regardless of the annotator
	assert.Equal(t, "#include <iostream>\n#include <vector>\n#include <string>", file.Nodes[0].Summary)
}

func TestCodeToTree_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/a.py", "def a(): pass\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CodeToTree(ctx, root, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
