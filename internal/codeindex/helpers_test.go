package codeindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// shape ignores source text and paths so trees can be compared structurally.
var shape = cmpopts.IgnoreFields(Node{}, "Text", "Path")

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func parseWith(t *testing.T, p CodeParser, name, content string) []*Node {
	t.Helper()
	nodes, err := p.Parse(name, []byte(content))
	require.NoError(t, err)
	return nodes
}

func requireTree(t *testing.T, want, got []*Node) {
	t.Helper()
	if diff := cmp.Diff(want, got, shape); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func imports(lines ...any) *Node {
	group := &Node{Title: "Imports", Type: NodeImports}
	for i := 0; i < len(lines); i += 2 {
		line := lines[i+1].(int)
		group.Nodes = append(group.Nodes, &Node{Title: lines[i].(string), Type: NodeImport, StartLine: line, EndLine: line})
	}
	group.StartLine = group.Nodes[0].StartLine
	group.EndLine = group.Nodes[len(group.Nodes)-1].EndLine
	return group
}
