package codeindex

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"pageindex/internal/logging"
)

// BuildFileTree parses one source file into a file node whose children carry
// their source text. Unreadable or non-UTF-8 files yield (nil, nil); a file
// that fails to parse yields a file node without children.
func (f *ParserFactory) BuildFileTree(path string) (*Node, error) {
	parser := f.GetParser(path)
	if parser == nil {
		return nil, ErrUnsupportedExtension
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logging.Get(logging.CategoryIndex).Warn("skipping unreadable file %s: %v", path, err)
		return nil, nil
	}
	if !utf8.Valid(content) {
		logging.Get(logging.CategoryIndex).Warn("skipping non UTF-8 file %s", path)
		return nil, nil
	}

	start := time.Now()
	nodes, err := f.Parse(path, content)
	if err != nil {
		logging.Get(logging.CategoryIndex).Warn("parse failed for %s: %v", path, err)
		nodes = nil
	}
	logging.IndexDebug("parsed %s (%s) in %v", filepath.Base(path), parser.Language(), time.Since(start))

	lines := strings.Split(string(content), "\n")
	for _, n := range nodes {
		attachText(n, lines)
	}

	return &Node{
		Title:     filepath.Base(path),
		Type:      NodeFile,
		Path:      path,
		StartLine: 1,
		EndLine:   countLines(content),
		Text:      string(content),
		Nodes:     nodes,
	}, nil
}

// attachText sets each node's text to its line range of the file.
func attachText(n *Node, lines []string) {
	start := n.StartLine - 1
	end := min(n.EndLine, len(lines))
	if start >= 0 && start < end {
		n.Text = strings.Join(lines[start:end], "\n")
	}
	for _, child := range n.Nodes {
		attachText(child, lines)
	}
}

// countLines counts lines the way editors number them: a trailing newline
// does not start another line.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
