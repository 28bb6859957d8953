package codeindex

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseSource parses content with a fresh parser for lang. sitter.Parser is
// not safe for concurrent use, so parsers are never shared between calls.
func parseSource(lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return tree, nil
}

// lineRange returns the 1-indexed inclusive line range of n. Trailing
// whitespace inside the node (newline tokens) does not extend the range.
func lineRange(n *sitter.Node, content []byte) (int, int) {
	start := int(n.StartPoint().Row) + 1
	end := int(n.EndByte())
	if end > len(content) {
		end = len(content)
	}
	body := bytes.TrimRight(content[n.StartByte():end], " \t\r\n")
	return start, start + bytes.Count(body, []byte("\n"))
}

func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(content)
}

// fieldText returns the text of a named field, or "".
func fieldText(n *sitter.Node, field string, content []byte) string {
	return nodeText(n.ChildByFieldName(field), content)
}

// collapseSpace joins the fields of s with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// textBefore returns the source from the start of n up to the start of stop,
// with whitespace collapsed. It is used to build declaration signatures.
func textBefore(n, stop *sitter.Node, content []byte) string {
	if stop == nil {
		return collapseSpace(nodeText(n, content))
	}
	return collapseSpace(string(content[n.StartByte():stop.StartByte()]))
}

// newImportsNode groups import statements into one Imports node with one
// import child per statement.
func newImportsNode(stmts []*sitter.Node, content []byte) *Node {
	group := &Node{Title: "Imports", Type: NodeImports}
	for _, stmt := range stmts {
		start, end := lineRange(stmt, content)
		group.Nodes = append(group.Nodes, &Node{
			Title:     collapseSpace(nodeText(stmt, content)),
			Type:      NodeImport,
			StartLine: start,
			EndLine:   end,
		})
	}
	group.StartLine = group.Nodes[0].StartLine
	group.EndLine = group.Nodes[len(group.Nodes)-1].EndLine
	return group
}

// isComment matches the comment node types of all supported grammars.
func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_comment", "block_comment":
		return true
	}
	return false
}
