package codeindex

import (
	"fmt"
	"strings"
)

// Thin collapses small class, function and method subtrees: when a node's
// subtree token estimate is below minTokens its children are dropped. The
// node's own text already spans its children, so no source is lost.
// Children are thinned before their parent.
func Thin(n *Node, minTokens int) {
	if len(n.Nodes) == 0 {
		return
	}
	for _, child := range n.Nodes {
		Thin(child, minTokens)
	}

	switch n.Type {
	case NodeClass, NodeFunction, NodeMethod:
	default:
		return
	}
	if SubtreeTokens(n) >= minTokens {
		return
	}

	// keep any child text that falls outside the parent's own text
	merged := n.Text
	for _, child := range n.Nodes {
		if child.Text == "" || strings.Contains(merged, child.Text) {
			continue
		}
		if merged != "" && !strings.HasSuffix(merged, "\n") {
			merged += "\n"
		}
		merged += child.Text
	}
	n.Text = merged
	n.Nodes = nil
}

// CleanEmpty drops empty child lists so they are omitted from JSON.
func CleanEmpty(n *Node) {
	if len(n.Nodes) == 0 {
		n.Nodes = nil
		return
	}
	for _, child := range n.Nodes {
		CleanEmpty(child)
	}
}

// WriteNodeIDs numbers the nodes in preorder as zero-padded four digit ids.
func WriteNodeIDs(structure []*Node) {
	for i, n := range Flatten(structure) {
		n.NodeID = fmt.Sprintf("%04d", i)
	}
}

// PreserveImportsText copies the text of imports nodes into their summary
// so that it survives StripText.
func PreserveImportsText(structure []*Node) {
	for _, n := range Flatten(structure) {
		if n.Type == NodeImports {
			n.Summary = strings.TrimSpace(n.Text)
		}
	}
}

// StripText removes the source text from every node.
func StripText(structure []*Node) {
	for _, n := range Flatten(structure) {
		n.Text = ""
	}
}
