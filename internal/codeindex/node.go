// Package codeindex builds hierarchical page indexes of source code: a tree
// of directories, files, imports, namespaces, classes and functions with
// 1-indexed inclusive line ranges, ready to be serialized as JSON.
package codeindex

import "errors"

// NodeType is the semantic kind of a tree node.
type NodeType string

const (
	NodeDirectory NodeType = "directory"
	NodeFile      NodeType = "file"
	NodeImports   NodeType = "imports"
	NodeImport    NodeType = "import"
	NodeNamespace NodeType = "namespace"
	NodeClass     NodeType = "class"
	NodeStruct    NodeType = "struct"
	NodeInterface NodeType = "interface"
	NodeEnum      NodeType = "enum"
	NodeObject    NodeType = "object"
	NodeFunction  NodeType = "function"
	NodeMethod    NodeType = "method"
)

var (
	ErrUnsupportedExtension = errors.New("file extension not supported")
	ErrPathNotFound         = errors.New("path does not exist")
	ErrNoParser             = errors.New("no parser registered for extension")
)

// Node is one entry of the page index. Field order is the JSON output order.
type Node struct {
	Title         string   `json:"title"`
	NodeID        string   `json:"node_id,omitempty"`
	Type          NodeType `json:"type"`
	Signature     string   `json:"signature,omitempty"`
	Docstring     string   `json:"docstring,omitempty"`
	Decorators    []string `json:"decorators,omitempty"`
	StartLine     int      `json:"start_line,omitempty"`
	EndLine       int      `json:"end_line,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	PrefixSummary string   `json:"prefix_summary,omitempty"`
	Text          string   `json:"text,omitempty"`
	Nodes         []*Node  `json:"nodes,omitempty"`

	// Path is the source location of directory and file nodes. Never serialized.
	Path string `json:"-"`
}

// Result is the document produced by CodeToTree.
type Result struct {
	DocName        string  `json:"doc_name"`
	DocDescription string  `json:"doc_description,omitempty"`
	Structure      []*Node `json:"structure"`
}

// Walk visits n and its descendants in preorder. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(n, parent *Node) bool) {
	walk(n, nil, fn)
}

func walk(n, parent *Node, fn func(n, parent *Node) bool) {
	if n == nil || !fn(n, parent) {
		return
	}
	for _, child := range n.Nodes {
		walk(child, n, fn)
	}
}

// Flatten returns the nodes of the structure in preorder.
func Flatten(structure []*Node) []*Node {
	var out []*Node
	for _, root := range structure {
		Walk(root, func(n, _ *Node) bool {
			out = append(out, n)
			return true
		})
	}
	return out
}

// HasCodeContent reports whether n is, or contains, a file node.
func HasCodeContent(n *Node) bool {
	if n.Type == NodeFile {
		return true
	}
	for _, child := range n.Nodes {
		if HasCodeContent(child) {
			return true
		}
	}
	return false
}

func (t NodeType) String() string {
	return string(t)
}
