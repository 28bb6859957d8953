package codeindex

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"pageindex/internal/logging"
)

// CppParser implements CodeParser for C and C++ using tree-sitter.
// The same walker serves both grammars; only the language differs.
type CppParser struct {
	language   string
	extensions []string
	grammar    func() *sitter.Language
}

// NewCParser creates a parser for .c and .h files.
func NewCParser() *CppParser {
	return &CppParser{
		language:   "c",
		extensions: []string{".c", ".h"},
		grammar:    c.GetLanguage,
	}
}

// NewCppParser creates a parser for .cpp, .hpp, .cc and .cxx files.
func NewCppParser() *CppParser {
	return &CppParser{
		language:   "cpp",
		extensions: []string{".cpp", ".hpp", ".cc", ".cxx"},
		grammar:    cpp.GetLanguage,
	}
}

// Language returns "c" or "cpp".
func (p *CppParser) Language() string {
	return p.language
}

// SupportedExtensions returns the extensions for the parser's language.
func (p *CppParser) SupportedExtensions() []string {
	return p.extensions
}

// Parse extracts includes, namespaces, classes, structs and functions.
func (p *CppParser) Parse(path string, content []byte) ([]*Node, error) {
	tree, err := parseSource(p.grammar(), content)
	if err != nil {
		logging.Get(logging.CategoryParse).Error("%s parse failed: %s - %v", p.language, path, err)
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		logging.ParseDebug("%s: syntax errors in %s, extracting what parsed", p.language, filepath.Base(path))
	}

	w := &cppWalker{content: content}
	var nodes []*Node
	var includes []*sitter.Node

	flush := func() {
		if len(includes) > 0 {
			nodes = append(nodes, newImportsNode(includes, content))
			includes = nil
		}
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch {
		case child.Type() == "preproc_include":
			includes = append(includes, child)
		case isComment(child):
			// comments neither end an include run nor produce nodes
		default:
			flush()
			nodes = append(nodes, w.process(child, "")...)
		}
	}
	flush()

	logging.ParseDebug("%s: %s -> %d top-level nodes", p.language, filepath.Base(path), len(nodes))
	return nodes, nil
}

type cppWalker struct {
	content []byte
}

// process maps one syntax node. Nodes without a mapping are transparent: their
// mapped descendants are returned flattened, so a class nested in a
// namespace's declaration list still becomes the namespace's child.
func (w *cppWalker) process(n *sitter.Node, parent NodeType) []*Node {
	var mapped *Node

	switch n.Type() {
	case "function_definition":
		mapped = w.function(n, parent)
	case "class_specifier", "struct_specifier":
		// forward declarations and type uses have no body
		if n.ChildByFieldName("body") != nil {
			mapped = w.record(n)
		}
	case "namespace_definition":
		mapped = &Node{Title: w.name(n), Type: NodeNamespace}
	}

	if mapped == nil {
		var results []*Node
		for i := 0; i < int(n.ChildCount()); i++ {
			results = append(results, w.process(n.Child(i), parent)...)
		}
		return results
	}

	mapped.StartLine, mapped.EndLine = lineRange(n, w.content)
	for i := 0; i < int(n.ChildCount()); i++ {
		mapped.Nodes = append(mapped.Nodes, w.process(n.Child(i), mapped.Type)...)
	}
	return []*Node{mapped}
}

func (w *cppWalker) function(n *sitter.Node, parent NodeType) *Node {
	kind := NodeFunction
	if parent == NodeClass || parent == NodeStruct {
		kind = NodeMethod
	}

	title := kind.String()
	if name := functionName(n.ChildByFieldName("declarator"), w.content); name != "" {
		title = name + "()"
	}

	return &Node{
		Title:     title,
		Type:      kind,
		Signature: textBefore(n, n.ChildByFieldName("body"), w.content),
	}
}

func (w *cppWalker) record(n *sitter.Node) *Node {
	kind := NodeClass
	if n.Type() == "struct_specifier" {
		kind = NodeStruct
	}
	return &Node{Title: w.name(n), Type: kind}
}

func (w *cppWalker) name(n *sitter.Node) string {
	if name := fieldText(n, "name", w.content); name != "" {
		return name
	}
	return "<anonymous>"
}

// functionName digs through pointer/reference declarators to the
// function_declarator and returns the declared name.
func functionName(decl *sitter.Node, content []byte) string {
	for decl != nil {
		if decl.Type() == "function_declarator" {
			return strings.TrimSpace(fieldText(decl, "declarator", content))
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			// reference_declarator keeps its inner declarator unnamed
			for i := 0; i < int(decl.NamedChildCount()); i++ {
				if child := decl.NamedChild(i); strings.HasSuffix(child.Type(), "declarator") {
					next = child
					break
				}
			}
		}
		decl = next
	}
	return ""
}
