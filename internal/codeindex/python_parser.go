package codeindex

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"pageindex/internal/logging"
)

// PythonParser implements CodeParser for Python using tree-sitter.
type PythonParser struct{}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *PythonParser {
	return &PythonParser{}
}

// Language returns "python".
func (p *PythonParser) Language() string {
	return "python"
}

// SupportedExtensions returns [".py"].
func (p *PythonParser) SupportedExtensions() []string {
	return []string{".py"}
}

// Parse extracts import runs, classes, functions and methods. Consecutive
// top-level imports form one Imports node; any other statement ends the run.
func (p *PythonParser) Parse(path string, content []byte) ([]*Node, error) {
	tree, err := parseSource(python.GetLanguage(), content)
	if err != nil {
		logging.Get(logging.CategoryParse).Error("python parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		// a file that does not parse has no structure worth reporting
		logging.ParseDebug("python: syntax errors in %s", filepath.Base(path))
		return nil, nil
	}

	var nodes []*Node
	var imports []*sitter.Node
	flush := func() {
		if len(imports) > 0 {
			nodes = append(nodes, newImportsNode(imports, content))
			imports = nil
		}
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			imports = append(imports, child)
		case "comment":
		default:
			flush()
			if node := p.definition(child, "", content); node != nil {
				nodes = append(nodes, node)
			}
		}
	}
	flush()

	logging.ParseDebug("python: %s -> %d top-level nodes", filepath.Base(path), len(nodes))
	return nodes, nil
}

// definition maps class, function and decorated definitions; anything else
// returns nil.
func (p *PythonParser) definition(n *sitter.Node, parent NodeType, content []byte) *Node {
	switch n.Type() {
	case "decorated_definition":
		def := n.ChildByFieldName("definition")
		if def == nil {
			return nil
		}
		node := p.definition(def, parent, content)
		if node == nil {
			return nil
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if dec := n.NamedChild(i); dec.Type() == "decorator" {
				node.Decorators = append(node.Decorators, collapseSpace(nodeText(dec, content)))
			}
		}
		return node

	case "class_definition":
		node := &Node{Title: fieldText(n, "name", content), Type: NodeClass}
		node.StartLine, node.EndLine = lineRange(n, content)
		body := n.ChildByFieldName("body")
		node.Docstring = pyDocstring(body, content)
		node.Nodes = p.block(body, NodeClass, content)
		return node

	case "function_definition":
		kind := NodeFunction
		if parent == NodeClass {
			kind = NodeMethod
		}
		name := fieldText(n, "name", content)
		node := &Node{
			Title:     name + "()",
			Type:      kind,
			Signature: pySignature(n, name, content),
		}
		node.StartLine, node.EndLine = lineRange(n, content)
		body := n.ChildByFieldName("body")
		node.Docstring = pyDocstring(body, content)
		node.Nodes = p.block(body, NodeFunction, content)
		return node
	}
	return nil
}

// block maps the direct definitions of a class or function body.
func (p *PythonParser) block(body *sitter.Node, parent NodeType, content []byte) []*Node {
	if body == nil {
		return nil
	}
	var nodes []*Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if node := p.definition(body.NamedChild(i), parent, content); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// pySignature rebuilds "def name(params) -> ret" from the parsed parameters,
// so layout and spacing in the source do not leak into the result.
func pySignature(n *sitter.Node, name string, content []byte) string {
	keyword := "def"
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "async" {
			keyword = "async def"
			break
		}
	}

	var params []string
	if list := n.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			if param := pyParameter(list.NamedChild(i), content); param != "" {
				params = append(params, param)
			}
		}
	}

	sig := keyword + " " + name + "(" + strings.Join(params, ", ") + ")"
	if ret := fieldText(n, "return_type", content); ret != "" {
		sig += " -> " + collapseSpace(ret)
	}
	return sig
}

// pyParameter formats one parameter as "name: type = default".
func pyParameter(p *sitter.Node, content []byte) string {
	text := func(field string) string {
		return collapseSpace(fieldText(p, field, content))
	}
	switch p.Type() {
	case "comment":
		return ""
	case "keyword_separator":
		return "*"
	case "positional_separator":
		return "/"
	case "typed_parameter":
		// the name is the first named child, not a field
		if p.NamedChildCount() == 0 {
			return collapseSpace(nodeText(p, content))
		}
		return pyParameter(p.NamedChild(0), content) + ": " + text("type")
	case "default_parameter":
		return text("name") + " = " + text("value")
	case "typed_default_parameter":
		return text("name") + ": " + text("type") + " = " + text("value")
	case "list_splat_pattern", "dictionary_splat_pattern":
		return strings.Join(strings.Fields(nodeText(p, content)), "")
	}
	return collapseSpace(nodeText(p, content))
}

// pyDocstring returns the string literal that opens a body, unquoted.
func pyDocstring(body *sitter.Node, content []byte) string {
	if body == nil {
		return ""
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return ""
		}
		lit := stmt.NamedChild(0)
		if lit.Type() != "string" {
			return ""
		}
		return unquotePython(nodeText(lit, content))
	}
	return ""
}

// unquotePython strips the prefix and quotes of a string literal and, unless
// it is raw, decodes its escape sequences.
func unquotePython(s string) string {
	prefix := len(s) - len(strings.TrimLeft(s, "rRbBuUfF"))
	raw := strings.ContainsAny(s[:prefix], "rR")
	s = s[prefix:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			body := s[len(q) : len(s)-len(q)]
			if raw {
				return body
			}
			return decodePythonEscapes(body)
		}
	}
	return s
}

// decodePythonEscapes evaluates backslash escapes. Named (\N{...}), short
// octal and unknown escapes are kept verbatim.
func decodePythonEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for len(s) > 0 {
		if s[0] != '\\' || len(s) == 1 {
			r, size := utf8.DecodeRuneInString(s)
			b.WriteRune(r)
			s = s[size:]
			continue
		}
		switch s[1] {
		case '\n':
			// line continuation
			s = s[2:]
			continue
		case '\'', '"':
			b.WriteByte(s[1])
			s = s[2:]
			continue
		}
		value, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			b.WriteByte('\\')
			s = s[1:]
			continue
		}
		b.WriteRune(value)
		s = tail
	}
	return b.String()
}
