package codeindex

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"pageindex/internal/logging"
)

// JavaParser implements CodeParser for Java using tree-sitter.
type JavaParser struct{}

// NewJavaParser creates a new Java parser.
func NewJavaParser() *JavaParser {
	return &JavaParser{}
}

// Language returns "java".
func (p *JavaParser) Language() string {
	return "java"
}

// SupportedExtensions returns [".java"].
func (p *JavaParser) SupportedExtensions() []string {
	return []string{".java"}
}

// Parse extracts imports, type declarations and their methods.
func (p *JavaParser) Parse(path string, content []byte) ([]*Node, error) {
	tree, err := parseSource(java.GetLanguage(), content)
	if err != nil {
		logging.Get(logging.CategoryParse).Error("java parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		logging.ParseDebug("java: syntax errors in %s", filepath.Base(path))
		return nil, nil
	}

	var imports, types []*sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "import_declaration" {
			imports = append(imports, child)
		} else if javaTypeKind(child) != "" {
			types = append(types, child)
		}
	}

	var nodes []*Node
	if len(imports) > 0 {
		nodes = append(nodes, newImportsNode(imports, content))
	}
	for _, t := range types {
		nodes = append(nodes, p.typeDecl(t, content))
	}

	logging.ParseDebug("java: %s -> %d top-level nodes", filepath.Base(path), len(nodes))
	return nodes, nil
}

func javaTypeKind(n *sitter.Node) NodeType {
	switch n.Type() {
	case "class_declaration", "record_declaration":
		return NodeClass
	case "interface_declaration", "annotation_type_declaration":
		return NodeInterface
	case "enum_declaration":
		return NodeEnum
	}
	return ""
}

func (p *JavaParser) typeDecl(n *sitter.Node, content []byte) *Node {
	node := &Node{
		Title:      fieldText(n, "name", content),
		Type:       javaTypeKind(n),
		Docstring:  javadoc(n, content),
		Decorators: javaAnnotations(n, content),
	}
	node.StartLine, node.EndLine = lineRange(n, content)

	if body := n.ChildByFieldName("body"); body != nil {
		node.Nodes = p.members(body, content)
	}
	return node
}

// members walks a class, interface or enum body.
func (p *JavaParser) members(body *sitter.Node, content []byte) []*Node {
	var nodes []*Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch {
		case child.Type() == "method_declaration" || child.Type() == "constructor_declaration":
			nodes = append(nodes, p.method(child, content))
		case child.Type() == "enum_body_declarations":
			nodes = append(nodes, p.members(child, content)...)
		case javaTypeKind(child) != "":
			nodes = append(nodes, p.typeDecl(child, content))
		}
	}
	return nodes
}

func (p *JavaParser) method(n *sitter.Node, content []byte) *Node {
	name := fieldText(n, "name", content)

	var params []string
	if list := n.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			param := list.NamedChild(i)
			switch param.Type() {
			case "formal_parameter":
				params = append(params, fieldText(param, "type", content)+" "+fieldText(param, "name", content))
			case "spread_parameter":
				params = append(params, collapseSpace(nodeText(param, content)))
			}
		}
	}

	signature := name + "(" + strings.Join(params, ", ") + ")"
	if ret := fieldText(n, "type", content); ret != "" {
		signature = ret + " " + signature
	}

	node := &Node{
		Title:      name + "()",
		Type:       NodeMethod,
		Signature:  signature,
		Docstring:  javadoc(n, content),
		Decorators: javaAnnotations(n, content),
	}
	node.StartLine, node.EndLine = lineRange(n, content)
	return node
}

// javadoc returns the cleaned /** */ comment directly preceding n.
func javadoc(n *sitter.Node, content []byte) string {
	prev := n.PrevNamedSibling()
	if prev == nil || !isComment(prev) {
		return ""
	}
	return cleanJavadoc(nodeText(prev, content))
}

func cleanJavadoc(raw string) string {
	if !strings.HasPrefix(raw, "/**") {
		return ""
	}
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "/**"), "*/")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// javaAnnotations returns "@Name" for each annotation in the modifiers.
func javaAnnotations(n *sitter.Node, content []byte) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		mods := n.NamedChild(i)
		if mods.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(mods.NamedChildCount()); j++ {
			ann := mods.NamedChild(j)
			if ann.Type() == "marker_annotation" || ann.Type() == "annotation" {
				out = append(out, "@"+fieldText(ann, "name", content))
			}
		}
	}
	return out
}
