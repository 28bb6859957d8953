package codeindex

import (
	"path/filepath"
	"regexp"
	"strings"

	"pageindex/internal/logging"
)

var (
	// class Foo, data class Foo, enum class Foo, interface Foo, object Foo
	kotlinClassPattern = regexp.MustCompile(`^\s*(?:(?:private|public|protected|internal|open|data|sealed|annotation|inner|abstract|final|value)\s+)*(class|interface|object|enum\s+class)\s+([A-Za-z0-9_]+)`)

	// fun foo, override suspend fun foo, fun <T> foo
	kotlinFunPattern = regexp.MustCompile("^\\s*(?:(?:private|public|protected|internal|override|suspend|abstract|open|inline|operator|infix|tailrec|final)\\s+)*fun\\s+(?:<[^>]*>\\s*)?([A-Za-z0-9_`.]+)")

	kotlinImportPattern = regexp.MustCompile(`^\s*import\s+`)

	kotlinLineComment  = regexp.MustCompile(`//.*`)
	kotlinDoubleQuoted = regexp.MustCompile(`".*?"`)
	kotlinSingleQuoted = regexp.MustCompile(`'.*?'`)
)

// KotlinParser implements CodeParser for Kotlin with a line scanner. Scopes are
// tracked by counting braces outside strings and line comments.
type KotlinParser struct{}

// NewKotlinParser creates a new Kotlin parser.
func NewKotlinParser() *KotlinParser {
	return &KotlinParser{}
}

// Language returns "kotlin".
func (p *KotlinParser) Language() string {
	return "kotlin"
}

// SupportedExtensions returns [".kt"].
func (p *KotlinParser) SupportedExtensions() []string {
	return []string{".kt"}
}

type kotlinScope struct {
	node         *Node
	startBalance int
	opened       bool // the body brace has been seen
}

// Parse extracts import runs, class-like declarations and functions.
func (p *KotlinParser) Parse(path string, content []byte) ([]*Node, error) {
	lines := strings.Split(string(content), "\n")

	var nodes []*Node
	var stack []*kotlinScope
	var imports []importLine
	balance := 0

	flushImports := func() {
		if len(imports) == 0 {
			return
		}
		group := &Node{
			Title:     "Imports",
			Type:      NodeImports,
			StartLine: imports[0].line,
			EndLine:   imports[len(imports)-1].line,
		}
		for _, imp := range imports {
			group.Nodes = append(group.Nodes, &Node{
				Title:     imp.text,
				Type:      NodeImport,
				StartLine: imp.line,
				EndLine:   imp.line,
			})
		}
		nodes = append(nodes, group)
		imports = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		stripped := strings.TrimSpace(line)

		if kotlinImportPattern.MatchString(stripped) {
			imports = append(imports, importLine{line: lineNum, text: stripped})
			continue
		}
		if stripped != "" && !strings.HasPrefix(stripped, "//") && !strings.HasPrefix(stripped, "package") {
			flushImports()
		}

		delta := kotlinBraceDelta(line)
		balance += delta

		for _, scope := range stack {
			if balance > scope.startBalance {
				scope.opened = true
			}
		}

		// close every scope whose brace level has been left
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if balance > top.startBalance {
				break
			}
			if top.opened {
				top.node.EndLine = lineNum
			} else {
				// declaration without a body ended on the previous line
				top.node.EndLine = max(top.node.StartLine, lineNum-1)
			}
			stack = stack[:len(stack)-1]
		}

		node := kotlinDeclaration(line, lineNum, stack)
		if node == nil {
			continue
		}

		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parent.Nodes = append(parent.Nodes, node)
		} else {
			nodes = append(nodes, node)
		}

		start := balance
		if strings.Contains(line, "{") {
			if delta <= 0 {
				// body opened and closed on the declaration line
				continue
			}
			start--
		}
		stack = append(stack, &kotlinScope{
			node:         node,
			startBalance: start,
			opened:       balance > start,
		})
	}

	// unterminated scopes run to the end of the file
	for _, scope := range stack {
		scope.node.EndLine = countLines(content)
	}
	flushImports()

	logging.ParseDebug("kotlin: %s -> %d top-level nodes", filepath.Base(path), len(nodes))
	return nodes, nil
}

type importLine struct {
	line int
	text string
}

func kotlinDeclaration(line string, lineNum int, stack []*kotlinScope) *Node {
	if m := kotlinClassPattern.FindStringSubmatch(line); m != nil {
		kind := NodeClass
		switch {
		case strings.Contains(m[1], "interface"):
			kind = NodeInterface
		case strings.Contains(m[1], "enum"):
			kind = NodeEnum
		case strings.Contains(m[1], "object"):
			kind = NodeObject
		}
		return &Node{Title: m[2], Type: kind, StartLine: lineNum, EndLine: lineNum}
	}

	if m := kotlinFunPattern.FindStringSubmatch(line); m != nil {
		signature := strings.TrimSpace(strings.SplitN(line, "{", 2)[0])
		signature = strings.TrimSpace(strings.TrimSuffix(signature, "="))

		kind := NodeFunction
		if len(stack) > 0 {
			switch stack[len(stack)-1].node.Type {
			case NodeClass, NodeInterface, NodeObject, NodeEnum:
				kind = NodeMethod
			}
		}
		return &Node{
			Title:     m[1] + "()",
			Type:      kind,
			Signature: signature,
			StartLine: lineNum,
			EndLine:   lineNum,
		}
	}
	return nil
}

// kotlinBraceDelta counts { minus } ignoring line comments and string or
// char literals.
func kotlinBraceDelta(line string) int {
	line = kotlinLineComment.ReplaceAllString(line, "")
	line = kotlinDoubleQuoted.ReplaceAllString(line, `""`)
	line = kotlinSingleQuoted.ReplaceAllString(line, `''`)
	return strings.Count(line, "{") - strings.Count(line, "}")
}
