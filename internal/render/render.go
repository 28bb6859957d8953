// Package render prints code index trees for terminals.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"pageindex/internal/codeindex"
)

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#6B7280")
	info   = lipgloss.Color("#2196F3")
)

// Styles for the tree listing.
type Styles struct {
	Type    lipgloss.Style
	Title   lipgloss.Style
	Lines   lipgloss.Style
	Summary lipgloss.Style
	ID      lipgloss.Style
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Type:    lipgloss.NewStyle().Foreground(info),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Lines:   lipgloss.NewStyle().Foreground(muted),
		Summary: lipgloss.NewStyle().Italic(true).Foreground(muted),
		ID:      lipgloss.NewStyle().Foreground(muted),
	}
}

// PlainStyles renders without any escape sequences.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Type: plain, Title: plain, Lines: plain, Summary: plain, ID: plain}
}

// Tree writes one "- [type] title" line per node, children indented by two
// spaces. Line ranges, node ids and summaries follow when present.
func Tree(w io.Writer, structure []*codeindex.Node, styles Styles) error {
	for _, root := range structure {
		if err := writeTree(w, root, 0, styles); err != nil {
			return err
		}
	}
	return nil
}

func writeTree(w io.Writer, n *codeindex.Node, level int, styles Styles) error {
	if _, err := fmt.Fprintln(w, treeLine(n, level, styles)); err != nil {
		return err
	}
	for _, child := range n.Nodes {
		if err := writeTree(w, child, level+1, styles); err != nil {
			return err
		}
	}
	return nil
}

func treeLine(n *codeindex.Node, level int, s Styles) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", level))
	b.WriteString("- ")
	b.WriteString(s.Type.Render("[" + n.Type.String() + "]"))
	b.WriteString(" ")
	b.WriteString(s.Title.Render(n.Title))
	if n.StartLine > 0 {
		b.WriteString(" ")
		b.WriteString(s.Lines.Render(lineSpan(n)))
	}
	if n.NodeID != "" {
		b.WriteString(" ")
		b.WriteString(s.ID.Render("#" + n.NodeID))
	}
	if summary := firstSummary(n); summary != "" {
		b.WriteString(" ")
		b.WriteString(s.Summary.Render(summary))
	}
	return b.String()
}

func lineSpan(n *codeindex.Node) string {
	if n.StartLine == n.EndLine {
		return fmt.Sprintf("L%d", n.StartLine)
	}
	return fmt.Sprintf("L%d-%d", n.StartLine, n.EndLine)
}

// firstSummary returns the first line of the node's summary or prefix summary.
func firstSummary(n *codeindex.Node) string {
	s := n.Summary
	if s == "" {
		s = n.PrefixSummary
	}
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return first
}

// Markdown renders a result as a Markdown outline.
func Markdown(result *codeindex.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", result.DocName)
	if result.DocDescription != "" {
		fmt.Fprintf(&b, "> %s\n\n", result.DocDescription)
	}
	for _, root := range result.Structure {
		writeMarkdown(&b, root, 0)
	}
	return b.String()
}

func writeMarkdown(b *strings.Builder, n *codeindex.Node, level int) {
	fmt.Fprintf(b, "%s- **%s** _%s_", strings.Repeat("  ", level), escapeMarkdown(n.Title), n.Type)
	if n.StartLine > 0 {
		fmt.Fprintf(b, " `%s`", lineSpan(n))
	}
	if n.Signature != "" {
		fmt.Fprintf(b, " `%s`", n.Signature)
	}
	if summary := firstSummary(n); summary != "" && n.Type != codeindex.NodeImports {
		fmt.Fprintf(b, ": %s", summary)
	}
	b.WriteString("\n")
	for _, child := range n.Nodes {
		writeMarkdown(b, child, level+1)
	}
}

var markdownEscaper = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`", `<`, `\<`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// RenderMarkdown formats Markdown for a terminal with glamour. style is a
// glamour standard style name ("dark", "light", "notty", ...) or "auto".
func RenderMarkdown(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
