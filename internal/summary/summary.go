package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"pageindex/internal/codeindex"
	"pageindex/internal/logging"
)

const (
	shortTextLimit  = 200
	promptCodeLimit = 3000
)

// summarized lists the node types that receive summaries.
var summarized = map[codeindex.NodeType]bool{
	codeindex.NodeClass:     true,
	codeindex.NodeFunction:  true,
	codeindex.NodeMethod:    true,
	codeindex.NodeInterface: true,
	codeindex.NodeEnum:      true,
	codeindex.NodeObject:    true,
	codeindex.NodeFile:      true,
}

// Summarizer implements codeindex.Annotator.
type Summarizer struct {
	gen         Generator
	threshold   int
	concurrency int
}

// NewSummarizer creates a Summarizer. Nodes whose text is estimated below
// threshold tokens are summarized without calling gen.
func NewSummarizer(gen Generator, threshold, concurrency int) *Summarizer {
	return &Summarizer{
		gen:         gen,
		threshold:   threshold,
		concurrency: max(concurrency, 1),
	}
}

// NodeSummary returns the summary for one node. Small nodes use the first
// docstring line or the beginning of their text.
func (s *Summarizer) NodeSummary(ctx context.Context, n *codeindex.Node) (string, error) {
	if codeindex.EstimateTokens(n.Text) < s.threshold {
		if doc := strings.TrimSpace(n.Docstring); doc != "" {
			first, _, _ := strings.Cut(doc, "\n")
			return first, nil
		}
		return truncate(n.Text, shortTextLimit), nil
	}

	if s.gen == nil {
		return "", ErrNoGenerator
	}
	return s.gen.Generate(ctx, nodePrompt(n))
}

func nodePrompt(n *codeindex.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are given a source code %s. Generate a concise one-sentence summary of what it does.\n\n", n.Type)
	if n.Signature != "" {
		fmt.Fprintf(&b, "Signature: %s\n", n.Signature)
	}
	if n.Docstring != "" {
		fmt.Fprintf(&b, "Docstring: %s\n", n.Docstring)
	}
	b.WriteString("\nCode:\n")
	b.WriteString(truncate(n.Text, promptCodeLimit))
	if len(n.Text) > promptCodeLimit {
		b.WriteString("...")
	}
	b.WriteString("\n\nDirectly return the summary, do not include any other text.")
	return b.String()
}

// Annotate summarizes every class, function, method, interface, enum, object
// and file node under root. Nodes with children get a prefix summary, leaves
// get a summary.
func (s *Summarizer) Annotate(ctx context.Context, root *codeindex.Node) error {
	var targets []*codeindex.Node
	codeindex.Walk(root, func(n, _ *codeindex.Node) bool {
		if summarized[n.Type] {
			targets = append(targets, n)
		}
		return true
	})

	results := make([]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, n := range targets {
		g.Go(func() error {
			summary, err := s.NodeSummary(gctx, n)
			if err != nil {
				return fmt.Errorf("summary for %s: %w", n.Title, err)
			}
			results[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, n := range targets {
		if len(n.Nodes) > 0 {
			n.PrefixSummary = results[i]
		} else {
			n.Summary = results[i]
		}
	}
	logging.Summary("summarized %d nodes", len(targets))
	return nil
}

// Describe implements codeindex.Annotator.
func (s *Summarizer) Describe(ctx context.Context, structure []*codeindex.Node) (string, error) {
	return DocDescription(ctx, s.gen, structure)
}

// CleanNode is the reduced view of a node sent to the model.
type CleanNode struct {
	Title         string       `json:"title"`
	Type          string       `json:"type"`
	Summary       string       `json:"summary,omitempty"`
	PrefixSummary string       `json:"prefix_summary,omitempty"`
	Nodes         []*CleanNode `json:"nodes,omitempty"`
}

// CleanStructure keeps titles, types, summaries and nesting only.
func CleanStructure(structure []*codeindex.Node) []*CleanNode {
	out := make([]*CleanNode, 0, len(structure))
	for _, n := range structure {
		out = append(out, &CleanNode{
			Title:         n.Title,
			Type:          n.Type.String(),
			Summary:       n.Summary,
			PrefixSummary: n.PrefixSummary,
			Nodes:         CleanStructure(n.Nodes),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DocDescription asks gen for a one-sentence description of the document.
func DocDescription(ctx context.Context, gen Generator, structure []*codeindex.Node) (string, error) {
	if gen == nil {
		return "", ErrNoGenerator
	}
	data, err := json.MarshalIndent(CleanStructure(structure), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal structure: %w", err)
	}

	prompt := "You are an expert in generating descriptions for a codebase.\n" +
		"You are given the structure of a codebase. Your task is to generate a one-sentence description " +
		"for it, which makes it easy to distinguish it from other codebases.\n\n" +
		"Structure: " + string(data) + "\n\n" +
		"Directly return the description, do not include any other text."

	logging.SummaryDebug("requesting doc description (%d bytes of structure)", len(data))
	desc, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("doc description: %w", err)
	}
	return desc, nil
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
