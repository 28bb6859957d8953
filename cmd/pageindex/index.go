package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pageindex/internal/codeindex"
	"pageindex/internal/config"
	"pageindex/internal/render"
	"pageindex/internal/store"
	"pageindex/internal/summary"
)

// indexFlags holds the per-run overrides shared by index and watch.
type indexFlags struct {
	codePath   string
	model      string
	outputDir  string
	noStore    bool
	printTree  bool
	addNodeID  config.YesNo
	addSummary config.YesNo
	addDesc    config.YesNo
	addText    config.YesNo
	thinning   config.YesNo

	thinningThreshold     int
	summaryTokenThreshold int
}

func (f *indexFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.codePath, "code-path", "", "Source file or directory to index (required)")
	flags.StringVar(&f.model, "model", "", "Model for summaries and descriptions")
	flags.StringVar(&f.outputDir, "output-dir", "", "Directory for <doc_name>_code_structure.json")
	flags.BoolVar(&f.noStore, "no-store", false, "Do not record the run in the index database")
	flags.BoolVar(&f.printTree, "print", false, "Print the tree after indexing")
	flags.Var(&f.addNodeID, "if-add-node-id", "Add node ids (yes/no)")
	flags.Var(&f.addSummary, "if-add-node-summary", "Add node summaries (yes/no)")
	flags.Var(&f.addDesc, "if-add-doc-description", "Add a document description (yes/no)")
	flags.Var(&f.addText, "if-add-node-text", "Keep source text in nodes (yes/no)")
	flags.Var(&f.thinning, "if-thinning", "Merge small subtrees (yes/no)")
	flags.IntVar(&f.thinningThreshold, "thinning-threshold", 0, "Minimum subtree tokens kept by thinning")
	flags.IntVar(&f.summaryTokenThreshold, "summary-token-threshold", 0, "Nodes below this token count are summarized without the model")
	_ = cmd.MarkFlagRequired("code-path")
}

// apply copies explicitly set flags over the loaded config.
func (f *indexFlags) apply(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("model") {
		c.Model = f.model
	}
	if flags.Changed("output-dir") {
		c.OutputDir = f.outputDir
	}
	if flags.Changed("if-add-node-id") {
		c.Index.IfAddNodeID = f.addNodeID
	}
	if flags.Changed("if-add-node-summary") {
		c.Index.IfAddNodeSummary = f.addSummary
	}
	if flags.Changed("if-add-doc-description") {
		c.Index.IfAddDocDescription = f.addDesc
	}
	if flags.Changed("if-add-node-text") {
		c.Index.IfAddNodeText = f.addText
	}
	if flags.Changed("if-thinning") {
		c.Index.IfThinning = f.thinning
	}
	if flags.Changed("thinning-threshold") {
		c.Index.ThinningThreshold = f.thinningThreshold
	}
	if flags.Changed("summary-token-threshold") {
		c.Index.SummaryTokenThreshold = f.summaryTokenThreshold
	}
	if f.noStore {
		c.Store.Enabled = false
	}
	return c.Validate()
}

// newGenerator builds the LLM client. Tests replace it.
var newGenerator = func(ctx context.Context, c *config.Config) (summary.Generator, error) {
	return summary.NewGenAIGenerator(ctx, c.APIKey, c.Model)
}

func newIndexCmd() *cobra.Command {
	f := &indexFlags{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a source file or directory",
		Long: `Builds the page index for --code-path and writes it to
<output_dir>/<doc_name>_code_structure.json. The run is also recorded in
the index database unless --no-store is given.

Example:
  pageindex index --code-path ./src --if-add-node-summary yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			_, outPath, err := indexOnce(cmd.Context(), cfg, inWorkspace(f.codePath))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tree structure saved to: %s\n", outPath)

			if f.printTree {
				result, err := readResult(outPath)
				if err != nil {
					return err
				}
				return render.Tree(cmd.OutOrStdout(), result.Structure, render.PlainStyles())
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// buildOptions converts the config into pipeline options.
func buildOptions(ctx context.Context, c *config.Config) (codeindex.Options, error) {
	opts := codeindex.Options{
		Thinning:          bool(c.Index.IfThinning),
		ThinningThreshold: c.Index.ThinningThreshold,
		AddNodeID:         bool(c.Index.IfAddNodeID),
		AddNodeSummary:    bool(c.Index.IfAddNodeSummary),
		AddDocDescription: bool(c.Index.IfAddDocDescription),
		AddNodeText:       bool(c.Index.IfAddNodeText),
		ParseConcurrency:  c.Index.ParseConcurrency,
	}
	if opts.AddNodeSummary || opts.AddDocDescription {
		gen, err := newGenerator(ctx, c)
		if err != nil {
			return opts, err
		}
		opts.Annotator = summary.NewSummarizer(gen, c.Index.SummaryTokenThreshold, c.Index.SummaryConcurrency)
	}
	return opts, nil
}

// indexOnce runs the pipeline for path, writes the JSON file and records the
// run. It returns the result and the JSON path.
func indexOnce(ctx context.Context, c *config.Config, path string) (*codeindex.Result, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := buildOptions(ctx, c)
	if err != nil {
		return nil, "", err
	}

	logger.Info("indexing", zap.String("path", path))
	result, err := codeindex.CodeToTree(ctx, path, opts)
	if err != nil {
		return nil, "", err
	}

	outPath, err := writeResult(inWorkspace(c.OutputDir), result)
	if err != nil {
		return nil, "", err
	}

	if c.Store.Enabled {
		st, err := store.Open(inWorkspace(c.Store.Path))
		if err != nil {
			return nil, "", err
		}
		defer st.Close()
		run, err := st.SaveRun(ctx, path, result)
		if err != nil {
			return nil, "", err
		}
		logger.Debug("run recorded", zap.String("run", run.ID), zap.Int("nodes", run.NodeCount))
	}
	return result, outPath, nil
}

// writeResult writes <dir>/<doc_name>_code_structure.json, indented and
// without HTML escaping.
func writeResult(dir string, result *codeindex.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	path := filepath.Join(dir, result.DocName+"_code_structure.json")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func readResult(path string) (*codeindex.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var result codeindex.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &result, nil
}
