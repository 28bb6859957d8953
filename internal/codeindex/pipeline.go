package codeindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pageindex/internal/logging"
)

// Annotator adds summaries to a built tree and describes whole documents.
// The summary package provides the LLM-backed implementation.
type Annotator interface {
	Annotate(ctx context.Context, root *Node) error
	Describe(ctx context.Context, structure []*Node) (string, error)
}

// Options controls CodeToTree.
type Options struct {
	Thinning          bool
	ThinningThreshold int

	AddNodeID         bool
	AddNodeSummary    bool
	AddDocDescription bool
	AddNodeText       bool

	// Annotator is required when AddNodeSummary or AddDocDescription is set.
	Annotator Annotator

	// Factory defaults to NewDefaultFactory().
	Factory *ParserFactory

	// ParseConcurrency bounds concurrent file parsing in directories.
	ParseConcurrency int
}

// DefaultOptions matches the command line defaults: node ids on, everything
// else off.
func DefaultOptions() Options {
	return Options{
		ThinningThreshold: 5000,
		AddNodeID:         true,
		ParseConcurrency:  4,
	}
}

// CodeToTree builds the page index for a source file or directory.
func CodeToTree(ctx context.Context, path string, opts Options) (*Result, error) {
	start := time.Now()
	factory := opts.Factory
	if factory == nil {
		factory = NewDefaultFactory()
	}
	if (opts.AddNodeSummary || opts.AddDocDescription) && opts.Annotator == nil {
		return nil, fmt.Errorf("summaries requested without an annotator")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, abs)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	var root *Node
	var docName string
	if info.IsDir() {
		root, err = factory.BuildDirectoryTree(ctx, abs, opts.ParseConcurrency)
		docName = filepath.Base(abs)
	} else {
		if !factory.HasParser(abs) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(abs))
		}
		root, err = factory.BuildFileTree(abs)
		docName = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("failed to process path: %s", abs)
	}

	if opts.Thinning {
		logging.Index("applying tree thinning (threshold=%d)", opts.ThinningThreshold)
		Thin(root, opts.ThinningThreshold)
	}

	CleanEmpty(root)
	structure := []*Node{root}

	if opts.AddNodeID {
		WriteNodeIDs(structure)
	}

	if opts.AddNodeSummary {
		logging.Index("generating summaries")
		if err := opts.Annotator.Annotate(ctx, root); err != nil {
			return nil, fmt.Errorf("failed to generate summaries: %w", err)
		}
	}

	PreserveImportsText(structure)

	if !opts.AddNodeText {
		StripText(structure)
	}

	result := &Result{DocName: docName, Structure: structure}

	if opts.AddDocDescription {
		logging.Index("generating document description")
		desc, err := opts.Annotator.Describe(ctx, structure)
		if err != nil {
			return nil, fmt.Errorf("failed to generate doc description: %w", err)
		}
		result.DocDescription = desc
	}

	logging.Index("indexed %s: %d nodes in %v", docName, len(Flatten(structure)), time.Since(start))
	return result, nil
}
