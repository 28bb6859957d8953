package codeindex

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pageindex/internal/logging"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"env":          true,
	".env":         true,
	".git":         true,
	"target":       true,
	"build":        true,
	"out":          true,
}

// IsSkippedEntry reports whether a directory entry name is ignored by the
// directory walk: hidden names and the usual dependency/build folders.
func IsSkippedEntry(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}

// BuildDirectoryTree walks dir and returns a directory node. Subdirectories
// come first, then files, both sorted by name. Subdirectories without any
// supported file are dropped. Files are parsed concurrently, at most
// concurrency at a time.
func (f *ParserFactory) BuildDirectoryTree(ctx context.Context, dir string, concurrency int) (*Node, error) {
	node := &Node{
		Title: filepath.Base(filepath.Clean(dir)),
		Type:  NodeDirectory,
		Path:  dir,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			logging.Get(logging.CategoryIndex).Warn("permission denied: %s", dir)
			return node, nil
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs, files []string
	for _, entry := range entries {
		name := entry.Name()
		if IsSkippedEntry(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			subdirs = append(subdirs, path)
		} else if f.HasParser(name) {
			files = append(files, path)
		}
	}

	for _, sub := range subdirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		child, err := f.BuildDirectoryTree(ctx, sub, concurrency)
		if err != nil {
			return nil, err
		}
		if HasCodeContent(child) {
			node.Nodes = append(node.Nodes, child)
		}
	}

	fileNodes := make([]*Node, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn, err := f.BuildFileTree(path)
			if err != nil {
				return err
			}
			fileNodes[i] = fn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, fn := range fileNodes {
		if fn != nil {
			node.Nodes = append(node.Nodes, fn)
		}
	}

	logging.IndexDebug("directory %s: %d subdirs, %d files", dir, len(subdirs), len(files))
	return node, nil
}
