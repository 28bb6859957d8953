// Command pageindex builds hierarchical page indexes of source trees.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pageindex/internal/codeindex"
	"pageindex/internal/config"
	"pageindex/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	verbose, workspace, configPath = false, "", ""

	root := &cobra.Command{
		Use:   "pageindex",
		Short: "Build hierarchical page indexes of source code",
		Long: `pageindex turns a source file or directory into a tree of directories,
files, imports, namespaces, classes and functions with line ranges, ready to
be navigated by an LLM instead of chunked and embedded.

Supported languages: ` + strings.Join(codeindex.NewDefaultFactory().RegisteredLanguages(), ", ") + `.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/"+config.DefaultFileName+")")

	root.AddCommand(newInitCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// setup resolves the workspace, loads the config and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		workspace = wd
	}
	if configPath == "" {
		configPath = filepath.Join(workspace, config.DefaultFileName)
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	lc := cfg.LoggerConfig()
	if verbose {
		lc.Level = "debug"
	}
	if err := logging.Initialize(lc); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logging.Zap().Named(string(logging.CategoryCLI))
	logging.BootDebug("configuration loaded from %s (workspace %s, model %s)", configPath, workspace, cfg.Model)
	return nil
}

// inWorkspace resolves relative paths against the workspace.
func inWorkspace(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspace, path)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
