package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pageindex/internal/codeindex"
	"pageindex/internal/watch"
)

func newWatchCmd() *cobra.Command {
	f := &indexFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-index a directory whenever its sources change",
		Long: `Indexes --code-path once, then watches it and re-indexes after changes
settle (watch.debounce in the config). Stops on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			path := inWorkspace(f.codePath)
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("%w: %s", codeindex.ErrPathNotFound, path)
			}
			if !info.IsDir() {
				return fmt.Errorf("watch needs a directory, got file %s", path)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd, path)
		},
	}
	f.register(cmd)
	return cmd
}

// runWatch indexes path and re-indexes on every settled change until ctx is
// done.
func runWatch(ctx context.Context, cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	_, outPath, err := indexOnce(ctx, cfg, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Tree structure saved to: %s\n", outPath)

	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}

	w, err := watch.New(path, codeindex.NewDefaultFactory(), debounce, func(ctx context.Context, changed []string) error {
		logger.Info("sources changed", zap.Strings("files", changed))
		_, outPath, err := indexOnce(ctx, cfg, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Re-indexed after %d change(s): %s\n", len(changed), outPath)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", path)
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}
