package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pageindex/internal/codeindex"
	"pageindex/internal/render"
	"pageindex/internal/store"
)

func newShowCmd() *cobra.Command {
	var (
		runID    string
		markdown bool
		style    string
		width    int
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "show [file.json]",
		Short: "Print an index as a tree or Markdown outline",
		Long: `Prints a *_code_structure.json file, or a stored run with --run.

Examples:
  pageindex show results/src_code_structure.json
  pageindex show --run 3f2c... --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *codeindex.Result
			switch {
			case runID != "":
				st, err := store.Open(inWorkspace(cfg.Store.Path))
				if err != nil {
					return err
				}
				defer st.Close()
				run, err := st.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				result = run.Result
			case len(args) == 1:
				var err error
				if result, err = readResult(inWorkspace(args[0])); err != nil {
					return err
				}
			default:
				return fmt.Errorf("either a JSON file or --run is required")
			}

			out := cmd.OutOrStdout()
			if markdown {
				md := render.Markdown(result)
				if plain {
					_, err := fmt.Fprint(out, md)
					return err
				}
				rendered, err := render.RenderMarkdown(md, style, width)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, rendered)
				return err
			}

			styles := render.DefaultStyles()
			if plain {
				styles = render.PlainStyles()
			}
			return render.Tree(out, result.Structure, styles)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show a stored run instead of a file")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render as a Markdown outline")
	cmd.Flags().StringVar(&style, "style", "auto", "Glamour style for --markdown (auto, dark, light, notty)")
	cmd.Flags().IntVar(&width, "width", 100, "Word wrap width for --markdown")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable colors and Markdown rendering")
	return cmd
}
