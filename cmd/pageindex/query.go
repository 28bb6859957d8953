package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pageindex/internal/codeindex"
	"pageindex/internal/store"
)

func newQueryCmd() *cobra.Command {
	var (
		nodeType string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "query [title]",
		Short: "Search indexed nodes by title",
		Long: `Searches the latest stored run of every document for nodes whose title
contains the given text (case-insensitive).

Examples:
  pageindex query add
  pageindex query --type class`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := store.Query{Type: codeindex.NodeType(nodeType), Limit: limit}
			if len(args) == 1 {
				q.Title = args[0]
			}

			st, err := store.Open(inWorkspace(cfg.Store.Path))
			if err != nil {
				return err
			}
			defer st.Close()

			nodes, err := st.FindNodes(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching nodes found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOC\tNODE\tTYPE\tTITLE\tLINES\tSUMMARY")
			for _, n := range nodes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d-%d\t%s\n",
					n.DocName, n.NodeID, n.Type, n.Title, n.StartLine, n.EndLine, oneLine(n.Summary, 60))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&nodeType, "type", "t", "", "Only nodes of this type (class, function, method, ...)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of results")
	return cmd
}

// oneLine returns the first line of s, cut to n runes.
func oneLine(s string, n int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}
