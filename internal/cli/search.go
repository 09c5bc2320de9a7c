package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search cached topic titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				if err := a.loadCache(cmd.Context()); err != nil {
					return err
				}

				results := a.search.Search(strings.Join(args, " "))
				if len(results) == 0 {
					fmt.Fprintln(out, p.dim("No matches."))
					return nil
				}
				if limit > 0 && len(results) > limit {
					results = results[:limit]
				}
				for _, r := range results {
					fmt.Fprintf(out, "%s %s %s\n", r.Topic.Title, p.subtle(r.Topic.Section), p.dim("["+r.Topic.ID+"]"))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results, 0 for all")
	return cmd
}
