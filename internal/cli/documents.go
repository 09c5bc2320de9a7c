package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidiaz1251/apostolV2/internal/domain"
)

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "documents [kind]",
		Short: "Show documents such as the donations page",
		Long: `Fetch and print documents from the remote source.

Documents are not cached, so this command needs a network connection.
Pass a kind (for example "donacion") to show only that kind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				if !a.monitor.Check(ctx) {
					return fmt.Errorf("documents need a network connection")
				}
				if err := a.documents.Reload(ctx); err != nil {
					return fmt.Errorf("failed to load documents: %w", err)
				}

				var docs []domain.Document
				if len(args) == 1 {
					docs = a.documents.ByKind(args[0])
				} else {
					docs = a.documents.All()
				}
				if len(docs) == 0 {
					fmt.Fprintln(out, p.dim("No documents."))
					return nil
				}

				for _, d := range docs {
					fmt.Fprintf(out, "%s %s\n", p.header(d.Title), p.dim("["+d.Kind+"]"))
					if d.Content != "" {
						fmt.Fprintln(out, d.Content)
					}
					if d.Link != "" {
						fmt.Fprintln(out, p.subtle(d.Link))
					}
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
}
