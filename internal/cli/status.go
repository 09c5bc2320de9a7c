package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and what is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				if err := a.loadCache(ctx); err != nil {
					return err
				}
				online := a.monitor.Check(ctx)
				st := a.syncer.Status()
				snap := a.catalog.Snapshot()

				network := p.failure("offline")
				if online {
					network = p.success("online")
				}
				lastSync := "never"
				if !st.Sync.LastSync.IsZero() {
					lastSync = st.Sync.LastSync.Local().Format(time.DateTime)
				}

				fmt.Fprintln(out, p.title("Apostol"))
				fmt.Fprintf(out, "  %-12s %s\n", p.subtle("Network"), network)
				fmt.Fprintf(out, "  %-12s %s\n", p.subtle("Last sync"), lastSync)
				fmt.Fprintf(out, "  %-12s %s\n", p.subtle("Version"), orNone(st.VersionMarker))
				fmt.Fprintf(out, "  %-12s %d\n", p.subtle("Topics"), len(snap.Topics))
				fmt.Fprintf(out, "  %-12s %d\n", p.subtle("Sections"), len(snap.Sections))
				fmt.Fprintf(out, "  %-12s %d\n", p.subtle("Practices"), len(snap.Practices))
				fmt.Fprintf(out, "  %-12s %d\n", p.subtle("Favorites"), a.favorites.Count())
				return nil
			})
		},
	}
}
