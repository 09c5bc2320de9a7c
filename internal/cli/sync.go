package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the local cache with the remote content",
		Long: `Check the remote data version and download the content when it changed.

With --force the version check is skipped and everything is fetched again.
Offline, nothing is contacted and the cached content stays as it is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				if err := a.loadCache(ctx); err != nil {
					return err
				}

				if !a.monitor.Check(ctx) {
					fmt.Fprintln(out, p.dim("Offline: using cached content."))
					return nil
				}

				if force {
					a.syncer.ForceSync(ctx)
				} else {
					a.syncer.CheckAndSync(ctx)
				}

				st := a.syncer.Status()
				if st.LastError != nil {
					return fmt.Errorf("sync failed: %w", st.LastError)
				}

				snap := a.catalog.Snapshot()
				fmt.Fprintf(out, "%s %d topics, %d sections, %d practices %s\n",
					p.success("Synced:"),
					len(snap.Topics), len(snap.Sections), len(snap.Practices),
					p.dim("(version "+orNone(st.VersionMarker)+")"),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the version check")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
