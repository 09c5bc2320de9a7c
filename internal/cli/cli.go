// Package cli provides the apostol command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configDir string
	version   string
}

// NewRootCmd builds the command tree. version is printed by "apostol version".
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:   "apostol",
		Short: "Offline-first catechesis content",
		Long: `Offline-first catechesis content.

Topics, sections and practice questions are synced from the remote
backend into a local cache and read from there, so every command except
sync and documents works without a network connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config", "", "config directory (default is the OS config dir)")

	root.AddCommand(
		newRunCmd(opts),
		newSyncCmd(opts),
		newStatusCmd(opts),
		newTopicsCmd(opts),
		newSearchCmd(opts),
		newFavoritesCmd(opts),
		newDocumentsCmd(opts),
		newResetCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// Execute runs the CLI and prints any error to stderr.
func Execute(ctx context.Context, version string) error {
	root := NewRootCmd(version)
	err := root.ExecuteContext(ctx)
	if err != nil {
		p := newPrinter(root.ErrOrStderr())
		fmt.Fprintln(root.ErrOrStderr(), p.failure("Error: "+err.Error()))
	}
	return err
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apostol %s\n", opts.version)
		},
	}
}
