package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidiaz1251/apostolV2/internal/config"
)

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the local cache, images and favorites",
		Long: `Delete everything under the data directory.

The next sync downloads all content again. Run it while no other apostol
process holds the cache open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configDir)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ClearCache(); err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), p.success("Cache cleared: "+cfg.Storage.DataDir))
			return nil
		},
	}
}
