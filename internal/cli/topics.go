package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidiaz1251/apostolV2/internal/domain"
)

const emptyCacheHint = "No cached topics. Run `apostol sync` first."

func newTopicsCmd(opts *rootOptions) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List cached topics grouped by section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				if err := a.loadCache(cmd.Context()); err != nil {
					return err
				}
				if a.catalog.Empty() {
					fmt.Fprintln(out, p.dim(emptyCacheHint))
					return nil
				}

				shown := 0
				for _, g := range a.catalog.Grouped() {
					if section != "" && !strings.EqualFold(g.Section.Name, section) {
						continue
					}
					printGroup(out, p, g)
					shown++
				}
				if shown == 0 {
					return fmt.Errorf("no section named %q", section)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "only show this section")
	return cmd
}

func printGroup(out io.Writer, p printer, g domain.SectionGroup) {
	name := g.Section.Title
	if name == "" {
		name = g.Section.Name
	}
	fmt.Fprintln(out, p.header(name))
	for _, t := range g.Topics {
		fmt.Fprintf(out, "  %3d  %s %s\n", t.Order, t.Title, p.dim("["+t.ID+"]"))
	}
}
