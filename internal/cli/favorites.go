package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidiaz1251/apostolV2/internal/favorites"
)

func newFavoritesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite topics",
		Long: `Manage your favorite topics.

Favorites keep a full copy of the topic, so they stay readable even if the
topic is later removed from the synced content.

Subcommands:
  add <topic-id>     Add a topic to favorites
  remove <topic-id>  Remove a topic from favorites
  list               List favorite topics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var filter, sortBy string
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				topics, err := a.favorites.Filter(filter, favorites.SortBy(sortBy))
				if err != nil {
					return err
				}
				if len(topics) == 0 {
					fmt.Fprintln(out, p.dim("No favorites."))
					return nil
				}
				for _, t := range topics {
					fmt.Fprintf(out, "%s %s %s\n", t.Title, p.subtle(t.Section), p.dim("["+t.ID+"]"))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&filter, "filter", "", "only show favorites matching this text")
	list.Flags().StringVar(&sortBy, "sort", string(favorites.SortRecent), "sort order: recent, title or section")

	add := &cobra.Command{
		Use:   "add <topic-id>",
		Short: "Add a topic to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				p := newPrinter(out)

				if err := a.loadCache(cmd.Context()); err != nil {
					return err
				}
				topic, ok := a.catalog.Topic(args[0])
				if !ok {
					return fmt.Errorf("topic not found: %s", args[0])
				}
				if a.favorites.IsFavorite(topic.ID) {
					fmt.Fprintf(out, "'%s' is already a favorite.\n", topic.Title)
					return nil
				}
				if err := a.favorites.Add(topic); err != nil {
					return fmt.Errorf("add favorite: %w", err)
				}
				fmt.Fprintf(out, "%s '%s' to favorites.\n", p.success("Added"), topic.Title)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <topic-id>",
		Short: "Remove a topic from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				out := cmd.OutOrStdout()
				if !a.favorites.IsFavorite(args[0]) {
					fmt.Fprintf(out, "'%s' is not a favorite.\n", args[0])
					return nil
				}
				if err := a.favorites.Remove(args[0]); err != nil {
					return fmt.Errorf("remove favorite: %w", err)
				}
				fmt.Fprintf(out, "Removed '%s' from favorites.\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}
