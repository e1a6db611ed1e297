package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/mmcdole/servies/internal/catalog"
	"github.com/mmcdole/servies/internal/collection"
	"github.com/mmcdole/servies/internal/domain"
	"github.com/mmcdole/servies/internal/filters"
	"github.com/mmcdole/servies/internal/lists"
	"github.com/mmcdole/servies/internal/notify"
	"github.com/mmcdole/servies/internal/search"
	"github.com/spf13/cobra"
)

// printNotifier writes notifications to the command's output streams
func printNotifier(cmd *cobra.Command) notify.Notifier {
	return notify.NotifierFunc(func(kind notify.Kind, message string) {
		if kind == notify.KindFailure {
			fmt.Fprintln(cmd.ErrOrStderr(), message)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), message)
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil // No config needed
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "servies %s\n", Version)
		},
	}
}

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure the server URL and access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(os.Stdin, cmd.OutOrStdout())
		},
	}
}

func newFiltersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show or change the saved catalog filters",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved filters as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.filterStore()
			if err != nil {
				return err
			}
			return printFilters(cmd.OutOrStdout(), store.Read())
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.filterStore()
			if err != nil {
				return err
			}
			if err := store.ResetFilters(); err != nil {
				return err
			}
			return printFilters(cmd.OutOrStdout(), store.Read())
		},
	}

	var (
		typ, sortBy, sortDir              string
		genres, excluded, langs, statuses []string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change individual filter fields; unset flags are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.filterStore()
			if err != nil {
				return err
			}
			var p filters.Partial
			flags := cmd.Flags()
			if flags.Changed("type") {
				t := domain.ChildType(typ)
				if t != "" && !t.Valid() {
					return fmt.Errorf("invalid type %q: want movie, series or empty", typ)
				}
				p.Type = &t
			}
			if flags.Changed("sort") {
				p.SortBy = &sortBy
			}
			if flags.Changed("dir") {
				if sortDir != domain.SortAsc && sortDir != domain.SortDesc {
					return fmt.Errorf("invalid direction %q: want asc or desc", sortDir)
				}
				p.SortDir = &sortDir
			}
			if flags.Changed("genre") {
				p.TickedGenres = domain.NewStringSet(genres...)
			}
			if flags.Changed("exclude-genre") {
				p.CrossedGenres = domain.NewStringSet(excluded...)
			}
			if flags.Changed("language") {
				p.Languages = domain.NewStringSet(langs...)
			}
			if flags.Changed("status") {
				p.Statuses = domain.NewStringSet(statuses...)
			}
			if err := store.SetFilters(p); err != nil {
				return err
			}
			return printFilters(cmd.OutOrStdout(), store.Read())
		},
	}
	set.Flags().StringVar(&typ, "type", "", "movie, series, or empty for both")
	set.Flags().StringVar(&sortBy, "sort", "", "sort field (title, releaseDate, rating, popularity)")
	set.Flags().StringVar(&sortDir, "dir", "", "sort direction (asc, desc)")
	set.Flags().StringSliceVar(&genres, "genre", nil, "genres to include")
	set.Flags().StringSliceVar(&excluded, "exclude-genre", nil, "genres to exclude")
	set.Flags().StringSliceVar(&langs, "language", nil, "original languages (BCP 47)")
	set.Flags().StringSliceVar(&statuses, "status", nil, "series statuses")

	cmd.AddCommand(show, reset, set)
	return cmd
}

func (a *app) filterStore() (*filters.Store, error) {
	if err := a.connect(); err != nil {
		return nil, err
	}
	return filters.NewStore(a.kv, a.logger), nil
}

func printFilters(w io.Writer, f domain.FilterState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func newToggleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Toggle the watched or liked state of a servie",
	}
	toggle := func(use, short string, fn func(context.Context, *collection.Collection, string) error) *cobra.Command {
		return &cobra.Command{
			Use:     use + " <type-id>",
			Short:   short,
			Example: "  servies toggle " + use + " movie-603",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, key, err := a.loadItem(cmd, args[0])
				if err != nil {
					return err
				}
				defer c.Close()
				return fn(cmd.Context(), c, key)
			},
		}
	}
	cmd.AddCommand(
		toggle("watched", "Toggle watched", func(ctx context.Context, c *collection.Collection, key string) error {
			_, err := c.ToggleWatched(ctx, key)
			return err
		}),
		toggle("liked", "Toggle liked", func(ctx context.Context, c *collection.Collection, key string) error {
			_, err := c.ToggleLiked(ctx, key)
			return err
		}),
	)
	return cmd
}

func newRateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rate <type-id> <0-10>",
		Short:   "Rate a servie (0 clears the rating)",
		Example: "  servies rate series-1396 9.5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid rating %q: %w", args[1], err)
			}
			c, key, err := a.loadItem(cmd, args[0])
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = c.Rate(cmd.Context(), key, rating)
			return err
		},
	}
}

// loadItem fetches one servie into a single-row collection
func (a *app) loadItem(cmd *cobra.Command, arg string) (*collection.Collection, string, error) {
	key, err := domain.ParseMediaKey(arg)
	if err != nil {
		return nil, "", err
	}
	if err := a.connect(); err != nil {
		return nil, "", err
	}
	item, err := catalog.NewService(a.client, a.client, a.logger).FetchItem(cmd.Context(), key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	c := collection.New(a.client, printNotifier(cmd), a.logger)
	c.Replace([]domain.MediaItem{*item})
	return c, key.String(), nil
}

func newListsCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "lists [type-id]",
		Short: "Show your lists, or the lists containing a servie",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.membership(cmd, refresh)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return printLists(cmd.OutOrStdout(), m.Lists())
			}
			key, err := domain.ParseMediaKey(args[0])
			if err != nil {
				return err
			}
			var in []domain.ListMeta
			for _, id := range m.ListsFor(key) {
				if l, ok := m.List(id); ok {
					in = append(in, l)
				}
			}
			return printLists(cmd.OutOrStdout(), in)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch lists from the server")

	change := func(use, short string, add bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <list-id> <type-id>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				listID, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid list id %q", args[0])
				}
				key, err := domain.ParseMediaKey(args[1])
				if err != nil {
					return err
				}
				m, err := a.membership(cmd, false)
				if err != nil {
					return err
				}
				if add {
					_, err = m.Add(cmd.Context(), listID, key)
				} else {
					_, err = m.Remove(cmd.Context(), listID, key)
				}
				return err
			},
		}
	}
	cmd.AddCommand(
		change("add", "Add a servie to a list", true),
		change("remove", "Remove a servie from a list", false),
	)
	return cmd
}

func (a *app) membership(cmd *cobra.Command, refresh bool) (*lists.Membership, error) {
	if err := a.connect(); err != nil {
		return nil, err
	}
	m := lists.New(a.client, a.kv, printNotifier(cmd), a.logger)
	if refresh {
		if err := m.Invalidate(); err != nil {
			return nil, fmt.Errorf("failed to drop cached lists: %w", err)
		}
	}
	if err := m.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}
	return m, nil
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage locally saved state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget saved filters and list membership for this server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			if err := a.kv.Clear(); err != nil {
				return fmt.Errorf("failed to clear saved state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved state cleared")
			return nil
		},
	})
	return cmd
}

func printLists(w io.Writer, ls []domain.ListMeta) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS")
	for _, l := range ls {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", l.ID, l.Name, l.ItemCount)
	}
	return tw.Flush()
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			results, err := search.NewService(a.client, a.logger).Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tTITLE\tYEAR")
			for _, item := range results {
				year := ""
				if y := item.Year(); y > 0 {
					year = strconv.Itoa(y)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Key(), item.Title, year)
			}
			return tw.Flush()
		},
	}
}
