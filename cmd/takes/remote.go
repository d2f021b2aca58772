package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"twelfthman/internal/remote"
	"twelfthman/internal/takes"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var club string
	cmd := &cobra.Command{
		Use:     "register <username>",
		Short:   "Create a server account and store its token locally",
		GroupID: "remote",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				reg, err := a.remote.Register(ctx, args[0], club)
				if err != nil {
					return err
				}
				p, err := a.profiles.Save(ctx, takes.Profile{
					UserID:    reg.User.ID,
					Username:  reg.User.Username,
					Club:      reg.User.Club,
					Token:     reg.Token,
					CreatedAt: reg.User.CreatedAt,
				})
				if err != nil {
					return err
				}
				return a.out.Print(p, func(w io.Writer) {
					fmt.Fprintf(w, "registered %s (%s) as %s\n", p.Username, p.Club, p.UserID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&club, "club", "", "the club you support")
	_ = cmd.MarkFlagRequired("club")
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Short:   "Show the local profile",
		GroupID: "remote",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				p, err := a.profiles.Current(ctx)
				if err != nil {
					return err
				}
				if p == nil {
					return a.out.Print(nil, func(w io.Writer) { fmt.Fprintln(w, "no profile") })
				}
				view := *p
				view.Token = ""
				return a.out.Print(view, func(w io.Writer) {
					state := "local only"
					if p.Token != "" {
						state = "registered"
					}
					fmt.Fprintf(w, "%s (%s) %s [%s]\n", p.Username, p.Club, p.UserID, state)
				})
			})
		},
	}

	var club string
	set := &cobra.Command{
		Use:   "set <username>",
		Short: "Create or replace a local profile without contacting the server",
		Long: `Create or replace a local profile without contacting the server.

Takes can be posted offline under this profile. They will fail to sync until
"takes register" stores a server token.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				cur, err := a.profiles.Current(ctx)
				if err != nil {
					return err
				}
				next := takes.Profile{Username: args[0], Club: club}
				if cur != nil && cur.Username == args[0] {
					next = *cur
					next.Club = club
				}
				p, err := a.profiles.Save(ctx, next)
				if err != nil {
					return err
				}
				return a.out.Print(p, func(w io.Writer) {
					fmt.Fprintf(w, "profile %s (%s) saved\n", p.Username, p.Club)
				})
			})
		},
	}
	set.Flags().StringVar(&club, "club", "", "the club you support")
	_ = set.MarkFlagRequired("club")

	me := &cobra.Command{
		Use:   "me",
		Short: "Ask the server who the stored token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				u, err := a.remote.Me(ctx)
				if err != nil {
					return err
				}
				return a.out.Print(u, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s) %s\n", u.Username, u.Club, u.ID)
				})
			})
		},
	}

	logout := &cobra.Command{
		Use:   "delete",
		Short: "Forget the local profile and token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.profiles.Delete(ctx); err != nil {
					return err
				}
				return a.out.Print(map[string]bool{"deleted": true}, func(w io.Writer) {
					fmt.Fprintln(w, "profile removed")
				})
			})
		},
	}

	cmd.AddCommand(set, me, logout)
	return cmd
}

func newFeedCmd(opts *rootOptions) *cobra.Command {
	var (
		fixture string
		limit   int
		cursor  string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Read posted takes from the server, newest first",
		Example: `  takes feed --fixture ars-tot-2025
  takes feed --limit 10 --cursor <next cursor>
  takes feed --all`,
		GroupID: "remote",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				q := remote.FeedQuery{FixtureID: fixture, Limit: limit, Cursor: cursor}
				if !all {
					page, err := a.remote.Feed(ctx, q)
					if err != nil {
						return err
					}
					return a.out.Feed(page)
				}
				var items []remote.FeedItem
				for {
					page, err := a.remote.Feed(ctx, q)
					if err != nil {
						return err
					}
					items = append(items, page.Items...)
					if page.NextCursor == nil {
						break
					}
					q.Cursor = *page.NextCursor
				}
				return a.out.Feed(remote.FeedPage{Items: items})
			})
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "only this fixture")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size 1-50 (server default 20)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page")
	cmd.Flags().BoolVar(&all, "all", false, "follow cursors to the end of the feed")
	return cmd
}

func newTailCmd(opts *rootOptions) *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:     "tail",
		Short:   "Print takes as other supporters sync them",
		GroupID: "remote",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return a.remote.Live(ctx, fixture, a.out.FeedItem)
			})
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "only this fixture")
	return cmd
}

func newRatingsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ratings <fixture>",
		Short:   "Average supporter rating for a fixture",
		GroupID: "remote",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				r, err := a.remote.Ratings(ctx, args[0])
				if err != nil {
					return err
				}
				return a.out.Print(r, func(w io.Writer) {
					if r.Average == nil {
						fmt.Fprintf(w, "%s: no ratings yet\n", r.FixtureID)
						return
					}
					fmt.Fprintf(w, "%s: %s/10 from %d takes\n", r.FixtureID, r.Average.String(), r.Count)
				})
			})
		},
	}
}
