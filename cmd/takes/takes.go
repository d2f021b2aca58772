package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"twelfthman/internal/storage"
	"twelfthman/internal/takes"
)

func newPostCmd(opts *rootOptions) *cobra.Command {
	var (
		fixture string
		rating  int
		text    string
		motm    string
		replyTo string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Save a new take locally and queue it for sync",
		Example: `  takes post --fixture ars-tot-2025 --rating 8 --text "Rice ran the midfield"
  takes post --fixture ars-tot-2025 --rating 6 --text "Agreed, mostly" --reply-to 3f2a`,
		GroupID: "takes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				profile, err := a.requireProfile(ctx)
				if err != nil {
					return err
				}
				in := takes.NewTake{
					UserID:      profile.UserID,
					UserName:    profile.Username,
					UserClub:    profile.Club,
					FixtureID:   strings.TrimSpace(fixture),
					MatchRating: rating,
					Text:        text,
				}
				if motm != "" {
					in.MotmPlayerID = &motm
				}
				if replyTo != "" {
					parent, err := resolveTake(ctx, a, replyTo)
					if err != nil {
						return err
					}
					in.ParentTakeID = &parent.ID
				}
				t, err := a.store.Create(ctx, in)
				if err != nil {
					return err
				}
				return a.out.Take(t)
			})
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "fixture id")
	cmd.Flags().IntVar(&rating, "rating", 0, "match rating 1-10")
	cmd.Flags().StringVar(&text, "text", "", "take text, 5-280 characters")
	cmd.Flags().StringVar(&motm, "motm", "", "man of the match player id")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "id of the take this replies to")
	_ = cmd.MarkFlagRequired("fixture")
	_ = cmd.MarkFlagRequired("rating")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		status   string
		fixture  string
		topLevel bool
		replies  string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List local takes, newest first",
		Example: `  takes list
  takes list --status failed
  takes list --replies 3f2a`,
		GroupID: "takes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				var (
					items []takes.Take
					err   error
				)
				switch {
				case replies != "":
					parent, rerr := resolveTake(ctx, a, replies)
					if rerr != nil {
						return rerr
					}
					items, err = a.store.GetReplies(ctx, parent.ID)
				case topLevel:
					items, err = a.store.GetTopLevel(ctx)
				case status != "":
					st := takes.Status(strings.ToLower(status))
					if !st.Valid() {
						return fmt.Errorf("unknown status %q (queued|syncing|posted|failed)", status)
					}
					items, err = a.store.GetByStatus(ctx, st)
				default:
					items, err = a.store.GetAll(ctx)
				}
				if err != nil {
					return err
				}
				if fixture != "" {
					kept := items[:0]
					for _, t := range items {
						if t.FixtureID == fixture {
							kept = append(kept, t)
						}
					}
					items = kept
				}
				return a.out.Takes(items)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "queued|syncing|posted|failed")
	cmd.Flags().StringVar(&fixture, "fixture", "", "only this fixture")
	cmd.Flags().BoolVar(&topLevel, "top-level", false, "hide replies")
	cmd.Flags().StringVar(&replies, "replies", "", "list replies to this take")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Short:   "Show one take",
		GroupID: "takes",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := resolveTake(ctx, a, args[0])
				if err != nil {
					return err
				}
				return a.out.Take(t)
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		fixture string
		rating  int
		text    string
		motm    string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a take that has not been sent yet",
		Long: `Change the content of a queued or failed take.

A take that is syncing or already posted cannot be edited. Pass --motm "" to clear the
man of the match.`,
		GroupID: "takes",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p takes.Patch
			if cmd.Flags().Changed("fixture") {
				p.FixtureID = &fixture
			}
			if cmd.Flags().Changed("rating") {
				p.MatchRating = &rating
			}
			if cmd.Flags().Changed("text") {
				p.Text = &text
			}
			if cmd.Flags().Changed("motm") {
				p.MotmPlayerID = &motm
			}
			if p == (takes.Patch{}) {
				return fmt.Errorf("nothing to change: pass --fixture, --rating, --text or --motm")
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := resolveTake(ctx, a, args[0])
				if err != nil {
					return err
				}
				t, err = a.store.Update(ctx, t.ID, p)
				if err != nil {
					return err
				}
				return a.out.Take(t)
			})
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "fixture id")
	cmd.Flags().IntVar(&rating, "rating", 0, "match rating 1-10")
	cmd.Flags().StringVar(&text, "text", "", "take text")
	cmd.Flags().StringVar(&motm, "motm", "", "man of the match player id")
	return cmd
}

func newReactCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "react <id> cheer|boo|shout",
		Short:     "Add a reaction to a take",
		GroupID:   "takes",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"cheer", "boo", "shout"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := resolveTake(ctx, a, args[0])
				if err != nil {
					return err
				}
				kind := takes.ReactionKind(strings.ToLower(args[1]))
				if !kind.Valid() {
					return fmt.Errorf("unknown reaction %q (cheer|boo|shout)", args[1])
				}
				id := t.ID
				t, err = a.store.React(ctx, id, kind)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("take %s was deleted", shortID(id))
				}
				return a.out.Take(t)
			})
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a take from this device",
		Long:    "Remove a take locally. A take already posted stays on the server.",
		GroupID: "takes",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := resolveTake(ctx, a, args[0])
				if err != nil {
					return err
				}
				if _, err := a.store.Delete(ctx, t.ID); err != nil {
					return err
				}
				return a.out.Print(map[string]any{"deleted": t.ID, "status": t.Status}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s\n", t.ID)
				})
			})
		},
	}
}

func newRetryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "retry <id>",
		Short:   "Queue a failed take again",
		GroupID: "takes",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := resolveTake(ctx, a, args[0])
				if err != nil {
					return err
				}
				t, err = a.store.Retry(ctx, t.ID)
				if err != nil {
					return err
				}
				return a.out.Take(t)
			})
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Delete local takes and the sync log",
		Long:    "Delete local takes and the sync log. With --all the profile and fault switch go too.",
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				if all {
					if err := storage.Clear(ctx, a.slots); err != nil {
						return err
					}
				} else {
					if err := a.store.ClearAll(ctx); err != nil {
						return err
					}
					if err := a.slots.Remove(ctx, storage.KeySyncLog); err != nil {
						return err
					}
				}
				return a.out.Print(map[string]bool{"reset": true, "all": all}, func(w io.Writer) {
					fmt.Fprintln(w, "local data cleared")
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also remove the profile and dev switches")
	return cmd
}

// resolveTake finds a take by full id or by a unique id prefix.
func resolveTake(ctx context.Context, a *app, ref string) (*takes.Take, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, fmt.Errorf("take id is required")
	}
	if t, err := a.store.GetByID(ctx, ref); err != nil || t != nil {
		return t, err
	}
	all, err := a.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var match *takes.Take
	for i := range all {
		if !strings.HasPrefix(all[i].ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("id prefix %q is ambiguous", ref)
		}
		match = &all[i]
	}
	if match == nil {
		return nil, fmt.Errorf("no take with id %q", ref)
	}
	return match, nil
}
