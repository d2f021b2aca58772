package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cronrunner "twelfthman/internal/cron"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push queued takes to the server",
		Long: `Push queued takes to the server, at most one batch per run.

Takes still inside their backoff window are skipped and counted as such.`,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.sync.SyncAll(ctx)
				if err != nil {
					return err
				}
				return a.out.Result(res)
			})
		},
	}
}

func newRetryFailedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "retry-failed",
		Short:   "Retry failed takes that are under the retry limit and out of backoff",
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.sync.RetryFailed(ctx)
				if err != nil {
					return err
				}
				return a.out.Result(res)
			})
		},
	}
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "log",
		Short:   "Show the last sync run",
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				last, err := a.runLog.Last(ctx)
				if err != nil {
					return err
				}
				return a.out.Print(last, func(w io.Writer) {
					if last == nil {
						fmt.Fprintln(w, "no sync has run yet")
						return
					}
					fmt.Fprintf(w, "%s at %s (%s)\n", last.Kind, last.StartedAt.Local().Format(time.DateTime), last.EndedAt.Sub(last.StartedAt).Round(time.Millisecond))
					fmt.Fprintf(w, "attempted=%d succeeded=%d failed=%d skipped=%d\n", last.Attempted, last.Succeeded, last.Failed, last.Skipped)
					for _, e := range last.Errors {
						fmt.Fprintf(w, "  error: %s\n", e)
					}
				})
			})
		},
	}
}

func newFaultCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fault on|off|toggle|status",
		Short: "Make every sync attempt fail (for testing retry and backoff)",
		Long: `Dev switch. While on, each sync attempt fails with "simulated sync failure"
before anything is sent.`,
		GroupID:   "system",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "status"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				var err error
				switch action {
				case "on":
					err = a.faults.Enable(ctx)
				case "off":
					err = a.faults.Disable(ctx)
				case "toggle":
					_, err = a.faults.Toggle(ctx)
				case "status":
				default:
					return fmt.Errorf("unknown action %q (on|off|toggle|status)", action)
				}
				if err != nil {
					return err
				}
				on, err := a.faults.Enabled(ctx)
				if err != nil {
					return err
				}
				return a.out.Print(map[string]bool{"enabled": on}, func(w io.Writer) {
					if on {
						fmt.Fprintln(w, "failure simulation: on")
						return
					}
					fmt.Fprintln(w, "failure simulation: off")
				})
			})
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		schedule string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync on a schedule until interrupted",
		Long: `Run a sync pass now and then on every tick of the schedule (client.sync_schedule,
default "@every 30s"). Each tick pushes queued takes, then retries failed ones.
A tick that fires while the previous pass is still running is skipped.`,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if duration > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, duration)
					defer cancel()
				}
				spec := schedule
				if spec == "" {
					spec = a.cfg.Client.SyncSchedule
				}
				return watch(ctx, a, spec)
			})
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", `cron spec, e.g. "@every 10s"`)
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func watch(ctx context.Context, a *app, spec string) error {
	results, cancel := a.sync.Subscribe(8)
	defer cancel()

	pass := func(ctx context.Context) {
		if _, err := a.sync.SyncAll(ctx); err != nil {
			a.logger.Warn("scheduled sync failed", zap.Error(err))
		}
		if _, err := a.sync.RetryFailed(ctx); err != nil {
			a.logger.Warn("scheduled retry failed", zap.Error(err))
		}
	}

	runner := cronrunner.New(a.logger, ctx)
	if _, err := runner.Add("sync", spec, pass); err != nil {
		return fmt.Errorf("bad schedule %q: %w", spec, err)
	}
	runner.Start()
	defer runner.Stop()

	first := make(chan struct{})
	go func() {
		defer close(first)
		pass(ctx)
	}()
	defer func() { <-first }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-results:
			if res.Attempted == 0 && res.Skipped == 0 && res.Note == "" {
				continue
			}
			if err := a.out.Result(res); err != nil {
				return err
			}
		}
	}
}
