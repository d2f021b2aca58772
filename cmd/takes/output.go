package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"twelfthman/internal/remote"
	"twelfthman/internal/syncer"
	"twelfthman/internal/takes"
)

type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, json: strings.EqualFold(strings.TrimSpace(format), "json")}
}

func (p *printer) JSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(b))
	return err
}

// Print writes v as JSON in json mode and runs text otherwise.
func (p *printer) Print(v any, text func(w io.Writer)) error {
	if p.json {
		return p.JSON(v)
	}
	text(p.w)
	return nil
}

func (p *printer) Take(t *takes.Take) error {
	return p.Print(t, func(w io.Writer) {
		fmt.Fprintf(w, "ID        %s\n", t.ID)
		fmt.Fprintf(w, "Client ID %s\n", t.ClientID)
		fmt.Fprintf(w, "Status    %s", t.Status)
		if t.Status == takes.StatusFailed && t.ErrorMessage != nil {
			fmt.Fprintf(w, " (%s)", *t.ErrorMessage)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Fixture   %s\n", t.FixtureID)
		fmt.Fprintf(w, "Rating    %d/10\n", t.MatchRating)
		if t.MotmPlayerID != nil {
			fmt.Fprintf(w, "MOTM      %s\n", *t.MotmPlayerID)
		}
		if t.ParentTakeID != nil {
			fmt.Fprintf(w, "Reply to  %s\n", *t.ParentTakeID)
		}
		fmt.Fprintf(w, "Text      %s\n", t.Text)
		fmt.Fprintf(w, "Reactions cheer=%d boo=%d shout=%d\n", t.Reactions.Cheer, t.Reactions.Boo, t.Reactions.Shout)
		fmt.Fprintf(w, "Retries   %d\n", t.RetryCount)
		fmt.Fprintf(w, "Created   %s\n", t.CreatedAt.Local().Format(time.DateTime))
		if t.SyncedAt != nil {
			fmt.Fprintf(w, "Synced    %s\n", t.SyncedAt.Local().Format(time.DateTime))
		}
		if t.ProviderID != nil {
			fmt.Fprintf(w, "Server ID %s\n", *t.ProviderID)
		}
	})
}

func (p *printer) Takes(items []takes.Take) error {
	if items == nil {
		items = []takes.Take{}
	}
	return p.Print(items, func(w io.Writer) {
		if len(items) == 0 {
			fmt.Fprintln(w, "no takes")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tFIXTURE\tRATING\tRETRIES\tTEXT")
		for _, t := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", shortID(t.ID), t.Status, t.FixtureID, t.MatchRating, t.RetryCount, truncate(t.Text, 48))
		}
		_ = tw.Flush()
	})
}

func (p *printer) Result(r syncer.Result) error {
	return p.Print(r, func(w io.Writer) {
		if r.Note != "" {
			fmt.Fprintf(w, "%s: %s\n", r.Kind, r.Note)
			return
		}
		fmt.Fprintf(w, "%s: synced=%d failed=%d skipped=%d\n", r.Kind, r.Synced, r.Failed, r.Skipped)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
	})
}

func (p *printer) Feed(page remote.FeedPage) error {
	return p.Print(page, func(w io.Writer) {
		for _, it := range page.Items {
			p.feedItem(w, it)
		}
		if page.NextCursor != nil {
			fmt.Fprintf(w, "next cursor: %s\n", *page.NextCursor)
		}
	})
}

func (p *printer) FeedItem(it remote.FeedItem) error {
	return p.Print(it, func(w io.Writer) { p.feedItem(w, it) })
}

func (p *printer) feedItem(w io.Writer, it remote.FeedItem) {
	fmt.Fprintf(w, "[%s] %s (%s) %d/10: %s\n", it.CreatedAt.Local().Format(time.DateTime), it.Username, it.Club, it.MatchRating, it.Text)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
