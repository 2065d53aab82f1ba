package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/journal/filejournal"
)

// status prints every journal entry, compacting a file journal first when
// asked to.
func (a *App) status(ctx context.Context) error {
	if a.config.Compact {
		fj, ok := a.journal.(*filejournal.Journal)
		if !ok {
			return fmt.Errorf("compact is only supported by the file journal")
		}
		if err := fj.Compact(ctx); err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Info("Journal compacted.", "path", fj.Path())
	}

	entries, err := a.journal.Entries(ctx)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	return writeEntries(a.outW, a.journalLocation(), entries)
}

func writeEntries(w io.Writer, location string, entries []journal.Entry) error {
	counts := make(map[journal.Status]int)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tKIND\tSTATUS\tATTEMPTS\tRESULT\tUPDATED")
	for _, e := range entries {
		counts[e.Status]++
		result := e.Result
		if e.Status == journal.StatusFailed && e.Error != "" {
			result = "error: " + e.Error
		}
		if result == "" {
			result = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ActionID, e.Kind, e.Status, e.Attempts, result, e.UpdatedAt.UTC().Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %d entries, %d completed, %d in flight, %d failed\n",
		location, len(entries),
		counts[journal.StatusCompleted], counts[journal.StatusInFlight], counts[journal.StatusFailed])
	return err
}
