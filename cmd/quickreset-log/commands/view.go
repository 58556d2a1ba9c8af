// Package commands implements the quickreset-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mash-protocol/quickreset/pkg/journal"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	BootID   string
	Category *journal.Category
}

func (f ViewFilter) journalFilter() journal.Filter {
	return journal.Filter{BootID: f.BootID, Category: f.Category}
}

// RunView writes every matching event in human-readable form.
func RunView(path string, filter ViewFilter, w io.Writer) error {
	reader, err := journal.NewFilteredReader(path, filter.journalFilter())
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one event.
func formatEvent(w io.Writer, event journal.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [boot:%s] %s\n", ts, shortenBootID(event.BootID), event.Category)

	switch {
	case event.Boot != nil:
		b := event.Boot
		fmt.Fprintf(w, "  Count: %d -> %d (threshold %d, window %s)\n", b.Previous, b.Count, b.Threshold, formatDuration(b.Window))
		fmt.Fprintf(w, "  Outcome: %s\n", b.Outcome)
		if b.WakeupCause != "" {
			fmt.Fprintf(w, "  Wakeup: %s\n", b.WakeupCause)
		}
		if !b.Persisted {
			fmt.Fprintln(w, "  Persisted: no")
		}
	case event.State != nil:
		if event.State.OldState != "" {
			fmt.Fprintf(w, "  %s -> %s\n", event.State.OldState, event.State.NewState)
		} else {
			fmt.Fprintf(w, "  -> %s\n", event.State.NewState)
		}
		if event.State.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", event.State.Reason)
		}
	case event.Timer != nil:
		fmt.Fprintf(w, "  Timer: %s", event.Timer.Action)
		if event.Timer.Window != 0 {
			fmt.Fprintf(w, " (%s)", formatDuration(event.Timer.Window))
		}
		fmt.Fprintln(w)
		if event.Timer.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", event.Timer.Error)
		}
	case event.Reset != nil:
		status := "ok"
		if event.Reset.Error != "" {
			status = "failed: " + event.Reset.Error
		}
		fmt.Fprintf(w, "  %s %q %s\n", event.Reset.Step, event.Reset.Key, status)
	case event.Storage != nil:
		fmt.Fprintf(w, "  Op: %s", event.Storage.Op)
		if event.Storage.Key != "" {
			fmt.Fprintf(w, " %q", event.Storage.Key)
		}
		fmt.Fprintln(w)
		if event.Storage.Kind != "" {
			fmt.Fprintf(w, "  Kind: %s\n", event.Storage.Kind)
		}
		fmt.Fprintf(w, "  Error: %s\n", event.Storage.Error)
	case event.Error != nil:
		fmt.Fprintf(w, "  Component: %s\n", event.Error.Component)
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w)
}

// shortenBootID returns the first 8 characters of the boot ID.
func shortenBootID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (journal.Category, error) {
	c, ok := journal.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be boot, state, timer, reset, storage, or error)", s)
	}
	return c, nil
}
