package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mash-protocol/quickreset/pkg/journal"
)

// Stats holds aggregate statistics about a journal.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[journal.Category]int
	Boots            map[string]*BootStats
	Outcomes         map[string]int
	FactoryResets    int
	WindowExpiries   int
	StorageErrors    int
	MaxStreak        uint32
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// BootStats holds statistics for a single boot.
type BootStats struct {
	FirstSeen time.Time
	Events    int
	Count     uint32
	Outcome   string
}

// CollectStats reads the journal at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := journal.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[journal.Category]int),
		Boots:            make(map[string]*BootStats),
		Outcomes:         make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		boot, ok := stats.Boots[event.BootID]
		if !ok {
			boot = &BootStats{FirstSeen: event.Timestamp}
			stats.Boots[event.BootID] = boot
		}
		boot.Events++

		switch {
		case event.Boot != nil:
			boot.Count = event.Boot.Count
			boot.Outcome = event.Boot.Outcome
			stats.Outcomes[event.Boot.Outcome]++
			if event.Boot.Outcome == "RESET_TRIGGERED" {
				stats.FactoryResets++
			}
			if event.Boot.Count > stats.MaxStreak {
				stats.MaxStreak = event.Boot.Count
			}
		case event.Timer != nil:
			if event.Timer.Action == journal.TimerExpired {
				stats.WindowExpiries++
			}
		case event.Storage != nil:
			stats.StorageErrors++
		}
	}
	return stats, nil
}

// RunStats analyzes the journal and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Quick Reboot Journal Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events:    %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Boots:           %d\n", len(stats.Boots))
	fmt.Fprintf(w, "Factory Resets:  %d\n", stats.FactoryResets)
	fmt.Fprintf(w, "Window Expiries: %d\n", stats.WindowExpiries)
	fmt.Fprintf(w, "Storage Errors:  %d\n", stats.StorageErrors)
	fmt.Fprintf(w, "Longest Streak:  %d\n", stats.MaxStreak)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := journal.CategoryBoot; c <= journal.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Outcomes) > 0 {
		fmt.Fprintln(w, "Boot Outcomes:")
		outcomes := make([]string, 0, len(stats.Outcomes))
		for o := range stats.Outcomes {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
		for _, o := range outcomes {
			fmt.Fprintf(w, "  %-18s %d\n", o+":", stats.Outcomes[o])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Boots) > 0 {
		fmt.Fprintln(w, "Boots:")
		ids := make([]string, 0, len(stats.Boots))
		for id := range stats.Boots {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			return stats.Boots[ids[i]].FirstSeen.Before(stats.Boots[ids[j]].FirstSeen)
		})
		for _, id := range ids {
			b := stats.Boots[id]
			fmt.Fprintf(w, "  %s  %s  count=%d  %s  events=%d\n",
				shortenBootID(id), b.FirstSeen.UTC().Format(time.RFC3339), b.Count, b.Outcome, b.Events)
		}
	}
}
