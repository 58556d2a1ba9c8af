package journal

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeJournal(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.qlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, e)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, BootID: "a", Category: CategoryBoot, Boot: &BootEvent{Count: 1}},
		{Timestamp: base.Add(time.Second), BootID: "a", Category: CategoryTimer, Timer: &TimerEvent{Action: TimerArmed}},
		{Timestamp: base.Add(10 * time.Second), BootID: "b", Category: CategoryBoot, Boot: &BootEvent{Count: 1}},
		{Timestamp: base.Add(11 * time.Second), BootID: "b", Category: CategoryState, State: &StateEvent{NewState: "COUNTING"}},
	}
	path := writeJournal(t, events)

	boot := CategoryBoot
	start := base.Add(time.Second)
	end := base.Add(11 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"boot id", Filter{BootID: "a"}, 2},
		{"category", Filter{Category: &boot}, 2},
		{"time range", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{BootID: "b", Category: &boot}, 1},
		{"no match", Filter{BootID: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()
			if got := len(readAll(t, r)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderTruncatedTail(t *testing.T) {
	path := writeJournal(t, []Event{
		{Timestamp: time.Now(), BootID: "a", Category: CategoryBoot, Boot: &BootEvent{Count: 1}},
		{Timestamp: time.Now(), BootID: "a", Category: CategoryBoot, Boot: &BootEvent{Count: 2}},
	})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// Cut the last record in half, as a power loss during a write would.
	if err := os.Truncate(path, info.Size()-5); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got := len(readAll(t, r)); got != 1 {
		t.Errorf("got %d events, want 1", got)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "absent.qlog")); err == nil {
		t.Error("expected error for missing file")
	}
}
