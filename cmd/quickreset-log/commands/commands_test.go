package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/quickreset/pkg/journal"
)

func createTestJournal(t *testing.T, events []journal.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.qlog")

	logger, err := journal.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

// streakEvents is a three-boot journal: two quick reboots and a reset.
func streakEvents() []journal.Event {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	return []journal.Event{
		{Timestamp: ts, BootID: "aaaaaaaa-1", Category: journal.CategoryBoot,
			Boot: &journal.BootEvent{Previous: 0, Count: 1, Threshold: 3, Window: 5 * time.Second, Persisted: true, Outcome: "COUNTING"}},
		{Timestamp: ts.Add(time.Millisecond), BootID: "aaaaaaaa-1", Category: journal.CategoryTimer,
			Timer: &journal.TimerEvent{Action: journal.TimerArmed, Window: 5 * time.Second}},
		{Timestamp: ts.Add(2 * time.Second), BootID: "bbbbbbbb-2", Category: journal.CategoryBoot,
			Boot: &journal.BootEvent{Previous: 1, Count: 2, Threshold: 3, Window: 5 * time.Second, Persisted: false, Outcome: "COUNTING"}},
		{Timestamp: ts.Add(2 * time.Second), BootID: "bbbbbbbb-2", Category: journal.CategoryStorage,
			Storage: &journal.StorageEvent{Op: "set", Key: "q_rt", Kind: "STORAGE_ERROR", Error: "flash write failed"}},
		{Timestamp: ts.Add(4 * time.Second), BootID: "cccccccc-3", Category: journal.CategoryBoot,
			Boot: &journal.BootEvent{Previous: 2, Count: 3, Threshold: 3, Window: 5 * time.Second, Persisted: true, Outcome: "RESET_TRIGGERED"}},
		{Timestamp: ts.Add(4 * time.Second), BootID: "cccccccc-3", Category: journal.CategoryReset,
			Reset: &journal.ResetEvent{Step: "set-flag", Key: "qcloud.rst"}},
		{Timestamp: ts.Add(4 * time.Second), BootID: "cccccccc-3", Category: journal.CategoryState,
			State: &journal.StateEvent{OldState: "IDLE", NewState: "RESET_TRIGGERED"}},
	}
}

func TestRunView(t *testing.T) {
	path := createTestJournal(t, streakEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"[boot:aaaaaaaa] BOOT",
		"Count: 0 -> 1 (threshold 3, window 5s)",
		"Timer: ARMED (5s)",
		"Persisted: no",
		`Op: set "q_rt"`,
		`set-flag "qcloud.rst" ok`,
		"IDLE -> RESET_TRIGGERED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestJournal(t, streakEvents())

	boot := journal.CategoryBoot
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &boot, BootID: "cccccccc-3"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	if strings.Count(out, "BOOT") != 1 {
		t.Errorf("expected one boot event:\n%s", out)
	}
	if !strings.Contains(out, "Outcome: RESET_TRIGGERED") {
		t.Errorf("expected reset outcome:\n%s", out)
	}
}

func TestParseCategoryFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    journal.Category
		wantErr bool
	}{
		{"boot", journal.CategoryBoot, false},
		{"TIMER", journal.CategoryTimer, false},
		{"Storage", journal.CategoryStorage, false},
		{"message", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCategoryFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategoryFlag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseCategoryFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunStats(t *testing.T) {
	path := createTestJournal(t, streakEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}
	if stats.TotalEvents != 7 {
		t.Errorf("TotalEvents: got %d, want 7", stats.TotalEvents)
	}
	if len(stats.Boots) != 3 {
		t.Errorf("Boots: got %d, want 3", len(stats.Boots))
	}
	if stats.FactoryResets != 1 {
		t.Errorf("FactoryResets: got %d, want 1", stats.FactoryResets)
	}
	if stats.StorageErrors != 1 {
		t.Errorf("StorageErrors: got %d, want 1", stats.StorageErrors)
	}
	if stats.MaxStreak != 3 {
		t.Errorf("MaxStreak: got %d, want 3", stats.MaxStreak)
	}
	if stats.Outcomes["COUNTING"] != 2 {
		t.Errorf("COUNTING outcomes: got %d, want 2", stats.Outcomes["COUNTING"])
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Factory Resets:  1", "Longest Streak:  3", "BOOT:", "RESET_TRIGGERED:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunStatsEmpty(t *testing.T) {
	path := createTestJournal(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events:    0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := createTestJournal(t, streakEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7", len(lines))
	}

	var first journal.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first.Boot == nil || first.Boot.Count != 1 {
		t.Errorf("first event: got %+v", first)
	}
}

func TestRunExportCSV(t *testing.T) {
	path := createTestJournal(t, streakEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("got %d rows, want 8", len(rows))
	}
	if rows[0][1] != "boot_id" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[4][3] != "set:q_rt" || rows[4][5] != "flash write failed" {
		t.Errorf("storage row: got %v", rows[4])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := createTestJournal(t, streakEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestJournal(t, streakEvents())
	out := filepath.Join(t.TempDir(), "filtered.qlog")

	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{Output: out, Category: "boot", TimeStart: "2026-01-28T10:00:01Z"}, &buf)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Filtered 2 events") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	r, err := journal.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	n := 0
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if e.Category != journal.CategoryBoot {
			t.Errorf("unexpected category %s", e.Category)
		}
		n++
	}
	if n != 2 {
		t.Errorf("got %d events, want 2", n)
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := createTestJournal(t, streakEvents())
	out := filepath.Join(t.TempDir(), "filtered.qlog")

	for _, opts := range []FilterOptions{
		{Output: out, TimeStart: "yesterday"},
		{Output: out, TimeEnd: "tomorrow"},
		{Output: out, Category: "message"},
	} {
		if err := RunFilter(path, opts, io.Discard); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}
