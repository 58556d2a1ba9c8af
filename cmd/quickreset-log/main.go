// Command quickreset-log views and analyzes quick reboot journals.
//
// Journals are written by quickreset when a journal path is configured.
//
// Usage:
//
//	quickreset-log <command> [flags] <file.qlog>
//
// Commands:
//
//	view     View journal in human-readable format
//	export   Export journal to JSON lines or CSV
//	filter   Filter journal and write to new file
//	stats    Show statistics about the journal
//
// Examples:
//
//	# View all events
//	quickreset-log view /var/lib/quickreset/boot.qlog
//
//	# View only boot summaries
//	quickreset-log view -category boot boot.qlog
//
//	# Export to CSV
//	quickreset-log export -format csv -o boots.csv boot.qlog
//
//	# Show statistics
//	quickreset-log stats boot.qlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mash-protocol/quickreset/cmd/quickreset-log/commands"
)

const usage = `quickreset-log - Quick Reboot Journal Analyzer

Usage:
  quickreset-log <command> [flags] <file.qlog>

Commands:
  view     View journal in human-readable format
  export   Export journal to JSON lines or CSV
  filter   Filter journal and write to new file
  stats    Show statistics about the journal

Use "quickreset-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// journalArg parses args and returns the journal path, exiting on error.
func journalArg(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `quickreset-log view - View journal in human-readable format

Usage:
  quickreset-log view [flags] <file.qlog>

Flags:
`)
		fs.PrintDefaults()
	}

	category := fs.String("category", "", "Filter by category (boot, state, timer, reset, storage, error)")
	bootID := fs.String("boot-id", "", "Filter by boot ID")

	path := journalArg(fs, args)

	filter := commands.ViewFilter{BootID: *bootID}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `quickreset-log export - Export journal to JSON lines or CSV

Usage:
  quickreset-log export [flags] <file.qlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := journalArg(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `quickreset-log filter - Filter journal and write to new file

Usage:
  quickreset-log filter [flags] <file.qlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	bootID := fs.String("boot-id", "", "Filter by boot ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (boot, state, timer, reset, storage, error)")

	path := journalArg(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		BootID:    *bootID,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Category:  *category,
	}
	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `quickreset-log stats - Show statistics about the journal

Usage:
  quickreset-log stats <file.qlog>

`)
	}

	path := journalArg(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
