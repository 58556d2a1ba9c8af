package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mash-protocol/quickreset/pkg/journal"
)

// RunExport exports the journal to format (jsonl or csv). An empty output
// writes to stdout.
func RunExport(path, format, output string) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *journal.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *journal.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "boot_id", "category", "detail", "count", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var detail, count, errMsg string
		switch {
		case event.Boot != nil:
			detail = event.Boot.Outcome
			count = strconv.FormatUint(uint64(event.Boot.Count), 10)
		case event.State != nil:
			detail = event.State.NewState
		case event.Timer != nil:
			detail = event.Timer.Action.String()
			errMsg = event.Timer.Error
		case event.Reset != nil:
			detail = event.Reset.Step + ":" + event.Reset.Key
			errMsg = event.Reset.Error
		case event.Storage != nil:
			detail = event.Storage.Op + ":" + event.Storage.Key
			errMsg = event.Storage.Error
		case event.Error != nil:
			detail = event.Error.Component
			errMsg = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.BootID,
			event.Category.String(),
			detail,
			count,
			errMsg,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
}
