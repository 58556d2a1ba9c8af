// Package journal records boot-time reset detection events.
//
// The journal is separate from operational logging (slog). Operational logs
// go to the console and may be lost with the boot; the journal is an
// append-only, machine-readable trace that survives reboots and lets an
// operator reconstruct a streak of quick reboots after the fact.
//
// # Basic Usage
//
//	// Console only, for development
//	j := journal.NewSlogAdapter(slog.Default())
//
//	// File, for devices
//	j, _ := journal.NewFileLogger("/var/lib/quickreset/boot.qlog")
//
//	// Both
//	j = journal.NewMultiLogger(journal.NewSlogAdapter(slog.Default()), fileLogger)
//
// # File Format
//
// Journal files are a sequence of CBOR-encoded Events with integer keys.
// The quickreset-log tool views, filters and exports them.
package journal
