// Command quickreset-kv inspects and edits the quickreset storage.
//
// Usage:
//
//	quickreset-kv [flags] <command> [args]
//
// Commands:
//
//	get <key>          Print a value
//	set <key> <value>  Store a value
//	del <key>          Delete a key
//	counter            Print the quick reboot counter
//
// Values are printed and parsed as text unless -hex is given. Set with -u32
// stores a 4-byte little-endian integer, the counter encoding.
//
// Examples:
//
//	# Show the current streak
//	quickreset-kv -storage /var/lib/quickreset/nvs.db counter
//
//	# Clear the reset flag after the cloud acknowledged it
//	quickreset-kv del qcloud.rst
package main

import (
	"flag"
	"fmt"
	"os"
)

const usage = `quickreset-kv - Quick Reboot Storage Tool

Usage:
  quickreset-kv [flags] <command> [args]

Commands:
  get <key>          Print a value
  set <key> <value>  Store a value
  del <key>          Delete a key
  counter            Print the quick reboot counter

Flags:
`

func main() {
	var opts options
	fs := flag.NewFlagSet("quickreset-kv", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	opts.register(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	if err := execute(opts, fs.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
