// Command quickreset runs quick reboot factory reset detection at boot.
//
// It counts boots in durable storage. If the device is power-cycled
// threshold times in a row, each time before the reset window elapsed, it
// raises the factory reset flag and erases the stored network credentials.
// Run it once, early in every boot.
//
// Usage:
//
//	quickreset [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-backend string     Storage backend: bolt, badger, sqlite, memory
//	-storage string     Storage file or directory
//	-namespace string   Storage namespace
//	-threshold uint     Quick reboots that trigger a reset
//	-window duration    Uptime that ends a streak
//	-scheduler string   Window timer: afterfunc, gocron
//	-journal string     Journal file path
//	-metrics string     Prometheus textfile path
//	-wakeup-file string Boot cause file
//	-wait               Stay up until the window elapsed
//	-log-level string   Log level: debug, info, warn, error
//
// Examples:
//
//	# Defaults: bolt file under /var/lib/quickreset, 5 boots, 5s window
//	quickreset
//
//	# Config file plus an override
//	quickreset -config /etc/quickreset.yaml -log-level debug
//
// Storage and timer failures are logged and never fail the boot: the exit
// status is 0 unless the configuration itself is invalid.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mash-protocol/quickreset/internal/config"
)

// flagValues holds command-line values. Only flags set explicitly override
// the configuration file.
type flagValues struct {
	ConfigFile string
	Backend    string
	Storage    string
	Namespace  string
	Threshold  uint
	Window     string
	Scheduler  string
	Journal    string
	Console    bool
	Metrics    string
	WakeupFile string
	Wait       bool
	LogLevel   string
}

func newFlagSet(v *flagValues) *flag.FlagSet {
	def := config.Default()
	fs := flag.NewFlagSet("quickreset", flag.ContinueOnError)
	fs.StringVar(&v.ConfigFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&v.Backend, "backend", def.Storage.Backend, "Storage backend: bolt, badger, sqlite, memory")
	fs.StringVar(&v.Storage, "storage", def.Storage.Path, "Storage file or directory")
	fs.StringVar(&v.Namespace, "namespace", def.Storage.Namespace, "Storage namespace")
	fs.UintVar(&v.Threshold, "threshold", uint(def.Threshold), "Quick reboots that trigger a reset")
	fs.StringVar(&v.Window, "window", def.Window.String(), "Uptime that ends a streak")
	fs.StringVar(&v.Scheduler, "scheduler", def.Scheduler, "Window timer: afterfunc, gocron")
	fs.StringVar(&v.Journal, "journal", "", "Journal file path (empty disables)")
	fs.BoolVar(&v.Console, "journal-console", false, "Also write journal events to the log")
	fs.StringVar(&v.Metrics, "metrics", "", "Prometheus textfile path (empty disables)")
	fs.StringVar(&v.WakeupFile, "wakeup-file", "", "Boot cause file (empty means every boot is a power cycle)")
	fs.BoolVar(&v.Wait, "wait", def.Wait, "Stay up until the window elapsed")
	fs.StringVar(&v.LogLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	return fs
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "quickreset: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Error("quick reboot detection failed, continuing boot", "error", err)
		return
	}
	logger.Info("quick reboot detection done", "state", res.State, "count", res.Count)
}

func setupLogging(level string) *slog.Logger {
	lvl, _ := config.ParseLevel(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
