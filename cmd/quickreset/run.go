package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mash-protocol/quickreset/internal/config"
	"github.com/mash-protocol/quickreset/pkg/bootguard"
	"github.com/mash-protocol/quickreset/pkg/journal"
	"github.com/mash-protocol/quickreset/pkg/metrics"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/oneshot"
	"github.com/mash-protocol/quickreset/pkg/reboot"
	"github.com/mash-protocol/quickreset/pkg/wakeup"
)

// waitSlack bounds Wait beyond the window, in case the timer never fires.
const waitSlack = 2 * time.Second

// loadConfig builds the configuration from defaults, the optional file and
// explicitly set flags, and validates it.
func loadConfig(args []string) (config.Config, error) {
	var v flagValues
	fs := newFlagSet(&v)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if v.ConfigFile != "" {
		var err error
		cfg, err = config.Load(v.ConfigFile)
		if err != nil {
			return config.Config{}, err
		}
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Storage.Backend = v.Backend
		case "storage":
			cfg.Storage.Path = v.Storage
		case "namespace":
			cfg.Storage.Namespace = v.Namespace
		case "threshold":
			if v.Threshold > math.MaxUint32 {
				flagErr = fmt.Errorf("invalid -threshold: %w, got %d", config.ErrInvalidThreshold, v.Threshold)
				return
			}
			cfg.Threshold = uint32(v.Threshold)
		case "window":
			d, err := time.ParseDuration(v.Window)
			if err != nil {
				flagErr = fmt.Errorf("invalid -window: %w", err)
				return
			}
			cfg.Window = d
		case "scheduler":
			cfg.Scheduler = v.Scheduler
		case "journal":
			cfg.Journal.Path = v.Journal
		case "journal-console":
			cfg.Journal.Console = v.Console
		case "metrics":
			cfg.MetricsTextfile = v.Metrics
		case "wakeup-file":
			cfg.WakeupCauseFile = v.WakeupFile
		case "wait":
			cfg.Wait = v.Wait
		case "log-level":
			cfg.LogLevel = v.LogLevel
		}
	})
	if flagErr != nil {
		return config.Config{}, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run evaluates the boot and, if configured, waits for the window. Errors
// are returned for logging only.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) (reboot.Result, error) {
	backend, err := nvs.NewBackend(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return reboot.Result{}, err
	}
	if b, ok := backend.(*nvs.BadgerBackend); ok {
		b.SetLogger(logger)
	}

	var sched oneshot.Scheduler
	if cfg.Scheduler == config.SchedulerGocron {
		g, err := oneshot.NewGocronScheduler()
		if err != nil {
			logger.Warn("gocron scheduler unavailable, using timers", "error", err)
		} else {
			defer func() {
				if err := g.Shutdown(); err != nil {
					logger.Warn("gocron shutdown", "error", err)
				}
			}()
			sched = g
		}
	}

	journalLogger := openJournal(cfg.Journal, logger)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.MetricsTextfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	var source wakeup.Source
	if cfg.WakeupCauseFile != "" {
		source = wakeup.NewFileSource(cfg.WakeupCauseFile)
	}

	keys := cfg.ResetKeys()
	guard, err := bootguard.New(bootguard.Config{
		Backend:   backend,
		Namespace: cfg.Storage.Namespace,
		Threshold: cfg.Threshold,
		Window:    cfg.Window,
		Keys:      &keys,
		Scheduler: sched,
		Wakeup:    source,
		Journal:   journalLogger,
		Metrics:   recorder,
		Logger:    logger,
	})
	if err != nil {
		return reboot.Result{}, err
	}
	defer func() {
		if err := guard.Close(); err != nil {
			logger.Warn("close", "error", err)
		}
	}()

	writeMetrics := func() {
		if prom == nil {
			return
		}
		if err := prom.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("write metrics textfile failed", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	res, runErr := guard.Run()
	writeMetrics()

	if cfg.Wait && res.State == reboot.StateCounting {
		logger.Debug("waiting for quick reboot window", "window", cfg.Window)
		waitCtx, cancel := context.WithTimeout(ctx, cfg.Window+waitSlack)
		err := guard.Wait(waitCtx)
		cancel()
		if err != nil {
			logger.Warn("stopped before the quick reboot window elapsed", "error", err)
		}
		writeMetrics()
	}
	return res, runErr
}

// openJournal opens the configured journal. Failing to open the file only
// disables it.
func openJournal(cfg config.JournalConfig, logger *slog.Logger) journal.Logger {
	var loggers []journal.Logger
	if cfg.Path != "" {
		fl, err := journal.NewFileLogger(cfg.Path)
		if err != nil {
			logger.Warn("journal disabled", "path", cfg.Path, "error", err)
		} else {
			fl.SetSync(cfg.Sync)
			loggers = append(loggers, fl)
		}
	}
	if cfg.Console {
		loggers = append(loggers, journal.NewSlogAdapter(logger))
	}
	switch len(loggers) {
	case 0:
		return journal.NoopLogger{}
	case 1:
		return loggers[0]
	default:
		return journal.NewMultiLogger(loggers...)
	}
}
