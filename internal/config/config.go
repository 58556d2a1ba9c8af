// Package config loads the quickreset configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/quickreset/pkg/factoryreset"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/reboot"
)

// Scheduler names.
const (
	SchedulerAfterFunc = "afterfunc"
	SchedulerGocron    = "gocron"
)

// Window bounds accepted by Validate.
const (
	MinWindow = 100 * time.Millisecond
	MaxWindow = 10 * time.Minute
)

// Validation errors.
var (
	ErrInvalidThreshold = errors.New("threshold must be at least 2")
	ErrInvalidWindow    = errors.New("window out of range")
	ErrUnknownBackend   = errors.New("unknown storage backend")
	ErrUnknownScheduler = errors.New("unknown scheduler")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrEmptyKey         = errors.New("key name must not be empty")
	ErrMissingPath      = errors.New("storage path required")
)

// Config is the complete configuration.
type Config struct {
	Threshold uint32        `yaml:"threshold"`
	Window    time.Duration `yaml:"window"`

	Storage StorageConfig `yaml:"storage"`
	Keys    KeysConfig    `yaml:"keys"`
	Journal JournalConfig `yaml:"journal"`

	// MetricsTextfile is the node_exporter textfile to write, empty to skip.
	MetricsTextfile string `yaml:"metrics_textfile"`

	// WakeupCauseFile holds the boot cause, empty to treat every boot as a
	// power cycle.
	WakeupCauseFile string `yaml:"wakeup_cause_file"`

	// Scheduler runs the window timer: afterfunc or gocron.
	Scheduler string `yaml:"scheduler"`

	// Wait keeps the process alive until the window has elapsed.
	Wait bool `yaml:"wait"`

	LogLevel string `yaml:"log_level"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// KeysConfig names the storage keys.
type KeysConfig struct {
	Counter  string `yaml:"counter"`
	Flag     string `yaml:"flag"`
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// JournalConfig configures the boot journal.
type JournalConfig struct {
	// Path of the journal file, empty to disable.
	Path string `yaml:"path"`

	// Console also writes journal events to the operational log.
	Console bool `yaml:"console"`

	// Sync fsyncs after every event.
	Sync bool `yaml:"sync"`
}

// DefaultNamespace is the storage namespace used by the device firmware.
const DefaultNamespace = "iotkit-kv"

// Default returns the default configuration.
func Default() Config {
	return Config{
		Threshold: reboot.DefaultThreshold,
		Window:    reboot.DefaultWindow,
		Storage: StorageConfig{
			Backend:   nvs.BackendBolt,
			Path:      "/var/lib/quickreset/nvs.db",
			Namespace: DefaultNamespace,
		},
		Keys: KeysConfig{
			Counter:  factoryreset.DefaultCounterKey,
			Flag:     factoryreset.DefaultFlagKey,
			SSID:     factoryreset.DefaultSSIDKey,
			Password: factoryreset.DefaultPasswordKey,
		},
		Journal: JournalConfig{
			Sync: true,
		},
		Scheduler: SchedulerAfterFunc,
		Wait:      true,
		LogLevel:  "info",
	}
}

// Parse decodes YAML over the defaults. Fields absent from data keep their
// default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threshold < 2 {
		return fmt.Errorf("%w, got %d", ErrInvalidThreshold, c.Threshold)
	}
	if c.Window < MinWindow || c.Window > MaxWindow {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidWindow, c.Window, MinWindow, MaxWindow)
	}
	if !slices.Contains(nvs.BackendNames, c.Storage.Backend) {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.Backend != nvs.BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w for backend %s", ErrMissingPath, c.Storage.Backend)
	}
	switch c.Scheduler {
	case SchedulerAfterFunc, SchedulerGocron:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScheduler, c.Scheduler)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for name, v := range map[string]string{
		"namespace":     c.Storage.Namespace,
		"keys.counter":  c.Keys.Counter,
		"keys.flag":     c.Keys.Flag,
		"keys.ssid":     c.Keys.SSID,
		"keys.password": c.Keys.Password,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s", ErrEmptyKey, name)
		}
	}
	return nil
}

// ResetKeys returns the keys touched by a factory reset.
func (c Config) ResetKeys() factoryreset.Keys {
	return factoryreset.Keys{
		Flag:        c.Keys.Flag,
		Counter:     c.Keys.Counter,
		Credentials: []string{c.Keys.SSID, c.Keys.Password},
	}
}
