// Package wakeup reports why the device booted.
//
// A boot that is a wakeup from sleep is not a power cycle and must not count
// toward a quick reboot streak.
package wakeup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Cause is the reason for the current boot.
type Cause uint8

const (
	// CauseUndefined means the boot was not a wakeup (reset or power cycle).
	CauseUndefined Cause = iota

	// CausePowerOn is an explicit power-on report.
	CausePowerOn

	// CauseTimer is a wakeup by the RTC timer.
	CauseTimer

	// CauseExternal is a wakeup by an external pin or peripheral.
	CauseExternal

	// CauseOther is any other wakeup source.
	CauseOther
)

// String returns the cause name as written in cause files.
func (c Cause) String() string {
	switch c {
	case CauseUndefined:
		return "undefined"
	case CausePowerOn:
		return "poweron"
	case CauseTimer:
		return "timer"
	case CauseExternal:
		return "external"
	case CauseOther:
		return "other"
	default:
		return fmt.Sprintf("cause(%d)", uint8(c))
	}
}

// IsWakeup reports whether the boot resumed from sleep.
func (c Cause) IsWakeup() bool {
	return c != CauseUndefined && c != CausePowerOn
}

// ParseCause parses a cause name. Matching ignores case and surrounding
// whitespace. An empty string is CauseUndefined. Unknown names parse as
// CauseOther together with an error.
func ParseCause(s string) (Cause, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "undefined", "none":
		return CauseUndefined, nil
	case "poweron", "power-on", "reset":
		return CausePowerOn, nil
	case "timer", "rtc":
		return CauseTimer, nil
	case "external", "ext0", "ext1", "gpio":
		return CauseExternal, nil
	case "other":
		return CauseOther, nil
	default:
		return CauseOther, fmt.Errorf("unknown wakeup cause %q", s)
	}
}

// Source reports the boot cause.
type Source interface {
	Cause() (Cause, error)
}

// Static is a Source with a fixed cause.
type Static Cause

// Cause returns c.
func (s Static) Cause() (Cause, error) {
	return Cause(s), nil
}

// FileSource reads the cause from a file written by the boot loader.
// A missing file means CauseUndefined.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Cause reads and parses the cause file.
func (f *FileSource) Cause() (Cause, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return CauseUndefined, nil
	}
	if err != nil {
		return CauseUndefined, fmt.Errorf("read wakeup cause: %w", err)
	}
	return ParseCause(string(data))
}

var (
	_ Source = Static(0)
	_ Source = (*FileSource)(nil)
)
