package journal

import (
	"context"
	"log/slog"
)

// SlogAdapter writes journal events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "journal", Attrs(event)...)
}

// Attrs flattens an event into slog attributes.
func Attrs(event Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("boot_id", event.BootID),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.Boot != nil:
		attrs = append(attrs,
			slog.Uint64("previous", uint64(event.Boot.Previous)),
			slog.Uint64("count", uint64(event.Boot.Count)),
			slog.Uint64("threshold", uint64(event.Boot.Threshold)),
			slog.Duration("window", event.Boot.Window),
			slog.Bool("persisted", event.Boot.Persisted),
			slog.String("outcome", event.Boot.Outcome),
		)
		if event.Boot.WakeupCause != "" {
			attrs = append(attrs, slog.String("wakeup_cause", event.Boot.WakeupCause))
		}
	case event.State != nil:
		attrs = append(attrs,
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Timer != nil:
		attrs = append(attrs, slog.String("timer", event.Timer.Action.String()))
		if event.Timer.Window != 0 {
			attrs = append(attrs, slog.Duration("window", event.Timer.Window))
		}
		if event.Timer.Error != "" {
			attrs = append(attrs, slog.String("error", event.Timer.Error))
		}
	case event.Reset != nil:
		attrs = append(attrs,
			slog.String("step", event.Reset.Step),
			slog.String("key", event.Reset.Key),
		)
		if event.Reset.Error != "" {
			attrs = append(attrs, slog.String("error", event.Reset.Error))
		}
	case event.Storage != nil:
		attrs = append(attrs,
			slog.String("op", event.Storage.Op),
			slog.String("error", event.Storage.Error),
		)
		if event.Storage.Key != "" {
			attrs = append(attrs, slog.String("key", event.Storage.Key))
		}
		if event.Storage.Kind != "" {
			attrs = append(attrs, slog.String("kind", event.Storage.Kind))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("component", event.Error.Component),
			slog.String("error", event.Error.Message),
		)
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
