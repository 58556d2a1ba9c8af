package quickreset_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mash-protocol/quickreset/pkg/bootguard"
	"github.com/mash-protocol/quickreset/pkg/factoryreset"
	"github.com/mash-protocol/quickreset/pkg/journal"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/reboot"
	"github.com/mash-protocol/quickreset/pkg/wakeup"
)

const e2eWindow = 200 * time.Millisecond

// storagePath returns a backend path inside dir. Badger wants a directory.
func storagePath(dir, backend string) string {
	if backend == nvs.BackendBadger {
		return filepath.Join(dir, "nvs")
	}
	return filepath.Join(dir, "nvs.db")
}

// powerCycle runs one boot and loses power before the window elapses.
func powerCycle(t *testing.T, backend, path string, cfg bootguard.Config) reboot.Result {
	t.Helper()

	b, err := nvs.NewBackend(backend, path)
	if err != nil {
		t.Fatalf("NewBackend(%s) error: %v", backend, err)
	}
	cfg.Backend = b
	cfg.Window = e2eWindow

	g, err := bootguard.New(cfg)
	if err != nil {
		t.Fatalf("bootguard.New() error: %v", err)
	}
	res, err := g.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	return res
}

func readKey(t *testing.T, backend, path, key string) ([]byte, error) {
	t.Helper()

	b, err := nvs.NewBackend(backend, path)
	if err != nil {
		t.Fatalf("NewBackend(%s) error: %v", backend, err)
	}
	s := nvs.NewStore(b, "iotkit-kv")
	defer s.Close()
	return s.Get(key)
}

func seed(t *testing.T, backend, path string) {
	t.Helper()

	b, err := nvs.NewBackend(backend, path)
	if err != nil {
		t.Fatalf("NewBackend(%s) error: %v", backend, err)
	}
	s := nvs.NewStore(b, "iotkit-kv")
	defer s.Close()
	if err := s.Set(factoryreset.DefaultSSIDKey, []byte("home")); err != nil {
		t.Fatalf("seed ssid: %v", err)
	}
	if err := s.Set(factoryreset.DefaultPasswordKey, []byte("secret")); err != nil {
		t.Fatalf("seed password: %v", err)
	}
}

// TestE2E_Gesture power-cycles five times in a row on every durable backend.
func TestE2E_Gesture(t *testing.T) {
	for _, backend := range []string{nvs.BackendBolt, nvs.BackendBadger, nvs.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			path := storagePath(t.TempDir(), backend)
			seed(t, backend, path)

			for k := uint32(1); k < reboot.DefaultThreshold; k++ {
				res := powerCycle(t, backend, path, bootguard.Config{})
				if res.State != reboot.StateCounting {
					t.Fatalf("boot %d: state = %s, want COUNTING", k, res.State)
				}
				if res.Count != k {
					t.Fatalf("boot %d: count = %d", k, res.Count)
				}
			}

			res := powerCycle(t, backend, path, bootguard.Config{})
			if res.State != reboot.StateResetTriggered {
				t.Fatalf("state = %s, want RESET_TRIGGERED", res.State)
			}
			if res.ResetErr != nil {
				t.Errorf("ResetErr = %v", res.ResetErr)
			}

			flag, err := readKey(t, backend, path, factoryreset.DefaultFlagKey)
			if err != nil {
				t.Fatalf("read flag: %v", err)
			}
			if len(flag) != 1 || flag[0] != factoryreset.FlagValue {
				t.Errorf("flag = %x, want 01", flag)
			}
			for _, key := range []string{reboot.DefaultCounterKey, factoryreset.DefaultSSIDKey, factoryreset.DefaultPasswordKey} {
				if _, err := readKey(t, backend, path, key); !errors.Is(err, nvs.ErrNotFound) {
					t.Errorf("key %s: err = %v, want ErrNotFound", key, err)
				}
			}

			// The gesture starts over after a reset.
			if res := powerCycle(t, backend, path, bootguard.Config{}); res.Count != 1 {
				t.Errorf("count after reset = %d, want 1", res.Count)
			}
		})
	}
}

// TestE2E_WindowExpiry keeps the device up past the window between boots.
func TestE2E_WindowExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvs.db")

	for i := 0; i < int(reboot.DefaultThreshold)+2; i++ {
		b, err := nvs.NewBackend(nvs.BackendBolt, path)
		if err != nil {
			t.Fatalf("NewBackend() error: %v", err)
		}
		g, err := bootguard.New(bootguard.Config{Backend: b, Window: e2eWindow})
		if err != nil {
			t.Fatalf("bootguard.New() error: %v", err)
		}
		res, err := g.Run()
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if res.Count != 1 {
			t.Fatalf("boot %d: count = %d, want 1", i, res.Count)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = g.Wait(ctx)
		cancel()
		if err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
		if g.State() != reboot.StateIdle {
			t.Fatalf("state after window = %s, want IDLE", g.State())
		}
		if err := g.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
	}

	if _, err := readKey(t, nvs.BackendBolt, path, factoryreset.DefaultFlagKey); !errors.Is(err, nvs.ErrNotFound) {
		t.Errorf("flag: err = %v, want ErrNotFound", err)
	}
}

// TestE2E_WakeupDoesNotCount interleaves sleep wakeups with power cycles.
func TestE2E_WakeupDoesNotCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvs.db")

	for range reboot.DefaultThreshold - 1 {
		powerCycle(t, nvs.BackendBolt, path, bootguard.Config{})
	}

	res := powerCycle(t, nvs.BackendBolt, path, bootguard.Config{Wakeup: wakeup.Static(wakeup.CauseTimer)})
	if res.State != reboot.StateSkipped {
		t.Fatalf("state = %s, want SKIPPED", res.State)
	}

	res = powerCycle(t, nvs.BackendBolt, path, bootguard.Config{})
	if res.Count != 1 {
		t.Errorf("count after wakeup = %d, want 1", res.Count)
	}
}

// TestE2E_Journal records every boot of a gesture in one journal file.
func TestE2E_Journal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nvs.db")
	journalPath := filepath.Join(dir, "boot.jlog")

	bootIDs := make(map[string]bool)
	for range reboot.DefaultThreshold {
		fl, err := journal.NewFileLogger(journalPath)
		if err != nil {
			t.Fatalf("NewFileLogger() error: %v", err)
		}
		// Close also closes the journal.
		powerCycle(t, nvs.BackendBolt, path, bootguard.Config{Journal: fl})
	}

	category := journal.CategoryBoot
	r, err := journal.NewFilteredReader(journalPath, journal.Filter{Category: &category})
	if err != nil {
		t.Fatalf("NewFilteredReader() error: %v", err)
	}
	defer r.Close()

	var last *journal.BootEvent
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		bootIDs[ev.BootID] = true
		last = ev.Boot
	}

	if len(bootIDs) != int(reboot.DefaultThreshold) {
		t.Errorf("boot IDs = %d, want %d", len(bootIDs), reboot.DefaultThreshold)
	}
	if last == nil || last.Count != reboot.DefaultThreshold {
		t.Fatalf("last boot event = %+v", last)
	}
}
