package bootguard

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/quickreset/pkg/factoryreset"
	"github.com/mash-protocol/quickreset/pkg/journal"
	"github.com/mash-protocol/quickreset/pkg/metrics"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/oneshot"
	"github.com/mash-protocol/quickreset/pkg/reboot"
	"github.com/mash-protocol/quickreset/pkg/wakeup"
)

const ns = "iotkit-kv"

type captureJournal struct {
	mu     sync.Mutex
	events []journal.Event
}

func (c *captureJournal) Log(e journal.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureJournal) byCategory(cat journal.Category) []journal.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []journal.Event
	for _, e := range c.events {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

type failingScheduler struct{}

func (failingScheduler) Schedule(time.Duration, func()) (oneshot.Task, error) {
	return nil, errors.New("no timer slots")
}

type failingSource struct{}

func (failingSource) Cause() (wakeup.Cause, error) {
	return wakeup.CauseUndefined, errors.New("rtc unavailable")
}

type fixture struct {
	backend *nvs.MemoryBackend
	sched   *oneshot.ManualScheduler
	journal *captureJournal
	reg     *prom.Registry
	metrics *metrics.PrometheusRecorder
}

func newFixture() *fixture {
	reg := prom.NewRegistry()
	return &fixture{
		backend: nvs.NewMemoryBackend(),
		sched:   oneshot.NewManualScheduler(),
		journal: &captureJournal{},
		reg:     reg,
		metrics: metrics.NewPrometheusRecorder(reg),
	}
}

func (f *fixture) guard(t *testing.T, modify ...func(*Config)) *Guard {
	t.Helper()
	cfg := Config{
		Backend:   f.backend,
		Namespace: ns,
		Scheduler: f.sched,
		Journal:   f.journal,
		Metrics:   f.metrics,
		BootID:    "boot-test",
	}
	for _, m := range modify {
		m(&cfg)
	}
	g, err := New(cfg)
	require.NoError(t, err)
	return g
}

func (f *fixture) seedCounter(t *testing.T, n uint32) {
	t.Helper()
	s := nvs.NewStore(f.backend, ns)
	require.NoError(t, s.Set(reboot.DefaultCounterKey, reboot.EncodeCount(n)))
}

func (f *fixture) metric(t *testing.T, name string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				sum += c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				sum += g.GetValue()
			}
		}
		return sum
	}
	return 0
}

func isDone(g *Guard) bool {
	select {
	case <-g.Done():
		return true
	default:
		return false
	}
}

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestNewGeneratesBootID(t *testing.T) {
	g, err := New(Config{Backend: nvs.NewMemoryBackend()})
	require.NoError(t, err)
	assert.Len(t, g.BootID(), 36)
}

func TestRunCountingThenWindowExpiry(t *testing.T) {
	f := newFixture()
	g := f.guard(t)

	res, err := g.Run()
	require.NoError(t, err)
	assert.Equal(t, reboot.StateCounting, res.State)
	assert.Equal(t, uint32(1), res.Count)
	assert.False(t, isDone(g))

	boots := f.journal.byCategory(journal.CategoryBoot)
	require.Len(t, boots, 1)
	assert.Equal(t, "boot-test", boots[0].BootID)
	assert.Equal(t, uint32(1), boots[0].Boot.Count)
	assert.Equal(t, "COUNTING", boots[0].Boot.Outcome)
	assert.Equal(t, "undefined", boots[0].Boot.WakeupCause)

	timers := f.journal.byCategory(journal.CategoryTimer)
	require.Len(t, timers, 1)
	assert.Equal(t, journal.TimerArmed, timers[0].Timer.Action)
	assert.Equal(t, 1.0, f.metric(t, "quickreset_reboot_streak"))

	// The window elapses.
	f.sched.Fire()
	require.NoError(t, g.Wait(context.Background()))

	assert.False(t, f.backend.Has(ns, reboot.DefaultCounterKey))
	assert.Equal(t, reboot.StateIdle, g.State())
	assert.Equal(t, 1.0, f.metric(t, "quickreset_window_expiries_total"))
	assert.Equal(t, 0.0, f.metric(t, "quickreset_reboot_streak"))

	timers = f.journal.byCategory(journal.CategoryTimer)
	require.Len(t, timers, 2)
	assert.Equal(t, journal.TimerExpired, timers[1].Timer.Action)

	states := f.journal.byCategory(journal.CategoryState)
	require.Len(t, states, 2)
	assert.Equal(t, "COUNTING", states[0].State.NewState)
	assert.Equal(t, "IDLE", states[1].State.NewState)
}

func TestRunThresholdTriggersReset(t *testing.T) {
	f := newFixture()
	f.seedCounter(t, reboot.DefaultThreshold-1)
	s := nvs.NewStore(f.backend, ns)
	require.NoError(t, s.Set(factoryreset.DefaultSSIDKey, []byte("home")))

	g := f.guard(t)
	res, err := g.Run()
	require.NoError(t, err)
	assert.Equal(t, reboot.StateResetTriggered, res.State)
	assert.True(t, isDone(g))

	assert.Equal(t, []byte{factoryreset.FlagValue}, f.backend.Value(ns, factoryreset.DefaultFlagKey))
	assert.False(t, f.backend.Has(ns, factoryreset.DefaultSSIDKey))
	assert.Equal(t, 1.0, f.metric(t, "quickreset_factory_resets_total"))
	assert.Len(t, f.journal.byCategory(journal.CategoryReset), 4)
	assert.Equal(t, 0, f.sched.Pending())
}

func TestRunWakeupSkipsDetection(t *testing.T) {
	f := newFixture()
	f.seedCounter(t, 3)

	g := f.guard(t, func(c *Config) { c.Wakeup = wakeup.Static(wakeup.CauseTimer) })
	res, err := g.Run()
	require.NoError(t, err)
	assert.Equal(t, reboot.StateSkipped, res.State)
	assert.True(t, isDone(g))
	assert.False(t, f.backend.Has(ns, reboot.DefaultCounterKey))
	assert.Equal(t, 0, f.sched.Pending())

	boots := f.journal.byCategory(journal.CategoryBoot)
	require.Len(t, boots, 1)
	assert.Equal(t, "timer", boots[0].Boot.WakeupCause)
}

func TestRunWakeupSourceErrorCountsBoot(t *testing.T) {
	f := newFixture()
	g := f.guard(t, func(c *Config) { c.Wakeup = failingSource{} })

	res, err := g.Run()
	require.NoError(t, err)
	assert.Equal(t, reboot.StateCounting, res.State)
	assert.Len(t, f.journal.byCategory(journal.CategoryError), 1)
}

func TestRunStorageUnavailable(t *testing.T) {
	f := newFixture()
	f.backend.OpenErrs = []error{nvs.ErrCorrupt, nvs.ErrCorrupt}

	g := f.guard(t)
	res, err := g.Run()
	require.ErrorIs(t, err, nvs.ErrInitFailed)
	assert.Equal(t, reboot.StateDisabled, res.State)
	assert.True(t, isDone(g))
	assert.Equal(t, 1.0, f.metric(t, "quickreset_storage_errors_total"))

	storage := f.journal.byCategory(journal.CategoryStorage)
	require.Len(t, storage, 1)
	assert.Equal(t, "INIT_FAILED", storage[0].Storage.Kind)
}

func TestRunWriteFailureIsJournaled(t *testing.T) {
	f := newFixture()
	f.backend.PutErr = errors.New("flash write failed")

	g := f.guard(t)
	res, err := g.Run()
	require.NoError(t, err)
	assert.False(t, res.Persisted)

	storage := f.journal.byCategory(journal.CategoryStorage)
	require.Len(t, storage, 1)
	assert.Equal(t, metrics.OpSet, storage[0].Storage.Op)
	assert.Equal(t, reboot.DefaultCounterKey, storage[0].Storage.Key)
	assert.Contains(t, storage[0].Storage.Error, "flash write failed")
}

func TestRunOnce(t *testing.T) {
	f := newFixture()
	g := f.guard(t)

	first, err := g.Run()
	require.NoError(t, err)
	second, err := g.Run()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	n, ok := reboot.DecodeCount(f.backend.Value(ns, reboot.DefaultCounterKey))
	require.True(t, ok)
	assert.Equal(t, uint32(1), n)
}

func TestRunTimerArmFailure(t *testing.T) {
	f := newFixture()
	g := f.guard(t, func(c *Config) { c.Scheduler = failingScheduler{} })

	res, err := g.Run()
	require.NoError(t, err)
	assert.Equal(t, reboot.StateCounting, res.State)
	assert.True(t, isDone(g), "nothing to wait for")

	timers := f.journal.byCategory(journal.CategoryTimer)
	require.Len(t, timers, 1)
	assert.Equal(t, journal.TimerFailed, timers[0].Timer.Action)
}

func TestWaitHonorsContext(t *testing.T) {
	f := newFixture()
	g := f.guard(t)
	_, err := g.Run()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
}

func TestCloseKeepsCounter(t *testing.T) {
	f := newFixture()
	g := f.guard(t)
	_, err := g.Run()
	require.NoError(t, err)

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	assert.True(t, isDone(g))
	assert.Equal(t, 0, f.sched.Pending())
	assert.True(t, f.backend.Has(ns, reboot.DefaultCounterKey))

	// Next boot continues the streak.
	res, err := f.guard(t).Run()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), res.Count)
}

func TestCloseClosesFileJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.qlog")
	fl, err := journal.NewFileLogger(path)
	require.NoError(t, err)

	f := newFixture()
	g := f.guard(t, func(c *Config) { c.Journal = fl })
	_, err = g.Run()
	require.NoError(t, err)
	require.NoError(t, g.Close())

	r, err := journal.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var cats []journal.Category
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "boot-test", e.BootID)
		cats = append(cats, e.Category)
	}
	assert.Contains(t, cats, journal.CategoryBoot)
	assert.Contains(t, cats, journal.CategoryTimer)
}

// Five quick power cycles through the guard, with a real bolt file.
func TestQuickRebootGestureOnBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvs.db")
	s := nvs.NewStore(nvs.NewBoltBackend(path), ns)
	require.NoError(t, s.Set(factoryreset.DefaultPasswordKey, []byte("secret")))
	require.NoError(t, s.Close())

	var last reboot.Result
	for i := range reboot.DefaultThreshold {
		g, err := New(Config{
			Backend:   nvs.NewBoltBackend(path),
			Namespace: ns,
			Scheduler: oneshot.NewManualScheduler(),
		})
		require.NoError(t, err)
		last, err = g.Run()
		require.NoError(t, err)
		assert.Equal(t, i+1, last.Count)
		require.NoError(t, g.Close())
	}
	assert.Equal(t, reboot.StateResetTriggered, last.State)

	s = nvs.NewStore(nvs.NewBoltBackend(path), ns)
	defer s.Close()
	_, err := s.Get(factoryreset.DefaultPasswordKey)
	assert.ErrorIs(t, err, nvs.ErrNotFound)
	flag, err := s.Get(factoryreset.DefaultFlagKey)
	require.NoError(t, err)
	assert.Equal(t, []byte{factoryreset.FlagValue}, flag)
}
