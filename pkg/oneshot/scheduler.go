package oneshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// AfterFuncScheduler schedules tasks with time.AfterFunc.
type AfterFuncScheduler struct{}

// Schedule implements Scheduler.
func (AfterFuncScheduler) Schedule(d time.Duration, fn func()) (Task, error) {
	return time.AfterFunc(d, fn), nil
}

// GocronScheduler schedules tasks as gocron one-time jobs. Each job is limited
// to a single run, after which gocron removes it from the scheduler.
type GocronScheduler struct {
	scheduler gocron.Scheduler
}

// NewGocronScheduler creates and starts a gocron scheduler.
func NewGocronScheduler() (*GocronScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	s.Start()
	return &GocronScheduler{scheduler: s}, nil
}

// Schedule implements Scheduler.
func (g *GocronScheduler) Schedule(d time.Duration, fn func()) (Task, error) {
	job, err := g.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(d))),
		gocron.NewTask(fn),
		gocron.WithName("quick-reboot-window"),
		gocron.WithLimitedRuns(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create one-shot job: %w", err)
	}
	return &gocronTask{scheduler: g.scheduler, job: job}, nil
}

// Jobs returns the number of jobs still registered.
func (g *GocronScheduler) Jobs() int {
	return len(g.scheduler.Jobs())
}

// Shutdown stops the scheduler and removes all jobs.
func (g *GocronScheduler) Shutdown() error {
	return g.scheduler.Shutdown()
}

type gocronTask struct {
	scheduler gocron.Scheduler
	job       gocron.Job
}

func (t *gocronTask) Stop() bool {
	return t.scheduler.RemoveJob(t.job.ID()) == nil
}

// ManualScheduler holds scheduled tasks until Fire is called.
// It is safe for concurrent use.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler. The delay is recorded but not waited for.
func (m *ManualScheduler) Schedule(d time.Duration, fn func()) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := &manualTask{owner: m, delay: d, fn: fn}
	m.tasks = append(m.tasks, task)
	return task, nil
}

// Pending returns the number of tasks that have neither fired nor stopped.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// LastDelay returns the delay of the most recently scheduled pending task.
func (m *ManualScheduler) LastDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return 0
	}
	return m.tasks[len(m.tasks)-1].delay
}

// Fire runs all pending tasks in scheduling order and returns how many ran.
func (m *ManualScheduler) Fire() int {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	for _, task := range tasks {
		task.fn()
	}
	return len(tasks)
}

func (m *ManualScheduler) remove(task *manualTask) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t == task {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}

type manualTask struct {
	owner *ManualScheduler
	delay time.Duration
	fn    func()
}

func (t *manualTask) Stop() bool {
	return t.owner.remove(t)
}

var (
	_ Scheduler = AfterFuncScheduler{}
	_ Scheduler = (*GocronScheduler)(nil)
	_ Scheduler = (*ManualScheduler)(nil)
)
