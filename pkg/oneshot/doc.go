// Package oneshot implements single-shot, self-releasing timers.
//
// A Timer hands one task at a time to a Scheduler. When the task fires, the
// timer runs the callback and then drops and stops its own task, so nothing
// stays registered with the scheduler afterwards. Starting a timer that is
// still pending replaces the pending task; there is never more than one.
//
// There is no cancel operation. If the process exits before the task fires,
// the callback simply never runs.
//
// # Schedulers
//
//   - AfterFuncScheduler: time.AfterFunc, one goroutine per firing
//   - GocronScheduler: gocron one-time jobs limited to a single run
//   - ManualScheduler: fires only when told to, for deterministic tests
package oneshot
