// Package jobmgr tracks named background jobs with cancellation.
//
// Two start flavors cover the two lifecycles the bot needs:
//
//   - Start: at most one job per name; starting a duplicate is a no-op.
//     Used for per-guild resolver loops, which must never run twice.
//   - StartReplace: starting a job cancels and replaces any job with the
//     same name. Used for per-guild idle timers, which debounce.
//
// Jobs run in their own goroutine and are removed on completion.
// The package is intentionally minimal: no retries, no workers, no persistence.
package jobmgr

import (
	"context"
	"sync"
)

// ErrFunc is the body of a job. It should return promptly once ctx is done.
type ErrFunc func(ctx context.Context) error

// StatusReporter receives lifecycle events for jobs.
// Example messages: "running:resolve", "error:resolve:lookup failed", "done:resolve".
type StatusReporter func(string)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	Reporter StatusReporter
}

// NewManager creates a new Manager. The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		Reporter: reporter,
	}
}

// Start launches the runner under the given name unless a job with that name
// is already running. Returns true if a new job was started.
func (m *Manager) Start(name string, runner ErrFunc) bool {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return false
	}
	j := m.launch(name, runner)
	m.jobs[name] = j
	m.mu.Unlock()
	return true
}

// StartReplace cancels any job running under the given name, waits for it to
// finish, and launches the runner in its place.
func (m *Manager) StartReplace(name string, runner ErrFunc) {
	m.mu.Lock()
	old := m.jobs[name]
	delete(m.jobs, name)
	m.mu.Unlock()

	if old != nil {
		old.cancel()
		<-old.done
	}

	m.mu.Lock()
	j := m.launch(name, runner)
	m.jobs[name] = j
	m.mu.Unlock()
}

// Stop cancels a running job by name and waits for it to finish.
// Stopping a job that is not running is a no-op.
func (m *Manager) Stop(name string) {
	m.mu.Lock()
	j, ok := m.jobs[name]
	delete(m.jobs, name)
	m.mu.Unlock()

	if ok {
		j.cancel()
		<-j.done
	}
}

// StopAll cancels every running job and waits for them to finish.
func (m *Manager) StopAll() {
	m.mu.Lock()
	jobs := m.jobs
	m.jobs = make(map[string]*job)
	m.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
	}
	for _, j := range jobs {
		<-j.done
	}
}

// Wait blocks until the named job has finished and deregistered.
// Waiting on an absent name returns immediately.
func (m *Manager) Wait(name string) {
	m.mu.Lock()
	j, ok := m.jobs[name]
	m.mu.Unlock()
	if ok {
		<-j.done
	}
}

// IsRunning reports whether a job with the given name is active.
func (m *Manager) IsRunning(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// launch starts the runner goroutine. Caller holds m.mu.
func (m *Manager) launch(name string, runner ErrFunc) *job {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(j.done)
		m.report("running:" + name)

		err := runner(ctx)
		if err != nil {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}

		m.mu.Lock()
		if cur, ok := m.jobs[name]; ok && cur == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return j
}

func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
