package fleet

import (
	"sync"
	"time"
)

// Registry is the in-memory table of worker states. Workers are created at
// configuration load and never destroyed while the process runs; the
// Manager is the only writer, the presentation layer reads snapshots at
// arbitrary times. A single mutex serializes all writes, which also gives
// each read a consistent per-worker record; no cross-worker consistency is
// promised and none is needed.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]*Worker
	order   []string
	updates chan struct{}

	// nowFunc allows tests to control time.
	nowFunc func() time.Time
}

// Seed is the static identity a worker is registered with.
type Seed struct {
	Name string
	Host string
	Port int
}

// NewRegistry creates a registry with one Disconnected/Idle worker per
// seed, preserving configuration order.
func NewRegistry(seeds []Seed) *Registry {
	r := &Registry{
		workers: make(map[string]*Worker, len(seeds)),
		order:   make([]string, 0, len(seeds)),
		updates: make(chan struct{}, 1),
		nowFunc: time.Now,
	}
	for _, s := range seeds {
		r.workers[s.Name] = &Worker{
			Name:       s.Name,
			Host:       s.Host,
			Port:       s.Port,
			Connection: Disconnected,
			Task:       TaskIdle,
		}
		r.order = append(r.order, s.Name)
	}
	return r
}

// Updates returns a coalescing notification channel: at least one receive
// is possible after any state change. Readers then call Snapshot.
func (r *Registry) Updates() <-chan struct{} {
	return r.updates
}

// notify signals a state change without ever blocking a writer.
func (r *Registry) notify() {
	select {
	case r.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns deep copies of all workers in enumeration order:
// connected workers first in their existing relative order, then
// disconnected workers in theirs.
func (r *Registry) Snapshot() []Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Worker, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.workers[name].clone())
	}
	return out
}

// Get returns a deep copy of one worker's state.
func (r *Registry) Get(name string) (Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[name]
	if !ok {
		return Worker{}, false
	}
	return w.clone(), true
}

// Names returns the current enumeration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// reorderLocked stably partitions enumeration order into online workers
// followed by offline ones. Relative order within each group is preserved
// so the fleet view never thrashes.
func (r *Registry) reorderLocked() {
	online := make([]string, 0, len(r.order))
	offline := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.workers[name].Online() {
			online = append(online, name)
		} else {
			offline = append(offline, name)
		}
	}
	r.order = append(online, offline...)
}

// MarkConnected records a freshly opened subscription: the worker becomes
// Connected (task state untouched until its status snapshot arrives) and
// the registry reorders online-first.
func (r *Registry) MarkConnected(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[name]
	if !ok {
		return
	}
	w.Connection = Connected
	w.ConnectedAt = r.nowFunc()
	r.reorderLocked()
	r.notify()
}

// MarkDisconnected records a dropped subscription. Execution state is
// reset so the fleet view reflects "offline" rather than a task that can
// no longer be observed; the output log is retained for inspection.
func (r *Registry) MarkDisconnected(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[name]
	if !ok {
		return
	}
	w.Connection = Disconnected
	w.Task = TaskIdle
	w.HasElapsed = false
	r.reorderLocked()
	r.notify()
}

// ApplyEvent folds one streamed event into a worker's state, per the
// connection state machine. Events for unknown workers are dropped.
func (r *Registry) ApplyEvent(name string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[name]
	if !ok || w.Connection != Connected {
		return
	}

	switch ev.Type {
	case EventTaskStart:
		// A new task resets the log; elapsed tracking starts at zero.
		w.OutputLog = w.OutputLog[:0]
		w.CurrentTask = ev.Task
		w.LastOutput = ""
		w.Task = TaskExecuting
		w.Elapsed = 0
		w.HasElapsed = true

	case EventOutput:
		if w.Task != TaskExecuting {
			return
		}
		w.appendOutput(ev.Line)
		if ev.Elapsed != nil {
			w.Elapsed = *ev.Elapsed
			w.HasElapsed = true
		}

	case EventTaskComplete:
		if w.Task != TaskExecuting {
			return
		}
		w.Task = TaskIdle
		w.LastCompletedAt = r.nowFunc()
		// Output log is kept for inspection; elapsed stays visible until
		// the idle sweep clears it.
		if ev.Elapsed != nil {
			w.Elapsed = *ev.Elapsed
			w.HasElapsed = true
		}

	case EventTaskError:
		w.Task = TaskError
		w.LastOutput = ev.Error
		w.LastCompletedAt = r.nowFunc()

	case EventStatus:
		// Snapshot resync, used to recover state right after a reconnect.
		// Only an idle worker resyncs: a live task's event flow is already
		// authoritative.
		if w.Task != TaskIdle {
			return
		}
		w.Task = parseTaskState(ev.Status)
		w.CurrentTask = ev.CurrentTask
		w.LastOutput = ev.LastOutput
		if ev.Elapsed != nil {
			w.Elapsed = *ev.Elapsed
			w.HasElapsed = true
		} else {
			w.HasElapsed = false
		}

	default:
		return
	}

	r.notify()
}

// ExpireIdle clears stale display state: any idle worker whose last
// completion is older than window has its current task and transient
// output cleared. The output log is retained. Returns the number of
// workers expired.
func (r *Registry) ExpireIdle(window time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFunc()
	expired := 0
	for _, w := range r.workers {
		if w.Task != TaskIdle || w.LastCompletedAt.IsZero() {
			continue
		}
		if now.Sub(w.LastCompletedAt) <= window {
			continue
		}
		if w.CurrentTask == "" && w.LastOutput == "" && !w.HasElapsed {
			continue
		}
		w.CurrentTask = ""
		w.LastOutput = ""
		w.HasElapsed = false
		expired++
	}
	if expired > 0 {
		r.notify()
	}
	return expired
}
