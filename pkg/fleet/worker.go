package fleet

import (
	"fmt"
	"time"
)

// maxOutputLines bounds each worker's retained output log; the oldest
// lines are evicted first.
const maxOutputLines = 500

// ConnectionState is whether the worker's event subscription is live.
type ConnectionState string

// Connection states.
const (
	Disconnected ConnectionState = "disconnected"
	Connected    ConnectionState = "connected"
)

// TaskState is the worker's execution state as reported by its feed.
type TaskState string

// Task states. The wire values match what workers emit in status events.
const (
	TaskIdle      TaskState = "idle"
	TaskExecuting TaskState = "executing"
	TaskError     TaskState = "error"
)

// parseTaskState maps a wire status string to a TaskState, defaulting to
// idle for anything unrecognized.
func parseTaskState(s string) TaskState {
	switch TaskState(s) {
	case TaskExecuting:
		return TaskExecuting
	case TaskError:
		return TaskError
	default:
		return TaskIdle
	}
}

// Worker is the observable state of one configured worker. Identity fields
// are immutable after configuration load; observed state is mutated only
// by the Manager through the Registry.
type Worker struct {
	Name string
	Host string
	Port int

	Connection  ConnectionState
	Task        TaskState
	CurrentTask string
	LastOutput  string
	OutputLog   []string

	// Elapsed is the reported task duration in seconds; meaningful only
	// while HasElapsed is true (during execution and immediately after
	// completion, for display).
	Elapsed    float64
	HasElapsed bool

	// LastCompletedAt is the zero time until the first task completes.
	LastCompletedAt time.Time
	ConnectedAt     time.Time
}

// URL returns the worker's base HTTP URL.
func (w *Worker) URL() string {
	return fmt.Sprintf("http://%s:%d", w.Host, w.Port)
}

// StreamURL returns the worker's event stream endpoint.
func (w *Worker) StreamURL() string {
	return w.URL() + "/stream"
}

// Online reports whether the worker's subscription is live.
func (w *Worker) Online() bool {
	return w.Connection == Connected
}

// clone returns a deep copy so registry snapshots never alias live state.
func (w *Worker) clone() Worker {
	out := *w
	out.OutputLog = make([]string, len(w.OutputLog))
	copy(out.OutputLog, w.OutputLog)
	return out
}

// appendOutput adds a line to the bounded output log, evicting the oldest
// line when full.
func (w *Worker) appendOutput(line string) {
	if len(w.OutputLog) >= maxOutputLines {
		copy(w.OutputLog, w.OutputLog[1:])
		w.OutputLog[len(w.OutputLog)-1] = line
	} else {
		w.OutputLog = append(w.OutputLog, line)
	}
	w.LastOutput = line
}
