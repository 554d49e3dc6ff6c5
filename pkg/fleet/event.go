// Package fleet tracks the live state of every configured worker. A
// Manager keeps one event subscription open per worker, reconnects on
// failure, and folds the worker's streamed events into a Registry the
// presentation layer reads. All mutation of a worker's observed state goes
// through the Registry under a single lock; stale subscriptions are fenced
// out with per-worker connection generations.
package fleet

import "encoding/json"

// EventType tags a streamed worker event.
type EventType string

// Event types emitted by a worker's live feed.
const (
	EventStatus       EventType = "status"        // full state snapshot, sent on subscribe
	EventTaskStart    EventType = "task_start"    // task execution started
	EventOutput       EventType = "output"        // one line of live output
	EventTaskComplete EventType = "task_complete" // task finished
	EventTaskError    EventType = "task_error"    // task failed
)

// Event is one message from a worker's event stream. The wire format is a
// flat JSON object; which fields are meaningful depends on Type.
type Event struct {
	Type EventType `json:"type"`

	// status snapshot fields
	Status      string `json:"status,omitempty"`
	CurrentTask string `json:"current_task,omitempty"`
	LastOutput  string `json:"last_output,omitempty"`

	// task_start
	Task string `json:"task,omitempty"`

	// output / task_complete
	Line    string   `json:"line,omitempty"`
	Elapsed *float64 `json:"elapsed,omitempty"`

	// task_complete
	Success       *bool  `json:"success,omitempty"`
	ResultPreview string `json:"result_preview,omitempty"`

	// task_error
	Error string `json:"error,omitempty"`
}

// ParseEvent decodes one wire payload. It returns ok=false for malformed
// or unrecognized payloads, which callers drop without terminating the
// subscription.
func ParseEvent(data []byte) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, false
	}
	switch ev.Type {
	case EventStatus, EventTaskStart, EventOutput, EventTaskComplete, EventTaskError:
		return ev, true
	default:
		return Event{}, false
	}
}
