package fleet //nolint:testpackage // white-box test needs internal access

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// fakeWorker is an httptest server speaking the worker event stream
// protocol: one "data: <json>" line per event, then the connection is held
// open until the client goes away.
type fakeWorker struct {
	srv      *httptest.Server
	events   chan string
	connects atomic.Int64
}

func newFakeWorker(t *testing.T) *fakeWorker {
	t.Helper()
	fw := &fakeWorker{events: make(chan string, 64)}
	fw.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fw.connects.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fl, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer is not a flusher")
			return
		}
		fl.Flush()
		for {
			select {
			case ev := <-fw.events:
				fmt.Fprintf(w, "data: %s\n\n", ev)
				fl.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}))
	t.Cleanup(fw.srv.Close)
	return fw
}

// seed returns a registry Seed pointing at the fake worker.
func (fw *fakeWorker) seed(t *testing.T, name string) Seed {
	t.Helper()
	host, portStr, err := net.SplitHostPort(fw.srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split fake worker addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse fake worker port: %v", err)
	}
	return Seed{Name: name, Host: host, Port: port}
}

// testManagerConfig shortens every timer so tests converge fast.
func testManagerConfig() Config {
	return Config{
		ReconnectDelay: 25 * time.Millisecond,
		ReconnectSweep: 50 * time.Millisecond,
		IdleSweep:      50 * time.Millisecond,
		IdleWindow:     5 * time.Minute,
	}
}

// startManager runs the manager until the test ends.
func startManager(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Run(ctx) }()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestManagerConnectsAndTracksTask(t *testing.T) {
	t.Parallel()

	fw := newFakeWorker(t)
	reg := NewRegistry([]Seed{fw.seed(t, "docker-vm")})
	m := NewManager(reg, testManagerConfig())
	startManager(t, m)

	waitFor(t, "worker to connect", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Online()
	})

	fw.events <- `{"type":"task_start","task":"restart jellyfin","status":"executing"}`
	fw.events <- `{"type":"output","line":"stopping container","elapsed":0.5}`
	fw.events <- `{"type":"output","line":"{\"result\":\"container restarted\\nall healthy\"}","elapsed":1.5}`

	waitFor(t, "output to arrive", func() bool {
		w, _ := reg.Get("docker-vm")
		return len(w.OutputLog) == 2
	})

	w, _ := reg.Get("docker-vm")
	if w.Task != TaskExecuting || w.CurrentTask != "restart jellyfin" {
		t.Errorf("state = %s task %q", w.Task, w.CurrentTask)
	}
	// The second output line was a JSON result chunk; the manager stores
	// the decoded text.
	if w.OutputLog[1] != "container restarted\nall healthy" {
		t.Errorf("decoded output = %q", w.OutputLog[1])
	}

	fw.events <- `{"type":"task_complete","success":true,"elapsed":2.0,"status":"idle"}`
	waitFor(t, "task to complete", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Task == TaskIdle && !w.LastCompletedAt.IsZero()
	})
}

func TestManagerDropsMalformedEvents(t *testing.T) {
	t.Parallel()

	fw := newFakeWorker(t)
	reg := NewRegistry([]Seed{fw.seed(t, "docker-vm")})
	m := NewManager(reg, testManagerConfig())
	startManager(t, m)

	waitFor(t, "worker to connect", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Online()
	})

	fw.events <- `{not json at all`
	fw.events <- `{"type":"unknown_kind","line":"x"}`
	fw.events <- `{"type":"task_start","task":"real work"}`

	waitFor(t, "valid event after garbage", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.CurrentTask == "real work"
	})

	w, _ := reg.Get("docker-vm")
	if !w.Online() {
		t.Error("malformed events must not terminate the subscription")
	}
}

func TestManagerReconnectsAfterDrop(t *testing.T) {
	t.Parallel()

	fw := newFakeWorker(t)
	reg := NewRegistry([]Seed{fw.seed(t, "docker-vm")})
	m := NewManager(reg, testManagerConfig())
	startManager(t, m)

	waitFor(t, "initial connect", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Online()
	})

	// Kill every open stream; the manager should retry and re-mark online.
	fw.srv.CloseClientConnections()

	waitFor(t, "reconnect", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Online() && fw.connects.Load() >= 2
	})
}

func TestManagerAutoReconnectToggle(t *testing.T) {
	t.Parallel()

	fw := newFakeWorker(t)
	reg := NewRegistry([]Seed{fw.seed(t, "docker-vm")})
	m := NewManager(reg, testManagerConfig())
	startManager(t, m)

	waitFor(t, "initial connect", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Online()
	})

	m.SetAutoReconnect(false)
	waitFor(t, "disconnect after disable", func() bool {
		w, _ := reg.Get("docker-vm")
		return !w.Online()
	})

	// Both sweeps and the retry timer must stay quiet while disabled.
	before := fw.connects.Load()
	time.Sleep(150 * time.Millisecond)
	if got := fw.connects.Load(); got != before {
		t.Fatalf("connects while disabled: %d -> %d", before, got)
	}

	m.SetAutoReconnect(true)
	waitFor(t, "reconnect after enable", func() bool {
		w, _ := reg.Get("docker-vm")
		return w.Online()
	})
}

func TestManagerStaleGenerationEventsDiscarded(t *testing.T) {
	t.Parallel()

	fw := newFakeWorker(t)
	reg := NewRegistry([]Seed{fw.seed(t, "docker-vm")})
	m := NewManager(reg, testManagerConfig())

	// Simulate a replaced subscription: generation 1 is superseded by 2.
	m.mu.Lock()
	m.gens["docker-vm"] = 2
	m.mu.Unlock()

	if m.current("docker-vm", 1) {
		t.Error("superseded generation reported current")
	}
	if !m.current("docker-vm", 2) {
		t.Error("live generation reported stale")
	}

	// A stale teardown must not flip a freshly reconnected worker offline.
	reg.MarkConnected("docker-vm")
	m.teardown("docker-vm", 1)
	w, _ := reg.Get("docker-vm")
	if !w.Online() {
		t.Error("stale teardown disconnected the live subscription's worker")
	}
}

func TestManagerOrderingAfterConnect(t *testing.T) {
	t.Parallel()

	fw := newFakeWorker(t)
	// Reachable worker listed last; an unreachable one listed first.
	reg := NewRegistry([]Seed{
		{Name: "dead", Host: "127.0.0.1", Port: 1}, // nothing listens here
		fw.seed(t, "live"),
	})
	m := NewManager(reg, testManagerConfig())
	startManager(t, m)

	waitFor(t, "online-first ordering", func() bool {
		names := reg.Names()
		w, _ := reg.Get("live")
		return w.Online() && names[0] == "live" && names[1] == "dead"
	})
}
