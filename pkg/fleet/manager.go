package fleet

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"hive/pkg/decode"
)

// maxEventLine bounds a single streamed event line.
const maxEventLine = 1024 * 1024

// Config holds Manager timing knobs. Zero values take production defaults.
type Config struct {
	ReconnectDelay time.Duration // retry delay after a subscription drops (default 5s)
	ReconnectSweep time.Duration // periodic sweep reconnecting anything still down (default 10s)
	IdleSweep      time.Duration // periodic idle-expiry sweep (default 60s)
	IdleWindow     time.Duration // idle age after which display state is cleared (default 5m)
	HTTPClient     *http.Client  // client used for event streams (default: no read timeout)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ReconnectDelay == 0 {
		out.ReconnectDelay = 5 * time.Second
	}
	if out.ReconnectSweep == 0 {
		out.ReconnectSweep = 10 * time.Second
	}
	if out.IdleSweep == 0 {
		out.IdleSweep = 60 * time.Second
	}
	if out.IdleWindow == 0 {
		out.IdleWindow = 5 * time.Minute
	}
	if out.HTTPClient == nil {
		// Streams are long-lived; the client must not impose a whole-request
		// timeout. Cancellation comes from the subscription context.
		out.HTTPClient = &http.Client{}
	}
	return out
}

// subscription is one live event stream attempt, fenced by its generation.
type subscription struct {
	gen    uint64
	cancel context.CancelFunc
}

// Manager owns one event subscription per registered worker plus the two
// periodic sweeps. A worker's subscription failing or retrying never
// blocks any other worker: each stream runs in its own goroutine and all
// shared state is touched only under the manager lock.
type Manager struct {
	cfg      Config
	registry *Registry

	mu            sync.Mutex
	runCtx        context.Context //nolint:containedctx // root for per-subscription contexts, set once in Run
	subs          map[string]*subscription
	gens          map[string]uint64
	autoReconnect bool
}

// NewManager creates a Manager over the registry. Auto-reconnect starts
// enabled; nothing connects until Run.
func NewManager(registry *Registry, cfg Config) *Manager {
	return &Manager{
		cfg:           cfg.withDefaults(),
		registry:      registry,
		subs:          make(map[string]*subscription),
		gens:          make(map[string]uint64),
		autoReconnect: true,
	}
}

// Run opens a subscription per worker and drives the reconnect and
// idle-expiry sweeps. It blocks until ctx is cancelled, then closes every
// open subscription.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()

	for _, name := range m.registry.Names() {
		m.connect(name)
	}

	reconnect := time.NewTicker(m.cfg.ReconnectSweep)
	defer reconnect.Stop()
	idle := time.NewTicker(m.cfg.IdleSweep)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case <-reconnect.C:
			// Safety net: guarantees reconnection even if an individual
			// retry timer was lost.
			for _, name := range m.registry.Names() {
				m.connect(name)
			}
		case <-idle.C:
			m.registry.ExpireIdle(m.cfg.IdleWindow)
		}
	}
}

// SetAutoReconnect toggles automatic (re)connection. Disabling closes all
// open subscriptions immediately and suppresses both sweeps' connect
// actions until re-enabled; enabling reconnects everything at once rather
// than waiting for the next sweep.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	m.autoReconnect = enabled
	if !enabled {
		for _, sub := range m.subs {
			sub.cancel()
		}
	}
	started := m.runCtx != nil
	m.mu.Unlock()

	if enabled && started {
		for _, name := range m.registry.Names() {
			m.connect(name)
		}
	}
}

// AutoReconnect reports whether automatic (re)connection is enabled.
func (m *Manager) AutoReconnect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoReconnect
}

// closeAll cancels every open subscription.
func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		sub.cancel()
	}
}

// connect opens a subscription for name unless one is already live,
// auto-reconnect is off, or the manager is shut down. Each attempt bumps
// the worker's connection generation; events from older generations are
// discarded.
func (m *Manager) connect(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runCtx == nil || m.runCtx.Err() != nil || !m.autoReconnect {
		return
	}
	if _, live := m.subs[name]; live {
		return
	}
	if _, ok := m.registry.Get(name); !ok {
		return
	}

	m.gens[name]++
	gen := m.gens[name]
	subCtx, cancel := context.WithCancel(m.runCtx)
	m.subs[name] = &subscription{gen: gen, cancel: cancel}

	go m.stream(subCtx, name, gen)
}

// stream runs one subscription: open the worker's event stream, mark it
// connected, and fold events into the registry until the stream drops.
// On exit it tears down its own registration and schedules a single retry.
func (m *Manager) stream(ctx context.Context, name string, gen uint64) {
	defer m.teardown(name, gen)

	w, ok := m.registry.Get(name)
	if !ok {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.StreamURL(), nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := m.cfg.HTTPClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	if !m.current(name, gen) {
		return
	}
	m.registry.MarkConnected(name)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventLine)
	for scanner.Scan() {
		line := scanner.Text()
		// Server-sent events: only data lines carry payloads; comment
		// keepalives and blank separators are skipped.
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		ev, ok := ParseEvent([]byte(payload))
		if !ok {
			continue // malformed event: dropped, stream stays up
		}
		if ev.Type == EventOutput {
			ev.Line = decode.DecodeResult(ev.Line)
		}
		if m.current(name, gen) {
			m.registry.ApplyEvent(name, ev)
		}
	}
	// Scanner error or EOF: either way the subscription is gone; teardown
	// handles state and retry.
}

// current reports whether gen is still the worker's live connection
// generation. Events from superseded subscriptions are silently discarded.
func (m *Manager) current(name string, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[name] == gen
}

// teardown unregisters a finished subscription, reflects the drop in the
// registry, and schedules one retry after the reconnect delay.
func (m *Manager) teardown(name string, gen uint64) {
	m.mu.Lock()
	if sub, ok := m.subs[name]; ok && sub.gen == gen {
		sub.cancel()
		delete(m.subs, name)
	}
	stale := m.gens[name] != gen
	shuttingDown := m.runCtx == nil || m.runCtx.Err() != nil
	retry := m.autoReconnect && !shuttingDown && !stale
	m.mu.Unlock()

	if stale {
		return
	}
	m.registry.MarkDisconnected(name)

	if retry {
		time.AfterFunc(m.cfg.ReconnectDelay, func() {
			m.connect(name)
		})
	}
}

// Connected returns how many workers currently hold a live subscription.
func (m *Manager) Connected() int {
	count := 0
	for _, w := range m.registry.Snapshot() {
		if w.Online() {
			count++
		}
	}
	return count
}

// String describes the manager for logs and debugging.
func (m *Manager) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("fleet.Manager(subs=%d, auto=%v)", len(m.subs), m.autoReconnect)
}
