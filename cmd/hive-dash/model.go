package main

import (
	"context"
	"time"

	"hive/pkg/config"
	"hive/pkg/fleet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tickMsg is sent by Bubble Tea on every tick interval. It keeps elapsed
// timers and connection ages fresh even when no events arrive.
type tickMsg time.Time

// fleetUpdateMsg signals that worker state changed in the registry.
type fleetUpdateMsg struct{}

// tickCmd returns a command that sends a tickMsg after 1 second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitUpdateCmd blocks until the registry reports a state change.
func waitUpdateCmd(reg *fleet.Registry) tea.Cmd {
	return func() tea.Msg {
		<-reg.Updates()
		return fleetUpdateMsg{}
	}
}

// ViewType represents different views in the dashboard.
type ViewType int

const (
	// FleetView shows one card per worker.
	FleetView ViewType = iota
	// DetailView shows a single worker's full output log.
	DetailView
)

// Model is the Bubble Tea model for the hive dashboard.
type Model struct {
	cfg        *config.Config
	configPath string

	registry *fleet.Registry
	manager  *fleet.Manager
	stop     context.CancelFunc

	activeView ViewType
	workers    []fleet.Worker
	cursor     int

	// Detail view state
	detailWorker string
	detail       viewport.Model

	// UI state
	spin   spinner.Model
	width  int
	height int
}

// newModel creates a Model over the configured fleet and starts the
// connection manager in the background.
func newModel(cfg *config.Config, configPath string) Model {
	m := Model{
		cfg:        cfg,
		configPath: configPath,
		activeView: FleetView,
		spin:       newSpinner(),
	}
	m.startFleet()
	return m
}

// newSpinner builds the "connecting" spinner.
func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(DefaultTheme().Secondary)
	return s
}

// startFleet builds a fresh registry and manager from the current config
// and starts the manager. Any previous manager is stopped first.
func (m *Model) startFleet() {
	if m.stop != nil {
		m.stop()
	}

	seeds := make([]fleet.Seed, 0, len(m.cfg.Workers))
	for _, w := range m.cfg.Workers {
		seeds = append(seeds, fleet.Seed{Name: w.Name, Host: w.Host, Port: w.Port})
	}
	m.registry = fleet.NewRegistry(seeds)
	m.manager = fleet.NewManager(m.registry, fleet.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	m.stop = cancel
	go func() { _ = m.manager.Run(ctx) }()

	m.workers = m.registry.Snapshot()
	m.cursor = 0
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitUpdateCmd(m.registry),
		tickCmd(),
		m.spin.Tick,
		watchConfigFile(m.configPath),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-4, 1)

	case fleetUpdateMsg:
		m.workers = m.registry.Snapshot()
		m.clampCursor()
		if m.activeView == DetailView {
			m.refreshDetail()
		}
		return m, waitUpdateCmd(m.registry)

	case tickMsg:
		// Nothing to recompute; the render itself reads fresh state.
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case configChangedMsg:
		cfg, err := config.Load(m.configPath)
		if err == nil && len(cfg.Workers) > 0 {
			m.cfg = cfg
			m.activeView = FleetView
			m.startFleet()
			return m, tea.Batch(waitUpdateCmd(m.registry), watchConfigFile(m.configPath))
		}
		// Broken edit: keep the running fleet and keep watching.
		return m, watchConfigFile(m.configPath)
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || key == "q" {
		if m.stop != nil {
			m.stop()
		}
		return m, tea.Quit
	}

	if m.activeView == DetailView {
		return m.handleDetailViewKeys(key, msg)
	}
	return m.handleFleetViewKeys(key)
}

// handleFleetViewKeys processes keyboard input in FleetView.
func (m Model) handleFleetViewKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if m.cursor < len(m.workers)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.workers) {
			m.detailWorker = m.workers[m.cursor].Name
			m.detail = viewport.New(m.width, max(m.height-4, 1))
			m.refreshDetail()
			m.detail.GotoBottom()
			m.activeView = DetailView
		}
	case "a":
		m.manager.SetAutoReconnect(!m.manager.AutoReconnect())
	}
	return m, nil
}

// handleDetailViewKeys processes keyboard input in DetailView. Unhandled
// keys go to the viewport for scrolling.
func (m Model) handleDetailViewKeys(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key == "esc" || key == "backspace" {
		m.activeView = FleetView
		m.detailWorker = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// clampCursor keeps the cursor inside the worker list after fleet changes.
func (m *Model) clampCursor() {
	if m.cursor >= len(m.workers) {
		m.cursor = len(m.workers) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// refreshDetail re-renders the detail viewport from the selected worker's
// current output log.
func (m *Model) refreshDetail() {
	w, ok := m.registry.Get(m.detailWorker)
	if !ok {
		m.detail.SetContent("worker no longer configured")
		return
	}
	atBottom := m.detail.AtBottom()
	m.detail.SetContent(renderDetail(w))
	if atBottom {
		m.detail.GotoBottom()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	statusBar := m.renderStatusBar()

	if m.activeView == DetailView {
		return statusBar + "\n" + m.renderDetailHeader() + "\n" + m.detail.View()
	}
	return statusBar + "\n" + renderFleet(m)
}
