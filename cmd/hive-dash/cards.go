package main

import (
	"fmt"
	"strings"

	"hive/pkg/decode"
	"hive/pkg/fleet"

	"github.com/charmbracelet/lipgloss"
)

// previewLines is how many rendered output lines a worker card shows.
const previewLines = 5

// renderStatusBar renders fleet totals, the auto-reconnect state, and key
// hints. While nothing is connected a spinner shows the fleet is still
// being dialed.
func (m Model) renderStatusBar() string {
	theme := DefaultTheme()

	online := 0
	for _, w := range m.workers {
		if w.Online() {
			online++
		}
	}

	var fleetStatus string
	switch {
	case online > 0:
		fleetStatus = lipgloss.NewStyle().Foreground(theme.Success).
			Render(fmt.Sprintf("%d/%d online", online, len(m.workers)))
	case m.manager.AutoReconnect():
		fleetStatus = m.spin.View() + lipgloss.NewStyle().Foreground(theme.Muted).Render("connecting")
	default:
		fleetStatus = lipgloss.NewStyle().Foreground(theme.Error).Render("0 online")
	}

	auto := "auto-reconnect: on"
	autoStyle := lipgloss.NewStyle().Foreground(theme.Secondary)
	if !m.manager.AutoReconnect() {
		auto = "auto-reconnect: off"
		autoStyle = lipgloss.NewStyle().Foreground(theme.Warning)
	}

	help := lipgloss.NewStyle().Foreground(theme.Muted).
		Render("j/k move · enter detail · a reconnect · q quit")

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		fleetStatus,
		lipgloss.NewStyle().Render(" | "),
		autoStyle.Render(auto),
		lipgloss.NewStyle().Render(" | "),
		help,
	)
}

// renderFleet renders one card per worker in enumeration order with the
// cursor marking the selected card.
func renderFleet(m Model) string {
	if len(m.workers) == 0 {
		return lipgloss.NewStyle().Foreground(DefaultTheme().Muted).Render("no workers configured")
	}

	cards := make([]string, 0, len(m.workers))
	for i, w := range m.workers {
		cards = append(cards, renderCard(w, i == m.cursor, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// renderCard renders a single worker card: identity line, task line, and a
// short preview of the latest output.
func renderCard(w fleet.Worker, selected bool, width int) string {
	theme := DefaultTheme()

	mark := lipgloss.NewStyle().Foreground(theme.Muted).Render("○")
	if w.Online() {
		mark = lipgloss.NewStyle().Foreground(theme.Success).Render("●")
	}

	name := lipgloss.NewStyle().Bold(true).Render(w.Name)
	header := fmt.Sprintf("%s %s  %s", mark, name,
		lipgloss.NewStyle().Foreground(theme.Muted).Render(w.URL()))

	lines := []string{header, renderTaskLine(w, theme)}
	if preview := decode.Preview(decode.RenderPlain(w.LastOutput), previewLines); preview != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Muted).Render(preview))
	}

	borderColor := theme.Muted
	if selected {
		borderColor = theme.Primary
	}
	cardWidth := width - 2
	if cardWidth < 20 {
		cardWidth = 60
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(cardWidth).
		Render(strings.Join(lines, "\n"))
}

// renderTaskLine summarizes a worker's execution state.
func renderTaskLine(w fleet.Worker, theme Theme) string {
	switch w.Task {
	case fleet.TaskExecuting:
		line := lipgloss.NewStyle().Foreground(theme.Warning).Render("▶ " + w.CurrentTask)
		if w.HasElapsed {
			line += lipgloss.NewStyle().Foreground(theme.Muted).Render(fmt.Sprintf("  %.0fs", w.Elapsed))
		}
		return line
	case fleet.TaskError:
		return lipgloss.NewStyle().Foreground(theme.Error).Render("✗ " + w.LastOutput)
	default:
		if w.CurrentTask != "" {
			return lipgloss.NewStyle().Foreground(theme.Muted).Render("done: " + w.CurrentTask)
		}
		return lipgloss.NewStyle().Foreground(theme.Muted).Render("idle")
	}
}

// renderDetailHeader renders the detail view's title line.
func (m Model) renderDetailHeader() string {
	theme := DefaultTheme()
	w, ok := m.registry.Get(m.detailWorker)
	if !ok {
		return lipgloss.NewStyle().Foreground(theme.Error).Render(m.detailWorker)
	}

	state := "offline"
	style := lipgloss.NewStyle().Foreground(theme.Muted)
	if w.Online() {
		state = "online"
		style = lipgloss.NewStyle().Foreground(theme.Success)
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render(w.Name)
	return fmt.Sprintf("%s  %s  %s", title, style.Render(state),
		lipgloss.NewStyle().Foreground(theme.Muted).Render("esc back · arrows scroll"))
}

// renderDetail renders a worker's full output log for the detail viewport.
func renderDetail(w fleet.Worker) string {
	if len(w.OutputLog) == 0 {
		return "no output yet"
	}
	return decode.RenderPlain(strings.Join(w.OutputLog, "\n"))
}
