package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docexplorer/internal/download"
)

const historyLimit = 50

type historyModel struct {
	records  []download.Record
	selected int
	loading  bool
	err      string
}

type historyMsg struct {
	records []download.Record
	err     error
}

func (m *model) loadHistory() tea.Cmd {
	m.history.loading = true
	m.history.err = ""
	dl := m.env.downloads
	return func() tea.Msg {
		recs, err := dl.History(historyLimit)
		return historyMsg{records: recs, err: err}
	}
}

func (m model) handleHistory(msg historyMsg) (tea.Model, tea.Cmd) {
	m.history.loading = false
	if msg.err != nil {
		m.history.err = msg.err.Error()
		return m, nil
	}
	m.history.records = msg.records
	if m.history.selected >= len(msg.records) {
		m.history.selected = 0
	}
	return m, nil
}

func (m model) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "esc", "q", "H":
		m.state = stateExplorer
	case "ctrl+c":
		return m, tea.Quit
	case "?", "f1":
		return m.showHelp()
	case "up", "k":
		if m.history.selected > 0 {
			m.history.selected--
		}
	case "down", "j":
		if m.history.selected < len(m.history.records)-1 {
			m.history.selected++
		}
	case "r":
		cmd := m.loadHistory()
		return m, cmd
	case "y":
		if m.history.selected < len(m.history.records) {
			path := m.history.records[m.history.selected].Path
			cb := m.env.clipboard
			return m, func() tea.Msg { return copyMsg{text: path, err: cb.Copy(path)} }
		}
	}
	return m, nil
}

func (m model) viewHistory() string {
	var b strings.Builder
	width := m.getWidth()

	fmt.Fprintf(&b, "%s  %s\n\n", renderTitle("Downloads"), subtitleStyle.Render(m.env.downloads.Dir()))

	switch {
	case m.history.loading:
		fmt.Fprintf(&b, "%s %s\n", m.spin.View(), subtitleStyle.Render("Loading history..."))
	case m.history.err != "":
		fmt.Fprintf(&b, "%s\n", errorStyle.Render("⚠ "+m.history.err))
	case len(m.history.records) == 0:
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("No downloads yet."))
	default:
		nameWidth := max(12, width-36)
		header := lipgloss.JoinHorizontal(lipgloss.Left,
			headingStyle.Width(nameWidth+2).Render("File"),
			headingStyle.Width(12).Render("Size"),
			headingStyle.Render("When"))
		fmt.Fprintf(&b, "%s\n", header)

		start, end := visibleWindow(m.history.selected, len(m.history.records), m.getListDisplayLines())
		for i := start; i < end; i++ {
			r := m.history.records[i]
			prefix := "  "
			if i == m.history.selected {
				prefix = cursorStyle.Render("▸ ")
			}
			fmt.Fprintf(&b, "%s%s%s%s\n", prefix,
				fileStyle.Width(nameWidth).Render(truncate(r.Name, nameWidth)),
				subtitleStyle.Width(12).Render(formatSize(r.Size)),
				subtitleStyle.Render(formatWhen(r.Completed)))
		}
		if r := m.history.records[m.history.selected]; r.SHA256 != "" {
			fmt.Fprintf(&b, "\n%s %s\n%s %s\n",
				labelStyle.Render("Path:"), valueStyle.Render(r.Path),
				labelStyle.Render("SHA-256:"), subtitleStyle.Render(r.SHA256))
		}
	}

	if n := m.notice.render(); n != "" {
		fmt.Fprintf(&b, "\n%s\n", n)
	}
	fmt.Fprintf(&b, "\n%s\n", renderKeyHelp([]string{"y copy path", "r reload", "esc back"}))
	return b.String()
}
