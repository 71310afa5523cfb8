package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Color palette
var (
	primary   = lipgloss.Color("#7c3aed") // Purple
	secondary = lipgloss.Color("#06b6d4") // Cyan
	accent    = lipgloss.Color("#10b981") // Emerald

	success = lipgloss.Color("#22c55e")
	warning = lipgloss.Color("#f59e0b")
	danger  = lipgloss.Color("#ef4444")
	info    = lipgloss.Color("#3b82f6")

	background = lipgloss.Color("#0f172a") // Slate-900
	surface    = lipgloss.Color("#1e293b") // Slate-800
	border     = lipgloss.Color("#334155") // Slate-700
	text       = lipgloss.Color("#f1f5f9") // Slate-100
	textMuted  = lipgloss.Color("#94a3b8") // Slate-400
)

// Typography styles
var (
	headingStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(textMuted)

	labelStyle = lipgloss.NewStyle().
			Foreground(textMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(text).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	folderStyle = lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(text)

	cursorStyle = lipgloss.NewStyle().
			Foreground(info).
			Bold(true)
)

// Layout components
var (
	dialogStyle = lipgloss.NewStyle().
			Background(surface).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2)

	buttonStyle = lipgloss.NewStyle().
			Foreground(text).
			Background(border).
			Padding(0, 2).
			MarginRight(1)

	buttonFocusStyle = lipgloss.NewStyle().
				Background(primary).
				Foreground(text).
				Padding(0, 2).
				Bold(true).
				MarginRight(1)

	dangerButtonFocusStyle = buttonFocusStyle.Background(danger)
)

func renderTitle(title string) string {
	return headingStyle.Render(title)
}

func renderKeyHelp(keys []string) string {
	var parts []string
	colors := []lipgloss.Color{primary, accent, secondary, info}

	for i, key := range keys {
		keyStyle := lipgloss.NewStyle().
			Background(colors[i%len(colors)]).
			Foreground(background).
			Padding(0, 1).
			Bold(true).
			MarginRight(1)

		parts = append(parts, keyStyle.Render(key))
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func renderBorder(content string, title string, color lipgloss.Color) string {
	titleBar := lipgloss.NewStyle().
		Background(color).
		Foreground(background).
		Bold(true).
		Padding(0, 1).
		MarginBottom(1).
		Render(fmt.Sprintf(" %s ", title))

	bordered := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleBar,
		bordered.Render(content),
	)
}

func renderButton(label string, focused, destructive bool) string {
	switch {
	case focused && destructive:
		return dangerButtonFocusStyle.Render(label)
	case focused:
		return buttonFocusStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeSuccess
	noticeWarning
	noticeError
)

// notice is the single status line shown under the current screen.
type notice struct {
	level noticeLevel
	text  string
}

func (n notice) render() string {
	if n.text == "" {
		return ""
	}
	switch n.level {
	case noticeSuccess:
		return successStyle.Render("✓ " + n.text)
	case noticeWarning:
		return warningStyle.Render("⚠ " + n.text)
	case noticeError:
		return errorStyle.Render("✗ " + n.text)
	default:
		return subtitleStyle.Render(n.text)
	}
}

func formatSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(bytes))
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// truncate shortens text to maxWidth cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 || lipgloss.Width(s) <= maxWidth {
		return s
	}
	r := []rune(s)
	if maxWidth > 3 && len(r) > maxWidth-3 {
		return string(r[:maxWidth-3]) + "..."
	}
	if len(r) > maxWidth {
		return string(r[:maxWidth])
	}
	return s
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
