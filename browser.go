package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// browserModel picks a local file for upload.
type browserModel struct {
	currentPath string
	entries     []os.DirEntry
	selected    int
	err         string
}

type browserErrorMsg struct{ err error }
type browserLoadedMsg struct{ entries []os.DirEntry }

// Fake DirEntry for parent directory
type parentDirEntry struct{}

func (p *parentDirEntry) Name() string               { return ".." }
func (p *parentDirEntry) IsDir() bool                { return true }
func (p *parentDirEntry) Type() os.FileMode          { return os.ModeDir }
func (p *parentDirEntry) Info() (os.FileInfo, error) { return nil, nil }

// browserStartPath picks the directory of the current path field, the last
// upload directory, or home.
func (m model) browserStartPath() string {
	if current := expandHome(strings.TrimSpace(m.upload.path.Value())); current != "" {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current
		}
		if dir := filepath.Dir(current); dir != "." {
			if _, err := os.Stat(dir); err == nil {
				return dir
			}
		}
	}
	if d := m.env.cfg.LastUploadDir; d != "" {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			return d
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return string(filepath.Separator)
	}
	return home
}

func (m model) loadBrowserEntries() tea.Cmd {
	dir := m.browser.currentPath
	return func() tea.Msg {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return browserErrorMsg{err: err}
		}

		var dirs, files []os.DirEntry
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if entry.IsDir() {
				dirs = append(dirs, entry)
			} else {
				files = append(files, entry)
			}
		}
		sort.Slice(dirs, func(i, j int) bool { return strings.ToLower(dirs[i].Name()) < strings.ToLower(dirs[j].Name()) })
		sort.Slice(files, func(i, j int) bool { return strings.ToLower(files[i].Name()) < strings.ToLower(files[j].Name()) })

		// Add parent directory entry if not at root
		var all []os.DirEntry
		if filepath.Dir(dir) != dir {
			all = append(all, &parentDirEntry{})
		}
		all = append(all, dirs...)
		all = append(all, files...)
		return browserLoadedMsg{entries: all}
	}
}

func (m model) updateBrowser(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case browserLoadedMsg:
		m.browser.entries = msg.entries
		m.browser.selected = 0
		m.browser.err = ""
		return m, nil
	case browserErrorMsg:
		m.browser.err = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			m.state = stateUpload
			return m, nil
		case "?", "f1":
			return m.showHelp()
		case "up", "k":
			if m.browser.selected > 0 {
				m.browser.selected--
			}
		case "down", "j":
			if m.browser.selected < len(m.browser.entries)-1 {
				m.browser.selected++
			}
		case "backspace", "h", "left":
			m.browser.currentPath = filepath.Dir(m.browser.currentPath)
			return m, m.loadBrowserEntries()
		case "enter", "l", "right":
			if len(m.browser.entries) == 0 {
				return m, nil
			}
			entry := m.browser.entries[m.browser.selected]
			if entry.IsDir() {
				if entry.Name() == ".." {
					m.browser.currentPath = filepath.Dir(m.browser.currentPath)
				} else {
					m.browser.currentPath = filepath.Join(m.browser.currentPath, entry.Name())
				}
				return m, m.loadBrowserEntries()
			}
			// Select this file and return to the form
			path := filepath.Join(m.browser.currentPath, entry.Name())
			m.upload.path.SetValue(path)
			m.upload.path.CursorEnd()
			m.upload.pathValid = validateFilePath(path)
			if strings.TrimSpace(m.upload.name.Value()) == "" {
				m.upload.name.SetValue(entry.Name())
			}
			m.state = stateUpload
			return m, nil
		}
	}
	return m, nil
}

func (m model) viewBrowser() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", renderTitle("Choose a file"))

	pathWidth := m.getWidth() - 15
	fmt.Fprintf(&b, "%s %s\n\n",
		labelStyle.Render("Current:"),
		cursorStyle.Render(truncate(m.browser.currentPath, pathWidth)))

	if m.browser.err != "" {
		fmt.Fprintf(&b, "%s %s\n\n", errorStyle.Render("⚠ Error:"), m.browser.err)
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("Press ESC to go back"))
		return b.String()
	}

	if len(m.browser.entries) == 0 {
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("Empty directory"))
	} else {
		maxDisplay := m.getListDisplayLines()
		start, end := visibleWindow(m.browser.selected, len(m.browser.entries), maxDisplay)
		for i := start; i < end; i++ {
			entry := m.browser.entries[i]
			prefix := "  "
			if i == m.browser.selected {
				prefix = cursorStyle.Render("▸ ")
			}
			name := entry.Name()
			switch {
			case name == "..":
				fmt.Fprintf(&b, "%s%s\n", prefix, subtitleStyle.Render("../"))
			case entry.IsDir():
				fmt.Fprintf(&b, "%s%s\n", prefix, accentStyle.Render(name+"/"))
			default:
				fmt.Fprintf(&b, "%s%s\n", prefix, fileStyle.Render(name))
			}
		}
		if len(m.browser.entries) > maxDisplay {
			fmt.Fprintf(&b, "\n%s\n", subtitleStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(m.browser.entries))))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", subtitleStyle.Render("↑/↓ or j/k navigate • Enter open dir / pick file • Backspace up • ESC cancel"))
	return b.String()
}
