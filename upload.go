package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"docexplorer/internal/config"
	"docexplorer/internal/docapi"
)

const (
	fieldPath = iota
	fieldName
	fieldFolder
	fieldCount
)

type uploadModel struct {
	path   textinput.Model // local file, required
	name   textinput.Model // defaults to the file's base name
	folder textinput.Model // required

	focus      int
	err        string
	submitting bool

	// Autocomplete state
	completions        []string
	completionIndex    int
	showingCompletions bool

	pathValid int // 0=unknown, 1=valid, 2=partial, 3=invalid
}

type uploadMsg struct {
	folder  string
	message string
	err     error
}

func newUploadModel(cfg *config.Config) uploadModel {
	path := textinput.New()
	path.Placeholder = "~/Documents/report.pdf"
	path.Prompt = "File: "
	if cfg != nil && cfg.LastUploadDir != "" {
		path.SetValue(cfg.LastUploadDir + string(filepath.Separator))
	}

	name := textinput.New()
	name.Prompt = "File name (optional): "

	folder := textinput.New()
	folder.Prompt = "Folder: "

	return uploadModel{path: path, name: name, folder: folder}
}

func (u *uploadModel) focusFirst() tea.Cmd {
	u.focus = fieldPath
	return u.setFocus()
}

func (u *uploadModel) setFocus() tea.Cmd {
	u.path.Blur()
	u.name.Blur()
	u.folder.Blur()

	// Clear completions when changing focus
	u.showingCompletions = false
	u.completions = nil

	switch u.focus {
	case fieldPath:
		return u.path.Focus()
	case fieldName:
		return u.name.Focus()
	default:
		return u.folder.Focus()
	}
}

func (u *uploadModel) reset() {
	u.path.SetValue("")
	u.name.SetValue("")
	u.folder.SetValue("")
	u.err = ""
	u.pathValid = 0
	u.showingCompletions = false
	u.completions = nil
}

func (m model) updateUpload(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	u := &m.upload
	if k, ok := msg.(tea.KeyMsg); ok {
		if u.submitting {
			return m, nil
		}
		switch k.String() {
		case "tab":
			if u.focus == fieldPath || u.focus == fieldFolder {
				return m.handleTabCompletion()
			}
			u.focus = (u.focus + 1) % fieldCount
			cmd := u.setFocus()
			return m, cmd
		case "down":
			if u.showingCompletions && len(u.completions) > 0 {
				u.completionIndex = (u.completionIndex + 1) % len(u.completions)
				return m, nil
			}
			u.focus = (u.focus + 1) % fieldCount
			cmd := u.setFocus()
			return m, cmd
		case "shift+tab", "up":
			if u.showingCompletions && len(u.completions) > 0 {
				u.completionIndex = (u.completionIndex + len(u.completions) - 1) % len(u.completions)
				return m, nil
			}
			u.focus = (u.focus + fieldCount - 1) % fieldCount
			cmd := u.setFocus()
			return m, cmd
		case "ctrl+b":
			m.state = stateBrowser
			m.browser = browserModel{currentPath: m.browserStartPath()}
			return m, m.loadBrowserEntries()
		case "enter":
			if u.showingCompletions && len(u.completions) > 0 {
				return m.selectCompletion()
			}
			return m.submitUpload()
		case "esc":
			if u.showingCompletions {
				u.showingCompletions = false
				u.completions = nil
				return m, nil
			}
			m.state = stateExplorer
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		case "f1":
			return m.showHelp()
		case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9":
			// Quick select recent folder
			recent := m.env.cfg.RecentFolders
			index := int(k.String()[4] - '1')
			if index < len(recent) {
				u.folder.SetValue(recent[index])
				u.folder.CursorEnd()
			}
			return m, nil
		}
	}

	switch u.focus {
	case fieldPath:
		u.path, cmd = u.path.Update(msg)
		u.pathValid = validateFilePath(u.path.Value())
	case fieldName:
		u.name, cmd = u.name.Update(msg)
	case fieldFolder:
		u.folder, cmd = u.folder.Update(msg)
	}
	return m, cmd
}

func (m model) submitUpload() (tea.Model, tea.Cmd) {
	u := &m.upload
	path := expandHome(strings.TrimSpace(u.path.Value()))
	if path == "" {
		u.err = "Please select a file."
		return m, nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		u.err = "File not accessible."
		return m, nil
	}
	folder := strings.TrimSpace(u.folder.Value())
	if folder == "" {
		u.err = "Folder name is required."
		return m, nil
	}
	name := strings.TrimSpace(u.name.Value())
	if name == "" {
		name = filepath.Base(path)
	}

	u.err = ""
	u.submitting = true
	req := docapi.Upload{
		SourceName: filepath.Base(path),
		FileName:   name,
		FolderName: folder,
		CreatedBy:  m.env.session.UserID,
	}
	m.env.cfg.LastUploadDir = filepath.Dir(path)
	docs := m.env.docs
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadMsg{folder: folder, err: err}
		}
		defer f.Close()
		req.Content = f
		message, err := docs.UploadDocument(context.Background(), req)
		return uploadMsg{folder: folder, message: message, err: err}
	})
}

func (m model) handleUpload(msg uploadMsg) (tea.Model, tea.Cmd) {
	m.upload.submitting = false
	if msg.err != nil {
		m.env.log.Warn("upload failed", zap.String("folder", msg.folder), zap.Error(msg.err))
		m.upload.err = docapi.UserMessage(msg.err, "Upload failed.")
		return m, nil
	}

	m.env.cfg.RememberFolder(msg.folder)
	if err := m.env.cfg.Save(); err != nil {
		m.env.log.Warn("save config", zap.Error(err))
	}
	m.upload.reset()

	text := msg.message
	if text == "" {
		text = "File uploaded."
	}
	m.notice = notice{noticeSuccess, text}
	if m.state == stateUpload {
		m.state = stateExplorer
	}
	cmd := m.refresh()
	return m, cmd
}

// Handle tab completion for the path and folder fields
func (m model) handleTabCompletion() (tea.Model, tea.Cmd) {
	u := &m.upload
	var completions []string
	if u.focus == fieldPath {
		completions = getPathCompletions(u.path.Value())
	} else {
		completions = m.folderCompletions(u.folder.Value())
	}

	// If we got only one completion, auto-complete it immediately
	if len(completions) == 1 {
		u.setCompletion(completions[0])
		return m, nil
	}
	if len(completions) == 0 {
		return m, nil
	}

	u.completions = completions
	u.completionIndex = 0
	u.showingCompletions = true
	return m, nil
}

func (m model) selectCompletion() (tea.Model, tea.Cmd) {
	u := &m.upload
	if !u.showingCompletions || len(u.completions) == 0 {
		return m, nil
	}
	u.setCompletion(u.completions[u.completionIndex])
	u.showingCompletions = false
	u.completions = nil
	return m, nil
}

func (u *uploadModel) setCompletion(v string) {
	if u.focus == fieldPath {
		u.path.SetValue(v)
		u.path.CursorEnd()
		u.pathValid = validateFilePath(v)
		return
	}
	u.folder.SetValue(v)
	u.folder.CursorEnd()
}

// folderCompletions offers remote folder names and recent folders matching prefix.
func (m model) folderCompletions(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok || name == "" {
			return
		}
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for _, r := range m.env.cfg.RecentFolders {
		add(r)
	}
	for _, f := range m.explorer.folders {
		add(f.Name)
	}
	return out
}

// getPathCompletions lists directories and files matching a partial path.
func getPathCompletions(path string) []string {
	if path == "" {
		// Start with home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return getPathCompletions(home + string(filepath.Separator))
	}

	path = expandHome(strings.TrimSpace(path))

	dir, prefix := filepath.Dir(path), filepath.Base(path)
	if strings.HasSuffix(path, string(filepath.Separator)) {
		dir, prefix = path, ""
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		dir, prefix = path, ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var completions []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue // Skip hidden entries
		}
		// Case-insensitive prefix matching
		if prefix != "" && !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		full := filepath.Join(dir, name)
		if entry.IsDir() {
			full += string(filepath.Separator)
		}
		completions = append(completions, full)
	}
	return completions
}

// validateFilePath returns 1 for an existing file, 2 for an existing
// directory or parent, 3 otherwise and 0 for empty input.
func validateFilePath(path string) int {
	path = expandHome(strings.TrimSpace(path))
	if path == "" {
		return 0
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return 2
		}
		return 1
	}
	if _, err := os.Stat(filepath.Dir(path)); err == nil {
		return 2
	}
	return 3
}

func pathValidationIndicator(status int) string {
	switch status {
	case 1:
		return lipgloss.NewStyle().Foreground(success).Render("✓")
	case 2:
		return lipgloss.NewStyle().Foreground(warning).Render("⚠")
	case 3:
		return lipgloss.NewStyle().Foreground(danger).Render("✗")
	default:
		return ""
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func (m model) viewUpload() string {
	var b strings.Builder
	u := m.upload
	contentWidth := m.getWidth() - 6

	fmt.Fprintf(&b, "%s\n\n", renderTitle("Upload document"))

	var form strings.Builder
	fmt.Fprintf(&form, "%s%s %s\n", labelStyle.Render(u.path.Prompt), u.path.View(), pathValidationIndicator(u.pathValid))
	fmt.Fprintf(&form, "%s%s\n", labelStyle.Render(u.name.Prompt), u.name.View())
	fmt.Fprintf(&form, "%s%s\n", labelStyle.Render(u.folder.Prompt), u.folder.View())
	if u.submitting {
		fmt.Fprintf(&form, "\n%s %s\n", m.spin.View(), subtitleStyle.Render("Uploading..."))
	}
	fmt.Fprintf(&b, "%s\n", renderBorder(strings.TrimRight(form.String(), "\n"), "New file", primary))

	if u.err != "" {
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render("⚠ "+u.err))
	}

	if u.showingCompletions && len(u.completions) > 0 {
		var sb strings.Builder
		const maxShow = 5
		for i, c := range u.completions {
			if i >= maxShow {
				fmt.Fprintf(&sb, "  %s\n", subtitleStyle.Render(fmt.Sprintf("... and %d more", len(u.completions)-maxShow)))
				break
			}
			prefix := "  "
			style := lipgloss.NewStyle().Foreground(secondary)
			if i == u.completionIndex {
				prefix = cursorStyle.Render("▸ ")
				style = style.Bold(true)
			}
			display := c
			if u.focus == fieldPath {
				display = filepath.Base(strings.TrimSuffix(c, string(filepath.Separator)))
				if strings.HasSuffix(c, string(filepath.Separator)) {
					display += string(filepath.Separator)
				}
			}
			fmt.Fprintf(&sb, "%s%s\n", prefix, style.Render(truncate(display, contentWidth-4)))
		}
		fmt.Fprintf(&b, "\n%s\n", renderBorder(strings.TrimRight(sb.String(), "\n"), "Suggestions", secondary))
	} else if recent := m.env.cfg.RecentFolders; len(recent) > 0 {
		var rb strings.Builder
		for i, r := range recent {
			if i >= config.MaxRecent {
				break
			}
			fmt.Fprintf(&rb, "%s %s\n",
				renderKeyHelp([]string{fmt.Sprintf("alt+%d", i+1)}),
				lipgloss.NewStyle().Foreground(accent).Render(r))
		}
		fmt.Fprintf(&b, "\n%s\n", renderBorder(strings.TrimRight(rb.String(), "\n"), "Recent folders", accent))
	}

	fmt.Fprintf(&b, "\n%s\n", renderKeyHelp([]string{"enter upload", "tab complete", "ctrl+b browse", "esc back"}))
	return b.String()
}
