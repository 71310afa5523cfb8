package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"docexplorer/internal/docapi"
	"docexplorer/internal/download"
	"docexplorer/internal/explorer"
	"docexplorer/internal/platform"
)

type explorerModel struct {
	folders   []docapi.Folder
	loaded    bool
	expansion explorer.ExpansionSet
	cursor    int
	menu      explorer.ActionMenu

	// confirm holds the file awaiting delete confirmation.
	confirm      *docapi.File
	confirmFocus int // 0=Cancel, 1=Delete

	deleting bool
	loading  bool
	fetchSeq int

	download *downloadState
}

type downloadState struct {
	name     string
	progress download.Progress
	bar      progress.Model
}

type directoryMsg struct {
	seq     int
	folders []docapi.Folder
	err     error
}

type deleteMsg struct {
	file    docapi.File
	message string
	err     error
}

type openMsg struct{ err error }

type copyMsg struct {
	text string
	err  error
}

type downloadProgressMsg download.Progress

type downloadDoneMsg struct {
	name   string
	result download.Result
	err    error
}

func (m model) rows() []explorer.Row {
	return explorer.Flatten(m.explorer.folders, &m.explorer.expansion)
}

func (m model) currentRow() (explorer.Row, bool) {
	rows := m.rows()
	if m.explorer.cursor < 0 || m.explorer.cursor >= len(rows) {
		return explorer.Row{}, false
	}
	return rows[m.explorer.cursor], true
}

func (m model) fetchDirectory(seq int) tea.Cmd {
	docs := m.env.docs
	return func() tea.Msg {
		folders, err := docs.FetchDirectory(context.Background())
		return directoryMsg{seq: seq, folders: folders, err: err}
	}
}

// refresh issues a full refetch. Only the latest fetch is applied.
func (m *model) refresh() tea.Cmd {
	m.explorer.fetchSeq++
	m.explorer.loading = true
	return tea.Batch(m.spin.Tick, m.fetchDirectory(m.explorer.fetchSeq))
}

func (m model) handleDirectory(msg directoryMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.explorer.fetchSeq {
		return m, nil
	}
	m.explorer.loading = false
	if m.state == stateLoading {
		m.state = stateExplorer
	}
	if msg.err != nil {
		// Keep whatever snapshot is on screen.
		m.env.log.Warn("directory fetch failed", zap.Error(msg.err))
		m.notice = notice{noticeError, docapi.UserMessage(msg.err, "Failed to load documents.")}
		return m, nil
	}

	m.explorer.folders = msg.folders
	m.explorer.loaded = true
	if m.env.cfg.PreserveExpansion {
		m.explorer.expansion.Retain(msg.folders)
	} else {
		m.explorer.expansion.Reset()
	}
	if n := len(m.rows()); m.explorer.cursor >= n {
		m.explorer.cursor = max(n-1, 0)
	}
	return m, nil
}

func (m model) updateExplorer(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case m.explorer.confirm != nil:
		return m.updateConfirm(k)
	case m.link.flow.Active():
		return m.updateLink(k)
	case m.explorer.menu.IsOpen():
		return m.updateMenu(k)
	}

	rows := m.rows()
	switch {
	case key.Matches(k, keys.Quit):
		return m, tea.Quit
	case key.Matches(k, keys.Help):
		return m.showHelp()
	case key.Matches(k, keys.Up):
		if m.explorer.cursor > 0 {
			m.explorer.cursor--
		}
	case key.Matches(k, keys.Down):
		if m.explorer.cursor < len(rows)-1 {
			m.explorer.cursor++
		}
	case key.Matches(k, keys.Toggle):
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		if row.Kind == explorer.RowFolder {
			m.explorer.expansion.Toggle(row.Folder.ID)
			return m, nil
		}
		m.explorer.menu.Open(row.File)
	case key.Matches(k, keys.Collapse):
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		if row.Kind == explorer.RowFile || row.Expanded {
			m.explorer.expansion.Toggle(row.Folder.ID)
			m.explorer.cursor = m.folderRowIndex(row.Folder.ID)
		}
	case key.Matches(k, keys.Refresh):
		if m.explorer.loading {
			return m, nil
		}
		m.notice = notice{}
		cmd := m.refresh()
		return m, cmd
	case key.Matches(k, keys.Copy):
		row, ok := m.currentRow()
		if !ok || row.Kind != explorer.RowFile {
			return m, nil
		}
		return m.copyLocator(row.File)
	case key.Matches(k, keys.Upload):
		m.state = stateUpload
		m.upload.err = ""
		cmd := m.upload.focusFirst()
		return m, cmd
	case key.Matches(k, keys.Link):
		row, ok := m.currentRow()
		if !ok || row.Kind != explorer.RowFile {
			m.notice = notice{noticeInfo, "Select a file to link."}
			return m, nil
		}
		m.link.open(row.File)
	case key.Matches(k, keys.History):
		m.state = stateHistory
		cmd := m.loadHistory()
		return m, cmd
	case key.Matches(k, keys.Back):
		m.notice = notice{}
	}
	return m, nil
}

func (m model) folderRowIndex(folderID string) int {
	for i, r := range m.rows() {
		if r.Kind == explorer.RowFolder && r.Folder.ID == folderID {
			return i
		}
	}
	return 0
}

func (m model) updateMenu(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "esc", "q":
		m.explorer.menu.Dismiss()
		return m, nil
	case "up", "k":
		m.explorer.menu.Move(-1)
		return m, nil
	case "down", "j", "tab":
		m.explorer.menu.Move(1)
		return m, nil
	case "o":
		m.explorer.menu.Highlight(explorer.ActionOpen)
	case "d":
		m.explorer.menu.Highlight(explorer.ActionDownload)
	case "x", "delete":
		m.explorer.menu.Highlight(explorer.ActionDelete)
	case "enter":
	default:
		return m, nil
	}
	return m.dispatchAction()
}

// dispatchAction runs the highlighted action on the selected file. The menu
// is cleared before anything else happens.
func (m model) dispatchAction() (tea.Model, tea.Cmd) {
	file, action, ok := m.explorer.menu.Take()
	if !ok {
		return m, nil
	}
	switch action {
	case explorer.ActionOpen:
		return m.openFile(file)
	case explorer.ActionDownload:
		return m.downloadFile(file)
	case explorer.ActionDelete:
		if m.explorer.deleting {
			m.notice = notice{noticeInfo, "A delete is already in progress."}
			return m, nil
		}
		f := file
		m.explorer.confirm = &f
		m.explorer.confirmFocus = 0
	}
	return m, nil
}

func (m model) openFile(file docapi.File) (tea.Model, tea.Cmd) {
	loc, err := explorer.ResolveLocator(file.URL, m.env.cfg.EmulatorHost)
	if err != nil {
		m.notice = notice{noticeError, "This file has no valid link."}
		return m, nil
	}
	if !m.env.opener.CanOpen(loc) {
		m.notice = notice{noticeError, "Cannot open this file type."}
		return m, nil
	}
	opener := m.env.opener
	m.notice = notice{noticeInfo, "Opening " + file.Name + "..."}
	return m, func() tea.Msg {
		return openMsg{err: opener.Open(loc)}
	}
}

func (m model) handleOpen(msg openMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.notice = notice{}
	case errors.Is(msg.err, platform.ErrUnsupported):
		m.notice = notice{noticeError, "Cannot open this file type."}
	default:
		m.env.log.Warn("open failed", zap.Error(msg.err))
		m.notice = notice{noticeError, "Failed to open file."}
	}
	return m, nil
}

func (m model) downloadFile(file docapi.File) (tea.Model, tea.Cmd) {
	if m.explorer.download != nil {
		m.notice = notice{noticeInfo, "A download is already in progress."}
		return m, nil
	}
	loc, err := explorer.ResolveLocator(file.URL, m.env.cfg.EmulatorHost)
	if err != nil {
		m.notice = notice{noticeError, "This file has no valid link."}
		return m, nil
	}

	dir := m.env.downloads.Dir()
	if err := m.env.storage.Request(dir); err != nil {
		m.env.log.Warn("storage permission", zap.String("dir", dir), zap.Error(err))
		m.notice = notice{noticeWarning, "Storage permission denied; trying anyway."}
	} else {
		m.notice = notice{}
	}

	req := download.Request{
		DocumentID: file.ID,
		URL:        loc,
		Name:       explorer.DownloadName(loc, file.Name, m.env.now()),
	}
	m.explorer.download = &downloadState{
		name:     req.Name,
		progress: download.Progress{Name: req.Name, Total: -1},
		bar:      progress.New(progress.WithDefaultGradient()),
	}

	dl, send := m.env.downloads, m.env.send
	return m, func() tea.Msg {
		res, err := dl.Fetch(context.Background(), req, func(p download.Progress) {
			if send != nil {
				send(downloadProgressMsg(p))
			}
		})
		return downloadDoneMsg{name: req.Name, result: res, err: err}
	}
}

func (m model) handleDownloadProgress(msg downloadProgressMsg) (tea.Model, tea.Cmd) {
	if m.explorer.download == nil || m.explorer.download.name != msg.Name {
		return m, nil
	}
	m.explorer.download.progress = download.Progress(msg)
	return m, nil
}

func (m model) handleDownloadDone(msg downloadDoneMsg) (tea.Model, tea.Cmd) {
	m.explorer.download = nil
	if msg.err != nil {
		m.notice = notice{noticeError, "Download failed: " + msg.err.Error()}
		return m, nil
	}
	m.notice = notice{noticeSuccess, fmt.Sprintf("Saved %s (%s)", msg.result.Path, formatSize(msg.result.Size))}
	return m, nil
}

func (m model) copyLocator(file docapi.File) (tea.Model, tea.Cmd) {
	loc, err := explorer.ResolveLocator(file.URL, m.env.cfg.EmulatorHost)
	if err != nil {
		m.notice = notice{noticeError, "This file has no valid link."}
		return m, nil
	}
	cb := m.env.clipboard
	return m, func() tea.Msg {
		return copyMsg{text: loc, err: cb.Copy(loc)}
	}
}

func (m model) handleCopy(msg copyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = notice{noticeError, "Clipboard unavailable."}
		return m, nil
	}
	m.notice = notice{noticeSuccess, "Copied " + msg.text}
	return m, nil
}

func (m model) updateConfirm(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "left", "h", "right", "l", "tab", "shift+tab":
		m.explorer.confirmFocus = 1 - m.explorer.confirmFocus
	case "esc", "n", "q":
		m.explorer.confirm = nil
	case "enter":
		file := *m.explorer.confirm
		m.explorer.confirm = nil
		if m.explorer.confirmFocus != 1 || m.explorer.deleting {
			return m, nil
		}
		m.explorer.deleting = true
		m.notice = notice{noticeInfo, "Deleting " + file.Name + "..."}
		docs := m.env.docs
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			message, err := docs.DeleteDocument(context.Background(), file.ID)
			return deleteMsg{file: file, message: message, err: err}
		})
	}
	return m, nil
}

func (m model) handleDelete(msg deleteMsg) (tea.Model, tea.Cmd) {
	m.explorer.deleting = false
	if msg.err != nil {
		m.env.log.Warn("delete failed", zap.String("id", msg.file.ID), zap.Error(msg.err))
		m.notice = notice{noticeError, docapi.UserMessage(msg.err, "Failed to delete file.")}
		return m, nil
	}
	text := msg.message
	if text == "" {
		text = msg.file.Name + " deleted."
	}
	m.notice = notice{noticeSuccess, text}
	cmd := m.refresh()
	return m, cmd
}

func (m model) viewExplorer() string {
	var b strings.Builder
	width := m.getWidth()

	title := renderTitle("Documents")
	status := subtitleStyle.Render(fmt.Sprintf("%d folders • %d files",
		len(m.explorer.folders), explorer.FileCount(m.explorer.folders)))
	if m.explorer.loading || m.explorer.deleting {
		status = m.spin.View() + " " + status
	}
	fmt.Fprintf(&b, "%s  %s\n\n", title, status)

	rows := m.rows()
	switch {
	case len(rows) == 0 && !m.explorer.loaded:
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("Documents could not be loaded. Press r to retry."))
	case len(rows) == 0:
		fmt.Fprintf(&b, "%s\n", subtitleStyle.Render("No documents yet. Press u to upload one."))
	default:
		start, end := visibleWindow(m.explorer.cursor, len(rows), m.getListDisplayLines())
		for i := start; i < end; i++ {
			fmt.Fprintf(&b, "%s\n", m.renderRow(rows[i], i == m.explorer.cursor, width))
		}
		if len(rows) > end-start {
			fmt.Fprintf(&b, "%s\n", subtitleStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(rows))))
		}
	}

	switch {
	case m.explorer.confirm != nil:
		fmt.Fprintf(&b, "\n%s\n", m.viewConfirm())
	case m.link.flow.Active():
		fmt.Fprintf(&b, "\n%s\n", m.viewLink())
	case m.explorer.menu.IsOpen():
		fmt.Fprintf(&b, "\n%s\n", m.viewMenu())
	}

	if d := m.explorer.download; d != nil {
		line := labelStyle.Render("Downloading "+d.name) + " "
		if d.progress.Total > 0 {
			bar := d.bar
			bar.Width = max(10, min(40, width-lipgloss.Width(line)-4))
			line += bar.ViewAs(d.progress.Percent())
		} else {
			line += m.spin.View() + " " + formatSize(d.progress.Written)
		}
		fmt.Fprintf(&b, "\n%s\n", line)
	}

	if n := m.notice.render(); n != "" {
		fmt.Fprintf(&b, "\n%s\n", n)
	}
	fmt.Fprintf(&b, "\n%s\n", m.keyHelp.View(keys))
	return b.String()
}

func (m model) renderRow(r explorer.Row, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = cursorStyle.Render("▸ ")
	}
	if r.Kind == explorer.RowFolder {
		marker := "▸"
		if r.Expanded {
			marker = "▾"
		}
		count := subtitleStyle.Render(fmt.Sprintf(" (%d)", len(r.Folder.Files)))
		return prefix + folderStyle.Render(marker+" "+truncate(r.Folder.Name, width-12)) + count
	}
	line := "    " + fileStyle.Render(truncate(r.File.Name, width-20))
	if r.File.Link != nil {
		line += " " + accentStyle.Render("⛓ "+r.File.Link.Category.String())
	}
	return prefix + line
}

func (m model) viewMenu() string {
	file, _ := m.explorer.menu.Selected()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", valueStyle.Render(file.Name))
	for _, a := range explorer.Actions {
		prefix := "  "
		style := fileStyle
		if a == m.explorer.menu.Cursor() {
			prefix = cursorStyle.Render("▸ ")
			style = cursorStyle
		}
		fmt.Fprintf(&b, "%s%s\n", prefix, style.Render(a.String()))
	}
	fmt.Fprintf(&b, "\n%s", renderKeyHelp([]string{"enter run", "o open", "d download", "x delete", "esc close"}))
	return dialogStyle.Render(b.String())
}

func (m model) viewConfirm() string {
	file := m.explorer.confirm
	body := fmt.Sprintf("%s\n\n%s\n\n%s%s",
		errorStyle.Render("Delete file"),
		fmt.Sprintf("Delete %s? This cannot be undone.", valueStyle.Render(file.Name)),
		renderButton("Cancel", m.explorer.confirmFocus == 0, false),
		renderButton("Delete", m.explorer.confirmFocus == 1, true),
	)
	return dialogStyle.BorderForeground(danger).Render(body)
}
