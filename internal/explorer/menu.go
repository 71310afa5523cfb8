package explorer

import "docexplorer/internal/docapi"

// Action is one entry of the per-file menu.
type Action int

const (
	ActionOpen Action = iota
	ActionDownload
	ActionDelete
)

// Actions lists the menu entries in display order.
var Actions = []Action{ActionOpen, ActionDownload, ActionDelete}

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "Open link"
	case ActionDownload:
		return "Download"
	case ActionDelete:
		return "Delete"
	default:
		return ""
	}
}

// ActionMenu holds at most one selected file.
type ActionMenu struct {
	file   docapi.File
	open   bool
	cursor int
}

// Open selects file, replacing any previous selection.
func (m *ActionMenu) Open(file docapi.File) {
	*m = ActionMenu{file: file, open: true}
}

// Dismiss clears the selection.
func (m *ActionMenu) Dismiss() {
	*m = ActionMenu{}
}

// IsOpen reports whether a file is selected.
func (m *ActionMenu) IsOpen() bool {
	return m.open
}

// Selected returns the selected file.
func (m *ActionMenu) Selected() (docapi.File, bool) {
	return m.file, m.open
}

// Take returns the selected file and the highlighted action, then clears the
// selection. Dispatching an action always goes through Take so the menu is
// closed before any request starts.
func (m *ActionMenu) Take() (docapi.File, Action, bool) {
	file, action, ok := m.file, Actions[m.cursor], m.open
	m.Dismiss()
	return file, action, ok
}

// Cursor returns the highlighted action.
func (m *ActionMenu) Cursor() Action {
	return Actions[m.cursor]
}

// Move shifts the highlight by delta, wrapping around.
func (m *ActionMenu) Move(delta int) {
	n := len(Actions)
	m.cursor = ((m.cursor+delta)%n + n) % n
}

// Highlight moves the highlight to a.
func (m *ActionMenu) Highlight(a Action) {
	for i, x := range Actions {
		if x == a {
			m.cursor = i
		}
	}
}
