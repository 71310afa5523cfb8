package main

import (
	"fmt"
	"strings"
)

type helpEntry struct{ keys, desc string }

type helpSection struct {
	title   string
	entries []helpEntry
}

var helpSections = []helpSection{
	{"Explorer", []helpEntry{
		{"↑/↓ or j/k", "Move between folders and files"},
		{"Enter/Space", "Expand or collapse a folder, open a file's actions"},
		{"h/←", "Collapse the current folder"},
		{"y", "Copy the file's link"},
		{"L", "Link the file to a contact or lead"},
		{"r", "Reload documents"},
		{"u", "Upload a document"},
		{"H", "Download history"},
	}},
	{"File actions", []helpEntry{
		{"o", "Open link in the browser"},
		{"d", "Save to the download directory"},
		{"x", "Delete (asks for confirmation)"},
		{"ESC", "Close the menu"},
	}},
	{"Link dialog", []helpEntry{
		{"c / l", "Show contacts / leads"},
		{"Tab", "Switch between category and list"},
		{"Space", "Choose the highlighted entry"},
		{"s", "Submit"},
		{"ESC", "Cancel"},
	}},
	{"Upload", []helpEntry{
		{"Tab", "Complete path or folder name"},
		{"Ctrl+B", "Browse for a file"},
		{"Alt+1-9", "Use a recent folder"},
		{"Enter", "Upload"},
	}},
	{"Global", []helpEntry{
		{"?/F1", "Show this help screen"},
		{"q/Ctrl+C", "Quit"},
	}},
}

func (m model) viewHelp() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", renderTitle("Document Explorer - Help & Keyboard Shortcuts"))

	for _, s := range helpSections {
		fmt.Fprintf(&b, "%s\n", valueStyle.Render("▪ "+s.title))
		for _, e := range s.entries {
			fmt.Fprintf(&b, "  %s %s\n", cursorStyle.Width(14).Render(e.keys), subtitleStyle.Render(e.desc))
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintf(&b, "%s\n", labelStyle.Render("Settings"))
	fmt.Fprintf(&b, "%s\n", indent(fmt.Sprintf("Service:   %s\nUser:      %s (%s)\nDownloads: %s",
		m.env.cfg.BaseURL, m.env.session.UserID, roleLabel(m.env.session.IsSuperAdmin()), m.env.cfg.DownloadDir), 2))

	fmt.Fprintf(&b, "\n%s\n", subtitleStyle.Render("Press any key to return"))
	return b.String()
}

func roleLabel(superAdmin bool) string {
	if superAdmin {
		return "super admin"
	}
	return "sees own contacts and leads"
}
