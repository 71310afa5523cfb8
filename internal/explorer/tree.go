package explorer

import "docexplorer/internal/docapi"

// RowKind distinguishes folder rows from file rows.
type RowKind int

const (
	RowFolder RowKind = iota
	RowFile
)

// Row is one visible line of the tree.
type Row struct {
	Kind     RowKind
	Folder   docapi.Folder
	File     docapi.File
	Expanded bool
}

// Flatten lists the visible rows: every folder, followed by its files when
// expanded.
func Flatten(folders []docapi.Folder, expanded *ExpansionSet) []Row {
	rows := make([]Row, 0, len(folders))
	for _, f := range folders {
		open := expanded.IsExpanded(f.ID)
		rows = append(rows, Row{Kind: RowFolder, Folder: f, Expanded: open})
		if !open {
			continue
		}
		for _, file := range f.Files {
			rows = append(rows, Row{Kind: RowFile, Folder: f, File: file})
		}
	}
	return rows
}

// FileCount returns the number of files across folders.
func FileCount(folders []docapi.Folder) int {
	n := 0
	for _, f := range folders {
		n += len(f.Files)
	}
	return n
}
