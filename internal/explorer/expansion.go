// Package explorer holds the view state of the folder/file tree: which
// folders are expanded, which file's action menu is open, and the rows the
// tree renders.
package explorer

import "docexplorer/internal/docapi"

// ExpansionSet tracks expanded folder ids. The zero value is empty and ready.
type ExpansionSet struct {
	ids map[string]struct{}
}

// Toggle flips membership of folderID.
func (s *ExpansionSet) Toggle(folderID string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[folderID]; ok {
		delete(s.ids, folderID)
		return
	}
	s.ids[folderID] = struct{}{}
}

// IsExpanded reports whether folderID is expanded.
func (s *ExpansionSet) IsExpanded(folderID string) bool {
	_, ok := s.ids[folderID]
	return ok
}

// Len returns the number of expanded folders.
func (s *ExpansionSet) Len() int {
	return len(s.ids)
}

// Reset collapses everything.
func (s *ExpansionSet) Reset() {
	s.ids = nil
}

// Retain drops ids of folders that are not in the snapshot.
func (s *ExpansionSet) Retain(folders []docapi.Folder) {
	if len(s.ids) == 0 {
		return
	}
	present := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		present[f.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := present[id]; !ok {
			delete(s.ids, id)
		}
	}
}
