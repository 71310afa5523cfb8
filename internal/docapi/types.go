package docapi

import "fmt"

// Folder is a named grouping of files. Files keep the server's order.
type Folder struct {
	ID    string
	Name  string
	Files []File
}

// File is one document inside a folder.
type File struct {
	ID   string
	Name string
	URL  string
	Link *LinkRef
}

// LinkRef is the entity a document is linked to, if any.
type LinkRef struct {
	Category Category
	EntityID string
}

// Category selects which entity list a document is linked against.
type Category int

const (
	CategoryNone Category = iota
	CategoryContact
	CategoryLead
)

func (c Category) String() string {
	switch c {
	case CategoryContact:
		return "Contact"
	case CategoryLead:
		return "Lead"
	default:
		return ""
	}
}

// Candidate is a selectable contact or lead.
type Candidate struct {
	Label string
	Value string
}

// Wire shapes.

type folderDTO struct {
	ID         string    `json:"_id"`
	FolderName string    `json:"folderName"`
	Files      []fileDTO `json:"files"`
}

type fileDTO struct {
	ID          string `json:"_id"`
	FileName    string `json:"fileName"`
	Img         string `json:"img"`
	LinkContact string `json:"linkContact,omitempty"`
	LinkLead    string `json:"linkLead,omitempty"`
}

type contactDTO struct {
	ID          string `json:"_id"`
	ContactName string `json:"ContactName"`
}

type leadDTO struct {
	ID       string `json:"_id"`
	LeadName string `json:"leadName"`
}

type messageDTO struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type linkRequest struct {
	LinkContact string `json:"linkContact,omitempty"`
	LinkLead    string `json:"linkLead,omitempty"`
}

// normalizeFolders converts the wire tree. Any entry without an id rejects
// the whole response.
func normalizeFolders(in []folderDTO) ([]Folder, error) {
	out := make([]Folder, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, f := range in {
		if f.ID == "" {
			return nil, fmt.Errorf("folder %d has no _id", i)
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate folder _id %q", f.ID)
		}
		seen[f.ID] = struct{}{}

		files := make([]File, 0, len(f.Files))
		for j, d := range f.Files {
			if d.ID == "" {
				return nil, fmt.Errorf("file %d in folder %q has no _id", j, f.ID)
			}
			file := File{ID: d.ID, Name: d.FileName, URL: d.Img}
			switch {
			case d.LinkContact != "":
				file.Link = &LinkRef{Category: CategoryContact, EntityID: d.LinkContact}
			case d.LinkLead != "":
				file.Link = &LinkRef{Category: CategoryLead, EntityID: d.LinkLead}
			}
			files = append(files, file)
		}
		out = append(out, Folder{ID: f.ID, Name: f.FolderName, Files: files})
	}
	return out, nil
}
