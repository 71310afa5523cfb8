// Package docapitest provides an in-memory document service for tests.
package docapitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// File is a stored document.
type File struct {
	ID          string `json:"_id"`
	FileName    string `json:"fileName"`
	Img         string `json:"img"`
	LinkContact string `json:"linkContact,omitempty"`
	LinkLead    string `json:"linkLead,omitempty"`
}

// Folder is a stored folder.
type Folder struct {
	ID         string `json:"_id"`
	FolderName string `json:"folderName"`
	Files      []File `json:"files"`
}

// Entity is a contact or lead record.
type Entity struct {
	ID   string
	Name string
}

// Upload records one multipart upload.
type Upload struct {
	FileName   string
	FolderName string
	CreateBy   string
	PartName   string
	Content    string
}

// Server is a fake document service. Seed fields before issuing requests;
// read recorded calls through Snapshot.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	Folders  []Folder
	Contacts []Entity
	Leads    []Entity

	// FailDelete, when set, is returned as {message} with status 400.
	FailDelete string
	// FailLink, when set, is returned as {message} with status 500.
	FailLink string

	DirectoryFetches int
	Deletes          []string
	Links            []map[string]string
	Uploads          []Upload
	CandidateQueries []string
}

// NewServer starts a fake service seeded with folders.
func NewServer(folders ...Folder) *Server {
	s := &Server{Folders: folders}

	r := mux.NewRouter()
	r.HandleFunc("/api/document", s.listDocuments).Methods(http.MethodGet)
	r.HandleFunc("/api/document/delete/{id}", s.deleteDocument).Methods(http.MethodDelete)
	r.HandleFunc("/api/document/add", s.addDocument).Methods(http.MethodPost)
	r.HandleFunc("/api/document/link-document/{id}", s.linkDocument).Methods(http.MethodPost)
	r.HandleFunc("/api/contact/", s.listContacts).Methods(http.MethodGet)
	r.HandleFunc("/api/lead/", s.listLeads).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DirectoryFetches++
	writeJSON(w, http.StatusOK, s.Folders)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := mux.Vars(r)["id"]
	s.Deletes = append(s.Deletes, id)
	if s.FailDelete != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": s.FailDelete})
		return
	}
	for i := range s.Folders {
		files := s.Folders[i].Files[:0]
		for _, f := range s.Folders[i].Files {
			if f.ID != id {
				files = append(files, f)
			}
		}
		s.Folders[i].Files = files
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	up := Upload{
		FileName:   r.FormValue("filename"),
		FolderName: r.FormValue("folderName"),
		CreateBy:   r.FormValue("createBy"),
	}
	if f, hdr, err := r.FormFile("files"); err == nil {
		data, _ := io.ReadAll(f)
		f.Close()
		up.PartName = hdr.Filename
		up.Content = string(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Uploads = append(s.Uploads, up)
	writeJSON(w, http.StatusOK, map[string]string{"message": "File uploaded successfully"})
}

func (s *Server) linkDocument(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	body["documentId"] = mux.Vars(r)["id"]
	s.Links = append(s.Links, body)
	if s.FailLink != "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": s.FailLink})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document linked"})
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CandidateQueries = append(s.CandidateQueries, r.URL.RequestURI())
	out := make([]map[string]string, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		out = append(out, map[string]string{"_id": c.ID, "ContactName": c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CandidateQueries = append(s.CandidateQueries, r.URL.RequestURI())
	out := make([]map[string]string, 0, len(s.Leads))
	for _, l := range s.Leads {
		out = append(out, map[string]string{"_id": l.ID, "leadName": l.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// Snapshot runs fn while holding the server lock.
func (s *Server) Snapshot(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}
