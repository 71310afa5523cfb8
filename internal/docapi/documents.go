package docapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"docexplorer/internal/session"
)

// FetchDirectory loads the whole folder/file tree.
func (c *Client) FetchDirectory(ctx context.Context) ([]Folder, error) {
	const op = "fetch directory"

	req, err := c.newRequest(ctx, "document.list", http.MethodGet, "/api/document", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var folders []folderDTO
	if err := decodeJSON(op, resp.Body, &folders); err != nil {
		return nil, err
	}
	tree, err := normalizeFolders(folders)
	if err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return tree, nil
}

// DeleteDocument deletes one file and returns the server's confirmation text.
func (c *Client) DeleteDocument(ctx context.Context, fileID string) (string, error) {
	const op = "delete document"

	req, err := c.newRequest(ctx, "document.delete", http.MethodDelete, "/api/document/delete/"+url.PathEscape(fileID), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(op, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return readMessage(resp.Body), nil
}

// Upload describes one multipart upload.
type Upload struct {
	Content    io.Reader
	SourceName string // local base name, used for the part's filename
	FileName   string
	FolderName string
	CreatedBy  string
}

// UploadDocument posts a new file into a folder.
func (c *Client) UploadDocument(ctx context.Context, u Upload) (string, error) {
	const op = "upload document"

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(u.SourceName)))
	h.Set("Content-Type", detectMIME(strings.ToLower(filepath.Ext(u.SourceName))))
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, u.Content); err != nil {
		return "", fmt.Errorf("%s: read source: %w", op, err)
	}
	for _, f := range [][2]string{
		{"filename", u.FileName},
		{"folderName", u.FolderName},
		{"createBy", u.CreatedBy},
	} {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, "document.add", http.MethodPost, "/api/document/add", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(op, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return readMessage(resp.Body), nil
}

// ListCandidates loads the contacts or leads a document can be linked to.
// Non super admins only see entities they created.
func (c *Client) ListCandidates(ctx context.Context, category Category, s session.Session) ([]Candidate, error) {
	var path, endpoint string
	switch category {
	case CategoryContact:
		path, endpoint = "/api/contact/", "contact.list"
	case CategoryLead:
		path, endpoint = "/api/lead/", "lead.list"
	default:
		return nil, fmt.Errorf("list candidates: unknown category %d", category)
	}
	if !s.IsSuperAdmin() {
		path += "?createBy=" + url.QueryEscape(s.UserID)
	}
	op := "list " + strings.ToLower(category.String()) + "s"

	req, err := c.newRequest(ctx, endpoint, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if category == CategoryContact {
		var contacts []contactDTO
		if err := decodeJSON(op, resp.Body, &contacts); err != nil {
			return nil, err
		}
		out := make([]Candidate, 0, len(contacts))
		for _, ct := range contacts {
			out = append(out, Candidate{Label: ct.ContactName, Value: ct.ID})
		}
		return out, nil
	}

	var leads []leadDTO
	if err := decodeJSON(op, resp.Body, &leads); err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(leads))
	for _, l := range leads {
		out = append(out, Candidate{Label: l.LeadName, Value: l.ID})
	}
	return out, nil
}

// LinkDocument associates a document with one contact or lead. Any 2xx
// status counts as linked.
func (c *Client) LinkDocument(ctx context.Context, documentID string, category Category, entityID string) error {
	const op = "link document"

	var payload linkRequest
	switch category {
	case CategoryContact:
		payload.LinkContact = entityID
	case CategoryLead:
		payload.LinkLead = entityID
	default:
		return fmt.Errorf("%s: unknown category %d", op, category)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, "document.link", http.MethodPost, "/api/document/link-document/"+url.PathEscape(documentID), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func detectMIME(ext string) string {
	if ext == ".msg" {
		return "application/vnd.ms-outlook"
	}
	mt := mime.TypeByExtension(ext)
	if mt != "" {
		return mt
	}
	return "application/octet-stream"
}
