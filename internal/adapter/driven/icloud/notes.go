package icloud

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"icloudctl/internal/domain/model"
)

// wireNote is the notes web service's note record.
type wireNote struct {
	NoteID           string `json:"noteId"`
	FolderName       string `json:"folderName"`
	Subject          string `json:"subject"`
	Content          string `json:"content"`
	LastModifiedDate string `json:"lastModifiedDate"`
}

type noteListResponse struct {
	Notes []wireNote `json:"notes"`
}

// ListNotes returns all notes.
func (c *Client) ListNotes(ctx context.Context, sess *model.Session) ([]model.Note, error) {
	base, err := serviceURL(sess, "notes")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		Get(base + "/no/content")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	var out noteListResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformed("note list", err)
	}

	notes := make([]model.Note, 0, len(out.Notes))
	for _, wn := range out.Notes {
		notes = append(notes, noteFromWire(wn))
	}
	return notes, nil
}

// CreateNote creates a note and returns it with the assigned id.
func (c *Client) CreateNote(ctx context.Context, sess *model.Session, note model.Note) (*model.Note, error) {
	base, err := serviceURL(sess, "notes")
	if err != nil {
		return nil, err
	}

	id := note.ID
	if id == "" {
		id = uuid.NewString()
	}
	body := wireNote{
		NoteID:           id,
		FolderName:       note.Folder,
		Subject:          note.Subject,
		Content:          note.Body,
		LastModifiedDate: time.Now().UTC().Format(time.RFC3339),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]any{"note": body}).
		Post(base + "/no/content")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	created := noteFromWire(body)
	return &created, nil
}

// SearchNotes returns notes whose subject or body match the query.
func (c *Client) SearchNotes(ctx context.Context, sess *model.Session, query string) ([]model.Note, error) {
	base, err := serviceURL(sess, "notes")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetQueryParam("query", query).
		Get(base + "/no/search")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	var out noteListResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformed("note search", err)
	}

	notes := make([]model.Note, 0, len(out.Notes))
	for _, wn := range out.Notes {
		notes = append(notes, noteFromWire(wn))
	}
	return notes, nil
}

func noteFromWire(wn wireNote) model.Note {
	note := model.Note{
		ID:      wn.NoteID,
		Folder:  wn.FolderName,
		Subject: wn.Subject,
		Body:    wn.Content,
	}
	if wn.LastModifiedDate != "" {
		if t, err := time.Parse(time.RFC3339, wn.LastModifiedDate); err == nil {
			note.ModifiedAt = t.UTC()
		}
	}
	return note
}
