package model

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type DocumentID string

// NewDocumentID generates a new unique DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// Document is an uploaded file belonging to exactly one project.
// Content holds the base64-encoded payload. The payload is kept out of
// the metadata store due to size limitations and lives in object
// storage instead.
type Document struct {
	ID        DocumentID `json:"id"`
	Name      string     `json:"name"`
	MIMEType  string     `json:"mime_type"`
	ProjectID ProjectID  `json:"project_id"`
	Summary   string     `json:"summary,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Content string `json:"content,omitempty" firestore:"-"`
}

// DecodedContent returns the raw payload decoded from base64
func (d *Document) DecodedContent() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(d.Content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode document content", goerr.V("document", d.Name))
	}
	return data, nil
}
