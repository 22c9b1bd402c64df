package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectID string

// NewProjectID generates a new unique ProjectID
func NewProjectID() ProjectID {
	return ProjectID(uuid.New().String())
}

// Project groups chats and documents. SystemPrompt, when set, overrides
// the default persona given to the generation service.
type Project struct {
	ID           ProjectID `json:"id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
