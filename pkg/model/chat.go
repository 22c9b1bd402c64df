package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChatID string

// NewChatID generates a new unique ChatID
func NewChatID() ChatID {
	return ChatID(uuid.New().String())
}

const titleLimit = 30

// Chat is an ordered conversation owned by a project. DocumentIDs lists
// the documents attached as retrieval context; dangling references mean
// "no context" and are not an error.
type Chat struct {
	ID          ChatID       `json:"id"`
	Title       string       `json:"title"`
	ProjectID   ProjectID    `json:"project_id"`
	Messages    []*Message   `json:"messages"`
	DocumentIDs []DocumentID `json:"document_ids,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewChat creates an empty chat with a synthesized title
func NewChat(projectID ProjectID) *Chat {
	return &Chat{
		ID:        NewChatID(),
		Title:     "New Chat",
		ProjectID: projectID,
		CreatedAt: time.Now(),
	}
}

// SetTitleFromPrompt sets the title from the first substantive prompt,
// truncated on a rune boundary. Only applied when the chat has no
// prior exchange.
func (c *Chat) SetTitleFromPrompt(prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return
	}
	if runes := []rune(prompt); len(runes) > titleLimit {
		prompt = string(runes[:titleLimit])
	}
	c.Title = prompt
}
