package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageID string

// NewMessageID generates a new unique MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ResearchMode selects how a user prompt is answered
type ResearchMode string

const (
	// ModeDeepResearch answers with retrieval-augmented generation plus web search
	ModeDeepResearch ResearchMode = "deep_research"
	// ModeFindDocuments runs a structured web search for specific documents
	ModeFindDocuments ResearchMode = "find_documents"
)

// Validate checks if the research mode is valid
func (m ResearchMode) Validate() error {
	switch m {
	case ModeDeepResearch, ModeFindDocuments:
		return nil
	default:
		return ErrInvalidMode
	}
}

// Source is a grounding citation the model claims it used
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message is a single turn entry in a conversation. A model message grows
// in place (text and sources) while generation is in flight and is
// immutable afterwards, except for explicit user edits.
type Message struct {
	ID        MessageID    `json:"id"`
	Role      Role         `json:"role"`
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
	Sources   []Source     `json:"sources,omitempty"`
	Mode      ResearchMode `json:"mode,omitempty"`
}

// AddSource appends a source unless one with the same URI is already
// present. Reports whether the source was added.
func (m *Message) AddSource(src Source) bool {
	for _, s := range m.Sources {
		if s.URI == src.URI {
			return false
		}
	}
	m.Sources = append(m.Sources, src)
	return true
}
