package repository

import (
	"context"

	"github.com/k-fujiwara/minerva/pkg/model"
)

// Repository defines the interface for project, chat and document
// persistence. Simple keyed upsert/read/delete; no transactions.
type Repository interface {
	// PutProject saves or updates a project
	PutProject(ctx context.Context, project *model.Project) error

	// GetProject retrieves a project by ID
	GetProject(ctx context.Context, id model.ProjectID) (*model.Project, error)

	// ListProjects retrieves all projects
	ListProjects(ctx context.Context) ([]*model.Project, error)

	// DeleteProject removes a project. Owned chats and documents are
	// the caller's responsibility.
	DeleteProject(ctx context.Context, id model.ProjectID) error

	// PutChat saves or updates a chat including its full message list
	PutChat(ctx context.Context, chat *model.Chat) error

	// GetChat retrieves a chat by ID
	GetChat(ctx context.Context, id model.ChatID) (*model.Chat, error)

	// ListChats retrieves chats of a project, most recent first
	ListChats(ctx context.Context, projectID model.ProjectID) ([]*model.Chat, error)

	// DeleteChat removes a chat
	DeleteChat(ctx context.Context, id model.ChatID) error

	// PutDocument saves document metadata (payload is stored separately)
	PutDocument(ctx context.Context, doc *model.Document) error

	// GetDocument retrieves document metadata by ID
	GetDocument(ctx context.Context, id model.DocumentID) (*model.Document, error)

	// ListDocuments retrieves document metadata of a project
	ListDocuments(ctx context.Context, projectID model.ProjectID) ([]*model.Document, error)

	// DeleteDocument removes document metadata
	DeleteDocument(ctx context.Context, id model.DocumentID) error
}
