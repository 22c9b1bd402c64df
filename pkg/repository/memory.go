package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// memoryRepo is an in-memory Repository for tests and local use
type memoryRepo struct {
	mu        sync.RWMutex
	projects  map[model.ProjectID]*model.Project
	chats     map[model.ChatID]*model.Chat
	documents map[model.DocumentID]*model.Document
}

// NewMemory creates a new in-memory repository
func NewMemory() Repository {
	return &memoryRepo{
		projects:  make(map[model.ProjectID]*model.Project),
		chats:     make(map[model.ChatID]*model.Chat),
		documents: make(map[model.DocumentID]*model.Document),
	}
}

func (r *memoryRepo) PutProject(ctx context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = project
	return nil
}

func (r *memoryRepo) GetProject(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	project, ok := r.projects[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrProjectNotFound, "project not found", goerr.V("project_id", id))
	}
	return project, nil
}

func (r *memoryRepo) ListProjects(ctx context.Context) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	projects := make([]*model.Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *memoryRepo) DeleteProject(ctx context.Context, id model.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

func (r *memoryRepo) PutChat(ctx context.Context, chat *model.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = chat
	return nil
}

func (r *memoryRepo) GetChat(ctx context.Context, id model.ChatID) (*model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrChatNotFound, "chat not found", goerr.V("chat_id", id))
	}
	return chat, nil
}

func (r *memoryRepo) ListChats(ctx context.Context, projectID model.ProjectID) ([]*model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var chats []*model.Chat
	for _, c := range r.chats {
		if c.ProjectID == projectID {
			chats = append(chats, c)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
	return chats, nil
}

func (r *memoryRepo) DeleteChat(ctx context.Context, id model.ChatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

func (r *memoryRepo) PutDocument(ctx context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[doc.ID] = doc
	return nil
}

func (r *memoryRepo) GetDocument(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrDocNotFound, "document not found", goerr.V("document_id", id))
	}
	return doc, nil
}

func (r *memoryRepo) ListDocuments(ctx context.Context, projectID model.ProjectID) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []*model.Document
	for _, d := range r.documents {
		if d.ProjectID == projectID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (r *memoryRepo) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.documents, id)
	return nil
}
