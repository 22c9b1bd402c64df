package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collProjects  = "projects"
	collChats     = "chats"
	collDocuments = "documents"
)

// firestoreRepo implements Repository using Firestore
type firestoreRepo struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &firestoreRepo{client: client}, nil
}

func (r *firestoreRepo) PutProject(ctx context.Context, project *model.Project) error {
	if _, err := r.client.Collection(collProjects).Doc(string(project.ID)).Set(ctx, project); err != nil {
		return goerr.Wrap(err, "failed to put project", goerr.V("project_id", project.ID))
	}
	return nil
}

func (r *firestoreRepo) GetProject(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	snap, err := r.client.Collection(collProjects).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrProjectNotFound, "project not found", goerr.V("project_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("project_id", id))
	}

	var project model.Project
	if err := snap.DataTo(&project); err != nil {
		return nil, goerr.Wrap(err, "failed to decode project")
	}
	return &project, nil
}

func (r *firestoreRepo) ListProjects(ctx context.Context) ([]*model.Project, error) {
	iter := r.client.Collection(collProjects).OrderBy("CreatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var projects []*model.Project
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate projects")
		}

		var project model.Project
		if err := snap.DataTo(&project); err != nil {
			return nil, goerr.Wrap(err, "failed to decode project")
		}
		projects = append(projects, &project)
	}
	return projects, nil
}

func (r *firestoreRepo) DeleteProject(ctx context.Context, id model.ProjectID) error {
	if _, err := r.client.Collection(collProjects).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("project_id", id))
	}
	return nil
}

func (r *firestoreRepo) PutChat(ctx context.Context, chat *model.Chat) error {
	if _, err := r.client.Collection(collChats).Doc(string(chat.ID)).Set(ctx, chat); err != nil {
		return goerr.Wrap(err, "failed to put chat", goerr.V("chat_id", chat.ID))
	}
	return nil
}

func (r *firestoreRepo) GetChat(ctx context.Context, id model.ChatID) (*model.Chat, error) {
	snap, err := r.client.Collection(collChats).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrChatNotFound, "chat not found", goerr.V("chat_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get chat", goerr.V("chat_id", id))
	}

	var chat model.Chat
	if err := snap.DataTo(&chat); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat")
	}
	return &chat, nil
}

func (r *firestoreRepo) ListChats(ctx context.Context, projectID model.ProjectID) ([]*model.Chat, error) {
	iter := r.client.Collection(collChats).
		Where("ProjectID", "==", string(projectID)).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var chats []*model.Chat
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chats", goerr.V("project_id", projectID))
		}

		var chat model.Chat
		if err := snap.DataTo(&chat); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chat")
		}
		chats = append(chats, &chat)
	}
	return chats, nil
}

func (r *firestoreRepo) DeleteChat(ctx context.Context, id model.ChatID) error {
	if _, err := r.client.Collection(collChats).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete chat", goerr.V("chat_id", id))
	}
	return nil
}

func (r *firestoreRepo) PutDocument(ctx context.Context, doc *model.Document) error {
	if _, err := r.client.Collection(collDocuments).Doc(string(doc.ID)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put document", goerr.V("document_id", doc.ID))
	}
	return nil
}

func (r *firestoreRepo) GetDocument(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	snap, err := r.client.Collection(collDocuments).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrDocNotFound, "document not found", goerr.V("document_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("document_id", id))
	}

	var doc model.Document
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document")
	}
	return &doc, nil
}

func (r *firestoreRepo) ListDocuments(ctx context.Context, projectID model.ProjectID) ([]*model.Document, error) {
	iter := r.client.Collection(collDocuments).
		Where("ProjectID", "==", string(projectID)).
		Documents(ctx)
	defer iter.Stop()

	var docs []*model.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents", goerr.V("project_id", projectID))
		}

		var doc model.Document
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document")
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (r *firestoreRepo) DeleteDocument(ctx context.Context, id model.DocumentID) error {
	if _, err := r.client.Collection(collDocuments).Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("document_id", id))
	}
	return nil
}
