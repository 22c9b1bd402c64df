package project

import (
	"context"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/repository"
	"github.com/k-fujiwara/minerva/pkg/usecase/ingest"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/goerr/v2"
)

// Delete removes a project and everything it owns: documents with
// their payloads and index entries, chats, the vector collection, and
// finally the project itself. Partial failure leaves already deleted
// pieces gone; the operation is safe to re-run.
func Delete(ctx context.Context, repo repository.Repository, storage adapter.Storage, index vectorindex.Index, id model.ProjectID) error {
	logger := logging.From(ctx)

	if _, err := repo.GetProject(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to get project")
	}

	docs, err := repo.ListDocuments(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list documents", goerr.V("project_id", id))
	}
	for _, doc := range docs {
		if err := ingest.DeleteDocument(ctx, repo, storage, index, doc); err != nil {
			return goerr.Wrap(err, "failed to delete document", goerr.V("document_id", doc.ID))
		}
		logger.Info("deleted document", "document_id", doc.ID, "name", doc.Name)
	}

	chats, err := repo.ListChats(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list chats", goerr.V("project_id", id))
	}
	for _, chat := range chats {
		if err := repo.DeleteChat(ctx, chat.ID); err != nil {
			return goerr.Wrap(err, "failed to delete chat", goerr.V("chat_id", chat.ID))
		}
	}

	if err := index.DeleteCollection(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete vector collection", goerr.V("project_id", id))
	}

	if err := repo.DeleteProject(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("project_id", id))
	}

	return nil
}
