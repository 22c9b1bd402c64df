package ingest

import (
	"context"
	"encoding/base64"
	"io"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/repository"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/goerr/v2"
)

func payloadKey(id model.DocumentID) string {
	return "documents/" + string(id)
}

// SaveDocument persists document metadata to the repository and the
// decoded payload to object storage. The payload is kept out of the
// metadata store due to its size limitations.
func SaveDocument(ctx context.Context, repo repository.Repository, storage adapter.Storage, doc *model.Document) error {
	data, err := doc.DecodedContent()
	if err != nil {
		return err
	}

	writer, err := storage.Put(ctx, payloadKey(doc.ID))
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer", goerr.V("document", doc.Name))
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return goerr.Wrap(err, "failed to write document payload", goerr.V("document", doc.Name))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("document", doc.Name))
	}

	if err := repo.PutDocument(ctx, doc); err != nil {
		return err
	}

	return nil
}

// LoadDocument retrieves document metadata and restores the base64
// payload from object storage.
func LoadDocument(ctx context.Context, repo repository.Repository, storage adapter.Storage, id model.DocumentID) (*model.Document, error) {
	doc, err := repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	reader, err := storage.Get(ctx, payloadKey(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get document payload", goerr.V("document", doc.Name))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read document payload", goerr.V("document", doc.Name))
	}

	doc.Content = base64.StdEncoding.EncodeToString(data)
	return doc, nil
}

// DeleteDocument removes a document's metadata, payload and index
// entries. Chunks of other documents in the project are untouched.
func DeleteDocument(ctx context.Context, repo repository.Repository, storage adapter.Storage, index vectorindex.Index, doc *model.Document) error {
	if err := index.DeleteDocument(ctx, doc.ProjectID, doc.ID); err != nil {
		return err
	}
	if err := storage.Delete(ctx, payloadKey(doc.ID)); err != nil {
		return err
	}
	return repo.DeleteDocument(ctx, doc.ID)
}
