package vectorindex

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// chunkDoc is the Firestore representation of an indexed chunk
type chunkDoc struct {
	Text         string             `firestore:"text"`
	Embedding    firestore.Vector32 `firestore:"embedding"`
	DocumentID   string             `firestore:"documentId"`
	DocumentName string             `firestore:"documentName"`
}

// firestoreIndex implements Index using Firestore vector search
type firestoreIndex struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed vector index
func NewFirestore(ctx context.Context, projectID, databaseID string) (Index, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}
	return &firestoreIndex{client: client}, nil
}

func (x *firestoreIndex) Add(ctx context.Context, projectID model.ProjectID, records []Record) error {
	coll := x.client.Collection(CollectionName(projectID))

	bw := x.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for _, rec := range records {
		doc := chunkDoc{
			Text:         rec.Text,
			Embedding:    firestore.Vector32(rec.Vector),
			DocumentID:   string(rec.Metadata.DocumentID),
			DocumentName: rec.Metadata.DocumentName,
		}
		job, err := bw.Set(coll.Doc(rec.ID), doc)
		if err != nil {
			return goerr.Wrap(err, "failed to enqueue chunk write", goerr.V("chunk_id", rec.ID))
		}
		jobs = append(jobs, job)
	}
	bw.End()

	// End only flushes; server-side rejections surface per job
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write chunk", goerr.V("chunk_id", records[i].ID))
		}
	}

	return nil
}

func (x *firestoreIndex) Query(ctx context.Context, projectID model.ProjectID, vector []float32, limit int, documentIDs []model.DocumentID) ([]Result, error) {
	coll := x.client.Collection(CollectionName(projectID))

	query := coll.Query
	if len(documentIDs) > 0 {
		// Firestore "in" filters accept up to 30 values; a chat rarely
		// attaches more documents than that.
		ids := make([]string, 0, len(documentIDs))
		for _, id := range documentIDs {
			ids = append(ids, string(id))
		}
		query = query.Where("documentId", "in", ids)
	}

	iter := query.FindNearest("embedding", firestore.Vector32(vector), limit, firestore.DistanceMeasureCosine, nil).Documents(ctx)
	defer iter.Stop()

	var results []Result
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query vector collection", goerr.V("project_id", projectID))
		}

		var doc chunkDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk")
		}
		results = append(results, Result{
			Text: doc.Text,
			Metadata: model.ChunkMetadata{
				DocumentID:   model.DocumentID(doc.DocumentID),
				DocumentName: doc.DocumentName,
			},
		})
	}
	return results, nil
}

func (x *firestoreIndex) DeleteDocument(ctx context.Context, projectID model.ProjectID, documentID model.DocumentID) error {
	coll := x.client.Collection(CollectionName(projectID))
	iter := coll.Where("documentId", "==", string(documentID)).Documents(ctx)
	return x.deleteAll(ctx, iter)
}

func (x *firestoreIndex) DeleteCollection(ctx context.Context, projectID model.ProjectID) error {
	coll := x.client.Collection(CollectionName(projectID))
	return x.deleteAll(ctx, coll.Documents(ctx))
}

func (x *firestoreIndex) deleteAll(ctx context.Context, iter *firestore.DocumentIterator) error {
	defer iter.Stop()

	bw := x.client.BulkWriter(ctx)
	var (
		jobs []*firestore.BulkWriterJob
		ids  []string
	)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate chunks for deletion")
		}
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			return goerr.Wrap(err, "failed to enqueue chunk deletion", goerr.V("chunk_id", snap.Ref.ID))
		}
		jobs = append(jobs, job)
		ids = append(ids, snap.Ref.ID)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete chunk", goerr.V("chunk_id", ids[i]))
		}
	}

	return nil
}
