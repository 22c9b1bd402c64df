package vectorindex_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/gt"
)

func newTestIndex(t *testing.T) vectorindex.Index {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT is not set")
	}

	ctx := context.Background()
	index, err := vectorindex.NewFirestore(ctx, projectID, "(default)")
	gt.NoError(t, err)
	return index
}

func TestFirestoreAddAndDelete(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)
	projectID := model.NewProjectID()

	docA := model.NewDocumentID()
	docB := model.NewDocumentID()
	gt.NoError(t, index.Add(ctx, projectID, []vectorindex.Record{
		{ID: model.ChunkID(docA, 0), Text: "alpha", Vector: []float32{1, 0},
			Metadata: model.ChunkMetadata{DocumentID: docA, DocumentName: "a.txt"}},
		{ID: model.ChunkID(docB, 0), Text: "beta", Vector: []float32{0, 1},
			Metadata: model.ChunkMetadata{DocumentID: docB, DocumentName: "b.txt"}},
	}))

	gt.NoError(t, index.DeleteDocument(ctx, projectID, docA))
	gt.NoError(t, index.DeleteCollection(ctx, projectID))
}

func TestFirestoreAddSurfacesRejectedWrite(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	// Documents over 1 MiB are rejected server-side, not at enqueue time
	doc := model.NewDocumentID()
	err := index.Add(ctx, model.NewProjectID(), []vectorindex.Record{
		{ID: model.ChunkID(doc, 0), Text: strings.Repeat("x", 2<<20), Vector: []float32{1, 0},
			Metadata: model.ChunkMetadata{DocumentID: doc, DocumentName: "huge.txt"}},
	})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("failed to write chunk")
}
