package ingest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/repository"
	"github.com/k-fujiwara/minerva/pkg/service/embedding"
	"github.com/k-fujiwara/minerva/pkg/usecase/ingest"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type mockGemini struct {
	embeddingFunc func(ctx context.Context, text string) (*genai.EmbedContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGemini) GenerateStream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(nil, errors.New("not implemented"))
	}
}

func (m *mockGemini) Embedding(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
	if m.embeddingFunc != nil {
		return m.embeddingFunc(ctx, text)
	}
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{float32(len(text)), 1}}},
	}, nil
}

// mockStorage keeps payloads in memory
type mockStorage struct {
	data map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

type mockWriter struct {
	buf     bytes.Buffer
	key     string
	storage *mockStorage
}

func (w *mockWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *mockWriter) Close() error {
	w.storage.data[w.key] = w.buf.Bytes()
	return nil
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &mockWriter{key: key, storage: m}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testDocument(text string) *model.Document {
	return &model.Document{
		ID:        "doc-1",
		Name:      "report.txt",
		MIMEType:  "text/plain",
		ProjectID: "proj-1",
		Content:   base64.StdEncoding.EncodeToString([]byte(text)),
		CreatedAt: time.Now(),
	}
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemory()
	gw := embedding.NewGateway(&mockGemini{})

	var stages []string
	err := ingest.Ingest(ctx, ingest.Input{
		Index:      idx,
		Embedder:   gw,
		Document:   testDocument("first paragraph\n\nsecond paragraph"),
		OnProgress: func(stage string) { stages = append(stages, stage) },
	})
	gt.NoError(t, err)
	gt.A(t, stages).Longer(2)

	results := gt.R1(idx.Query(ctx, "proj-1", []float32{10, 1}, 5, nil)).NoError(t)
	gt.A(t, results).Length(2)
	gt.V(t, results[0].Metadata.DocumentID).Equal("doc-1")
	gt.V(t, results[0].Metadata.DocumentName).Equal("report.txt")
}

func TestIngestEmptyDocument(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemory()
	gw := embedding.NewGateway(&mockGemini{
		embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			t.Fatal("embedding must not be called for an empty document")
			return nil, nil
		},
	})

	err := ingest.Ingest(ctx, ingest.Input{
		Index:    idx,
		Embedder: gw,
		Document: testDocument("  \n\n \n\n"),
	})
	gt.NoError(t, err)

	results := gt.R1(idx.Query(ctx, "proj-1", []float32{1, 1}, 5, nil)).NoError(t)
	gt.A(t, results).Length(0)
}

func TestIngestDecodeFailure(t *testing.T) {
	ctx := context.Background()
	doc := testDocument("irrelevant")
	doc.Content = "%%% not base64 %%%"

	err := ingest.Ingest(ctx, ingest.Input{
		Index:    vectorindex.NewMemory(),
		Embedder: embedding.NewGateway(&mockGemini{}),
		Document: doc,
	})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("decode")
}

func TestIngestPartialEmbedFailure(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemory()
	gw := embedding.NewGateway(&mockGemini{
		embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			if strings.Contains(text, "second") {
				return nil, errors.New("embedding rejected")
			}
			return &genai.EmbedContentResponse{
				Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, 0}}},
			}, nil
		},
	})

	err := ingest.Ingest(ctx, ingest.Input{
		Index:    idx,
		Embedder: gw,
		Document: testDocument("first\n\nsecond\n\nthird"),
	})
	gt.NoError(t, err)

	// Surviving chunks keep their original indices in the chunk IDs
	results := gt.R1(idx.Query(ctx, "proj-1", []float32{1, 0}, 5, nil)).NoError(t)
	gt.A(t, results).Length(2)
	for _, r := range results {
		gt.S(t, r.Text).NotContains("second")
	}
}

func TestIngestRawTextSkipsDecode(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemory()
	doc := testDocument("ignored")
	doc.Content = "%%% not base64 %%%" // must not be touched when RawText is given

	err := ingest.Ingest(ctx, ingest.Input{
		Index:    idx,
		Embedder: embedding.NewGateway(&mockGemini{}),
		Document: doc,
		RawText:  "extracted text",
	})
	gt.NoError(t, err)

	results := gt.R1(idx.Query(ctx, "proj-1", []float32{1, 1}, 5, nil)).NoError(t)
	gt.A(t, results).Length(1)
	gt.V(t, results[0].Text).Equal("extracted text")
}

func TestSaveAndLoadDocument(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	storage := newMockStorage()

	doc := testDocument("hello payload")
	gt.NoError(t, ingest.SaveDocument(ctx, repo, storage, doc))

	loaded := gt.R1(ingest.LoadDocument(ctx, repo, storage, doc.ID)).NoError(t)
	data := gt.R1(loaded.DecodedContent()).NoError(t)
	gt.V(t, string(data)).Equal("hello payload")
}

func TestDeleteDocumentRemovesChunks(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	storage := newMockStorage()
	idx := vectorindex.NewMemory()
	gw := embedding.NewGateway(&mockGemini{})

	doc := testDocument("alpha\n\nbeta")
	gt.NoError(t, ingest.SaveDocument(ctx, repo, storage, doc))
	gt.NoError(t, ingest.Ingest(ctx, ingest.Input{Index: idx, Embedder: gw, Document: doc}))

	other := testDocument("gamma")
	other.ID = "doc-2"
	gt.NoError(t, ingest.Ingest(ctx, ingest.Input{Index: idx, Embedder: gw, Document: other}))

	gt.NoError(t, ingest.DeleteDocument(ctx, repo, storage, idx, doc))

	results := gt.R1(idx.Query(ctx, "proj-1", []float32{1, 1}, 10, nil)).NoError(t)
	gt.A(t, results).Length(1)
	gt.V(t, results[0].Metadata.DocumentID).Equal("doc-2")
}
