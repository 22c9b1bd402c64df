package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/service/embedding"
	"github.com/k-fujiwara/minerva/pkg/usecase/chat"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestBuildAugmentedPrompt(t *testing.T) {
	ctx := context.Background()
	projectID := model.NewProjectID()
	docA := model.NewDocumentID()
	docB := model.NewDocumentID()

	index := vectorindex.NewMemory()
	gt.NoError(t, index.Add(ctx, projectID, []vectorindex.Record{
		{
			ID:       model.ChunkID(docA, 0),
			Text:     "premiums increased by 12 percent",
			Vector:   []float32{1, 0, 0},
			Metadata: model.ChunkMetadata{DocumentID: docA, DocumentName: "report.pdf"},
		},
		{
			ID:       model.ChunkID(docB, 0),
			Text:     "unrelated appendix material",
			Vector:   []float32{0, 1, 0},
			Metadata: model.ChunkMetadata{DocumentID: docB, DocumentName: "appendix.pdf"},
		},
	}))

	embedder := embedding.NewGateway(&mockGemini{})

	t.Run("context found", func(t *testing.T) {
		prompt := chat.BuildAugmentedPrompt(ctx, index, embedder, projectID, "what happened to premiums?", nil)
		gt.S(t, prompt).Contains("--- Context from report.pdf ---")
		gt.S(t, prompt).Contains("premiums increased by 12 percent")
		gt.S(t, prompt).Contains("User question: what happened to premiums?")
		gt.S(t, prompt).NotContains("No relevant context was found")
	})

	t.Run("empty index states no context explicitly", func(t *testing.T) {
		prompt := chat.BuildAugmentedPrompt(ctx, index, embedder, model.NewProjectID(), "anything?", nil)
		gt.S(t, prompt).Contains("No relevant context was found in the attached documents")
		gt.S(t, prompt).Contains("User question: anything?")
	})

	t.Run("document filter excludes other documents", func(t *testing.T) {
		prompt := chat.BuildAugmentedPrompt(ctx, index, embedder, projectID, "what happened to premiums?", []model.DocumentID{docB})
		gt.S(t, prompt).NotContains("report.pdf")
		gt.S(t, prompt).Contains("appendix.pdf")
	})

	t.Run("embedding failure degrades to no context", func(t *testing.T) {
		broken := &mockGemini{
			embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
				return nil, errors.New("embedding service down")
			},
		}
		prompt := chat.BuildAugmentedPrompt(ctx, index, embedding.NewGateway(broken), projectID, "still answer me", nil)
		gt.S(t, prompt).Contains("No relevant context was found")
		gt.S(t, prompt).Contains("User question: still answer me")
	})
}
