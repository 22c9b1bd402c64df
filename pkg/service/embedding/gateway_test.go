package embedding_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/k-fujiwara/minerva/pkg/service/embedding"
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
	return m.embeddingFunc(ctx, text)
}

func embedResponse(values []float32) *genai.EmbedContentResponse {
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: values}},
	}
}

func TestEmbedBatchesOfAtMost100(t *testing.T) {
	var calls int64
	var inFlight int64
	var peak int64
	var mu sync.Mutex

	mock := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			atomic.AddInt64(&calls, 1)
			cur := atomic.AddInt64(&inFlight, 1)
			mu.Lock()
			if cur > peak {
				peak = cur
			}
			mu.Unlock()
			defer atomic.AddInt64(&inFlight, -1)
			return embedResponse([]float32{1, 2, 3}), nil
		},
	}

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "text-" + strconv.Itoa(i)
	}

	gw := embedding.NewGateway(mock)
	results := gt.R1(gw.Embed(context.Background(), texts)).NoError(t)

	gt.A(t, results).Length(250)
	gt.V(t, atomic.LoadInt64(&calls)).Equal(250)
	gt.True(t, peak <= 100)
}

func TestEmbedPartialFailure(t *testing.T) {
	// 5 texts spread over multiple batches fail; the rest succeed
	failing := map[string]bool{
		"text-3": true, "text-42": true, "text-99": true, "text-150": true, "text-249": true,
	}
	mock := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			if failing[text] {
				return nil, fmt.Errorf("embedding rejected: %s", text)
			}
			return embedResponse([]float32{0.5}), nil
		},
	}

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "text-" + strconv.Itoa(i)
	}

	gw := embedding.NewGateway(mock)
	results := gt.R1(gw.Embed(context.Background(), texts)).NoError(t)
	gt.A(t, results).Length(245)

	// Successful results keep input order and carry original indices
	prev := -1
	for _, r := range results {
		gt.True(t, r.Index > prev)
		gt.False(t, failing[r.Text])
		gt.V(t, r.Text).Equal("text-"+strconv.Itoa(r.Index))
		prev = r.Index
	}
}

func TestEmbedAllFailed(t *testing.T) {
	mock := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	gw := embedding.NewGateway(mock)
	_, err := gw.Embed(context.Background(), []string{"a", "b"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, embedding.ErrAllEmbeddingsFailed))
}

func TestEmbedEmptyInput(t *testing.T) {
	mock := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string) (*genai.EmbedContentResponse, error) {
			t.Fatal("must not be called")
			return nil, nil
		},
	}

	gw := embedding.NewGateway(mock)
	results, err := gw.Embed(context.Background(), nil)
	gt.NoError(t, err)
	gt.A(t, results).Length(0)
}
