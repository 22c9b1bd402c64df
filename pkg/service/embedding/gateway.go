package embedding

import (
	"context"
	"sync"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// batchSize is the provider's limit on embedding requests per batch
const batchSize = 100

var ErrAllEmbeddingsFailed = goerr.New("failed to embed any text")

// Result pairs an input text with its embedding. Index refers to the
// position in the original input, so callers never rely on positional
// alignment when some texts failed.
type Result struct {
	Index  int
	Text   string
	Vector []float32
}

// Gateway batches texts into embedding requests. Each text in a batch
// is embedded concurrently and evaluated independently: a per-text
// failure is logged and dropped without aborting its siblings.
type Gateway struct {
	gemini adapter.Gemini
}

func NewGateway(gemini adapter.Gemini) *Gateway {
	return &Gateway{gemini: gemini}
}

// Embed returns results for the texts that embedded successfully, in
// input order. It fails only when every text of a non-empty input
// failed.
func (g *Gateway) Embed(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	logger := logging.From(ctx)
	vectors := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				resp, err := g.gemini.Embedding(ctx, texts[i])
				if err != nil {
					logger.Warn("failed to embed text", "snippet", snippet(texts[i]), "error", err)
					return
				}
				if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
					logger.Warn("embedding response is empty", "snippet", snippet(texts[i]))
					return
				}
				vectors[i] = resp.Embeddings[0].Values
			}(i)
		}
		wg.Wait()
	}

	results := make([]Result, 0, len(texts))
	for i, vec := range vectors {
		if vec != nil {
			results = append(results, Result{Index: i, Text: texts[i], Vector: vec})
		}
	}

	if len(results) == 0 {
		return nil, goerr.Wrap(ErrAllEmbeddingsFailed, "no embeddings succeeded", goerr.V("texts", len(texts)))
	}
	if len(results) < len(texts) {
		logger.Warn("some texts failed to embed", "requested", len(texts), "succeeded", len(results))
	}

	return results, nil
}

// EmbedQuery embeds a single query text
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	results, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0].Vector, nil
}

func snippet(text string) string {
	const limit = 40
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
