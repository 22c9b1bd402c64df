package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/service/embedding"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
)

// retrievalLimit is how many chunks are retrieved per query
const retrievalLimit = 5

// BuildAugmentedPrompt retrieves the most relevant chunks for the query
// and wraps them with the query into an instruction block. Retrieval is
// a best-effort enhancement: embedding or query failures degrade to the
// explicit no-context form instead of failing the turn.
func BuildAugmentedPrompt(ctx context.Context, index vectorindex.Index, embedder *embedding.Gateway, projectID model.ProjectID, query string, documentIDs []model.DocumentID) string {
	logger := logging.From(ctx)

	var results []vectorindex.Result
	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Warn("failed to embed query for retrieval", "error", err)
	} else {
		results, err = index.Query(ctx, projectID, vector, retrievalLimit, documentIDs)
		if err != nil {
			logger.Warn("vector query failed, continuing without context", "error", err)
			results = nil
		}
	}

	if len(results) == 0 {
		return fmt.Sprintf(`No relevant context was found in the attached documents for this question. Answer using your general knowledge and web search, and state explicitly that the documents did not cover the topic if the user asked about them.

User question: %s`, query)
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("--- Context from %s ---\n%s", r.Metadata.DocumentName, r.Text))
	}

	return fmt.Sprintf(`Use the following context retrieved from the user's documents to answer the question. When you rely on a piece of context, cite it by its document name. If the context is insufficient, say so and fall back to your general knowledge and web search.

%s

User question: %s`, strings.Join(blocks, "\n\n"), query)
}
