package chat

import (
	"context"
	_ "embed"
	"iter"
	"strings"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/deep_research.md
var deepResearchPrompt string

//go:embed prompt/find_documents.md
var findDocumentsPrompt string

// StreamEvent is one normalized fragment of a streamed model response.
// Sources carries only the grounding citations newly reported with this
// fragment; deduplication across the turn is the consumer's job.
type StreamEvent struct {
	TextDelta string
	Sources   []model.Source
}

// toContents maps conversation history to the provider's turn format.
// Document payloads, if any, are prepended to the parts of the last
// user turn.
func toContents(history []*model.Message, documents []*model.Document) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		contents = append(contents, genai.NewContentFromText(msg.Text, genai.Role(msg.Role)))
	}

	if len(documents) > 0 && len(contents) > 0 {
		last := contents[len(contents)-1]
		if last.Role == genai.RoleUser {
			parts := make([]*genai.Part, 0, len(documents)+len(last.Parts))
			for _, doc := range documents {
				data, err := doc.DecodedContent()
				if err != nil {
					return nil, err
				}
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: doc.MIMEType, Data: data},
				})
			}
			last.Parts = append(parts, last.Parts...)
		}
	}

	return contents, nil
}

// generateResearchStream runs a web-search enabled generation and
// normalizes the provider's chunked responses into StreamEvents.
func generateResearchStream(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content, systemPrompt string) iter.Seq2[StreamEvent, error] {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	return func(yield func(StreamEvent, error) bool) {
		for resp, err := range gemini.GenerateStream(ctx, contents, config) {
			if err != nil {
				yield(StreamEvent{}, goerr.Wrap(err, "generation stream failed"))
				return
			}
			if !yield(normalizeResponse(resp), nil) {
				return
			}
		}
	}
}

// normalizeResponse extracts the text delta and any valid grounding
// citations from one provider response. Malformed citation entries
// (missing uri or title) are rejected at this boundary.
func normalizeResponse(resp *genai.GenerateContentResponse) StreamEvent {
	var ev StreamEvent
	if len(resp.Candidates) == 0 {
		return ev
	}
	cand := resp.Candidates[0]

	if cand.Content != nil {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		ev.TextDelta = sb.String()
	}

	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
				continue
			}
			ev.Sources = append(ev.Sources, model.Source{
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
	}

	return ev
}

// collectText drains a research stream into a single string, used by
// the document finder which needs the full response before parsing.
func collectText(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content, systemPrompt string) (string, error) {
	var sb strings.Builder
	for ev, err := range generateResearchStream(ctx, gemini, contents, systemPrompt) {
		if err != nil {
			return "", err
		}
		sb.WriteString(ev.TextDelta)
	}
	return sb.String(), nil
}
