package chat

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/suggest.md
var suggestPrompt string

// maxSuggestions caps how many follow-up questions are surfaced
const maxSuggestions = 3

// suggestFollowUps asks the model for follow-up questions after a
// research turn. Best effort: failures are logged and suppressed, never
// surfaced to the user.
func (s *Session) suggestFollowUps(ctx context.Context, history []*model.Message) {
	logger := logging.From(ctx)

	contents, err := toContents(history, nil)
	if err != nil {
		logger.Warn("failed to build suggestion request", "error", err)
		return
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(suggestPrompt, ""),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}

	resp, err := s.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logger.Warn("failed to generate follow-up suggestions", "error", err)
		return
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return
	}

	var raw string
	for _, part := range resp.Candidates[0].Content.Parts {
		raw += part.Text
	}

	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		logger.Warn("failed to parse follow-up suggestions", "error", err)
		return
	}

	if len(questions) > maxSuggestions {
		questions = questions[:maxSuggestions]
	}
	if len(questions) > 0 {
		s.onSuggestions(questions)
	}
}
