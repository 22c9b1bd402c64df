package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
)

// maxFindAttempts bounds the query refinement loop
const maxFindAttempts = 3

const findDisclaimer = "\n\n---\n*You can download these documents using the 'Download' button. If a download fails, it's likely due to web security policies (CORS). In that case, please use the main link to open and save the file manually.*"

// siteFilterPattern matches an explicit site: operator or a bare domain
// anywhere in the prompt
var siteFilterPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})|site:([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// FoundDocument is one entry of the model's structured search output
type FoundDocument struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ExtractSiteFilter splits a prompt into its core query and an optional
// strict site: filter. A prompt that is nothing but a URL gets a
// generic core query substituted.
func ExtractSiteFilter(prompt string) (core, filter string) {
	m := siteFilterPattern.FindStringSubmatch(prompt)
	if m == nil {
		return prompt, ""
	}

	domain := m[1]
	if domain == "" {
		domain = m[2]
	}
	if domain == "" {
		return prompt, ""
	}

	filter = "site:" + strings.ToLower(domain)
	core = strings.TrimSpace(strings.Replace(prompt, m[0], "", 1))
	if core == "" {
		core = "latest documents or cases"
	}
	return core, filter
}

// RefineQuery rewrites the core query for a retry attempt. A site
// filter, when present, is re-appended on every attempt; the generic
// trusted-domain filter is only added on the final attempt when no
// specific site was ever requested.
func RefineQuery(core, filter string, attempt int) string {
	refined := core
	switch attempt {
	case 1:
		refined = fmt.Sprintf("find documents about %q", core)
	case 2:
		refined = fmt.Sprintf("%q case studies OR reports", core)
	}

	if filter != "" {
		return refined + " " + filter
	}
	if attempt == 2 {
		return refined + " (site:.edu OR site:.gov OR site:.org)"
	}
	return refined
}

// ParseFoundDocuments extracts the first top-level JSON array from the
// raw response; the model may wrap it in prose despite instructions.
// Entries without a URL are dropped. A parse failure yields nil.
func ParseFoundDocuments(ctx context.Context, raw string) []FoundDocument {
	first := strings.Index(raw, "[")
	last := strings.LastIndex(raw, "]")
	if first < 0 || last <= first {
		return nil
	}

	var docs []FoundDocument
	if err := json.Unmarshal([]byte(raw[first:last+1]), &docs); err != nil {
		logging.From(ctx).Warn("failed to parse document search response", "error", err, "response", snippetOf(raw))
		return nil
	}

	valid := docs[:0]
	for _, doc := range docs {
		if doc.URL != "" {
			valid = append(valid, doc)
		}
	}
	return valid
}

func snippetOf(text string) string {
	const limit = 120
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

// FormatFoundDocuments renders results as a numbered markdown list with
// blockquoted snippets
func FormatFoundDocuments(docs []FoundDocument) string {
	items := make([]string, 0, len(docs))
	for i, doc := range docs {
		snippet := strings.ReplaceAll(doc.Snippet, "\n", " ")
		items = append(items, fmt.Sprintf("%d. [%s](%s)\n\n   > %s", i+1, doc.Title, doc.URL, snippet))
	}
	return strings.Join(items, "\n\n")
}

// finder drives the structured document search with sequential retry
// and query refinement
type finder struct {
	gemini   adapter.Gemini
	onStatus func(text string)
}

func (f *finder) status(text string) {
	if f.onStatus != nil {
		f.onStatus(text)
	}
}

// run searches for documents matching the prompt. Retry exhaustion is a
// reported outcome, not an error: the returned text then explains the
// failure and invites a different query. Only a broken generation
// stream is returned as an error.
func (f *finder) run(ctx context.Context, history []*model.Message, prompt string) (string, error) {
	core, filter := ExtractSiteFilter(prompt)

	scope := "across the web"
	if filter != "" {
		scope = "on " + filter
	}
	f.status(fmt.Sprintf("Searching for documents %s...", scope))

	for attempt := 0; attempt < maxFindAttempts; attempt++ {
		current := RefineQuery(core, filter, attempt)
		if attempt > 0 {
			f.status(fmt.Sprintf("Attempt %d/%d: Refining search %s...", attempt+1, maxFindAttempts, scope))
		}

		// Replay history with the current user turn rewritten to the
		// refined query
		replay := make([]*model.Message, len(history))
		copy(replay, history)
		rewritten := *history[len(history)-1]
		rewritten.Text = current
		replay[len(replay)-1] = &rewritten

		contents, err := toContents(replay, nil)
		if err != nil {
			return "", err
		}

		raw, err := collectText(ctx, f.gemini, contents, findDocumentsPrompt)
		if err != nil {
			return "", err
		}

		if docs := ParseFoundDocuments(ctx, raw); len(docs) > 0 {
			return FormatFoundDocuments(docs) + findDisclaimer, nil
		}
		logging.From(ctx).Info("document search attempt returned no results",
			"attempt", attempt+1, "query", current)
	}

	failure := fmt.Sprintf("After several attempts with refined queries, I could not find any specific documents matching your request%s. Please try a different query.", exhaustedScope(filter))
	return failure + findDisclaimer, nil
}

func exhaustedScope(filter string) string {
	if filter == "" {
		return ""
	}
	return " on " + filter
}
