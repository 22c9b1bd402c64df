package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/repository"
	"github.com/k-fujiwara/minerva/pkg/service/embedding"
	"github.com/k-fujiwara/minerva/pkg/usecase/ingest"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrSessionBusy         = goerr.New("a generation is already in flight")
	ErrNothingToRegenerate = goerr.New("no model response to regenerate")
	ErrMessageNotFound     = goerr.New("message not found")
)

// Session orchestrates one chat: it dispatches prompts to the research
// or document-finder pipeline, accumulates streamed output into the
// conversation, and persists each finished turn. A session handles one
// generation at a time; concurrent sends are rejected.
type Session struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	storage  adapter.Storage
	index    vectorindex.Index
	embedder *embedding.Gateway

	project *model.Project
	chat    *model.Chat

	onUpdate      func(msg *model.Message)
	onSuggestions func(questions []string)

	mu      sync.Mutex
	sending bool
	wg      sync.WaitGroup
}

// NewInput contains parameters for creating a chat session
type NewInput struct {
	Repo     repository.Repository
	Gemini   adapter.Gemini
	Storage  adapter.Storage
	Index    vectorindex.Index
	Embedder *embedding.Gateway

	ProjectID model.ProjectID
	ChatID    model.ChatID // optional: continue an existing conversation

	// OnUpdate is called with the in-flight model message after every
	// streamed fragment and status change. Optional.
	OnUpdate func(msg *model.Message)

	// OnSuggestions receives follow-up question suggestions generated
	// after a successful research turn. Optional.
	OnSuggestions func(questions []string)
}

func New(ctx context.Context, input NewInput) (*Session, error) {
	project, err := input.Repo.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get project")
	}

	var chat *model.Chat
	if input.ChatID != "" {
		chat, err = input.Repo.GetChat(ctx, input.ChatID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get chat")
		}
	} else {
		chat = model.NewChat(input.ProjectID)
	}

	return &Session{
		repo:          input.Repo,
		gemini:        input.Gemini,
		storage:       input.Storage,
		index:         input.Index,
		embedder:      input.Embedder,
		project:       project,
		chat:          chat,
		onUpdate:      input.OnUpdate,
		onSuggestions: input.OnSuggestions,
	}, nil
}

// Chat returns the conversation owned by this session
func (s *Session) Chat() *model.Chat {
	return s.chat
}

// Wait blocks until background work (follow-up suggestions) finishes
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return ErrSessionBusy
	}
	s.sending = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.sending = false
	s.mu.Unlock()
}

func (s *Session) notify(msg *model.Message) {
	if s.onUpdate != nil {
		s.onUpdate(msg)
	}
}

// Send appends the prompt as a user message and generates a model
// response in the given mode. The returned message is the final model
// message; on generation failure it carries the error text and the
// error is returned alongside.
func (s *Session) Send(ctx context.Context, prompt string, mode model.ResearchMode) (*model.Message, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	s.chat.Messages = append(s.chat.Messages, &model.Message{
		ID:        model.NewMessageID(),
		Role:      model.RoleUser,
		Text:      prompt,
		Timestamp: time.Now(),
		Mode:      mode,
	})

	return s.generate(ctx, prompt, mode)
}

// Regenerate replaces the most recent model response: history is
// rewound to just before it and the original prompt is dispatched
// again.
func (s *Session) Regenerate(ctx context.Context) (*model.Message, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	userIdx := -1
	for i := len(s.chat.Messages) - 1; i >= 0; i-- {
		if s.chat.Messages[i].Role == model.RoleUser {
			userIdx = i
			break
		}
	}
	if userIdx < 0 {
		return nil, ErrNothingToRegenerate
	}

	modelIdx := -1
	for i := userIdx + 1; i < len(s.chat.Messages); i++ {
		if s.chat.Messages[i].Role == model.RoleModel {
			modelIdx = i
			break
		}
	}
	if modelIdx < 0 {
		return nil, ErrNothingToRegenerate
	}

	user := s.chat.Messages[userIdx]
	mode := user.Mode
	if mode == "" {
		mode = model.ModeDeepResearch
	}

	s.chat.Messages = s.chat.Messages[:modelIdx]

	return s.generate(ctx, user.Text, mode)
}

// UpdateMessage replaces a message's text in place and persists the
// chat. It never re-triggers generation.
func (s *Session) UpdateMessage(ctx context.Context, id model.MessageID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return goerr.New("message text must not be empty")
	}

	for _, msg := range s.chat.Messages {
		if msg.ID == id {
			msg.Text = text
			return s.persist(ctx)
		}
	}
	return goerr.Wrap(ErrMessageNotFound, "cannot update message", goerr.V("message_id", id))
}

// generate runs one turn: the user message is already the last history
// entry. Any generation failure is converted into a model-role error
// message so the chat stays consistent and persistable.
func (s *Session) generate(ctx context.Context, prompt string, mode model.ResearchMode) (*model.Message, error) {
	placeholder := &model.Message{
		ID:        model.NewMessageID(),
		Role:      model.RoleModel,
		Text:      "...",
		Timestamp: time.Now(),
		Mode:      mode,
	}
	history := s.chat.Messages
	s.chat.Messages = append(s.chat.Messages, placeholder)
	s.notify(placeholder)

	var genErr error
	switch mode {
	case model.ModeFindDocuments:
		genErr = s.findDocuments(ctx, history, prompt, placeholder)
	default:
		genErr = s.deepResearch(ctx, history, prompt, placeholder)
	}

	if genErr != nil {
		placeholder.Text = "Error: " + genErr.Error()
		s.notify(placeholder)
	}

	if len(s.chat.Messages) == 2 {
		s.chat.SetTitleFromPrompt(prompt)
	}

	if err := s.persist(ctx); err != nil {
		logging.From(ctx).Error("failed to persist chat", "chat_id", s.chat.ID, "error", err)
		if genErr == nil {
			genErr = err
		}
	}

	if genErr != nil {
		return placeholder, genErr
	}

	if mode == model.ModeDeepResearch && s.onSuggestions != nil {
		// Clone the messages so a later edit cannot race the request
		snapshot := make([]*model.Message, len(s.chat.Messages))
		for i, msg := range s.chat.Messages {
			clone := *msg
			snapshot[i] = &clone
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.suggestFollowUps(ctx, snapshot)
		}()
	}

	return placeholder, nil
}

// deepResearch streams a RAG + web search answer into the placeholder
// message, deduplicating citation sources by URI across the turn.
func (s *Session) deepResearch(ctx context.Context, history []*model.Message, prompt string, out *model.Message) error {
	documents := s.attachedDocuments(ctx)

	docIDs := make([]model.DocumentID, 0, len(s.chat.DocumentIDs))
	docIDs = append(docIDs, s.chat.DocumentIDs...)

	augmented := BuildAugmentedPrompt(ctx, s.index, s.embedder, s.chat.ProjectID, prompt, docIDs)

	// The augmented prompt is sent to the model; the persisted history
	// keeps the user's original words.
	replay := make([]*model.Message, len(history))
	copy(replay, history)
	rewritten := *history[len(history)-1]
	rewritten.Text = augmented
	replay[len(replay)-1] = &rewritten

	contents, err := toContents(replay, documents)
	if err != nil {
		return err
	}

	persona := deepResearchPrompt
	if s.project.SystemPrompt != "" {
		persona = s.project.SystemPrompt
	}

	var text strings.Builder
	for ev, err := range generateResearchStream(ctx, s.gemini, contents, persona) {
		if err != nil {
			return err
		}
		text.WriteString(ev.TextDelta)
		out.Text = text.String()
		for _, src := range ev.Sources {
			out.AddSource(src)
		}
		s.notify(out)
	}

	return nil
}

// findDocuments runs the retry controller, surfacing its status updates
// through the placeholder message.
func (s *Session) findDocuments(ctx context.Context, history []*model.Message, prompt string, out *model.Message) error {
	f := &finder{
		gemini: s.gemini,
		onStatus: func(status string) {
			out.Text = status
			s.notify(out)
		},
	}

	text, err := f.run(ctx, history, prompt)
	if err != nil {
		return err
	}

	out.Text = text
	s.notify(out)
	return nil
}

// attachedDocuments loads the chat's attached documents with payloads.
// Dangling references and payload load failures mean "no attachment"
// rather than an error.
func (s *Session) attachedDocuments(ctx context.Context) []*model.Document {
	logger := logging.From(ctx)

	var documents []*model.Document
	for _, id := range s.chat.DocumentIDs {
		doc, err := ingest.LoadDocument(ctx, s.repo, s.storage, id)
		if err != nil {
			logger.Warn("skipping unavailable attached document", "document_id", id, "error", err)
			continue
		}
		if doc.ProjectID != s.chat.ProjectID {
			logger.Warn("skipping document from another project", "document_id", id)
			continue
		}
		documents = append(documents, doc)
	}
	return documents
}

func (s *Session) persist(ctx context.Context) error {
	if err := s.repo.PutChat(ctx, s.chat); err != nil {
		return goerr.Wrap(err, "failed to save chat", goerr.V("chat_id", s.chat.ID))
	}
	return nil
}
