package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestMemoryChatLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	project := &model.Project{
		ID:        model.NewProjectID(),
		Name:      "research",
		CreatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutProject(ctx, project))

	chat := model.NewChat(project.ID)
	gt.NoError(t, repo.PutChat(ctx, chat))

	older := model.NewChat(project.ID)
	older.CreatedAt = chat.CreatedAt.Add(-time.Hour)
	gt.NoError(t, repo.PutChat(ctx, older))

	chats, err := repo.ListChats(ctx, project.ID)
	gt.NoError(t, err)
	gt.A(t, chats).Length(2)
	gt.V(t, chats[0].ID).Equal(chat.ID) // most recent first

	gt.NoError(t, repo.DeleteChat(ctx, chat.ID))
	_, err = repo.GetChat(ctx, chat.ID)
	gt.Error(t, err)
}

func TestMemoryChatUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	chat := model.NewChat("proj-1")
	gt.NoError(t, repo.PutChat(ctx, chat))

	chat.Messages = append(chat.Messages, &model.Message{
		ID:   model.NewMessageID(),
		Role: model.RoleUser,
		Text: "hello",
	})
	gt.NoError(t, repo.PutChat(ctx, chat))

	loaded := gt.R1(repo.GetChat(ctx, chat.ID)).NoError(t)
	gt.A(t, loaded.Messages).Length(1)
}

func TestMemoryDocumentsScopedByProject(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	docA := &model.Document{ID: model.NewDocumentID(), Name: "a.txt", ProjectID: "p1", CreatedAt: time.Now()}
	docB := &model.Document{ID: model.NewDocumentID(), Name: "b.txt", ProjectID: "p2", CreatedAt: time.Now()}
	gt.NoError(t, repo.PutDocument(ctx, docA))
	gt.NoError(t, repo.PutDocument(ctx, docB))

	docs := gt.R1(repo.ListDocuments(ctx, "p1")).NoError(t)
	gt.A(t, docs).Length(1)
	gt.V(t, docs[0].Name).Equal("a.txt")
}
