package model_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestNewChat(t *testing.T) {
	chat := model.NewChat("proj-1")
	gt.V(t, chat.Title).Equal("New Chat")
	gt.V(t, chat.ProjectID).Equal(model.ProjectID("proj-1"))
	gt.V(t, string(chat.ID)).NotEqual("")
}

func TestSetTitleFromPrompt(t *testing.T) {
	t.Run("short prompt kept as is", func(t *testing.T) {
		chat := model.NewChat("proj-1")
		chat.SetTitleFromPrompt("  short question  ")
		gt.V(t, chat.Title).Equal("short question")
	})

	t.Run("blank prompt keeps current title", func(t *testing.T) {
		chat := model.NewChat("proj-1")
		chat.SetTitleFromPrompt("   ")
		gt.V(t, chat.Title).Equal("New Chat")
	})

	t.Run("long prompt truncated", func(t *testing.T) {
		chat := model.NewChat("proj-1")
		chat.SetTitleFromPrompt("Summarize the key findings of the corpus")
		gt.V(t, chat.Title).Equal("Summarize the key findings of ")
	})

	t.Run("multibyte prompt truncated on rune boundary", func(t *testing.T) {
		chat := model.NewChat("proj-1")
		chat.SetTitleFromPrompt("re " + strings.Repeat("日", 40))
		gt.True(t, utf8.ValidString(chat.Title))
		gt.V(t, len([]rune(chat.Title))).Equal(30)
		gt.V(t, chat.Title).Equal("re " + strings.Repeat("日", 27))
	})
}
