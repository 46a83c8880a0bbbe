package service

import (
	"testing"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestInsertBeforeLastUser(t *testing.T) {
	contextMsg := llm.Message{Role: constant.ChatMessageRoleSystem, Content: "context"}
	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: "prompt"},
		{Role: constant.ChatMessageRoleUser, Content: "earlier"},
		{Role: constant.ChatMessageRoleAssistant, Content: "reply"},
		{Role: constant.ChatMessageRoleUser, Content: "question"},
	}

	got := insertBeforeLastUser(messages, contextMsg)

	assert.Len(t, got, 5)
	assert.Equal(t, "context", got[3].Content)
	assert.Equal(t, "question", got[4].Content)
}

func TestInsertBeforeLastUserNoUserTurn(t *testing.T) {
	contextMsg := llm.Message{Role: constant.ChatMessageRoleSystem, Content: "context"}
	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: "prompt"},
	}

	got := insertBeforeLastUser(messages, contextMsg)
	assert.Equal(t, "context", got[len(got)-1].Content)
}

func TestLastUserMessage(t *testing.T) {
	messages := []llm.Message{
		{Role: constant.ChatMessageRoleUser, Content: "first"},
		{Role: constant.ChatMessageRoleAssistant, Content: "reply"},
		{Role: constant.ChatMessageRoleUser, Content: "latest"},
	}

	got, err := lastUserMessage(messages)
	assert.NoError(t, err)
	assert.Equal(t, "latest", got)

	_, err = lastUserMessage([]llm.Message{{Role: constant.ChatMessageRoleAssistant, Content: "x"}})
	assert.Error(t, err)
}

func TestSplitPages(t *testing.T) {
	pages := splitPages("page one\fpage two\f\fpage three")
	assert.Equal(t, []string{"page one", "page two", "page three"}, pages)

	// No form feeds: the whole content is one page
	pages = splitPages("single page content")
	assert.Equal(t, []string{"single page content"}, pages)

	// Whitespace-only input still yields one record
	pages = splitPages("   ")
	assert.Len(t, pages, 1)
}
