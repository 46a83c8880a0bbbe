package service

import (
	"context"
	"fmt"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/pkg/llm"
	"doc-assistant-be/pkg/rag/prompt"
)

const contextChunkLimit = 4

// IChatService turns a message transcript into a streamed completion.
// With useContext enabled it grounds the completion on retrieved
// document chunks and returns them so the caller can cite sources.
type IChatService interface {
	StreamChat(ctx context.Context, messages []llm.Message, useContext bool, filter *dto.ContextFilter) (*llm.Stream, []dto.ChunkResult, error)
}

type chatService struct {
	llmProvider   llm.LLMProvider
	chunksService IChunksService
	logger        logger.ILogger
}

func NewChatService(llmProvider llm.LLMProvider, chunksService IChunksService, log logger.ILogger) IChatService {
	return &chatService{
		llmProvider:   llmProvider,
		chunksService: chunksService,
		logger:        log,
	}
}

func (s *chatService) StreamChat(ctx context.Context, messages []llm.Message, useContext bool, filter *dto.ContextFilter) (*llm.Stream, []dto.ChunkResult, error) {
	var retrieved []dto.ChunkResult

	if useContext {
		query, err := lastUserMessage(messages)
		if err != nil {
			return nil, nil, err
		}

		retrieved, err = s.chunksService.RetrieveRelevant(ctx, query, contextChunkLimit, 0, filter)
		if err != nil {
			return nil, nil, err
		}

		if len(retrieved) > 0 {
			contextMsg := llm.Message{
				Role:    constant.ChatMessageRoleSystem,
				Content: prompt.NewContextBuilder(retrieved).Build(),
			}
			messages = insertBeforeLastUser(messages, contextMsg)
		}
	}

	stream, err := s.llmProvider.ChatStream(ctx, messages)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug("ChatService", "Stream opened", map[string]interface{}{
		"messages":    len(messages),
		"use_context": useContext,
		"retrieved":   len(retrieved),
	})
	return stream, retrieved, nil
}

func lastUserMessage(messages []llm.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == constant.ChatMessageRoleUser {
			return messages[i].Content, nil
		}
	}
	return "", fmt.Errorf("transcript has no user message")
}

// insertBeforeLastUser places the context message directly before the
// final user turn so retrieved material sits next to the question.
func insertBeforeLastUser(messages []llm.Message, contextMsg llm.Message) []llm.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == constant.ChatMessageRoleUser {
			out := make([]llm.Message, 0, len(messages)+1)
			out = append(out, messages[:i]...)
			out = append(out, contextMsg)
			out = append(out, messages[i:]...)
			return out
		}
	}
	return append(messages, contextMsg)
}
