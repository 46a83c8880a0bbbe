package history

import (
	"strings"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/pkg/llm"
)

// Build converts a raw transcript of (user, assistant) text pairs into
// the bounded message sequence sent to the model. Assistant entries may
// carry an appended sources block; everything from the separator onward
// is stripped so citations never leak back into context.
//
// The sequence is capped at the most recent constant.HistoryMessageCap
// messages (oldest dropped first). A non-empty system prompt is
// prepended after the cap is applied, so it is never evicted.
func Build(transcript [][2]string, systemPrompt string) []llm.Message {
	messages := make([]llm.Message, 0, len(transcript)*2)
	for _, interaction := range transcript {
		messages = append(messages,
			llm.Message{
				Role:    constant.ChatMessageRoleUser,
				Content: interaction[0],
			},
			llm.Message{
				Role:    constant.ChatMessageRoleAssistant,
				Content: stripSources(interaction[1]),
			},
		)
	}

	if len(messages) > constant.HistoryMessageCap {
		messages = messages[len(messages)-constant.HistoryMessageCap:]
	}

	if systemPrompt != "" {
		messages = append([]llm.Message{{
			Role:    constant.ChatMessageRoleSystem,
			Content: systemPrompt,
		}}, messages...)
	}

	return messages
}

func stripSources(assistantText string) string {
	if idx := strings.Index(assistantText, constant.SourcesSeparator); idx >= 0 {
		return assistantText[:idx]
	}
	return assistantText
}
