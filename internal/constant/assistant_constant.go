package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// ModeQueryFiles answers from the ingested documents (RAG).
	// ModeLLMChat talks to the model without any document context.
	// ModeSearchFiles returns raw evidence snippets, no generation.
	ModeQueryFiles  = "query_files"
	ModeLLMChat     = "llm_chat"
	ModeSearchFiles = "search_files"

	// SourcesSeparator splits the generated answer from the rendered
	// sources block inside a stored assistant message. History rebuilding
	// strips everything from this marker onward.
	SourcesSeparator = "\n\n Sources: \n"

	// HistoryMessageCap bounds the backend context. Fixed policy, not configurable.
	HistoryMessageCap = 20

	// SearchResultLimit and SearchNeighborChunks drive the search-only mode.
	SearchResultLimit    = 4
	SearchNeighborChunks = 0

	MetadataFileNameKey  = "file_name"
	MetadataPageLabelKey = "page_label"

	MetadataMissingValue    = "-"
	FileNameMissingValue    = "[FILE NAME MISSING]"
	AllFilesSelectionLabel  = "All files"
	DefaultAssistantSession = "default"

	DefaultQuerySystemPromptV1 = `You are a helpful document assistant. Answer the user's question using only the provided document context. Cite the source file when you rely on it. If the context does not contain the answer, say so rather than guessing.`

	DefaultChatSystemPromptV1 = `You are a helpful, concise assistant. Answer the user's question directly using your general knowledge.`
)
