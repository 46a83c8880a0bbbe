package store

// AssistantSession is the per-session mutable state of the assistant:
// which mode answers the next turn, the system prompt sent with it, and
// the optional document the conversation is scoped to.
type AssistantSession struct {
	ID           string `json:"id"`
	Mode         string `json:"mode"`
	SystemPrompt string `json:"system_prompt"`

	// SelectedFile is the display name of the document the next query is
	// restricted to. Empty means all documents.
	SelectedFile string `json:"selected_file"`
}
