package dto

import (
	"github.com/google/uuid"
)

// ChatTurnRequest is one user turn. History is the transcript of prior
// (user, assistant) pairs owned by the client; assistant entries may
// still carry their rendered sources block. Mode is accepted for
// display parity but the session's stored mode decides the strategy.
type ChatTurnRequest struct {
	SessionId string      `json:"session_id"`
	Message   string      `json:"message" validate:"required"`
	History   [][2]string `json:"history"`
	Mode      string      `json:"mode"`
}

// ContextFilter restricts retrieval and generation to a set of document
// ids. A nil filter means all documents.
type ContextFilter struct {
	DocIds []uuid.UUID `json:"doc_ids"`
}

// ChunkResult is one retrieved evidence chunk with its document metadata.
type ChunkResult struct {
	DocId       uuid.UUID              `json:"doc_id"`
	DocMetadata map[string]interface{} `json:"doc_metadata"`
	Text        string                 `json:"text"`
	Score       float64                `json:"score"`
}

// IngestItem pairs a display file name with the local path to ingest.
type IngestItem struct {
	FileName string
	Path     string
}

type SetModeRequest struct {
	SessionId string `json:"session_id"`
	Mode      string `json:"mode" validate:"required,oneof=query_files llm_chat search_files"`
}

type SetSystemPromptRequest struct {
	SessionId    string `json:"session_id"`
	SystemPrompt string `json:"system_prompt"`
}

type SelectFileRequest struct {
	SessionId string `json:"session_id"`
	FileName  string `json:"file_name" validate:"required"`
}

// PromptState tells the UI what to show in the system prompt field.
// Editable is false when the active mode carries no system prompt.
type PromptState struct {
	SystemPrompt string `json:"system_prompt"`
	Editable     bool   `json:"editable"`
}

// SelectionState drives the document selection controls. The dependent
// buttons are enabled exactly while a file is selected.
type SelectionState struct {
	CanDeleteSelected bool   `json:"can_delete_selected"`
	CanDeselect       bool   `json:"can_deselect"`
	Label             string `json:"label"`
}

type UploadFilesResponse struct {
	Replaced int         `json:"replaced"`
	DocIds   []uuid.UUID `json:"doc_ids"`
}

type ListFilesResponse struct {
	Files [][]string `json:"files"`
}

// PublishEmbedDocumentMessage is the embed-job payload handed to the
// document embedding consumer.
type PublishEmbedDocumentMessage struct {
	DocId uuid.UUID `json:"doc_id"`
}
