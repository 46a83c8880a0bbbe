package service

import (
	"context"
	"path/filepath"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/pkg/llm"
	"doc-assistant-be/pkg/rag/history"
	"doc-assistant-be/pkg/rag/source"
	streampkg "doc-assistant-be/pkg/rag/stream"
	"doc-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// PromptSettings holds the configured default system prompt per mode.
// SearchFiles has no prompt, so it needs no entry here.
type PromptSettings struct {
	QueryFilesPrompt string
	LLMChatPrompt    string
}

// IAssistantService is the turn orchestration boundary. A turn enters
// SubmitTurn, the session's stored mode picks the strategy, and the
// caller drains the returned snapshot sequence. Everything else is
// session and document-lifecycle state management around that.
type IAssistantService interface {
	SubmitTurn(ctx context.Context, req *dto.ChatTurnRequest) (streampkg.Snapshots, error)

	SetMode(ctx context.Context, req *dto.SetModeRequest) (*dto.PromptState, error)
	SetSystemPrompt(ctx context.Context, req *dto.SetSystemPromptRequest) error
	PromptState(ctx context.Context, sessionId string) (*dto.PromptState, error)

	UploadFiles(ctx context.Context, sessionId string, items []dto.IngestItem) (*dto.UploadFilesResponse, error)
	DeleteAllFiles(ctx context.Context, sessionId string) (*dto.SelectionState, error)
	DeleteSelectedFile(ctx context.Context, sessionId string) (*dto.SelectionState, error)
	ListFiles(ctx context.Context) (*dto.ListFilesResponse, error)
	SelectFile(ctx context.Context, req *dto.SelectFileRequest) (*dto.SelectionState, error)
	DeselectFile(ctx context.Context, sessionId string) (*dto.SelectionState, error)
}

type assistantService struct {
	sessionRepo   *memory.SessionRepository
	ingestService IIngestService
	chunksService IChunksService
	chatService   IChatService
	prompts       PromptSettings
	logger        logger.ILogger
}

func NewAssistantService(
	sessionRepo *memory.SessionRepository,
	ingestService IIngestService,
	chunksService IChunksService,
	chatService IChatService,
	prompts PromptSettings,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		sessionRepo:   sessionRepo,
		ingestService: ingestService,
		chunksService: chunksService,
		chatService:   chatService,
		prompts:       prompts,
		logger:        log,
	}
}

// SubmitTurn answers one user turn. The session's stored mode is
// authoritative; the request's mode field is display state from the
// client and only logged when it disagrees.
func (s *assistantService) SubmitTurn(ctx context.Context, req *dto.ChatTurnRequest) (streampkg.Snapshots, error) {
	session := s.getOrCreateSession(req.SessionId)

	if req.Mode != "" && req.Mode != session.Mode {
		s.logger.Warn("AssistantService", "Turn mode differs from session mode", map[string]interface{}{
			"session_id": session.ID,
			"turn_mode":  req.Mode,
			"mode":       session.Mode,
		})
	}

	switch session.Mode {
	case constant.ModeLLMChat:
		messages := history.Build(req.History, session.SystemPrompt)
		messages = append(messages, userMessage(req.Message))

		stream, _, err := s.chatService.StreamChat(ctx, messages, false, nil)
		if err != nil {
			return nil, err
		}
		return streampkg.NewSnapshotter(stream), nil

	case constant.ModeSearchFiles:
		chunks, err := s.chunksService.RetrieveRelevant(ctx, req.Message,
			constant.SearchResultLimit, constant.SearchNeighborChunks, nil)
		if err != nil {
			return nil, err
		}
		return streampkg.NewStatic(source.FormatBlock(source.Curate(chunks))), nil

	default: // query_files
		messages := history.Build(req.History, session.SystemPrompt)
		messages = append(messages, userMessage(req.Message))
		filter, err := s.resolveContextFilter(ctx, session)
		if err != nil {
			return nil, err
		}

		stream, retrieved, err := s.chatService.StreamChat(ctx, messages, true, filter)
		if err != nil {
			return nil, err
		}

		snapshots := streampkg.NewSnapshotter(stream)
		if len(retrieved) == 0 {
			return snapshots, nil
		}
		suffix := constant.SourcesSeparator + source.FormatFootnotes(source.Curate(retrieved))
		return streampkg.NewSuffixed(snapshots, suffix), nil
	}
}

func (s *assistantService) SetMode(ctx context.Context, req *dto.SetModeRequest) (*dto.PromptState, error) {
	session := s.getOrCreateSession(req.SessionId)

	session.Mode = req.Mode
	// Mode switch always resets the prompt to the mode default, wiping
	// any user customization
	session.SystemPrompt = s.defaultPromptFor(req.Mode)
	s.sessionRepo.Save(session)

	s.logger.Info("AssistantService", "Mode changed", map[string]interface{}{
		"session_id": session.ID,
		"mode":       session.Mode,
	})
	return promptStateOf(session), nil
}

func (s *assistantService) SetSystemPrompt(ctx context.Context, req *dto.SetSystemPromptRequest) error {
	session := s.getOrCreateSession(req.SessionId)
	session.SystemPrompt = req.SystemPrompt
	s.sessionRepo.Save(session)
	return nil
}

func (s *assistantService) PromptState(ctx context.Context, sessionId string) (*dto.PromptState, error) {
	return promptStateOf(s.getOrCreateSession(sessionId)), nil
}

// UploadFiles ingests files, replacing any previously ingested document
// with the same display name. The old records are deleted before the
// new ingest call; a failure in between leaves a partially-replaced
// store, which callers accept.
func (s *assistantService) UploadFiles(ctx context.Context, sessionId string, items []dto.IngestItem) (*dto.UploadFilesResponse, error) {
	incoming := make(map[string]struct{}, len(items))
	for i := range items {
		if items[i].FileName == "" {
			items[i].FileName = filepath.Base(items[i].Path)
		}
		incoming[items[i].FileName] = struct{}{}
	}

	existing, err := s.ingestService.ListIngested(ctx)
	if err != nil {
		return nil, err
	}

	replaced := 0
	for _, doc := range existing {
		name := doc.FileName("")
		if name == "" {
			continue
		}
		if _, match := incoming[name]; !match {
			continue
		}
		if err := s.ingestService.Delete(ctx, doc.Id); err != nil {
			return nil, err
		}
		replaced++
	}

	docs, err := s.ingestService.BulkIngest(ctx, items)
	if err != nil {
		return nil, err
	}

	resp := &dto.UploadFilesResponse{Replaced: replaced}
	for _, doc := range docs {
		resp.DocIds = append(resp.DocIds, doc.Id)
	}

	s.logger.Info("AssistantService", "Files uploaded", map[string]interface{}{
		"files":    len(items),
		"replaced": replaced,
		"records":  len(docs),
	})
	return resp, nil
}

func (s *assistantService) DeleteAllFiles(ctx context.Context, sessionId string) (*dto.SelectionState, error) {
	docs, err := s.ingestService.ListIngested(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := s.ingestService.Delete(ctx, doc.Id); err != nil {
			return nil, err
		}
	}
	return s.clearSelection(sessionId), nil
}

func (s *assistantService) DeleteSelectedFile(ctx context.Context, sessionId string) (*dto.SelectionState, error) {
	session := s.getOrCreateSession(sessionId)
	if session.SelectedFile == "" {
		return selectionStateOf(session), nil
	}

	docs, err := s.ingestService.ListIngested(ctx)
	if err != nil {
		return nil, err
	}
	// One display name can span several records (one per page)
	for _, doc := range docs {
		if doc.FileName("") != session.SelectedFile {
			continue
		}
		if err := s.ingestService.Delete(ctx, doc.Id); err != nil {
			return nil, err
		}
	}
	return s.clearSelection(sessionId), nil
}

func (s *assistantService) ListFiles(ctx context.Context) (*dto.ListFilesResponse, error) {
	docs, err := s.ingestService.ListIngested(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(docs))
	resp := &dto.ListFilesResponse{Files: [][]string{}}
	for _, doc := range docs {
		if doc.DocMetadata == nil {
			continue
		}
		name := doc.FileName(constant.FileNameMissingValue)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		resp.Files = append(resp.Files, []string{name})
	}
	return resp, nil
}

func (s *assistantService) SelectFile(ctx context.Context, req *dto.SelectFileRequest) (*dto.SelectionState, error) {
	session := s.getOrCreateSession(req.SessionId)
	session.SelectedFile = req.FileName
	s.sessionRepo.Save(session)
	return selectionStateOf(session), nil
}

func (s *assistantService) DeselectFile(ctx context.Context, sessionId string) (*dto.SelectionState, error) {
	return s.clearSelection(sessionId), nil
}

// resolveContextFilter maps the selected display name to the set of
// backend document ids carrying that file_name. No selection, or a name
// with no surviving records, degrades to nil, meaning the query runs
// over every document. A listing failure is a backend failure and
// surfaces to the caller.
func (s *assistantService) resolveContextFilter(ctx context.Context, session *store.AssistantSession) (*dto.ContextFilter, error) {
	if session.SelectedFile == "" {
		return nil, nil
	}

	docs, err := s.ingestService.ListIngested(ctx)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, doc := range docs {
		if doc.FileName("") == session.SelectedFile {
			ids = append(ids, doc.Id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &dto.ContextFilter{DocIds: ids}, nil
}

func (s *assistantService) getOrCreateSession(sessionId string) *store.AssistantSession {
	if sessionId == "" {
		sessionId = constant.DefaultAssistantSession
	}
	if session, found := s.sessionRepo.Get(sessionId); found {
		return session
	}

	session := &store.AssistantSession{
		ID:           sessionId,
		Mode:         constant.ModeQueryFiles,
		SystemPrompt: s.defaultPromptFor(constant.ModeQueryFiles),
	}
	s.sessionRepo.Save(session)
	return session
}

func (s *assistantService) clearSelection(sessionId string) *dto.SelectionState {
	session := s.getOrCreateSession(sessionId)
	session.SelectedFile = ""
	s.sessionRepo.Save(session)
	return selectionStateOf(session)
}

func (s *assistantService) defaultPromptFor(mode string) string {
	switch mode {
	case constant.ModeLLMChat:
		return s.prompts.LLMChatPrompt
	case constant.ModeSearchFiles:
		return ""
	default:
		return s.prompts.QueryFilesPrompt
	}
}

func promptStateOf(session *store.AssistantSession) *dto.PromptState {
	return &dto.PromptState{
		SystemPrompt: session.SystemPrompt,
		Editable:     session.SystemPrompt != "",
	}
}

func selectionStateOf(session *store.AssistantSession) *dto.SelectionState {
	label := constant.AllFilesSelectionLabel
	if session.SelectedFile != "" {
		label = session.SelectedFile
	}
	return &dto.SelectionState{
		CanDeleteSelected: session.SelectedFile != "",
		CanDeselect:       session.SelectedFile != "",
		Label:             label,
	}
}

func userMessage(text string) llm.Message {
	return llm.Message{Role: constant.ChatMessageRoleUser, Content: text}
}
