package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/entity"
	"doc-assistant-be/internal/repository/memory"
	"doc-assistant-be/pkg/llm"
	streampkg "doc-assistant-be/pkg/rag/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeIngestService is an in-memory document store.
type fakeIngestService struct {
	docs    []*entity.IngestedDocument
	deleted []uuid.UUID
	listErr error
}

func (f *fakeIngestService) ListIngested(ctx context.Context) ([]*entity.IngestedDocument, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*entity.IngestedDocument, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeIngestService) Delete(ctx context.Context, docId uuid.UUID) error {
	f.deleted = append(f.deleted, docId)
	kept := f.docs[:0]
	for _, d := range f.docs {
		if d.Id != docId {
			kept = append(kept, d)
		}
	}
	f.docs = kept
	return nil
}

func (f *fakeIngestService) BulkIngest(ctx context.Context, items []dto.IngestItem) ([]*entity.IngestedDocument, error) {
	var created []*entity.IngestedDocument
	for _, item := range items {
		doc := &entity.IngestedDocument{
			Id: uuid.New(),
			DocMetadata: map[string]interface{}{
				constant.MetadataFileNameKey:  item.FileName,
				constant.MetadataPageLabelKey: "1",
			},
		}
		f.docs = append(f.docs, doc)
		created = append(created, doc)
	}
	return created, nil
}

type fakeChunksService struct {
	results   []dto.ChunkResult
	lastText  string
	lastLimit int
}

func (f *fakeChunksService) RetrieveRelevant(ctx context.Context, text string, limit, prevNextChunks int, filter *dto.ContextFilter) ([]dto.ChunkResult, error) {
	f.lastText = text
	f.lastLimit = limit
	return f.results, nil
}

type fakeChatService struct {
	deltas []string

	gotMessages   []llm.Message
	gotUseContext bool
	gotFilter     *dto.ContextFilter
	retrieved     []dto.ChunkResult
}

func (f *fakeChatService) StreamChat(ctx context.Context, messages []llm.Message, useContext bool, filter *dto.ContextFilter) (*llm.Stream, []dto.ChunkResult, error) {
	f.gotMessages = messages
	f.gotUseContext = useContext
	f.gotFilter = filter

	deltas := make([]llm.Delta, len(f.deltas))
	for i, d := range f.deltas {
		deltas[i] = llm.TextDelta(d)
	}
	return llm.StreamFromDeltas(deltas...), f.retrieved, nil
}

func newTestAssistant(ingest *fakeIngestService, chunks *fakeChunksService, chat *fakeChatService) IAssistantService {
	return NewAssistantService(
		memory.NewSessionRepository(),
		ingest,
		chunks,
		chat,
		PromptSettings{
			QueryFilesPrompt: constant.DefaultQuerySystemPromptV1,
			LLMChatPrompt:    constant.DefaultChatSystemPromptV1,
		},
		noopLogger{},
	)
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func drain(t *testing.T, s streampkg.Snapshots) []string {
	t.Helper()
	var out []string
	for s.Next() {
		out = append(out, s.Text())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("snapshot sequence failed: %v", err)
	}
	return out
}

func docWithName(name string) *entity.IngestedDocument {
	return &entity.IngestedDocument{
		Id: uuid.New(),
		DocMetadata: map[string]interface{}{
			constant.MetadataFileNameKey: name,
		},
	}
}

func TestUploadReplacesSameNamedDocument(t *testing.T) {
	ingest := &fakeIngestService{}
	oldPage1 := docWithName("x.pdf")
	oldPage2 := docWithName("x.pdf")
	other := docWithName("other.pdf")
	ingest.docs = []*entity.IngestedDocument{oldPage1, oldPage2, other}

	svc := newTestAssistant(ingest, &fakeChunksService{}, &fakeChatService{})

	resp, err := svc.UploadFiles(context.Background(), "", []dto.IngestItem{
		{FileName: "x.pdf", Path: "/tmp/x.pdf"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Replaced)
	assert.Len(t, resp.DocIds, 1)

	// Exactly one record set for x.pdf remains, plus the untouched other doc
	names := map[string]int{}
	for _, d := range ingest.docs {
		names[d.FileName("")]++
	}
	assert.Equal(t, 1, names["x.pdf"])
	assert.Equal(t, 1, names["other.pdf"])
	assert.ElementsMatch(t, []uuid.UUID{oldPage1.Id, oldPage2.Id}, ingest.deleted)
}

func TestSetModeSearchFilesDisablesPrompt(t *testing.T) {
	svc := newTestAssistant(&fakeIngestService{}, &fakeChunksService{}, &fakeChatService{})
	ctx := context.Background()

	// Customize the prompt first; the switch must still wipe it
	err := svc.SetSystemPrompt(ctx, &dto.SetSystemPromptRequest{SystemPrompt: "custom prompt"})
	assert.NoError(t, err)

	state, err := svc.SetMode(ctx, &dto.SetModeRequest{Mode: constant.ModeSearchFiles})
	assert.NoError(t, err)
	assert.Empty(t, state.SystemPrompt)
	assert.False(t, state.Editable)
}

func TestSetModeResetsPromptToModeDefault(t *testing.T) {
	svc := newTestAssistant(&fakeIngestService{}, &fakeChunksService{}, &fakeChatService{})
	ctx := context.Background()

	_ = svc.SetSystemPrompt(ctx, &dto.SetSystemPromptRequest{SystemPrompt: "custom"})

	state, err := svc.SetMode(ctx, &dto.SetModeRequest{Mode: constant.ModeLLMChat})
	assert.NoError(t, err)
	assert.Equal(t, constant.DefaultChatSystemPromptV1, state.SystemPrompt)
	assert.True(t, state.Editable)
}

func TestSubmitTurnQueryFilesEndToEnd(t *testing.T) {
	chat := &fakeChatService{deltas: []string{"Hel", "lo", ""}}
	svc := newTestAssistant(&fakeIngestService{}, &fakeChunksService{}, chat)
	ctx := context.Background()

	// Clear the default prompt so the transcript expansion is visible
	_ = svc.SetSystemPrompt(ctx, &dto.SetSystemPromptRequest{SystemPrompt: ""})

	snapshots, err := svc.SubmitTurn(ctx, &dto.ChatTurnRequest{
		Message: "What is X?",
		History: [][2]string{
			{"Hi", "Hello world" + constant.SourcesSeparator + "1. doc.pdf"},
		},
	})
	assert.NoError(t, err)

	assert.True(t, chat.gotUseContext)
	assert.Nil(t, chat.gotFilter)
	assert.Equal(t, []llm.Message{
		{Role: constant.ChatMessageRoleUser, Content: "Hi"},
		{Role: constant.ChatMessageRoleAssistant, Content: "Hello world"},
		{Role: constant.ChatMessageRoleUser, Content: "What is X?"},
	}, chat.gotMessages)

	emitted := drain(t, snapshots)
	assert.Equal(t, []string{"Hel", "Hello", "Hello"}, emitted)
}

func TestSubmitTurnAppendsSourcesAfterStream(t *testing.T) {
	chat := &fakeChatService{
		deltas: []string{"Answer"},
		retrieved: []dto.ChunkResult{
			{
				DocMetadata: map[string]interface{}{
					constant.MetadataFileNameKey:  "doc.pdf",
					constant.MetadataPageLabelKey: "3",
				},
				Text: "evidence",
			},
		},
	}
	svc := newTestAssistant(&fakeIngestService{}, &fakeChunksService{}, chat)

	snapshots, err := svc.SubmitTurn(context.Background(), &dto.ChatTurnRequest{Message: "q"})
	assert.NoError(t, err)

	emitted := drain(t, snapshots)
	final := emitted[len(emitted)-1]
	assert.True(t, strings.HasPrefix(final, "Answer"+constant.SourcesSeparator))
	assert.Contains(t, final, "1. doc.pdf (page 3)")
}

func TestSubmitTurnSearchFilesSingleFormattedOutput(t *testing.T) {
	chunks := &fakeChunksService{
		results: []dto.ChunkResult{
			{
				DocMetadata: map[string]interface{}{
					constant.MetadataFileNameKey:  "a.pdf",
					constant.MetadataPageLabelKey: "2",
				},
				Text: "first snippet",
			},
			{
				DocMetadata: map[string]interface{}{
					constant.MetadataFileNameKey:  "b.pdf",
					constant.MetadataPageLabelKey: "5",
				},
				Text: "second snippet",
			},
		},
	}
	svc := newTestAssistant(&fakeIngestService{}, chunks, &fakeChatService{})
	ctx := context.Background()

	_, err := svc.SetMode(ctx, &dto.SetModeRequest{Mode: constant.ModeSearchFiles})
	assert.NoError(t, err)

	snapshots, err := svc.SubmitTurn(ctx, &dto.ChatTurnRequest{Message: "find it"})
	assert.NoError(t, err)

	emitted := drain(t, snapshots)
	assert.Len(t, emitted, 1)
	assert.Equal(t,
		"1. **a.pdf (page 2)**\n first snippet\n\n\n2. **b.pdf (page 5)**\n second snippet",
		emitted[0])

	assert.Equal(t, "find it", chunks.lastText)
	assert.Equal(t, constant.SearchResultLimit, chunks.lastLimit)
}

func TestSubmitTurnUsesSelectionFilter(t *testing.T) {
	ingest := &fakeIngestService{}
	page1 := docWithName("a.pdf")
	page2 := docWithName("a.pdf")
	ingest.docs = []*entity.IngestedDocument{page1, page2, docWithName("b.pdf")}

	chat := &fakeChatService{deltas: []string{"ok"}}
	svc := newTestAssistant(ingest, &fakeChunksService{}, chat)
	ctx := context.Background()

	_, err := svc.SelectFile(ctx, &dto.SelectFileRequest{FileName: "a.pdf"})
	assert.NoError(t, err)

	snapshots, err := svc.SubmitTurn(ctx, &dto.ChatTurnRequest{Message: "q"})
	assert.NoError(t, err)
	drain(t, snapshots)

	assert.NotNil(t, chat.gotFilter)
	assert.ElementsMatch(t, []uuid.UUID{page1.Id, page2.Id}, chat.gotFilter.DocIds)
}

func TestSubmitTurnPropagatesFilterResolutionError(t *testing.T) {
	ingest := &fakeIngestService{listErr: errors.New("store unreachable")}
	chat := &fakeChatService{deltas: []string{"ok"}}
	svc := newTestAssistant(ingest, &fakeChunksService{}, chat)
	ctx := context.Background()

	_, err := svc.SelectFile(ctx, &dto.SelectFileRequest{FileName: "a.pdf"})
	assert.NoError(t, err)

	_, err = svc.SubmitTurn(ctx, &dto.ChatTurnRequest{Message: "q"})
	assert.ErrorContains(t, err, "store unreachable")
	// The turn must not run unfiltered when resolution failed
	assert.Nil(t, chat.gotMessages)
}

func TestSubmitTurnSelectionOfMissingFileDegradesToAllDocuments(t *testing.T) {
	ingest := &fakeIngestService{docs: []*entity.IngestedDocument{docWithName("b.pdf")}}
	chat := &fakeChatService{deltas: []string{"ok"}}
	svc := newTestAssistant(ingest, &fakeChunksService{}, chat)
	ctx := context.Background()

	_, err := svc.SelectFile(ctx, &dto.SelectFileRequest{FileName: "gone.pdf"})
	assert.NoError(t, err)

	snapshots, err := svc.SubmitTurn(ctx, &dto.ChatTurnRequest{Message: "q"})
	assert.NoError(t, err)
	drain(t, snapshots)

	assert.Nil(t, chat.gotFilter)
}

func TestDeleteSelectedRemovesEveryRecordOfFile(t *testing.T) {
	ingest := &fakeIngestService{}
	page1 := docWithName("multi.pdf")
	page2 := docWithName("multi.pdf")
	keep := docWithName("keep.pdf")
	ingest.docs = []*entity.IngestedDocument{page1, page2, keep}

	svc := newTestAssistant(ingest, &fakeChunksService{}, &fakeChatService{})
	ctx := context.Background()

	_, err := svc.SelectFile(ctx, &dto.SelectFileRequest{FileName: "multi.pdf"})
	assert.NoError(t, err)

	state, err := svc.DeleteSelectedFile(ctx, "")
	assert.NoError(t, err)

	assert.ElementsMatch(t, []uuid.UUID{page1.Id, page2.Id}, ingest.deleted)
	assert.Len(t, ingest.docs, 1)
	assert.Equal(t, "keep.pdf", ingest.docs[0].FileName(""))

	assert.False(t, state.CanDeleteSelected)
	assert.False(t, state.CanDeselect)
	assert.Equal(t, constant.AllFilesSelectionLabel, state.Label)
}

func TestDeleteAllFilesClearsStoreAndSelection(t *testing.T) {
	ingest := &fakeIngestService{docs: []*entity.IngestedDocument{
		docWithName("a.pdf"), docWithName("b.pdf"),
	}}
	svc := newTestAssistant(ingest, &fakeChunksService{}, &fakeChatService{})
	ctx := context.Background()

	_, err := svc.SelectFile(ctx, &dto.SelectFileRequest{FileName: "a.pdf"})
	assert.NoError(t, err)

	state, err := svc.DeleteAllFiles(ctx, "")
	assert.NoError(t, err)
	assert.Empty(t, ingest.docs)
	assert.False(t, state.CanDeselect)
	assert.Equal(t, constant.AllFilesSelectionLabel, state.Label)
}

func TestListFilesDistinctNamesSkippingNilMetadata(t *testing.T) {
	ingest := &fakeIngestService{docs: []*entity.IngestedDocument{
		docWithName("a.pdf"),
		docWithName("a.pdf"),
		docWithName("b.pdf"),
		{Id: uuid.New()}, // no metadata, skipped
	}}
	svc := newTestAssistant(ingest, &fakeChunksService{}, &fakeChatService{})

	resp, err := svc.ListFiles(context.Background())
	assert.NoError(t, err)
	assert.ElementsMatch(t, [][]string{{"a.pdf"}, {"b.pdf"}}, resp.Files)
}

func TestSelectFileEnablesSelectionControls(t *testing.T) {
	svc := newTestAssistant(&fakeIngestService{}, &fakeChunksService{}, &fakeChatService{})
	ctx := context.Background()

	state, err := svc.SelectFile(ctx, &dto.SelectFileRequest{FileName: "a.pdf"})
	assert.NoError(t, err)
	assert.True(t, state.CanDeleteSelected)
	assert.True(t, state.CanDeselect)
	assert.Equal(t, "a.pdf", state.Label)

	state, err = svc.DeselectFile(ctx, "")
	assert.NoError(t, err)
	assert.False(t, state.CanDeleteSelected)
	assert.Equal(t, constant.AllFilesSelectionLabel, state.Label)
}

func TestSubmitTurnLLMChatSkipsContext(t *testing.T) {
	chat := &fakeChatService{deltas: []string{"plain"}}
	svc := newTestAssistant(&fakeIngestService{}, &fakeChunksService{}, chat)
	ctx := context.Background()

	_, err := svc.SetMode(ctx, &dto.SetModeRequest{Mode: constant.ModeLLMChat})
	assert.NoError(t, err)

	snapshots, err := svc.SubmitTurn(ctx, &dto.ChatTurnRequest{Message: "hi"})
	assert.NoError(t, err)
	drain(t, snapshots)

	assert.False(t, chat.gotUseContext)
	assert.Nil(t, chat.gotFilter)
	// Chat default prompt rides along as the system message
	assert.Equal(t, constant.ChatMessageRoleSystem, chat.gotMessages[0].Role)
	assert.Equal(t, constant.DefaultChatSystemPromptV1, chat.gotMessages[0].Content)
}
