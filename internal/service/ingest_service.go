package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/entity"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/pkg/events"
	pktNats "doc-assistant-be/pkg/nats"
	"doc-assistant-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

// IIngestService is the document store boundary: every ingested record
// is addressable by id and carries file_name/page_label metadata. A
// multi-page file yields one record per page.
type IIngestService interface {
	ListIngested(ctx context.Context) ([]*entity.IngestedDocument, error)
	Delete(ctx context.Context, docId uuid.UUID) error
	BulkIngest(ctx context.Context, items []dto.IngestItem) ([]*entity.IngestedDocument, error)
}

type ingestService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *ingestService) ListIngested(ctx context.Context) ([]*entity.IngestedDocument, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentChunkRepository().ListDocuments(ctx)
}

func (s *ingestService) Delete(ctx context.Context, docId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentChunkRepository().DeleteByDocId(ctx, docId); err != nil {
		return err
	}

	s.publishLifecycleEvent(ctx, events.TypeDocumentDeleted, map[string]interface{}{
		"doc_id": docId,
	})
	return nil
}

// BulkIngest stores the given files as document records. Pages are
// delimited by form feed; each page becomes its own record so that
// page-level deletion and citations keep working for multi-page files.
func (s *ingestService) BulkIngest(ctx context.Context, items []dto.IngestItem) ([]*entity.IngestedDocument, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var docs []*entity.IngestedDocument
	var allChunks []*entity.DocumentChunk
	now := time.Now()

	for _, item := range items {
		content, err := os.ReadFile(item.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", item.Path, err)
		}

		for pageIdx, pageText := range splitPages(string(content)) {
			docId := uuid.New()
			metadata := map[string]interface{}{
				constant.MetadataFileNameKey:  item.FileName,
				constant.MetadataPageLabelKey: strconv.Itoa(pageIdx + 1),
			}

			for chunkIdx, chunkText := range utils.SplitText(pageText, chunkSize, chunkOverlap) {
				allChunks = append(allChunks, &entity.DocumentChunk{
					Id:          uuid.New(),
					DocId:       docId,
					ChunkIndex:  chunkIdx,
					Text:        chunkText,
					DocMetadata: metadata,
					CreatedAt:   now,
				})
			}

			docs = append(docs, &entity.IngestedDocument{
				Id:          docId,
				DocMetadata: metadata,
			})
		}
	}

	if len(allChunks) == 0 {
		return docs, nil
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, allChunks); err != nil {
		return nil, err
	}

	// Queue one embed job per document record; the consumer fills the
	// vector column afterwards
	for _, doc := range docs {
		payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocId: doc.Id})
		if err != nil {
			return nil, err
		}
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			return nil, err
		}

		s.publishLifecycleEvent(ctx, events.TypeDocumentIngested, map[string]interface{}{
			"doc_id":    doc.Id,
			"file_name": doc.FileName(constant.FileNameMissingValue),
		})
	}

	return docs, nil
}

func (s *ingestService) publishLifecycleEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// Lifecycle events are auxiliary; the ingest call does not fail on them
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("IngestService", "Failed to publish lifecycle event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func splitPages(content string) []string {
	var pages []string
	for _, page := range strings.Split(content, "\f") {
		if strings.TrimSpace(page) != "" {
			pages = append(pages, page)
		}
	}
	if len(pages) == 0 {
		pages = []string{content}
	}
	return pages
}
