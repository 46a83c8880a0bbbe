package service

import (
	"context"
	"encoding/json"
	"time"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/internal/repository/specification"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/pkg/embedding"
	"doc-assistant-be/pkg/events"
	pktNats "doc-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains embed jobs from the in-process bus. Chunks are
// already persisted when a job arrives; this worker computes their
// vectors so similarity search can see them.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal embed job", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", "Processing document embedding", map[string]interface{}{"doc_id": payload.DocId})

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocID{DocID: payload.DocId},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load chunks", map[string]interface{}{
			"doc_id": payload.DocId,
			"error":  err.Error(),
		})
		msg.Nack()
		return
	}
	if len(chunks) == 0 {
		// Document deleted between enqueue and processing
		cs.logger.Warn("ConsumerService", "No chunks found for document", map[string]interface{}{"doc_id": payload.DocId})
		msg.Ack()
		return
	}

	type embedded struct {
		chunkId uuid.UUID
		vector  []float32
	}
	embeddings := make([]embedded, 0, len(chunks))
	for _, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk.Text, "RETRIEVAL_DOCUMENT")
		if err != nil {
			cs.logger.Error("ConsumerService", "Failed to generate embedding", map[string]interface{}{
				"doc_id":      payload.DocId,
				"chunk_index": chunk.ChunkIndex,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}
		embeddings = append(embeddings, embedded{
			chunkId: chunk.Id,
			vector:  res.Embedding.Values,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("ConsumerService", "Failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	for _, e := range embeddings {
		if err := uow.DocumentChunkRepository().UpdateEmbedding(ctx, e.chunkId, e.vector); err != nil {
			cs.logger.Error("ConsumerService", "Failed to store embedding", map[string]interface{}{
				"chunk_id": e.chunkId,
				"error":    err.Error(),
			})
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("ConsumerService", "Failed to commit transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	cs.logger.Info("ConsumerService", "Document embedded", map[string]interface{}{
		"doc_id": payload.DocId,
		"chunks": len(embeddings),
	})

	fileName := chunks[0].FileName(constant.FileNameMissingValue)

	if cs.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeDocumentEmbedded,
			Data: map[string]interface{}{
				"doc_id":    payload.DocId,
				"file_name": fileName,
				"chunks":    len(embeddings),
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish embedded event", map[string]interface{}{"error": err.Error()})
		}
	}

	msg.Ack()
}
