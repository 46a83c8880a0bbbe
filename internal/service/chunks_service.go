package service

import (
	"context"

	"doc-assistant-be/internal/dto"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/internal/repository/specification"
	"doc-assistant-be/internal/repository/unitofwork"
	"doc-assistant-be/pkg/embedding"

	"github.com/google/uuid"
)

// IChunksService retrieves the chunks most relevant to a text, ranked by
// vector similarity. prevNextChunks widens each hit with that many
// neighbors on both sides of the source document.
type IChunksService interface {
	RetrieveRelevant(ctx context.Context, text string, limit, prevNextChunks int, filter *dto.ContextFilter) ([]dto.ChunkResult, error)
}

type chunksService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewChunksService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IChunksService {
	return &chunksService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *chunksService) RetrieveRelevant(ctx context.Context, text string, limit, prevNextChunks int, filter *dto.ContextFilter) ([]dto.ChunkResult, error) {
	resp, err := s.embeddingProvider.Generate(text, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	var docIds []uuid.UUID
	if filter != nil {
		docIds = filter.DocIds
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentChunkRepository()

	scored, err := repo.SearchSimilar(ctx, resp.Embedding.Values, limit, docIds)
	if err != nil {
		return nil, err
	}

	results := make([]dto.ChunkResult, 0, len(scored))
	for _, hit := range scored {
		text := hit.Chunk.Text
		if prevNextChunks > 0 {
			text = s.expandWithNeighbors(ctx, uow, hit.Chunk.DocId, hit.Chunk.ChunkIndex, prevNextChunks, text)
		}
		results = append(results, dto.ChunkResult{
			DocId:       hit.Chunk.DocId,
			DocMetadata: hit.Chunk.DocMetadata,
			Text:        text,
			Score:       hit.Similarity,
		})
	}

	s.logger.Debug("ChunksService", "Retrieved relevant chunks", map[string]interface{}{
		"count": len(results),
		"limit": limit,
	})
	return results, nil
}

// expandWithNeighbors stitches the window of surrounding chunks around a
// hit into one passage. Falls back to the hit text alone on lookup failure.
func (s *chunksService) expandWithNeighbors(ctx context.Context, uow unitofwork.UnitOfWork, docId uuid.UUID, chunkIndex, window int, fallback string) string {
	from := chunkIndex - window
	if from < 0 {
		from = 0
	}
	neighbors, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByChunkIndexRange{DocID: docId, From: from, To: chunkIndex + window},
		specification.OrderBy{Field: "chunk_index"},
	)
	if err != nil || len(neighbors) == 0 {
		if err != nil {
			s.logger.Warn("ChunksService", "Neighbor expansion failed", map[string]interface{}{
				"doc_id": docId,
				"error":  err.Error(),
			})
		}
		return fallback
	}

	joined := ""
	for i, n := range neighbors {
		if i > 0 {
			joined += "\n"
		}
		joined += n.Text
	}
	return joined
}
