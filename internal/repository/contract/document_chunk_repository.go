package contract

import (
	"context"

	"doc-assistant-be/internal/entity"
	"doc-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredDocumentChunk wraps a chunk with its similarity score
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	DeleteByDocId(ctx context.Context, docId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ListDocuments returns one record per distinct doc_id with its metadata.
	ListDocuments(ctx context.Context) ([]*entity.IngestedDocument, error)

	// SearchSimilar runs a cosine similarity search over embedded chunks.
	// An empty docIds slice means no document restriction.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, docIds []uuid.UUID) ([]*ScoredDocumentChunk, error)
}
