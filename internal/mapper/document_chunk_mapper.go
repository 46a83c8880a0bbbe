package mapper

import (
	"time"

	"doc-assistant-be/internal/entity"
	"doc-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var embedding []float32
	if c.EmbeddingValue != nil {
		embedding = c.EmbeddingValue.Slice()
	}

	return &entity.DocumentChunk{
		Id:             c.Id,
		DocId:          c.DocId,
		ChunkIndex:     c.ChunkIndex,
		Text:           c.Text,
		DocMetadata:    c.DocMetadata,
		EmbeddingValue: embedding,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      c.DeletedAt.Valid,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var embedding *pgvector.Vector
	if c.EmbeddingValue != nil {
		v := pgvector.NewVector(c.EmbeddingValue)
		embedding = &v
	}

	return &model.DocumentChunk{
		Id:             c.Id,
		DocId:          c.DocId,
		ChunkIndex:     c.ChunkIndex,
		Text:           c.Text,
		DocMetadata:    datatypes.JSONMap(c.DocMetadata),
		EmbeddingValue: embedding,
		CreatedAt:      c.CreatedAt,
		DeletedAt:      deletedAt,
	}
}
