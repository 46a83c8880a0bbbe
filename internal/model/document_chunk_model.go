package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocId          uuid.UUID         `gorm:"type:uuid;not null;index"`
	ChunkIndex     int               `gorm:"default:0"` // 0-based position inside the document
	Text           string            `gorm:"type:text"`
	DocMetadata    datatypes.JSONMap `gorm:"type:jsonb"`
	EmbeddingValue *pgvector.Vector  `gorm:"type:vector(768)"` // filled asynchronously by the embed consumer
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt    `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
