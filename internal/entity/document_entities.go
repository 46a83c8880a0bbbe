package entity

import (
	"time"

	"github.com/google/uuid"
)

// IngestedDocument is the store's view of one ingested document record.
// A multi-page file produces several records, one per page, all sharing
// the same file_name metadata. DocMetadata may be nil for records
// ingested without metadata.
type IngestedDocument struct {
	Id          uuid.UUID
	DocMetadata map[string]interface{}
}

// FileName returns the display file name from the record metadata, or
// the given fallback when the metadata or the key is absent.
func (d *IngestedDocument) FileName(fallback string) string {
	if d.DocMetadata == nil {
		return fallback
	}
	if name, ok := d.DocMetadata["file_name"].(string); ok && name != "" {
		return name
	}
	return fallback
}

// DocumentChunk is one searchable fragment of an ingested document.
type DocumentChunk struct {
	Id             uuid.UUID
	DocId          uuid.UUID
	ChunkIndex     int
	Text           string
	DocMetadata    map[string]interface{}
	EmbeddingValue []float32 // nil until the embedding consumer has run
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// FileName returns the display file name from the chunk metadata, or the
// given fallback when the metadata or the key is absent.
func (c *DocumentChunk) FileName(fallback string) string {
	if c.DocMetadata == nil {
		return fallback
	}
	if name, ok := c.DocMetadata["file_name"].(string); ok && name != "" {
		return name
	}
	return fallback
}
