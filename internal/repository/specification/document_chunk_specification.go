package specification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by primary key
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByDocID filters chunks belonging to one ingested document record
type ByDocID struct {
	DocID uuid.UUID
}

func (s ByDocID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_id = ?", s.DocID)
}

// ByDocIDs filters chunks belonging to any of the given documents
type ByDocIDs struct {
	DocIDs []uuid.UUID
}

func (s ByDocIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_id IN ?", s.DocIDs)
}

// ByFileName filters on the file_name metadata key
type ByFileName struct {
	FileName string
}

func (s ByFileName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_metadata ->> 'file_name' = ?", s.FileName)
}

// ByChunkIndexRange filters chunks of one document whose index falls
// inside [From, To], used to expand hits with neighboring chunks.
type ByChunkIndexRange struct {
	DocID uuid.UUID
	From  int
	To    int
}

func (s ByChunkIndexRange) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("doc_id = ? AND chunk_index BETWEEN ? AND ?", s.DocID, s.From, s.To)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination limits and offsets results
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
