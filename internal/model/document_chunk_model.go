package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Text           string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 / nomic-embed-text use 768 dimensions
	UserId         string          `gorm:"type:text;not null;index:idx_document_chunks_scope"`
	ChatId         string          `gorm:"type:text;not null;index:idx_document_chunks_scope"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index:idx_document_chunks_scope"`
	PageLabel      string          `gorm:"type:text"`
	ChunkIndex     int             `gorm:"default:0"` // 0-based index for ordering
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
