package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id             uuid.UUID
	Text           string
	EmbeddingValue []float32
	UserId         string
	ChatId         string
	DocumentId     uuid.UUID
	PageLabel      string
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
