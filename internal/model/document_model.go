package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     string         `gorm:"type:text;not null;index:idx_documents_tenant"` // Tenant ownership for data isolation
	ChatId     string         `gorm:"type:text;not null;index:idx_documents_tenant"`
	Filename   string         `gorm:"type:text;not null"`
	Status     string         `gorm:"type:text;not null;default:processing"`
	RawText    string         `gorm:"type:text"` // Cached parsed text, chunked by the ingestion consumer
	Pages      datatypes.JSON `gorm:"type:jsonb"`
	StorageRef string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
