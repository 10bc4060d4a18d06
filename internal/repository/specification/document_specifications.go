package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedByTenant filters rows to a single (user, chat) pair. Every query that
// touches tenant data applies it; there is no cross-chat read path.
type OwnedByTenant struct {
	UserId string
	ChatId string
}

func (s OwnedByTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ? AND chat_id = ?", s.UserId, s.ChatId)
}

// ByStatus filters documents by ingestion status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByDocumentId filters chunks belonging to one document
type ByDocumentId struct {
	DocumentId uuid.UUID
}

func (s ByDocumentId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentId)
}
