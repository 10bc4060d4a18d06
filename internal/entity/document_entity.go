package entity

import (
	"time"

	"github.com/google/uuid"
)

// Page is a parsed page of an uploaded document, kept so the ingestion
// consumer can label chunks with their page of origin.
type Page struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type Document struct {
	Id         uuid.UUID
	UserId     string
	ChatId     string
	Filename   string
	Status     string
	RawText    string
	Pages      []Page
	StorageRef string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
