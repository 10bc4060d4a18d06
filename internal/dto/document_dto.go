package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
}

type ShowDocumentResponse struct {
	Id        uuid.UUID  `json:"id"`
	Filename  string     `json:"filename"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ChatDocumentsResponse struct {
	Documents []ShowDocumentResponse `json:"documents"`
}

// IngestDocumentMessage is the payload handed from the upload path to the
// ingestion consumer over the message router.
type IngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
