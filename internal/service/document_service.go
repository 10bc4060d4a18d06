package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/entity"
	"docuchat-be/internal/repository/specification"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/pkg/store"

	"github.com/google/uuid"
)

type IDocumentService interface {
	// Upload registers the parsed document for a chat and enqueues it for
	// ingestion. It returns immediately; chunking and embedding happen on
	// the consumer.
	Upload(ctx context.Context, userId, chatId, filename string, content []byte) (*dto.UploadDocumentResponse, error)
	Show(ctx context.Context, userId, chatId string, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	ListByChat(ctx context.Context, userId, chatId string) (*dto.ChatDocumentsResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

// parsePages splits uploaded text into pages on form-feed boundaries, the
// marker most text extractors emit between pages. Content without form feeds
// becomes a single page labeled "1".
func parsePages(content []byte) []entity.Page {
	text := string(content)
	parts := strings.Split(text, "\f")

	pages := make([]entity.Page, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pages = append(pages, entity.Page{
			Label: strconv.Itoa(i + 1),
			Text:  part,
		})
	}
	return pages
}

func (s *documentService) Upload(ctx context.Context, userId, chatId, filename string, content []byte) (*dto.UploadDocumentResponse, error) {
	scope := store.TenantScope{UserId: userId, ChatId: chatId}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	pages := parsePages(content)
	if len(pages) == 0 {
		return nil, fmt.Errorf("document %s contains no extractable text", filename)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	document := entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		ChatId:    chatId,
		Filename:  filename,
		Status:    store.DocumentStatusProcessing,
		RawText:   string(content),
		Pages:     pages,
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	msgPayload := dto.IngestDocumentMessage{
		DocumentId: document.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	return &dto.UploadDocumentResponse{
		DocumentId: document.Id,
		Status:     document.Status,
	}, nil
}

func (s *documentService) Show(ctx context.Context, userId, chatId string, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	scope := store.TenantScope{UserId: userId, ChatId: chatId}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByTenant{UserId: userId, ChatId: chatId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	return toShowDocumentResponse(document), nil
}

func (s *documentService) ListByChat(ctx context.Context, userId, chatId string) (*dto.ChatDocumentsResponse, error) {
	scope := store.TenantScope{UserId: userId, ChatId: chatId}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OwnedByTenant{UserId: userId, ChatId: chatId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	resp := &dto.ChatDocumentsResponse{
		Documents: make([]dto.ShowDocumentResponse, len(documents)),
	}
	for i, document := range documents {
		resp.Documents[i] = *toShowDocumentResponse(document)
	}
	return resp, nil
}

func toShowDocumentResponse(document *entity.Document) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:        document.Id,
		Filename:  document.Filename,
		Status:    document.Status,
		CreatedAt: document.CreatedAt,
		UpdatedAt: document.UpdatedAt,
	}
}
